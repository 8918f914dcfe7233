package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stockledger/internal/dto"
	"stockledger/internal/model"
	"stockledger/internal/repository"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────
// In-memory repositories. Services run with a nil *gorm.DB in tests, so every
// Tx method must tolerate tx == nil. The batch stub guards its state with a
// mutex because the concurrency tests hammer it from multiple goroutines.

type stubBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*model.Batch
	seqs    map[monthKey]int
}

type monthKey struct {
	year  int
	month time.Month
}

func newStubBatchRepo() *stubBatchRepo {
	return &stubBatchRepo{
		batches: make(map[uuid.UUID]*model.Batch),
		seqs:    make(map[monthKey]int),
	}
}

func (r *stubBatchRepo) Create(_ context.Context, _ *gorm.DB, b *model.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	cp := *b
	r.batches[b.ID] = &cp
	return nil
}

func (r *stubBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *stubBatchRepo) List(_ context.Context, filter repository.BatchFilter) ([]model.Batch, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Batch
	for _, b := range r.batches {
		if filter.ProductID != nil && b.ProductID != *filter.ProductID {
			continue
		}
		if filter.WarehouseID != nil && b.WarehouseID != *filter.WarehouseID {
			continue
		}
		if filter.Depleted == "true" && !b.Depleted {
			continue
		}
		if filter.Depleted == "false" && b.Depleted {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r *stubBatchRepo) ListEligibleTx(_ context.Context, _ *gorm.DB, productID, warehouseID uuid.UUID) ([]model.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Batch
	for _, b := range r.batches {
		if b.ProductID == productID && b.WarehouseID == warehouseID &&
			!b.Depleted && b.Remaining > 0 && b.Active {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *stubBatchRepo) DecrementTx(_ *gorm.DB, id uuid.UUID, take, expectedRemaining int, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if b.Remaining != expectedRemaining {
		return false, nil
	}
	b.Remaining -= take
	if b.Remaining == 0 {
		b.Depleted = true
		b.DepletedAt = &now
	}
	return true, nil
}

func (r *stubBatchRepo) RestoreTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.Remaining += qty
	b.Depleted = false
	b.DepletedAt = nil
	return nil
}

func (r *stubBatchRepo) NextBatchNumber(_ context.Context, _ *gorm.DB, t time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Month-scoped like batch_sequences: a new month restarts at 0001.
	k := monthKey{t.Year(), t.Month()}
	r.seqs[k]++
	return repository.FormatBatchNumber(t, r.seqs[k]), nil
}

func (r *stubBatchRepo) SumRemaining(_ context.Context, productID uuid.UUID, warehouseID *uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, b := range r.batches {
		if b.ProductID != productID || !b.Active {
			continue
		}
		if warehouseID != nil && b.WarehouseID != *warehouseID {
			continue
		}
		sum += b.Remaining
	}
	return sum, nil
}

func (r *stubBatchRepo) DB() *gorm.DB { return nil }

func (r *stubBatchRepo) get(id uuid.UUID) *model.Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.batches[id]
	return &cp
}

var _ repository.BatchRepository = (*stubBatchRepo)(nil)

type levelKey struct{ p, w uuid.UUID }

type stubLevelRepo struct {
	mu     sync.Mutex
	levels map[levelKey]*model.StockLevel
	drift  []repository.DriftRow
}

func newStubLevelRepo() *stubLevelRepo {
	return &stubLevelRepo{levels: make(map[levelKey]*model.StockLevel)}
}

func (r *stubLevelRepo) Find(_ context.Context, p, w uuid.UUID) (*model.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.levels[levelKey{p, w}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *stubLevelRepo) FindTx(ctx context.Context, _ *gorm.DB, p, w uuid.UUID) (*model.StockLevel, error) {
	return r.Find(ctx, p, w)
}

func (r *stubLevelRepo) CreateTx(_ *gorm.DB, l *model.StockLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	cp := *l
	r.levels[levelKey{l.ProductID, l.WarehouseID}] = &cp
	return nil
}

func (r *stubLevelRepo) SaveTx(_ *gorm.DB, l *model.StockLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.levels[levelKey{l.ProductID, l.WarehouseID}] = &cp
	return nil
}

func (r *stubLevelRepo) AdjustTx(_ *gorm.DB, p, w uuid.UUID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.levels[levelKey{p, w}]
	if !ok {
		return nil
	}
	l.Quantity += delta
	return nil
}

func (r *stubLevelRepo) List(_ context.Context, _ repository.StockLevelFilter) ([]model.StockLevel, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockLevel
	for _, l := range r.levels {
		out = append(out, *l)
	}
	return out, int64(len(out)), nil
}

func (r *stubLevelRepo) ListDrift(_ context.Context) ([]repository.DriftRow, error) {
	return r.drift, nil
}

var _ repository.StockLevelRepository = (*stubLevelRepo)(nil)

type stubMovementRepo struct {
	mu        sync.Mutex
	movements []model.StockMovement
}

func (r *stubMovementRepo) Create(_ context.Context, m *model.StockMovement) error {
	return r.CreateTx(nil, m)
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, filter repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.movements {
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *stubMovementRepo) byType(t string) []model.StockMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	for _, p := range r.products {
		if p.SKU == sku && p.Active {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Active = false
	return nil
}

var _ repository.ProductRepository = (*stubProductRepo)(nil)

type stubWarehouseRepo struct {
	warehouses map[uuid.UUID]*model.Warehouse
}

func newStubWarehouseRepo() *stubWarehouseRepo {
	return &stubWarehouseRepo{warehouses: make(map[uuid.UUID]*model.Warehouse)}
}

func (r *stubWarehouseRepo) Create(_ context.Context, w *model.Warehouse) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	r.warehouses[w.ID] = w
	return nil
}

func (r *stubWarehouseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Warehouse, error) {
	w, ok := r.warehouses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return w, nil
}

func (r *stubWarehouseRepo) List(_ context.Context, _ bool) ([]model.Warehouse, error) {
	var out []model.Warehouse
	for _, w := range r.warehouses {
		out = append(out, *w)
	}
	return out, nil
}

func (r *stubWarehouseRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	w, ok := r.warehouses[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	w.Active = false
	return nil
}

var _ repository.WarehouseRepository = (*stubWarehouseRepo)(nil)

type stubSaleRepo struct {
	mu    sync.Mutex
	sales map[uuid.UUID]*model.Sale
	seq   int
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *stubSaleRepo) Create(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	r.sales[s.ID] = s
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSaleRepo) NextSaleNumber(_ context.Context, _ *gorm.DB) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

func (r *stubSaleRepo) List(_ context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Sale
	for _, s := range r.sales {
		if filter.Status != "" && filter.Status != "all" && s.Status != filter.Status {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) VoidTx(_ *gorm.DB, id uuid.UUID, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = "voided"
	s.VoidReason = &reason
	s.VoidedAt = &at
	return nil
}

func (r *stubSaleRepo) AddModificationTx(_ *gorm.DB, m *model.SaleModification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[m.SaleID]
	if !ok {
		return errors.New("sale not found")
	}
	s.Modifications = append(s.Modifications, *m)
	return nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// ── Seed helpers ──────────────────────────────────────────────────────────────

func seedProduct(repo *stubProductRepo, name, sku string, price float64) *model.Product {
	p := &model.Product{
		ID:           uuid.New(),
		SKU:          sku,
		Name:         name,
		Category:     "general",
		SellingPrice: decimal.NewFromFloat(price),
		MinStock:     5,
		Unit:         "unit",
		Active:       true,
	}
	_ = repo.Create(context.Background(), p)
	return p
}

func seedWarehouse(repo *stubWarehouseRepo, code string) *model.Warehouse {
	w := &model.Warehouse{ID: uuid.New(), Code: code, Name: "Warehouse " + code, Active: true}
	_ = repo.Create(context.Background(), w)
	return w
}

func newLevel(productID, warehouseID uuid.UUID, qty int, avgCost float64) *model.StockLevel {
	return &model.StockLevel{
		ID:          uuid.New(),
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    qty,
		AvgUnitCost: decimal.NewFromFloat(avgCost),
	}
}

// seedBatch plants a lot with a deterministic creation time so FIFO order in
// tests is explicit.
func seedBatch(repo *stubBatchRepo, productID, warehouseID uuid.UUID, number string, qty int, cost float64, createdAt time.Time) *model.Batch {
	b := &model.Batch{
		ID:               uuid.New(),
		ProductID:        productID,
		WarehouseID:      warehouseID,
		BatchNumber:      number,
		UnitCost:         decimal.NewFromFloat(cost),
		QuantityReceived: qty,
		Remaining:        qty,
		Status:           "open",
		Active:           true,
		CreatedAt:        createdAt,
	}
	_ = repo.Create(context.Background(), nil, b)
	return b
}
