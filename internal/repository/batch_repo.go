package repository

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BatchFilter defines filters for listing batches.
type BatchFilter struct {
	ProductID   *uuid.UUID
	WarehouseID *uuid.UUID
	Depleted    string // "true" | "false" | "" (all)
	Page        int
	Limit       int
}

// BatchRepository is the data access contract for the cost-lot ledger.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via in-memory stubs.
type BatchRepository interface {
	Create(ctx context.Context, tx *gorm.DB, b *model.Batch) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Batch, error)
	List(ctx context.Context, filter BatchFilter) ([]model.Batch, int64, error)

	// ListEligibleTx returns the non-depleted batches of a (product,
	// warehouse) pair oldest-first. With a live tx the rows are locked
	// FOR UPDATE, serializing the whole FIFO walk against concurrent
	// consumers of the same pair.
	ListEligibleTx(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID) ([]model.Batch, error)

	// DecrementTx applies one planned take with a compare-and-swap on the
	// remaining quantity. Returns false (and no error) when another writer
	// got there first — the caller reverts and replans.
	DecrementTx(tx *gorm.DB, id uuid.UUID, take, expectedRemaining int, now time.Time) (bool, error)

	// RestoreTx puts back previously consumed units (sale void, CAS revert)
	// and clears the depleted flag.
	RestoreTx(tx *gorm.DB, id uuid.UUID, qty int) error

	// NextBatchNumber atomically advances the month-scoped sequence and
	// returns the formatted number for time t.
	NextBatchNumber(ctx context.Context, tx *gorm.DB, t time.Time) (string, error)

	// SumRemaining totals the open quantity across a product's batches,
	// optionally scoped to one warehouse (nil = all).
	SumRemaining(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID) (int, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type batchRepo struct{ db *gorm.DB }

func NewBatchRepository(db *gorm.DB) BatchRepository { return &batchRepo{db: db} }

func (r *batchRepo) DB() *gorm.DB { return r.db }

func (r *batchRepo) Create(ctx context.Context, tx *gorm.DB, b *model.Batch) error {
	return tx.WithContext(ctx).Create(b).Error
}

func (r *batchRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Batch, error) {
	var b model.Batch
	err := r.db.WithContext(ctx).Preload("Product").Preload("Warehouse").First(&b, id).Error
	return &b, err
}

func (r *batchRepo) List(ctx context.Context, filter BatchFilter) ([]model.Batch, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Batch{}).Where("active = true")

	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	switch filter.Depleted {
	case "true":
		q = q.Where("depleted = true")
	case "false":
		q = q.Where("depleted = false")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var batches []model.Batch
	err := q.Preload("Product").Preload("Warehouse").
		Order("created_at ASC, id ASC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&batches).Error
	return batches, total, err
}

func (r *batchRepo) ListEligibleTx(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID) ([]model.Batch, error) {
	var batches []model.Batch
	q := tx.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ? AND depleted = false AND remaining > 0 AND active = true",
			productID, warehouseID).
		Order("created_at ASC, id ASC").
		Clauses(clause.Locking{Strength: "UPDATE"})
	err := q.Find(&batches).Error
	return batches, err
}

func (r *batchRepo) DecrementTx(tx *gorm.DB, id uuid.UUID, take, expectedRemaining int, now time.Time) (bool, error) {
	newRemaining := expectedRemaining - take
	updates := map[string]interface{}{
		"remaining": newRemaining,
	}
	if newRemaining == 0 {
		updates["depleted"] = true
		updates["depleted_at"] = now
	}
	res := tx.Model(&model.Batch{}).
		Where("id = ? AND remaining = ?", id, expectedRemaining).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *batchRepo) RestoreTx(tx *gorm.DB, id uuid.UUID, qty int) error {
	return tx.Model(&model.Batch{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"remaining":   gorm.Expr("remaining + ?", qty),
			"depleted":    false,
			"depleted_at": nil,
		}).Error
}

func (r *batchRepo) NextBatchNumber(ctx context.Context, tx *gorm.DB, t time.Time) (string, error) {
	// Atomic upsert-returning keeps numbering collision-free across
	// concurrent service instances; the sequence restarts each month.
	var seq int
	err := tx.WithContext(ctx).Raw(`
		INSERT INTO batch_sequences (year, month, last_seq)
		VALUES (?, ?, 1)
		ON CONFLICT (year, month)
		DO UPDATE SET last_seq = batch_sequences.last_seq + 1
		RETURNING last_seq`,
		t.Year(), int(t.Month()),
	).Scan(&seq).Error
	if err != nil {
		return "", err
	}
	return FormatBatchNumber(t, seq), nil
}

// FormatBatchNumber renders the human-readable, month-scoped batch number.
func FormatBatchNumber(t time.Time, seq int) string {
	return fmt.Sprintf("BATCH-%02d-%d-%04d", int(t.Month()), t.Year(), seq)
}

func (r *batchRepo) SumRemaining(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID) (int, error) {
	q := r.db.WithContext(ctx).Model(&model.Batch{}).
		Where("product_id = ? AND active = true", productID)
	if warehouseID != nil {
		q = q.Where("warehouse_id = ?", *warehouseID)
	}
	var sum int
	err := q.Select("COALESCE(SUM(remaining), 0)").Scan(&sum).Error
	return sum, err
}
