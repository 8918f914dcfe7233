package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/dto"
)

// The engine's compare-and-swap guard must hold even without the row locks a
// real database adds on top: concurrent consumers fight over the same lots
// through plan/apply/replan, and the ledger must never oversell or go
// negative.

func TestConcurrentConsume_ExactDepletion(t *testing.T) {
	svc, batchRepo, _, _, _ := buildStockSvc()
	productID, warehouseID := uuid.New(), uuid.New()
	now := time.Now()
	seedBatch(batchRepo, productID, warehouseID, "BATCH-01-2026-0001", 40, 1.00, now.Add(-3*time.Hour))
	seedBatch(batchRepo, productID, warehouseID, "BATCH-01-2026-0002", 35, 1.10, now.Add(-2*time.Hour))
	seedBatch(batchRepo, productID, warehouseID, "BATCH-01-2026-0003", 25, 1.20, now.Add(-time.Hour))

	// 4 consumers × 25 units = exactly the 100 units on hand.
	const workers = 4
	const each = 25

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ConsumeTx(context.Background(), nil, productID, warehouseID, each)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "consumer %d", i)
	}

	sum, err := batchRepo.SumRemaining(context.Background(), productID, &warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 0, sum, "every unit consumed exactly once")
}

func TestConcurrentConsume_NoOversell(t *testing.T) {
	svc, batchRepo, _, _, _ := buildStockSvc()
	productID, warehouseID := uuid.New(), uuid.New()
	seedBatch(batchRepo, productID, warehouseID, "BATCH-01-2026-0001", 30, 2.00, time.Now().Add(-time.Hour))

	// 5 consumers × 10 units = 50 requested against 30 on hand: exactly
	// three can win.
	const workers = 5
	const each = 10

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ConsumeTx(context.Background(), nil, productID, warehouseID, each)
		}(i)
	}
	wg.Wait()

	succeeded, short := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			_, ok := IsInsufficientStock(err)
			require.True(t, ok, "unexpected error: %v", err)
			short++
		}
	}
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 2, short)

	sum, err := batchRepo.SumRemaining(context.Background(), productID, &warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 0, sum)
}

// Deductions and sales share the FIFO engine and acquire their locks in the
// same order (batches, then the level row), so a mixed workload on one pair
// must drain cleanly.
func TestConcurrentDeductAndSale_SamePair(t *testing.T) {
	f := buildSaleSvc()
	stockSvc := NewStockService(f.batches, f.levels, f.movements, f.products)
	adjSvc := NewAdjustmentService(f.batches, f.levels, f.movements, f.products, stockSvc)

	p := seedProduct(f.products, "Rice 1kg", "RCE-001", 3.00)
	w := seedWarehouse(f.warehouses, "MAIN")
	now := time.Now()
	seedBatch(f.batches, p.ID, w.ID, "BATCH-01-2026-0001", 20, 1.00, now.Add(-2*time.Hour))
	seedBatch(f.batches, p.ID, w.ID, "BATCH-01-2026-0002", 20, 1.10, now.Add(-time.Hour))
	require.NoError(t, f.levels.CreateTx(nil, newLevel(p.ID, w.ID, 40, 1.05)))

	// 3 deductions × 5 + 3 sales × 5 = 30 of the 40 on hand: all succeed.
	const each = 5
	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := 0; i < 3; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = adjSvc.Deduct(context.Background(), uuid.New(), dto.DeductStockRequest{
				ProductID:   p.ID.String(),
				WarehouseID: w.ID.String(),
				Quantity:    each,
				Reason:      "cycle count",
			})
		}(i)
		go func(i int) {
			defer wg.Done()
			_, errs[3+i] = f.svc.Commit(context.Background(), uuid.New(), dto.CommitSaleRequest{
				WarehouseID: w.ID.String(),
				Lines:       []dto.SaleLineRequest{{ProductID: p.ID.String(), Quantity: each}},
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "writer %d", i)
	}

	sum, err := f.batches.SumRemaining(context.Background(), p.ID, &w.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, sum)
	level, err := f.levels.Find(context.Background(), p.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, level.Quantity)
}

func TestConcurrentConsume_NeverNegative(t *testing.T) {
	svc, batchRepo, _, _, _ := buildStockSvc()
	productID, warehouseID := uuid.New(), uuid.New()
	now := time.Now()
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		b := seedBatch(batchRepo, productID, warehouseID,
			fmt.Sprintf("BATCH-01-2026-%04d", i+1), 10, 1.00,
			now.Add(-time.Duration(10-i)*time.Minute))
		ids = append(ids, b.ID)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.ConsumeTx(context.Background(), nil, productID, warehouseID, 7)
		}()
	}
	wg.Wait()

	for _, id := range ids {
		b := batchRepo.get(id)
		assert.GreaterOrEqual(t, b.Remaining, 0, "lot %s", b.BatchNumber)
		assert.LessOrEqual(t, b.Remaining, b.QuantityReceived, "lot %s", b.BatchNumber)
		assert.Equal(t, b.Remaining == 0, b.Depleted, "lot %s depleted flag", b.BatchNumber)
	}
}
