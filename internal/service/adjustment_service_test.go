package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/dto"
)

func buildAdjustmentSvc() (AdjustmentService, *stubBatchRepo, *stubLevelRepo, *stubMovementRepo, *stubProductRepo) {
	batchRepo := newStubBatchRepo()
	levelRepo := newStubLevelRepo()
	movementRepo := &stubMovementRepo{}
	productRepo := newStubProductRepo()
	stockSvc := NewStockService(batchRepo, levelRepo, movementRepo, productRepo)
	svc := NewAdjustmentService(batchRepo, levelRepo, movementRepo, productRepo, stockSvc)
	return svc, batchRepo, levelRepo, movementRepo, productRepo
}

func TestDeduct_DrainsLotsAndLevel(t *testing.T) {
	svc, batchRepo, levelRepo, movementRepo, productRepo := buildAdjustmentSvc()
	p := seedProduct(productRepo, "Yogurt 4-pack", "YGT-001", 3.50)
	warehouseID := uuid.New()
	b := seedBatch(batchRepo, p.ID, warehouseID, "BATCH-01-2026-0001", 12, 1.50, time.Now().Add(-time.Hour))
	require.NoError(t, levelRepo.CreateTx(nil, newLevel(p.ID, warehouseID, 12, 1.50)))

	resp, err := svc.Deduct(context.Background(), uuid.New(), dto.DeductStockRequest{
		ProductID:   p.ID.String(),
		WarehouseID: warehouseID.String(),
		Quantity:    5,
		Reason:      "cold chain broken",
	})
	require.NoError(t, err)
	assert.Equal(t, "7.5", resp.CostConsumed.String())

	assert.Equal(t, 7, batchRepo.get(b.ID).Remaining)
	level, _ := levelRepo.Find(context.Background(), p.ID, warehouseID)
	assert.Equal(t, 7, level.Quantity)

	movements := movementRepo.byType("adjustment")
	require.Len(t, movements, 1)
	assert.Equal(t, "cold chain broken", movements[0].Reason)
	assert.Equal(t, -5, movements[0].Quantity)
}

func TestDeduct_RejectsShortfallBeforeTouchingLots(t *testing.T) {
	svc, batchRepo, levelRepo, _, productRepo := buildAdjustmentSvc()
	p := seedProduct(productRepo, "Ham 200g", "HAM-001", 4.00)
	warehouseID := uuid.New()
	b := seedBatch(batchRepo, p.ID, warehouseID, "BATCH-01-2026-0001", 3, 2.00, time.Now().Add(-time.Hour))
	require.NoError(t, levelRepo.CreateTx(nil, newLevel(p.ID, warehouseID, 3, 2.00)))

	_, err := svc.Deduct(context.Background(), uuid.New(), dto.DeductStockRequest{
		ProductID:   p.ID.String(),
		WarehouseID: warehouseID.String(),
		Quantity:    4,
		Reason:      "inventory count",
	})
	ise, ok := IsInsufficientStock(err)
	require.True(t, ok)
	assert.Equal(t, 4, ise.Requested)
	assert.Equal(t, 3, ise.Available)
	assert.Equal(t, 3, batchRepo.get(b.ID).Remaining)
}

func TestDeduct_NeverStockedPairIsNotFound(t *testing.T) {
	svc, _, _, _, productRepo := buildAdjustmentSvc()
	p := seedProduct(productRepo, "Butter 250g", "BTR-001", 2.20)

	// A pair with no stock record is a bad reference, not a shortfall.
	_, err := svc.Deduct(context.Background(), uuid.New(), dto.DeductStockRequest{
		ProductID:   p.ID.String(),
		WarehouseID: uuid.New().String(),
		Quantity:    1,
		Reason:      "spoilage",
	})
	assert.ErrorIs(t, err, ErrNotFound)
	_, ok := IsInsufficientStock(err)
	assert.False(t, ok)
}

func TestDeduct_UnknownProduct(t *testing.T) {
	svc, _, _, _, _ := buildAdjustmentSvc()

	_, err := svc.Deduct(context.Background(), uuid.New(), dto.DeductStockRequest{
		ProductID:   uuid.New().String(),
		WarehouseID: uuid.New().String(),
		Quantity:    1,
		Reason:      "spoilage",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
