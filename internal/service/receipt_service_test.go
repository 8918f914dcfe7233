package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/dto"
)

func buildReceiptSvc() (ReceiptService, *stubBatchRepo, *stubLevelRepo, *stubMovementRepo, *stubProductRepo, *stubWarehouseRepo) {
	batchRepo := newStubBatchRepo()
	levelRepo := newStubLevelRepo()
	movementRepo := &stubMovementRepo{}
	productRepo := newStubProductRepo()
	warehouseRepo := newStubWarehouseRepo()
	svc := NewReceiptService(batchRepo, levelRepo, movementRepo, productRepo, warehouseRepo)
	return svc, batchRepo, levelRepo, movementRepo, productRepo, warehouseRepo
}

func TestReceive_CreatesLotAndLevel(t *testing.T) {
	svc, _, levelRepo, movementRepo, productRepo, warehouseRepo := buildReceiptSvc()
	p := seedProduct(productRepo, "Flour 1kg", "FLR-001", 2.50)
	w := seedWarehouse(warehouseRepo, "MAIN")

	resp, err := svc.Receive(context.Background(), uuid.New(), dto.ReceiveStockRequest{
		ProductID:   p.ID.String(),
		WarehouseID: w.ID.String(),
		Quantity:    40,
		UnitCost:    decimal.NewFromFloat(1.10),
	})
	require.NoError(t, err)
	assert.Equal(t, 40, resp.QuantityReceived)
	assert.Equal(t, 40, resp.Remaining)
	assert.False(t, resp.Depleted)
	assert.Regexp(t, `^BATCH-\d{2}-\d{4}-\d{4}$`, resp.BatchNumber)

	level, err := levelRepo.Find(context.Background(), p.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, level.Quantity)
	assert.Equal(t, "1.1", level.AvgUnitCost.String())

	movements := movementRepo.byType("receipt")
	require.Len(t, movements, 1)
	assert.Equal(t, 40, movements[0].Quantity)
	assert.Equal(t, 0, movements[0].QuantityBefore)
	assert.Equal(t, 40, movements[0].QuantityAfter)
}

func TestReceive_BlendsAverageCost(t *testing.T) {
	svc, _, levelRepo, _, productRepo, warehouseRepo := buildReceiptSvc()
	p := seedProduct(productRepo, "Sugar 1kg", "SGR-001", 3.00)
	w := seedWarehouse(warehouseRepo, "MAIN")
	userID := uuid.New()

	_, err := svc.Receive(context.Background(), userID, dto.ReceiveStockRequest{
		ProductID: p.ID.String(), WarehouseID: w.ID.String(),
		Quantity: 10, UnitCost: decimal.NewFromFloat(2.00),
	})
	require.NoError(t, err)

	_, err = svc.Receive(context.Background(), userID, dto.ReceiveStockRequest{
		ProductID: p.ID.String(), WarehouseID: w.ID.String(),
		Quantity: 10, UnitCost: decimal.NewFromFloat(4.00),
	})
	require.NoError(t, err)

	// (10×2.00 + 10×4.00) / 20 = 3.00
	level, err := levelRepo.Find(context.Background(), p.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, level.Quantity)
	assert.Equal(t, "3", level.AvgUnitCost.String())
}

func TestReceive_EachReceiptIsOwnLot(t *testing.T) {
	svc, batchRepo, _, _, productRepo, warehouseRepo := buildReceiptSvc()
	p := seedProduct(productRepo, "Coffee 500g", "COF-001", 8.00)
	w := seedWarehouse(warehouseRepo, "MAIN")
	userID := uuid.New()

	numbers := make(map[string]bool)
	for i := 0; i < 3; i++ {
		resp, err := svc.Receive(context.Background(), userID, dto.ReceiveStockRequest{
			ProductID: p.ID.String(), WarehouseID: w.ID.String(),
			Quantity: 5, UnitCost: decimal.NewFromFloat(float64(4 + i)),
		})
		require.NoError(t, err)
		numbers[resp.BatchNumber] = true
	}
	assert.Len(t, numbers, 3, "every receipt gets a distinct batch number")

	sum, err := batchRepo.SumRemaining(context.Background(), p.ID, &w.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, sum)
}

func TestReceive_Validation(t *testing.T) {
	svc, _, _, _, productRepo, warehouseRepo := buildReceiptSvc()
	p := seedProduct(productRepo, "Tea", "TEA-001", 4.00)
	w := seedWarehouse(warehouseRepo, "MAIN")
	userID := uuid.New()

	cases := []struct {
		name string
		req  dto.ReceiveStockRequest
		want error
	}{
		{"unknown product", dto.ReceiveStockRequest{
			ProductID: uuid.New().String(), WarehouseID: w.ID.String(),
			Quantity: 1, UnitCost: decimal.NewFromInt(1)}, ErrNotFound},
		{"unknown warehouse", dto.ReceiveStockRequest{
			ProductID: p.ID.String(), WarehouseID: uuid.New().String(),
			Quantity: 1, UnitCost: decimal.NewFromInt(1)}, ErrNotFound},
		{"zero quantity", dto.ReceiveStockRequest{
			ProductID: p.ID.String(), WarehouseID: w.ID.String(),
			Quantity: 0, UnitCost: decimal.NewFromInt(1)}, ErrInvalidQuantity},
		{"negative cost", dto.ReceiveStockRequest{
			ProductID: p.ID.String(), WarehouseID: w.ID.String(),
			Quantity: 1, UnitCost: decimal.NewFromInt(-2)}, ErrInvalidQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Receive(context.Background(), userID, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestReceive_ZeroCostLotIsValid(t *testing.T) {
	// Donations and promotions arrive at zero cost; their consumption adds
	// nothing to cost of goods.
	svc, _, levelRepo, _, productRepo, warehouseRepo := buildReceiptSvc()
	p := seedProduct(productRepo, "Promo Sample", "PRM-001", 1.00)
	w := seedWarehouse(warehouseRepo, "MAIN")

	resp, err := svc.Receive(context.Background(), uuid.New(), dto.ReceiveStockRequest{
		ProductID: p.ID.String(), WarehouseID: w.ID.String(),
		Quantity: 5, UnitCost: decimal.Zero,
	})
	require.NoError(t, err)
	assert.Equal(t, "0", resp.UnitCost.String())

	level, err := levelRepo.Find(context.Background(), p.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "0", level.AvgUnitCost.String())
}

func TestReceive_ExpiryDateParsed(t *testing.T) {
	svc, _, _, _, productRepo, warehouseRepo := buildReceiptSvc()
	p := seedProduct(productRepo, "Milk 1L", "MLK-001", 1.80)
	w := seedWarehouse(warehouseRepo, "MAIN")
	expiry := time.Now().AddDate(0, 1, 0).Format("2006-01-02")

	resp, err := svc.Receive(context.Background(), uuid.New(), dto.ReceiveStockRequest{
		ProductID: p.ID.String(), WarehouseID: w.ID.String(),
		Quantity: 12, UnitCost: decimal.NewFromFloat(0.90),
		ExpiryDate: &expiry,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.ExpiryDate)
	assert.Equal(t, expiry, *resp.ExpiryDate)
}

func TestFormatBatchNumberShape(t *testing.T) {
	svc, _, _, _, productRepo, warehouseRepo := buildReceiptSvc()
	p := seedProduct(productRepo, "Salt", "SLT-001", 0.80)
	w := seedWarehouse(warehouseRepo, "MAIN")

	resp, err := svc.Receive(context.Background(), uuid.New(), dto.ReceiveStockRequest{
		ProductID: p.ID.String(), WarehouseID: w.ID.String(),
		Quantity: 1, UnitCost: decimal.NewFromFloat(0.40),
	})
	require.NoError(t, err)

	now := time.Now()
	want := fmt.Sprintf("BATCH-%02d-%d-0001", int(now.Month()), now.Year())
	assert.Equal(t, want, resp.BatchNumber)
}
