package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBatch(received, remaining int, cost float64) *Batch {
	return &Batch{
		BatchNumber:      "BATCH-01-2026-0001",
		UnitCost:         decimal.NewFromFloat(cost),
		QuantityReceived: received,
		Remaining:        remaining,
	}
}

func TestBatchTake(t *testing.T) {
	now := time.Now()

	b := newBatch(10, 10, 2.50)
	require.NoError(t, b.Take(4, now))
	assert.Equal(t, 6, b.Remaining)
	assert.False(t, b.Depleted)
	assert.Nil(t, b.DepletedAt)

	require.NoError(t, b.Take(6, now))
	assert.Equal(t, 0, b.Remaining)
	assert.True(t, b.Depleted)
	require.NotNil(t, b.DepletedAt)
	assert.Equal(t, now, *b.DepletedAt)
}

func TestBatchTake_Rejected(t *testing.T) {
	now := time.Now()
	b := newBatch(10, 3, 2.50)

	assert.Error(t, b.Take(4, now), "over remaining")
	assert.Error(t, b.Take(0, now))
	assert.Error(t, b.Take(-1, now))

	// Rejected takes leave the batch untouched.
	assert.Equal(t, 3, b.Remaining)
	assert.False(t, b.Depleted)
}

func TestBatchRestore(t *testing.T) {
	now := time.Now()
	b := newBatch(10, 10, 2.50)
	require.NoError(t, b.Take(10, now))
	require.True(t, b.Depleted)

	require.NoError(t, b.Restore(6))
	assert.Equal(t, 6, b.Remaining)
	assert.False(t, b.Depleted)
	assert.Nil(t, b.DepletedAt)

	require.NoError(t, b.Restore(4))
	assert.Equal(t, b.QuantityReceived, b.Remaining)
}

func TestBatchRestore_NeverExceedsReceived(t *testing.T) {
	b := newBatch(10, 8, 2.50)

	assert.Error(t, b.Restore(3))
	assert.Error(t, b.Restore(0))
	assert.Equal(t, 8, b.Remaining)
}

func TestBatchAvailable(t *testing.T) {
	b := newBatch(10, 10, 2.50)
	assert.True(t, b.Available())

	require.NoError(t, b.Take(10, time.Now()))
	assert.False(t, b.Available())
}

func TestBatchIsExpired(t *testing.T) {
	now := time.Now()

	b := newBatch(10, 10, 2.50)
	assert.False(t, b.IsExpired(now), "no expiry date set")

	past := now.Add(-24 * time.Hour)
	b.ExpiryDate = &past
	assert.True(t, b.IsExpired(now))

	future := now.Add(24 * time.Hour)
	b.ExpiryDate = &future
	assert.False(t, b.IsExpired(now))

	// An expired batch still participates in consumption.
	assert.True(t, b.Available())
}

func TestBatchValue(t *testing.T) {
	b := newBatch(10, 7, 2.50)
	assert.True(t, b.Value().Equal(decimal.NewFromFloat(17.50)), "got %s", b.Value())
}

func TestStockLevelBlendCost(t *testing.T) {
	l := &StockLevel{Quantity: 10, AvgUnitCost: decimal.NewFromInt(2)}

	// (10*2 + 5*5) / 15 = 3
	l.BlendCost(5, decimal.NewFromInt(5))
	assert.True(t, l.AvgUnitCost.Equal(decimal.NewFromInt(3)), "got %s", l.AvgUnitCost)
}

func TestStockLevelBlendCost_FirstReceipt(t *testing.T) {
	l := &StockLevel{Quantity: 0, AvgUnitCost: decimal.Zero}

	l.BlendCost(8, decimal.NewFromFloat(1.25))
	assert.True(t, l.AvgUnitCost.Equal(decimal.NewFromFloat(1.25)), "got %s", l.AvgUnitCost)
}

func TestStockLevelBlendCost_EmptyLevel(t *testing.T) {
	l := &StockLevel{Quantity: 0, AvgUnitCost: decimal.NewFromInt(9)}

	l.BlendCost(0, decimal.NewFromInt(4))
	assert.True(t, l.AvgUnitCost.IsZero(), "got %s", l.AvgUnitCost)
}
