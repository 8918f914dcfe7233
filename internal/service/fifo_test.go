package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/model"
)

func lot(number string, remaining int, cost float64, age time.Duration) model.Batch {
	return model.Batch{
		ID:               uuid.New(),
		BatchNumber:      number,
		UnitCost:         decimal.NewFromFloat(cost),
		QuantityReceived: remaining,
		Remaining:        remaining,
		Active:           true,
		CreatedAt:        time.Now().Add(-age),
	}
}

func TestPlanConsumption_OldestFirst(t *testing.T) {
	// Deliberately out of order — the planner must sort by creation time.
	batches := []model.Batch{
		lot("B-2", 10, 12.00, 1*time.Hour),
		lot("B-1", 5, 10.00, 2*time.Hour),
	}

	plan, err := planConsumption(batches, 8)
	require.NoError(t, err)

	require.Len(t, plan.Takes, 2)
	assert.Equal(t, "B-1", plan.Takes[0].BatchNumber)
	assert.Equal(t, 5, plan.Takes[0].Quantity)
	assert.Equal(t, "B-2", plan.Takes[1].BatchNumber)
	assert.Equal(t, 3, plan.Takes[1].Quantity)

	// 5×10.00 + 3×12.00 = 86.00
	assert.Equal(t, "86", plan.Cost.String())
}

func TestPlanConsumption_ExactDepletion(t *testing.T) {
	batches := []model.Batch{lot("B-1", 7, 3.50, time.Hour)}

	plan, err := planConsumption(batches, 7)
	require.NoError(t, err)
	require.Len(t, plan.Takes, 1)
	assert.Equal(t, 7, plan.Takes[0].Quantity)
	assert.Equal(t, "24.5", plan.Cost.String())
}

func TestPlanConsumption_InsufficientStock(t *testing.T) {
	batches := []model.Batch{
		lot("B-1", 3, 10.00, 2*time.Hour),
		lot("B-2", 4, 11.00, 1*time.Hour),
	}

	_, err := planConsumption(batches, 10)
	ise, ok := IsInsufficientStock(err)
	require.True(t, ok)
	assert.Equal(t, 10, ise.Requested)
	assert.Equal(t, 7, ise.Available)
}

func TestPlanConsumption_SkipsDepletedLots(t *testing.T) {
	depleted := lot("B-0", 0, 9.00, 3*time.Hour)
	depleted.Depleted = true
	batches := []model.Batch{
		depleted,
		lot("B-1", 4, 10.00, 2*time.Hour),
	}

	plan, err := planConsumption(batches, 4)
	require.NoError(t, err)
	require.Len(t, plan.Takes, 1)
	assert.Equal(t, "B-1", plan.Takes[0].BatchNumber)
}

func TestPlanConsumption_InvalidQuantity(t *testing.T) {
	batches := []model.Batch{lot("B-1", 5, 10.00, time.Hour)}

	_, err := planConsumption(batches, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = planConsumption(batches, -3)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestPlanConsumption_ExpiredLotStillEligible(t *testing.T) {
	// Expiry never affects FIFO order or eligibility — consumption is by
	// receipt order.
	expired := lot("B-1", 5, 10.00, 2*time.Hour)
	past := time.Now().Add(-24 * time.Hour)
	expired.ExpiryDate = &past
	batches := []model.Batch{
		expired,
		lot("B-2", 5, 12.00, 1*time.Hour),
	}

	plan, err := planConsumption(batches, 6)
	require.NoError(t, err)
	assert.Equal(t, "B-1", plan.Takes[0].BatchNumber)
	assert.Equal(t, 5, plan.Takes[0].Quantity)
}
