package service

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockledger/internal/model"
)

// BatchTake is one slice of a consumption plan: how many units to take from
// which batch and at what unit cost. UnitCost is frozen at plan time so the
// cost of goods survives later receipts into the same pair.
type BatchTake struct {
	BatchID     uuid.UUID
	BatchNumber string
	Quantity    int
	UnitCost    decimal.Decimal

	// remaining observed at plan time, used as the compare-and-swap
	// guard when the plan is applied.
	expectedRemaining int
}

// ConsumptionResult is a fully applied (or fully planned) FIFO walk.
type ConsumptionResult struct {
	Takes []BatchTake
	Cost  decimal.Decimal
}

// planConsumption walks the given batches oldest-first and allocates qty
// units across them. The slice is re-sorted by creation time (receipt order,
// not expiry) so callers do not have to guarantee ordering. The plan either
// covers the full quantity or fails with InsufficientStockError; it never
// allocates partially.
func planConsumption(batches []model.Batch, qty int) (*ConsumptionResult, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	ordered := make([]model.Batch, 0, len(batches))
	available := 0
	for _, b := range batches {
		if !b.Available() {
			continue
		}
		ordered = append(ordered, b)
		available += b.Remaining
	}
	if available < qty {
		return nil, &InsufficientStockError{Line: -1, Requested: qty, Available: available}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return bytes.Compare(ordered[i].ID[:], ordered[j].ID[:]) < 0
	})

	res := &ConsumptionResult{Cost: decimal.Zero}
	left := qty
	for _, b := range ordered {
		if left == 0 {
			break
		}
		take := b.Remaining
		if take > left {
			take = left
		}
		res.Takes = append(res.Takes, BatchTake{
			BatchID:           b.ID,
			BatchNumber:       b.BatchNumber,
			Quantity:          take,
			UnitCost:          b.UnitCost,
			expectedRemaining: b.Remaining,
		})
		res.Cost = res.Cost.Add(b.UnitCost.Mul(decimal.NewFromInt(int64(take))))
		left -= take
	}
	return res, nil
}
