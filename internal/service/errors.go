package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Domain error taxonomy. NotFound and InvalidQuantity indicate caller bugs
// and fail fast; InsufficientStock and ConcurrencyConflict are expected,
// recoverable conditions the caller may retry or surface to an operator.
var (
	ErrNotFound           = errors.New("referenced resource not found")
	ErrInvalidQuantity    = errors.New("quantity must be greater than zero")
	ErrConcurrencyConflict = errors.New("stock changed concurrently, retry the operation")
)

// InsufficientStockError reports that the eligible batches of a (product,
// warehouse) pair cannot cover a requested deduction. Line is the zero-based
// sale line index when the failure happened inside a sale commit, -1 otherwise.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Line      int
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	if e.Line >= 0 {
		return fmt.Sprintf("insufficient stock on line %d: requested %d, available %d",
			e.Line, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock: requested %d, available %d", e.Requested, e.Available)
}

// IsInsufficientStock unwraps err into an InsufficientStockError if it is one.
func IsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var ise *InsufficientStockError
	if errors.As(err, &ise) {
		return ise, true
	}
	return nil, false
}
