package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Batch is a cost lot: one receipt of stock at a fixed unit cost, consumed
// oldest-first. QuantityReceived and UnitCost are fixed at receipt time;
// Remaining only ever decreases (void restoration puts back exactly what a
// sale took, so it can never exceed QuantityReceived). A depleted batch is
// excluded from consumption and kept forever as costing history.
type Batch struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index:idx_batches_product_warehouse"`
	WarehouseID uuid.UUID `gorm:"type:uuid;not null;index:idx_batches_product_warehouse"`
	// BatchNumber is human-readable and monotonic within its (month, year)
	// scope: BATCH-MM-YYYY-NNNN. Report pages read it as plain text.
	BatchNumber      string          `gorm:"uniqueIndex;not null"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SellingPrice     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	QuantityReceived int             `gorm:"not null"`
	Remaining        int             `gorm:"not null"`
	Depleted         bool            `gorm:"not null;default:false;index"`
	DepletedAt       *time.Time
	ExpiryDate       *time.Time
	Status           string `gorm:"type:varchar(20);not null;default:'open'"`
	Notes            *string
	CreatedBy        *uuid.UUID `gorm:"type:uuid"`
	Active           bool       `gorm:"not null;default:true"`
	CreatedAt        time.Time  `gorm:"index"`
	UpdatedAt        time.Time

	Product   *Product   `gorm:"foreignKey:ProductID"`
	Warehouse *Warehouse `gorm:"foreignKey:WarehouseID"`
}

// Available reports whether the batch can still be drawn from.
func (b *Batch) Available() bool { return !b.Depleted && b.Remaining > 0 }

// IsExpired reports whether the batch is past its expiry date, if it has one.
// Expiry never affects FIFO order — consumption is by receipt order.
func (b *Batch) IsExpired(now time.Time) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(now)
}

// Take removes qty units from the batch, marking it depleted when it hits
// zero. qty must not exceed Remaining — callers plan takes before applying.
func (b *Batch) Take(qty int, now time.Time) error {
	if qty <= 0 || qty > b.Remaining {
		return fmt.Errorf("batch %s: cannot take %d of %d remaining", b.BatchNumber, qty, b.Remaining)
	}
	b.Remaining -= qty
	if b.Remaining == 0 {
		b.Depleted = true
		b.DepletedAt = &now
	}
	return nil
}

// Restore puts back units previously taken (sale void). Clears the depleted
// flag when the batch comes back above zero.
func (b *Batch) Restore(qty int) error {
	if qty <= 0 || b.Remaining+qty > b.QuantityReceived {
		return fmt.Errorf("batch %s: cannot restore %d (remaining %d of %d received)",
			b.BatchNumber, qty, b.Remaining, b.QuantityReceived)
	}
	b.Remaining += qty
	if b.Depleted && b.Remaining > 0 {
		b.Depleted = false
		b.DepletedAt = nil
	}
	return nil
}

// Value is the cost value still held in the batch.
func (b *Batch) Value() decimal.Decimal {
	return b.UnitCost.Mul(decimal.NewFromInt(int64(b.Remaining)))
}
