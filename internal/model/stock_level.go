package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLevel is the per-(product, warehouse) read model over the batch
// ledger: total on-hand quantity plus a weighted-average unit cost blended
// at each receipt. The lot ledger is the system of record; this row exists
// for cheap availability checks and reporting, and is updated in the same
// transaction as the batches it summarizes.
type StockLevel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_levels_pair"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_levels_pair"`
	Quantity    int             `gorm:"not null;default:0"`
	AvgUnitCost decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	UpdatedAt   time.Time

	Product   *Product   `gorm:"foreignKey:ProductID"`
	Warehouse *Warehouse `gorm:"foreignKey:WarehouseID"`
}

// BlendCost folds a receipt of qty units at unitCost into the weighted
// average: (curQty*curAvg + qty*cost) / (curQty + qty).
func (l *StockLevel) BlendCost(qty int, unitCost decimal.Decimal) {
	total := l.Quantity + qty
	if total <= 0 {
		l.AvgUnitCost = decimal.Zero
		return
	}
	cur := decimal.NewFromInt(int64(l.Quantity)).Mul(l.AvgUnitCost)
	add := decimal.NewFromInt(int64(qty)).Mul(unitCost)
	l.AvgUnitCost = cur.Add(add).Div(decimal.NewFromInt(int64(total)))
}
