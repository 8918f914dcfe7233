package model

import (
	"time"

	"github.com/google/uuid"
)

// StockMovement records every change to on-hand stock for a (product,
// warehouse) pair. Movements are never modified or deleted — voids create
// inverse entries.
type StockMovement struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;index"`
	WarehouseID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Type           string    `gorm:"type:varchar(20);not null"` // "receipt" | "sale" | "adjustment" | "void_restock"
	Quantity       int       `gorm:"not null"`                  // positive = in, negative = out
	QuantityBefore int       `gorm:"not null"`
	QuantityAfter  int       `gorm:"not null"`
	Reason         string
	ReferenceID    *uuid.UUID `gorm:"type:uuid"` // sale or batch id when applicable
	CreatedAt      time.Time

	Product   *Product   `gorm:"foreignKey:ProductID"`
	Warehouse *Warehouse `gorm:"foreignKey:WarehouseID"`
}

func (StockMovement) TableName() string { return "stock_movements" }
