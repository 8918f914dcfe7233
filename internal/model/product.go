package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. It carries no stock of its own — physical
// quantities live in Batch rows and the StockLevel projection.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU         string    `gorm:"uniqueIndex;not null"`
	Name        string    `gorm:"index;not null"`
	Description *string
	Category    string `gorm:"not null;default:'general'"`
	// SellingPrice is the default reference price; a Batch may override it.
	SellingPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MinStock     int             `gorm:"not null;default:5"`
	Unit         string          `gorm:"not null;default:'unit'"`
	Active       bool            `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
