package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is the unit of durability for a multi-line consumption: either every
// line committed with its batch mutations, or the record does not exist.
// Status: "completed" | "voided". A sale is immutable after commit except
// for the append-only Modifications trail.
type Sale struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Number      int       `gorm:"uniqueIndex;not null"`
	WarehouseID uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID      uuid.UUID `gorm:"type:uuid;not null"`
	// TotalRevenue = Σ line.Total; TotalCost = Σ line.CostOfGoods (FIFO COGS).
	TotalRevenue decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Profit       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	SaleDate     time.Time       `gorm:"not null;index"`
	Status       string          `gorm:"type:varchar(20);not null;default:'completed'"`
	VoidReason   *string
	VoidedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Warehouse     *Warehouse         `gorm:"foreignKey:WarehouseID"`
	User          *User              `gorm:"foreignKey:UserID"`
	Lines         []SaleLine         `gorm:"foreignKey:SaleID"`
	Payments      []SalePayment      `gorm:"foreignKey:SaleID"`
	Modifications []SaleModification `gorm:"foreignKey:SaleID"`
}

// SaleLine is one (product, quantity, price) of a sale with its computed
// revenue and FIFO cost sides.
type SaleLine struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CostOfGoods decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	Product      *Product       `gorm:"foreignKey:ProductID"`
	Consumptions []SaleLineBatch `gorm:"foreignKey:SaleLineID"`
}

// SaleLineBatch records how many units a line took from which lot and at
// what unit cost — the COGS audit trail. Void restoration replays these
// rows in reverse.
type SaleLineBatch struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleLineID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchNumber string          `gorm:"not null"`
	Quantity    int             `gorm:"not null"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// SalePayment is payment metadata attached to the sale.
// Method: "cash" | "debit" | "credit" | "transfer".
type SalePayment struct {
	ID     uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method string          `gorm:"type:varchar(20);not null"`
	Amount decimal.Decimal `gorm:"type:decimal(14,2);not null"`
}

// SaleModification is one entry of the append-only post-hoc edit trail.
// Entries are never updated or deleted.
type SaleModification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Action    string    `gorm:"type:varchar(30);not null"` // "void" | "note"
	Reason    string    `gorm:"not null"`
	UserID    uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
}
