package dto

import "github.com/shopspring/decimal"

// ─── Receipts ────────────────────────────────────────────────────────────────

type ReceiveStockRequest struct {
	ProductID    string           `json:"product_id"    validate:"required,uuid"`
	WarehouseID  string           `json:"warehouse_id"  validate:"required,uuid"`
	Quantity     int              `json:"quantity"      validate:"required,min=1"`
	UnitCost     decimal.Decimal  `json:"unit_cost"     validate:"min=0"`
	SellingPrice *decimal.Decimal `json:"selling_price" validate:"omitempty"`
	ExpiryDate   *string          `json:"expiry_date"   validate:"omitempty,datetime=2006-01-02"`
	Notes        *string          `json:"notes"`
}

type BatchResponse struct {
	ID               string           `json:"id"`
	ProductID        string           `json:"product_id"`
	Product          string           `json:"product,omitempty"`
	WarehouseID      string           `json:"warehouse_id"`
	Warehouse        string           `json:"warehouse,omitempty"`
	BatchNumber      string           `json:"batch_number"`
	UnitCost         decimal.Decimal  `json:"unit_cost"`
	SellingPrice     *decimal.Decimal `json:"selling_price,omitempty"`
	QuantityReceived int              `json:"quantity_received"`
	Remaining        int              `json:"remaining"`
	Depleted         bool             `json:"depleted"`
	ExpiryDate       *string          `json:"expiry_date,omitempty"`
	Status           string           `json:"status"`
	CreatedAt        string           `json:"created_at"`
}

type BatchListResponse struct {
	Data  []BatchResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Consumption / adjustments ───────────────────────────────────────────────

type ConsumeStockRequest struct {
	ProductID   string `json:"product_id"   validate:"required,uuid"`
	WarehouseID string `json:"warehouse_id" validate:"required,uuid"`
	Quantity    int    `json:"quantity"     validate:"required,min=1"`
	Reason      string `json:"reason"       validate:"omitempty,max=200"`
}

type ConsumeStockResponse struct {
	CostConsumed decimal.Decimal   `json:"cost_consumed"`
	Batches      []LineConsumption `json:"batches"`
}

type DeductStockRequest struct {
	ProductID   string `json:"product_id"   validate:"required,uuid"`
	WarehouseID string `json:"warehouse_id" validate:"required,uuid"`
	Quantity    int    `json:"quantity"     validate:"required,min=1"`
	Reason      string `json:"reason"       validate:"required,min=3"`
}

// ─── Levels & movements ──────────────────────────────────────────────────────

type StockLevelResponse struct {
	ProductID   string          `json:"product_id"`
	Product     string          `json:"product,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	WarehouseID string          `json:"warehouse_id"`
	Warehouse   string          `json:"warehouse,omitempty"`
	Quantity    int             `json:"quantity"`
	AvgUnitCost decimal.Decimal `json:"avg_unit_cost"`
	BelowMin    bool            `json:"below_min"`
}

type StockLevelListResponse struct {
	Data  []StockLevelResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

// StockLookupResponse is the cached per-SKU availability answer.
type StockLookupResponse struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Available int             `json:"available"`
}

type MovementResponse struct {
	ID             string  `json:"id"`
	ProductID      string  `json:"product_id"`
	Product        string  `json:"product,omitempty"`
	WarehouseID    string  `json:"warehouse_id"`
	Type           string  `json:"type"`
	Quantity       int     `json:"quantity"`
	QuantityBefore int     `json:"quantity_before"`
	QuantityAfter  int     `json:"quantity_after"`
	Reason         string  `json:"reason,omitempty"`
	ReferenceID    *string `json:"reference_id,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

type MovementListResponse struct {
	Data  []MovementResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
