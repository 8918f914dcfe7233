package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	Date        string `form:"date"`                      // YYYY-MM-DD; empty = all
	Status      string `form:"status,default=completed"`  // completed | voided | all
	WarehouseID string `form:"warehouse_id"`
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SaleLineRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int             `json:"quantity"   validate:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"min=0"`
}

type PaymentRequest struct {
	Method string          `json:"method" validate:"required,oneof=cash debit credit transfer"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type CommitSaleRequest struct {
	WarehouseID string            `json:"warehouse_id" validate:"required,uuid"`
	Lines       []SaleLineRequest `json:"lines"        validate:"required,min=1,dive"`
	Payments    []PaymentRequest  `json:"payments"     validate:"omitempty,dive"`
}

type VoidSaleRequest struct {
	Reason string `json:"reason" validate:"required,min=5"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// LineConsumption shows which lot a line drew from — the COGS breakdown.
type LineConsumption struct {
	BatchNumber string          `json:"batch_number"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

type SaleLineResponse struct {
	Product      string            `json:"product"`
	ProductID    string            `json:"product_id"`
	Quantity     int               `json:"quantity"`
	UnitPrice    decimal.Decimal   `json:"unit_price"`
	Total        decimal.Decimal   `json:"total"`
	CostOfGoods  decimal.Decimal   `json:"cost_of_goods"`
	Consumptions []LineConsumption `json:"consumptions,omitempty"`
}

type SaleResponse struct {
	ID           string             `json:"id"`
	Number       int                `json:"number"`
	WarehouseID  string             `json:"warehouse_id"`
	Lines        []SaleLineResponse `json:"lines"`
	Payments     []PaymentRequest   `json:"payments,omitempty"`
	TotalRevenue decimal.Decimal    `json:"total_revenue"`
	TotalCost    decimal.Decimal    `json:"total_cost"`
	Profit       decimal.Decimal    `json:"profit"`
	Status       string             `json:"status"`
	SaleDate     string             `json:"sale_date"`
	CreatedAt    string             `json:"created_at"`
}
