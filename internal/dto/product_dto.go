package dto

import "github.com/shopspring/decimal"

// ProductFilter is bound from the query string of GET /v1/products.
type ProductFilter struct {
	SKU      string `form:"sku"`
	Name     string `form:"name"`
	Category string `form:"category"`
	Active   string `form:"active"` // "false" | "all" | default active
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type CreateProductRequest struct {
	SKU          string          `json:"sku"           validate:"required,min=1,max=60"`
	Name         string          `json:"name"          validate:"required,min=1"`
	Description  *string         `json:"description"`
	Category     string          `json:"category"      validate:"omitempty,max=60"`
	SellingPrice decimal.Decimal `json:"selling_price" validate:"min=0"`
	MinStock     int             `json:"min_stock"     validate:"min=0"`
	Unit         string          `json:"unit"          validate:"omitempty,max=20"`
}

type UpdateProductRequest struct {
	Name         string           `json:"name"          validate:"omitempty,min=1"`
	Description  *string          `json:"description"`
	Category     string           `json:"category"      validate:"omitempty,max=60"`
	SellingPrice *decimal.Decimal `json:"selling_price" validate:"omitempty"`
	MinStock     *int             `json:"min_stock"     validate:"omitempty,min=0"`
}

type ProductResponse struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	Category     string          `json:"category"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	MinStock     int             `json:"min_stock"`
	Unit         string          `json:"unit"`
	Active       bool            `json:"active"`
	CreatedAt    string          `json:"created_at"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// ─── Warehouses ──────────────────────────────────────────────────────────────

type CreateWarehouseRequest struct {
	Code     string  `json:"code"     validate:"required,min=1,max=20"`
	Name     string  `json:"name"     validate:"required,min=1"`
	Location *string `json:"location"`
}

type WarehouseResponse struct {
	ID       string  `json:"id"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Location *string `json:"location,omitempty"`
	Active   bool    `json:"active"`
}
