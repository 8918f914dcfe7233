package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"stockledger/internal/dto"
	"stockledger/internal/model"
	"stockledger/internal/repository"
)

// CatalogService manages the products and warehouses the ledger operates on.
type CatalogService interface {
	CreateProduct(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	ListProducts(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	DeactivateProduct(ctx context.Context, id uuid.UUID) error

	CreateWarehouse(ctx context.Context, req dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error)
	ListWarehouses(ctx context.Context, includeInactive bool) ([]dto.WarehouseResponse, error)
	DeactivateWarehouse(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
}

func NewCatalogService(products repository.ProductRepository, warehouses repository.WarehouseRepository) CatalogService {
	return &catalogService{products: products, warehouses: warehouses}
}

func (s *catalogService) CreateProduct(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	category := req.Category
	if category == "" {
		category = "general"
	}
	unit := req.Unit
	if unit == "" {
		unit = "unit"
	}
	p := &model.Product{
		SKU:          req.SKU,
		Name:         req.Name,
		Description:  req.Description,
		Category:     category,
		SellingPrice: req.SellingPrice,
		MinStock:     req.MinStock,
		Unit:         unit,
		Active:       true,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Category != "" {
		p.Category = req.Category
	}
	if req.SellingPrice != nil {
		p.SellingPrice = *req.SellingPrice
	}
	if req.MinStock != nil {
		p.MinStock = *req.MinStock
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.ProductListResponse{
		Data:  make([]dto.ProductResponse, 0, len(products)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range products {
		resp.Data = append(resp.Data, productToResponse(&products[i]))
	}
	return resp, nil
}

func (s *catalogService) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	return s.products.SoftDelete(ctx, id)
}

func (s *catalogService) CreateWarehouse(ctx context.Context, req dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	w := &model.Warehouse{
		Code:     req.Code,
		Name:     req.Name,
		Location: req.Location,
		Active:   true,
	}
	if err := s.warehouses.Create(ctx, w); err != nil {
		return nil, err
	}
	return &dto.WarehouseResponse{
		ID: w.ID.String(), Code: w.Code, Name: w.Name, Location: w.Location, Active: w.Active,
	}, nil
}

func (s *catalogService) ListWarehouses(ctx context.Context, includeInactive bool) ([]dto.WarehouseResponse, error) {
	warehouses, err := s.warehouses.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.WarehouseResponse, len(warehouses))
	for i, w := range warehouses {
		resp[i] = dto.WarehouseResponse{
			ID: w.ID.String(), Code: w.Code, Name: w.Name, Location: w.Location, Active: w.Active,
		}
	}
	return resp, nil
}

func (s *catalogService) DeactivateWarehouse(ctx context.Context, id uuid.UUID) error {
	return s.warehouses.Deactivate(ctx, id)
}

func productToResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:           p.ID.String(),
		SKU:          p.SKU,
		Name:         p.Name,
		Description:  p.Description,
		Category:     p.Category,
		SellingPrice: p.SellingPrice,
		MinStock:     p.MinStock,
		Unit:         p.Unit,
		Active:       p.Active,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
}
