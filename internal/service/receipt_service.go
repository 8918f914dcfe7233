package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"stockledger/internal/dto"
	"stockledger/internal/model"
	"stockledger/internal/repository"
)

// ReceiptService turns goods receipts into cost lots. Each receipt becomes
// exactly one batch with its own unit cost; the stock-level projection and
// the movement trail are updated in the same transaction.
type ReceiptService interface {
	Receive(ctx context.Context, userID uuid.UUID, req dto.ReceiveStockRequest) (*dto.BatchResponse, error)
	GetBatch(ctx context.Context, id uuid.UUID) (*dto.BatchResponse, error)
	ListBatches(ctx context.Context, filter repository.BatchFilter) (*dto.BatchListResponse, error)
}

type receiptService struct {
	batches    repository.BatchRepository
	levels     repository.StockLevelRepository
	movements  repository.StockMovementRepository
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
}

func NewReceiptService(
	batches repository.BatchRepository,
	levels repository.StockLevelRepository,
	movements repository.StockMovementRepository,
	products repository.ProductRepository,
	warehouses repository.WarehouseRepository,
) ReceiptService {
	return &receiptService{
		batches:    batches,
		levels:     levels,
		movements:  movements,
		products:   products,
		warehouses: warehouses,
	}
}

func (s *receiptService) Receive(ctx context.Context, userID uuid.UUID, req dto.ReceiveStockRequest) (*dto.BatchResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, ErrNotFound
	}
	warehouseID, err := uuid.Parse(req.WarehouseID)
	if err != nil {
		return nil, ErrNotFound
	}
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if req.UnitCost.IsNegative() {
		return nil, ErrInvalidQuantity
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !product.Active {
		return nil, ErrNotFound
	}
	warehouse, err := s.warehouses.FindByID(ctx, warehouseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !warehouse.Active {
		return nil, ErrNotFound
	}

	var expiry *time.Time
	if req.ExpiryDate != nil && *req.ExpiryDate != "" {
		t, err := time.Parse("2006-01-02", *req.ExpiryDate)
		if err != nil {
			return nil, ErrInvalidQuantity
		}
		expiry = &t
	}

	now := time.Now()
	batch := &model.Batch{
		ProductID:        productID,
		WarehouseID:      warehouseID,
		UnitCost:         req.UnitCost,
		SellingPrice:     req.SellingPrice,
		QuantityReceived: req.Quantity,
		Remaining:        req.Quantity,
		ExpiryDate:       expiry,
		Status:           "open",
		Notes:            req.Notes,
		CreatedBy:        &userID,
		Active:           true,
	}

	err = runTx(ctx, s.batches.DB(), func(tx *gorm.DB) error {
		number, err := s.batches.NextBatchNumber(ctx, tx, now)
		if err != nil {
			return err
		}
		batch.BatchNumber = number

		if err := s.batches.Create(ctx, tx, batch); err != nil {
			return err
		}

		// Fold the receipt into the projection: quantity up, average cost
		// blended with the lot's unit cost.
		before := 0
		level, err := s.levels.FindTx(ctx, tx, productID, warehouseID)
		switch {
		case err == nil:
			before = level.Quantity
			level.BlendCost(req.Quantity, req.UnitCost)
			level.Quantity += req.Quantity
			if err := s.levels.SaveTx(tx, level); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := s.levels.CreateTx(tx, &model.StockLevel{
				ProductID:   productID,
				WarehouseID: warehouseID,
				Quantity:    req.Quantity,
				AvgUnitCost: req.UnitCost,
			}); err != nil {
				return err
			}
		default:
			return err
		}

		return s.movements.CreateTx(tx, &model.StockMovement{
			ProductID:      productID,
			WarehouseID:    warehouseID,
			Type:           "receipt",
			Quantity:       req.Quantity,
			QuantityBefore: before,
			QuantityAfter:  before + req.Quantity,
			Reason:         "goods receipt " + batch.BatchNumber,
			ReferenceID:    &batch.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("batch_number", batch.BatchNumber).
		Str("product_id", productID.String()).
		Int("quantity", req.Quantity).
		Str("unit_cost", req.UnitCost.String()).
		Msg("stock received")

	resp := batchToResponse(batch)
	resp.Product = product.Name
	resp.Warehouse = warehouse.Name
	return &resp, nil
}

func (s *receiptService) GetBatch(ctx context.Context, id uuid.UUID) (*dto.BatchResponse, error) {
	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	resp := batchToResponse(batch)
	return &resp, nil
}

func (s *receiptService) ListBatches(ctx context.Context, filter repository.BatchFilter) (*dto.BatchListResponse, error) {
	batches, total, err := s.batches.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.BatchListResponse{
		Data:  make([]dto.BatchResponse, 0, len(batches)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range batches {
		resp.Data = append(resp.Data, batchToResponse(&batches[i]))
	}
	return resp, nil
}

func batchToResponse(b *model.Batch) dto.BatchResponse {
	resp := dto.BatchResponse{
		ID:               b.ID.String(),
		ProductID:        b.ProductID.String(),
		WarehouseID:      b.WarehouseID.String(),
		BatchNumber:      b.BatchNumber,
		UnitCost:         b.UnitCost,
		SellingPrice:     b.SellingPrice,
		QuantityReceived: b.QuantityReceived,
		Remaining:        b.Remaining,
		Depleted:         b.Depleted,
		Status:           b.Status,
		CreatedAt:        b.CreatedAt.Format(time.RFC3339),
	}
	if b.ExpiryDate != nil {
		d := b.ExpiryDate.Format("2006-01-02")
		resp.ExpiryDate = &d
	}
	if b.Product != nil {
		resp.Product = b.Product.Name
	}
	if b.Warehouse != nil {
		resp.Warehouse = b.Warehouse.Name
	}
	return resp
}
