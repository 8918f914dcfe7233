package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"stockledger/internal/dto"
	"stockledger/internal/model"
	"stockledger/internal/repository"
)

// AdjustmentService handles direct stock deductions (shrinkage, damage,
// manual corrections). The request is pre-checked against the projection with
// a plain read, then the same FIFO engine drains the lots so the ledger and
// the projection can never diverge. Inside the transaction the lock order is
// batches first, then the level row — the same order the sale path uses.
type AdjustmentService interface {
	Deduct(ctx context.Context, userID uuid.UUID, req dto.DeductStockRequest) (*dto.ConsumeStockResponse, error)
}

type adjustmentService struct {
	batches   repository.BatchRepository
	levels    repository.StockLevelRepository
	movements repository.StockMovementRepository
	products  repository.ProductRepository
	stock     StockService
}

func NewAdjustmentService(
	batches repository.BatchRepository,
	levels repository.StockLevelRepository,
	movements repository.StockMovementRepository,
	products repository.ProductRepository,
	stock StockService,
) AdjustmentService {
	return &adjustmentService{
		batches:   batches,
		levels:    levels,
		movements: movements,
		products:  products,
		stock:     stock,
	}
}

func (s *adjustmentService) Deduct(ctx context.Context, userID uuid.UUID, req dto.DeductStockRequest) (*dto.ConsumeStockResponse, error) {
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
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// Pre-flight against the projection, unlocked: a pair that has never
	// been stocked is a bad reference, not a shortfall. The FIFO walk's
	// batch locks are the real serialization.
	level, err := s.levels.Find(ctx, productID, warehouseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if level.Quantity < req.Quantity {
		return nil, &InsufficientStockError{
			ProductID: productID,
			Line:      -1,
			Requested: req.Quantity,
			Available: level.Quantity,
		}
	}

	var resp *dto.ConsumeStockResponse
	err = runTx(ctx, s.batches.DB(), func(tx *gorm.DB) error {
		// Batch locks first, level lock second — matches the sale commit,
		// so a concurrent Deduct and Commit on the same pair cannot
		// deadlock each other.
		res, err := s.stock.ConsumeTx(ctx, tx, productID, warehouseID, req.Quantity)
		if err != nil {
			return err
		}

		before := 0
		if locked, err := s.levels.FindTx(ctx, tx, productID, warehouseID); err == nil {
			before = locked.Quantity
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := s.levels.AdjustTx(tx, productID, warehouseID, -req.Quantity); err != nil {
			return err
		}
		if err := s.movements.CreateTx(tx, &model.StockMovement{
			ProductID:      productID,
			WarehouseID:    warehouseID,
			Type:           "adjustment",
			Quantity:       -req.Quantity,
			QuantityBefore: before,
			QuantityAfter:  before - req.Quantity,
			Reason:         req.Reason,
		}); err != nil {
			return err
		}

		resp = &dto.ConsumeStockResponse{
			CostConsumed: res.Cost,
			Batches:      takesToConsumptions(res.Takes),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("product_id", productID.String()).
		Int("quantity", req.Quantity).
		Str("reason", req.Reason).
		Str("user_id", userID.String()).
		Msg("stock deducted")
	return resp, nil
}
