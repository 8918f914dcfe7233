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

// maxConsumeAttempts bounds the plan/apply retry loop. With FOR UPDATE
// locking a conflict is rare (only possible against writers outside the
// lock), so a couple of replans is plenty; the bound is generous because a
// retry is cheap and a spurious ConcurrencyConflict is not.
const maxConsumeAttempts = 8

// StockService owns the FIFO consumption engine plus the read surface over
// levels and movements. Sale and adjustment services delegate their batch
// mutations here so there is exactly one code path that drains lots.
type StockService interface {
	// Consume is the standalone deduction operation: FIFO-drains the pair's
	// batches in its own transaction and records an adjustment movement.
	Consume(ctx context.Context, userID uuid.UUID, req dto.ConsumeStockRequest) (*dto.ConsumeStockResponse, error)

	// ConsumeTx runs the FIFO walk inside the caller's transaction and
	// returns the applied plan. It mutates batches only — movements and
	// level updates stay with the caller, which knows the business context.
	ConsumeTx(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID, qty int) (*ConsumptionResult, error)

	Levels(ctx context.Context, filter repository.StockLevelFilter) (*dto.StockLevelListResponse, error)
	Movements(ctx context.Context, filter repository.StockMovementFilter) (*dto.MovementListResponse, error)
	Lookup(ctx context.Context, sku string) (*dto.StockLookupResponse, error)
}

type stockService struct {
	batches   repository.BatchRepository
	levels    repository.StockLevelRepository
	movements repository.StockMovementRepository
	products  repository.ProductRepository
}

func NewStockService(
	batches repository.BatchRepository,
	levels repository.StockLevelRepository,
	movements repository.StockMovementRepository,
	products repository.ProductRepository,
) StockService {
	return &stockService{batches: batches, levels: levels, movements: movements, products: products}
}

func (s *stockService) ConsumeTx(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID, qty int) (*ConsumptionResult, error) {
	for attempt := 0; attempt < maxConsumeAttempts; attempt++ {
		batches, err := s.batches.ListEligibleTx(ctx, tx, productID, warehouseID)
		if err != nil {
			return nil, err
		}

		plan, err := planConsumption(batches, qty)
		if err != nil {
			var ise *InsufficientStockError
			if errors.As(err, &ise) {
				ise.ProductID = productID
			}
			return nil, err
		}

		now := time.Now()
		applied := make([]BatchTake, 0, len(plan.Takes))
		conflict := false
		for _, take := range plan.Takes {
			ok, err := s.batches.DecrementTx(tx, take.BatchID, take.Quantity, take.expectedRemaining, now)
			if err != nil {
				return nil, err
			}
			if !ok {
				conflict = true
				break
			}
			applied = append(applied, take)
		}
		if !conflict {
			return plan, nil
		}

		// Another writer moved a lot between our read and the CAS. Undo
		// what we applied and replan from the fresh state.
		for _, take := range applied {
			if err := s.batches.RestoreTx(tx, take.BatchID, take.Quantity); err != nil {
				return nil, err
			}
		}
		log.Warn().
			Str("product_id", productID.String()).
			Str("warehouse_id", warehouseID.String()).
			Int("attempt", attempt+1).
			Msg("fifo plan conflicted, replanning")
	}
	return nil, ErrConcurrencyConflict
}

func (s *stockService) Consume(ctx context.Context, userID uuid.UUID, req dto.ConsumeStockRequest) (*dto.ConsumeStockResponse, error) {
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

	var resp *dto.ConsumeStockResponse
	err = runTx(ctx, s.batches.DB(), func(tx *gorm.DB) error {
		res, err := s.ConsumeTx(ctx, tx, productID, warehouseID, req.Quantity)
		if err != nil {
			return err
		}

		before := 0
		if level, err := s.levels.FindTx(ctx, tx, productID, warehouseID); err == nil {
			before = level.Quantity
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
		Str("cost", resp.CostConsumed.String()).
		Str("user_id", userID.String()).
		Msg("stock consumed")
	return resp, nil
}

func (s *stockService) Levels(ctx context.Context, filter repository.StockLevelFilter) (*dto.StockLevelListResponse, error) {
	levels, total, err := s.levels.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.StockLevelListResponse{
		Data:  make([]dto.StockLevelResponse, 0, len(levels)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range levels {
		resp.Data = append(resp.Data, levelToResponse(&levels[i]))
	}
	return resp, nil
}

func (s *stockService) Movements(ctx context.Context, filter repository.StockMovementFilter) (*dto.MovementListResponse, error) {
	movements, total, err := s.movements.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.MovementListResponse{
		Data:  make([]dto.MovementResponse, 0, len(movements)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range movements {
		resp.Data = append(resp.Data, movementToResponse(&movements[i]))
	}
	return resp, nil
}

func (s *stockService) Lookup(ctx context.Context, sku string) (*dto.StockLookupResponse, error) {
	product, err := s.products.FindBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	available, err := s.batches.SumRemaining(ctx, product.ID, nil)
	if err != nil {
		return nil, err
	}
	return &dto.StockLookupResponse{
		SKU:       product.SKU,
		Name:      product.Name,
		Price:     product.SellingPrice,
		Available: available,
	}, nil
}

func takesToConsumptions(takes []BatchTake) []dto.LineConsumption {
	out := make([]dto.LineConsumption, 0, len(takes))
	for _, t := range takes {
		out = append(out, dto.LineConsumption{
			BatchNumber: t.BatchNumber,
			Quantity:    t.Quantity,
			UnitCost:    t.UnitCost,
		})
	}
	return out
}

func levelToResponse(l *model.StockLevel) dto.StockLevelResponse {
	resp := dto.StockLevelResponse{
		ProductID:   l.ProductID.String(),
		WarehouseID: l.WarehouseID.String(),
		Quantity:    l.Quantity,
		AvgUnitCost: l.AvgUnitCost,
	}
	if l.Product != nil {
		resp.Product = l.Product.Name
		resp.SKU = l.Product.SKU
		resp.BelowMin = l.Quantity <= l.Product.MinStock
	}
	if l.Warehouse != nil {
		resp.Warehouse = l.Warehouse.Name
	}
	return resp
}

func movementToResponse(m *model.StockMovement) dto.MovementResponse {
	resp := dto.MovementResponse{
		ID:             m.ID.String(),
		ProductID:      m.ProductID.String(),
		WarehouseID:    m.WarehouseID.String(),
		Type:           m.Type,
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Reason:         m.Reason,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
	if m.Product != nil {
		resp.Product = m.Product.Name
	}
	if m.ReferenceID != nil {
		ref := m.ReferenceID.String()
		resp.ReferenceID = &ref
	}
	return resp
}
