package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stockledger/internal/dto"
	"stockledger/internal/model"
	"stockledger/internal/repository"
	"stockledger/internal/worker"
)

// SaleService coordinates multi-line sales over the FIFO engine. A commit is
// all-or-nothing: every line drains its batches, updates its level and writes
// its movement inside one transaction, or nothing is persisted at all.
type SaleService interface {
	Commit(ctx context.Context, userID uuid.UUID, req dto.CommitSaleRequest) (*dto.SaleResponse, error)
	Void(ctx context.Context, saleID, userID uuid.UUID, reason string) (*dto.SaleResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	sales      repository.SaleRepository
	levels     repository.StockLevelRepository
	movements  repository.StockMovementRepository
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	batches    repository.BatchRepository
	stock      StockService
	dispatcher *worker.Dispatcher
}

func NewSaleService(
	sales repository.SaleRepository,
	levels repository.StockLevelRepository,
	movements repository.StockMovementRepository,
	products repository.ProductRepository,
	warehouses repository.WarehouseRepository,
	batches repository.BatchRepository,
	stock StockService,
	dispatcher *worker.Dispatcher,
) SaleService {
	return &saleService{
		sales:      sales,
		levels:     levels,
		movements:  movements,
		products:   products,
		warehouses: warehouses,
		batches:    batches,
		stock:      stock,
		dispatcher: dispatcher,
	}
}

// resolvedLine carries a sale line with its product pre-loaded, so all
// reference failures surface before the transaction opens.
type resolvedLine struct {
	product *model.Product
	qty     int
	price   decimal.Decimal
}

func (s *saleService) Commit(ctx context.Context, userID uuid.UUID, req dto.CommitSaleRequest) (*dto.SaleResponse, error) {
	warehouseID, err := uuid.Parse(req.WarehouseID)
	if err != nil {
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
	if len(req.Lines) == 0 {
		return nil, ErrInvalidQuantity
	}

	// Resolve every reference before touching stock.
	lines := make([]resolvedLine, 0, len(req.Lines))
	totalRevenue := decimal.Zero
	for _, l := range req.Lines {
		productID, err := uuid.Parse(l.ProductID)
		if err != nil {
			return nil, ErrNotFound
		}
		if l.Quantity <= 0 {
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
		price := l.UnitPrice
		if price.IsZero() {
			price = product.SellingPrice
		}
		lines = append(lines, resolvedLine{product: product, qty: l.Quantity, price: price})
		totalRevenue = totalRevenue.Add(price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	if len(req.Payments) > 0 {
		paid := decimal.Zero
		for _, p := range req.Payments {
			paid = paid.Add(p.Amount)
		}
		if paid.LessThan(totalRevenue) {
			return nil, fmt.Errorf("payments total %s does not cover sale total %s", paid, totalRevenue)
		}
	}

	now := time.Now()
	// The ID is assigned up front so the per-line movements can reference
	// the sale before its row exists.
	sale := &model.Sale{
		ID:           uuid.New(),
		WarehouseID:  warehouseID,
		UserID:       userID,
		TotalRevenue: totalRevenue,
		SaleDate:     now,
		Status:       "completed",
	}

	err = runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		number, err := s.sales.NextSaleNumber(ctx, tx)
		if err != nil {
			return err
		}
		sale.Number = number

		totalCost := decimal.Zero
		for i, line := range lines {
			res, err := s.stock.ConsumeTx(ctx, tx, line.product.ID, warehouseID, line.qty)
			if err != nil {
				var ise *InsufficientStockError
				if errors.As(err, &ise) {
					ise.Line = i
				}
				return err
			}

			consumptions := make([]model.SaleLineBatch, 0, len(res.Takes))
			for _, t := range res.Takes {
				consumptions = append(consumptions, model.SaleLineBatch{
					BatchID:     t.BatchID,
					BatchNumber: t.BatchNumber,
					Quantity:    t.Quantity,
					UnitCost:    t.UnitCost,
				})
			}

			sale.Lines = append(sale.Lines, model.SaleLine{
				ProductID:    line.product.ID,
				Quantity:     line.qty,
				UnitPrice:    line.price,
				Total:        line.price.Mul(decimal.NewFromInt(int64(line.qty))),
				CostOfGoods:  res.Cost,
				Consumptions: consumptions,
			})
			totalCost = totalCost.Add(res.Cost)

			before := 0
			if level, err := s.levels.FindTx(ctx, tx, line.product.ID, warehouseID); err == nil {
				before = level.Quantity
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := s.levels.AdjustTx(tx, line.product.ID, warehouseID, -line.qty); err != nil {
				return err
			}
			if err := s.movements.CreateTx(tx, &model.StockMovement{
				ProductID:      line.product.ID,
				WarehouseID:    warehouseID,
				Type:           "sale",
				Quantity:       -line.qty,
				QuantityBefore: before,
				QuantityAfter:  before - line.qty,
				ReferenceID:    &sale.ID,
			}); err != nil {
				return err
			}
		}

		sale.TotalCost = totalCost
		sale.Profit = totalRevenue.Sub(totalCost)
		for _, p := range req.Payments {
			sale.Payments = append(sale.Payments, model.SalePayment{Method: p.Method, Amount: p.Amount})
		}
		return s.sales.Create(ctx, tx, sale)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("number", sale.Number).
		Str("warehouse_id", warehouseID.String()).
		Int("lines", len(sale.Lines)).
		Str("revenue", sale.TotalRevenue.String()).
		Str("cost", sale.TotalCost.String()).
		Msg("sale committed")

	// Low-stock checks run out of band; a full queue never fails the sale.
	if s.dispatcher != nil {
		for _, line := range lines {
			if err := s.dispatcher.EnqueueAlertCheck(ctx, line.product.ID, warehouseID); err != nil {
				log.Warn().Err(err).Str("product_id", line.product.ID.String()).
					Msg("could not enqueue low-stock check")
			}
		}
	}

	resp := s.saleToResponse(sale, lines)
	return resp, nil
}

func (s *saleService) Void(ctx context.Context, saleID, userID uuid.UUID, reason string) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if sale.Status == "voided" {
		return nil, fmt.Errorf("sale %d is already voided", sale.Number)
	}

	now := time.Now()
	err = runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		// Replay the recorded consumptions in reverse: each lot gets back
		// exactly what this sale took from it, so remaining can never
		// exceed the quantity received.
		for _, line := range sale.Lines {
			for _, c := range line.Consumptions {
				if err := s.batches.RestoreTx(tx, c.BatchID, c.Quantity); err != nil {
					return err
				}
			}

			before := 0
			if level, err := s.levels.FindTx(ctx, tx, line.ProductID, sale.WarehouseID); err == nil {
				before = level.Quantity
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := s.levels.AdjustTx(tx, line.ProductID, sale.WarehouseID, line.Quantity); err != nil {
				return err
			}
			if err := s.movements.CreateTx(tx, &model.StockMovement{
				ProductID:      line.ProductID,
				WarehouseID:    sale.WarehouseID,
				Type:           "void_restock",
				Quantity:       line.Quantity,
				QuantityBefore: before,
				QuantityAfter:  before + line.Quantity,
				Reason:         reason,
				ReferenceID:    &sale.ID,
			}); err != nil {
				return err
			}
		}

		if err := s.sales.VoidTx(tx, sale.ID, reason, now); err != nil {
			return err
		}
		return s.sales.AddModificationTx(tx, &model.SaleModification{
			SaleID: sale.ID,
			Action: "void",
			Reason: reason,
			UserID: userID,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int("number", sale.Number).Str("reason", reason).Msg("sale voided")

	sale.Status = "voided"
	sale.VoidReason = &reason
	sale.VoidedAt = &now
	resp := s.saleToResponse(sale, nil)
	return resp, nil
}

func (s *saleService) Get(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.saleToResponse(sale, nil), nil
}

func (s *saleService) List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	sales, total, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.SaleListResponse{
		Data:  make([]dto.SaleResponse, 0, len(sales)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range sales {
		resp.Data = append(resp.Data, *s.saleToResponse(&sales[i], nil))
	}
	return resp, nil
}

// saleToResponse maps a sale to its API shape. resolved, when non-nil, fills
// product names for a freshly committed sale whose associations are not
// preloaded.
func (s *saleService) saleToResponse(sale *model.Sale, resolved []resolvedLine) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:           sale.ID.String(),
		Number:       sale.Number,
		WarehouseID:  sale.WarehouseID.String(),
		TotalRevenue: sale.TotalRevenue,
		TotalCost:    sale.TotalCost,
		Profit:       sale.Profit,
		Status:       sale.Status,
		SaleDate:     sale.SaleDate.Format(time.RFC3339),
		CreatedAt:    sale.CreatedAt.Format(time.RFC3339),
	}
	for i, line := range sale.Lines {
		lr := dto.SaleLineResponse{
			ProductID:   line.ProductID.String(),
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Total:       line.Total,
			CostOfGoods: line.CostOfGoods,
		}
		if line.Product != nil {
			lr.Product = line.Product.Name
		} else if resolved != nil && i < len(resolved) {
			lr.Product = resolved[i].product.Name
		}
		for _, c := range line.Consumptions {
			lr.Consumptions = append(lr.Consumptions, dto.LineConsumption{
				BatchNumber: c.BatchNumber,
				Quantity:    c.Quantity,
				UnitCost:    c.UnitCost,
			})
		}
		resp.Lines = append(resp.Lines, lr)
	}
	for _, p := range sale.Payments {
		resp.Payments = append(resp.Payments, dto.PaymentRequest{Method: p.Method, Amount: p.Amount})
	}
	return resp
}
