package repository

import (
	"context"

	"stockledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockLevelFilter defines filters for listing the stock-level projection.
type StockLevelFilter struct {
	WarehouseID *uuid.UUID
	BelowMin    bool // only rows at or under the product's MinStock
	Page        int
	Limit       int
}

// DriftRow is one reconciliation finding: a projection row whose quantity
// disagrees with the sum of its batches.
type DriftRow struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	LevelQty    int
	LedgerQty   int
}

type StockLevelRepository interface {
	Find(ctx context.Context, productID, warehouseID uuid.UUID) (*model.StockLevel, error)
	// FindTx locks the row FOR UPDATE when tx is live.
	FindTx(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID) (*model.StockLevel, error)
	CreateTx(tx *gorm.DB, l *model.StockLevel) error
	SaveTx(tx *gorm.DB, l *model.StockLevel) error
	// AdjustTx shifts the on-hand quantity by delta (negative = out).
	AdjustTx(tx *gorm.DB, productID, warehouseID uuid.UUID, delta int) error
	List(ctx context.Context, filter StockLevelFilter) ([]model.StockLevel, int64, error)
	// ListDrift reports pairs where the projection and the batch ledger
	// disagree. Expected to return nothing.
	ListDrift(ctx context.Context) ([]DriftRow, error)
}

type stockLevelRepo struct{ db *gorm.DB }

func NewStockLevelRepository(db *gorm.DB) StockLevelRepository { return &stockLevelRepo{db: db} }

func (r *stockLevelRepo) Find(ctx context.Context, productID, warehouseID uuid.UUID) (*model.StockLevel, error) {
	var l model.StockLevel
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&l).Error
	return &l, err
}

func (r *stockLevelRepo) FindTx(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID) (*model.StockLevel, error) {
	var l model.StockLevel
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&l).Error
	return &l, err
}

func (r *stockLevelRepo) CreateTx(tx *gorm.DB, l *model.StockLevel) error {
	return tx.Create(l).Error
}

func (r *stockLevelRepo) SaveTx(tx *gorm.DB, l *model.StockLevel) error {
	return tx.Save(l).Error
}

func (r *stockLevelRepo) AdjustTx(tx *gorm.DB, productID, warehouseID uuid.UUID, delta int) error {
	return tx.Model(&model.StockLevel{}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Update("quantity", gorm.Expr("quantity + ?", delta)).Error
}

func (r *stockLevelRepo) List(ctx context.Context, filter StockLevelFilter) ([]model.StockLevel, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockLevel{})

	if filter.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.BelowMin {
		q = q.Joins("JOIN products ON products.id = stock_levels.product_id").
			Where("stock_levels.quantity <= products.min_stock")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var levels []model.StockLevel
	err := q.Preload("Product").Preload("Warehouse").
		Order("updated_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&levels).Error
	return levels, total, err
}

func (r *stockLevelRepo) ListDrift(ctx context.Context) ([]DriftRow, error) {
	var rows []DriftRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT l.product_id, l.warehouse_id, l.quantity AS level_qty,
		       COALESCE(b.sum_remaining, 0) AS ledger_qty
		FROM stock_levels l
		LEFT JOIN (
		    SELECT product_id, warehouse_id, SUM(remaining) AS sum_remaining
		    FROM batches
		    WHERE active = true
		    GROUP BY product_id, warehouse_id
		) b ON b.product_id = l.product_id AND b.warehouse_id = l.warehouse_id
		WHERE l.quantity <> COALESCE(b.sum_remaining, 0)`,
	).Scan(&rows).Error
	return rows, err
}
