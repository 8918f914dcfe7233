package repository

import (
	"context"
	"time"

	"stockledger/internal/dto"
	"stockledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	NextSaleNumber(ctx context.Context, tx *gorm.DB) (int, error)
	List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)
	// VoidTx flips the status and stamps the void metadata.
	VoidTx(tx *gorm.DB, id uuid.UUID, reason string, at time.Time) error
	// AddModificationTx appends to the post-hoc edit trail. Entries are
	// never updated or removed.
	AddModificationTx(tx *gorm.DB, m *model.SaleModification) error
	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	return tx.WithContext(ctx).Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Lines.Product").
		Preload("Lines.Consumptions").
		Preload("Payments").
		Preload("Modifications").
		First(&s, id).Error
	return &s, err
}

func (r *saleRepo) NextSaleNumber(ctx context.Context, tx *gorm.DB) (int, error) {
	// PostgreSQL sequence — atomic across concurrent instances.
	var num int
	err := tx.WithContext(ctx).Raw("SELECT nextval('sales_number_seq')").Scan(&num).Error
	return num, err
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Sale{})

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.WarehouseID != "" {
		q = q.Where("warehouse_id = ?", filter.WarehouseID)
	}
	if filter.Date != "" {
		q = q.Where("DATE(sale_date) = ?", filter.Date)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sales []model.Sale
	err := q.Preload("Lines.Product").Preload("Payments").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).Limit(filter.Limit).
		Find(&sales).Error
	return sales, total, err
}

func (r *saleRepo) VoidTx(tx *gorm.DB, id uuid.UUID, reason string, at time.Time) error {
	return tx.Model(&model.Sale{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      "voided",
			"void_reason": reason,
			"voided_at":   at,
		}).Error
}

func (r *saleRepo) AddModificationTx(tx *gorm.DB, m *model.SaleModification) error {
	return tx.Create(m).Error
}
