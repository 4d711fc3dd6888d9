package repository

import (
	"context"
	"time"

	"posengine/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	// Create persists the sale and its items.
	Create(ctx context.Context, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	// ListCompletedBetween returns completed sales with created_at in [from, to].
	ListCompletedBetween(ctx context.Context, from, to time.Time) ([]model.Sale, error)
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) Create(ctx context.Context, s *model.Sale) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&s).Error
	return &s, err
}

func (r *saleRepo) ListCompletedBetween(ctx context.Context, from, to time.Time) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at >= ? AND created_at <= ?", model.SaleCompleted, from.UTC(), to.UTC()).
		Order("created_at ASC").Find(&sales).Error
	return sales, err
}
