package repository

import (
	"context"

	"posengine/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementRepository is append-only: there is no Update or Delete.
type MovementRepository interface {
	Create(ctx context.Context, m *model.InventoryMovement) error
	CreateAdjustment(ctx context.Context, a *model.StockAdjustment) error
	ListByProduct(ctx context.Context, productID uuid.UUID, rg Range) ([]model.InventoryMovement, error)
	List(ctx context.Context, rg Range) ([]model.InventoryMovement, error)
	ListAdjustments(ctx context.Context, rg Range) ([]model.StockAdjustment, error)
}

type movementRepo struct{ db *gorm.DB }

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepo{db: db}
}

func (r *movementRepo) Create(ctx context.Context, m *model.InventoryMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *movementRepo) CreateAdjustment(ctx context.Context, a *model.StockAdjustment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *movementRepo) ListByProduct(ctx context.Context, productID uuid.UUID, rg Range) ([]model.InventoryMovement, error) {
	var movements []model.InventoryMovement
	q := r.db.WithContext(ctx).Where("product_id = ?", productID)
	err := rg.apply(q, "created_at").Order("created_at DESC").Order("id DESC").Find(&movements).Error
	return movements, err
}

func (r *movementRepo) List(ctx context.Context, rg Range) ([]model.InventoryMovement, error) {
	var movements []model.InventoryMovement
	q := r.db.WithContext(ctx).Model(&model.InventoryMovement{})
	err := rg.apply(q, "created_at").Order("created_at DESC").Order("id DESC").Find(&movements).Error
	return movements, err
}

func (r *movementRepo) ListAdjustments(ctx context.Context, rg Range) ([]model.StockAdjustment, error) {
	var adjustments []model.StockAdjustment
	q := r.db.WithContext(ctx).Model(&model.StockAdjustment{})
	err := rg.apply(q, "created_at").Order("created_at DESC").Order("id DESC").Find(&adjustments).Error
	return adjustments, err
}
