package repository

import (
	"context"

	"posengine/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository defines the data access contract for catalog products.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Update(ctx context.Context, p *model.Product) error
	SetStock(ctx context.Context, id uuid.UUID, stock int) error
	LinkFamily(ctx context.Context, id uuid.UUID, familyID *uuid.UUID) error
	UnlinkFamily(ctx context.Context, familyID uuid.UUID) error
	ListActive(ctx context.Context) ([]model.Product, error)
	ListByFamily(ctx context.Context, familyID uuid.UUID) ([]model.Product, error)
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	return &p, err
}

func (r *productRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&p).Error
	return &p, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("stock", stock).Error
}

func (r *productRepo) LinkFamily(ctx context.Context, id uuid.UUID, familyID *uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("stock_family_id", familyID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UnlinkFamily clears the family reference on every member product.
func (r *productRepo) UnlinkFamily(ctx context.Context, familyID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("stock_family_id = ?", familyID).
		Update("stock_family_id", nil).Error
}

func (r *productRepo) ListActive(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Where("stock_family_id = ?", familyID).Order("name ASC").Find(&products).Error
	return products, err
}
