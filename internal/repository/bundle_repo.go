package repository

import (
	"context"

	"posengine/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BundleRepository interface {
	Create(ctx context.Context, b *model.Bundle) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Bundle, error)
	List(ctx context.Context) ([]model.Bundle, error)
	// ListEnabled returns bundles flagged active. Validity windows are
	// checked by the caller against its own clock.
	ListEnabled(ctx context.Context) ([]model.Bundle, error)
	Update(ctx context.Context, b *model.Bundle) error
	AddProduct(ctx context.Context, bp *model.BundleProduct) error
	RemoveProduct(ctx context.Context, bundleID, productID uuid.UUID) (bool, error)
	// Delete removes the bundle and its product links.
	Delete(ctx context.Context, id uuid.UUID) error
}

type bundleRepo struct{ db *gorm.DB }

func NewBundleRepository(db *gorm.DB) BundleRepository { return &bundleRepo{db: db} }

func (r *bundleRepo) Create(ctx context.Context, b *model.Bundle) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *bundleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Bundle, error) {
	var b model.Bundle
	err := r.db.WithContext(ctx).Preload("Products").Where("id = ?", id).First(&b).Error
	return &b, err
}

func (r *bundleRepo) List(ctx context.Context) ([]model.Bundle, error) {
	var bundles []model.Bundle
	err := r.db.WithContext(ctx).Preload("Products").Order("name ASC").Order("id ASC").Find(&bundles).Error
	return bundles, err
}

func (r *bundleRepo) ListEnabled(ctx context.Context) ([]model.Bundle, error) {
	var bundles []model.Bundle
	err := r.db.WithContext(ctx).Preload("Products").
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&bundles).Error
	return bundles, err
}

func (r *bundleRepo) Update(ctx context.Context, b *model.Bundle) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(b).Error
}

func (r *bundleRepo) AddProduct(ctx context.Context, bp *model.BundleProduct) error {
	return r.db.WithContext(ctx).Create(bp).Error
}

func (r *bundleRepo) RemoveProduct(ctx context.Context, bundleID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("bundle_id = ? AND product_id = ?", bundleID, productID).
		Delete(&model.BundleProduct{})
	return res.RowsAffected > 0, res.Error
}

func (r *bundleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("bundle_id = ?", id).Delete(&model.BundleProduct{}).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Bundle{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
