package repository

import (
	"context"
	"time"

	"posengine/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockFamilyRepository interface {
	Create(ctx context.Context, f *model.StockFamily) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockFamily, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.StockFamily, error)
	List(ctx context.Context) ([]model.StockFamily, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetBaseProduct(ctx context.Context, id uuid.UUID, productID *uuid.UUID) error

	CreateMember(ctx context.Context, m *model.StockFamilyMember) error
	FindMemberByProduct(ctx context.Context, productID uuid.UUID) (*model.StockFamilyMember, error)
	DeleteMember(ctx context.Context, familyID, productID uuid.UUID) (bool, error)
	DeleteMembers(ctx context.Context, familyID uuid.UUID) error

	// DecrementTotal removes units from the pool only if enough remain.
	// Returns false when the guard rejected the write.
	DecrementTotal(ctx context.Context, id uuid.UUID, units int) (bool, error)
	// SetTotal writes a new total when the row still carries expectedVersion.
	SetTotal(ctx context.Context, id uuid.UUID, total int, expectedVersion int64) (bool, error)
}

type stockFamilyRepo struct{ db *gorm.DB }

func NewStockFamilyRepository(db *gorm.DB) StockFamilyRepository {
	return &stockFamilyRepo{db: db}
}

func (r *stockFamilyRepo) Create(ctx context.Context, f *model.StockFamily) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(f).Error
}

func (r *stockFamilyRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockFamily, error) {
	var f model.StockFamily
	err := r.db.WithContext(ctx).Preload("Members", func(db *gorm.DB) *gorm.DB {
		return db.Order("units_per_pack ASC")
	}).Where("id = ?", id).First(&f).Error
	return &f, err
}

func (r *stockFamilyRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.StockFamily, error) {
	var f model.StockFamily
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&f).Error
	return &f, err
}

func (r *stockFamilyRepo) List(ctx context.Context) ([]model.StockFamily, error) {
	var families []model.StockFamily
	err := r.db.WithContext(ctx).Preload("Members").Order("name ASC").Find(&families).Error
	return families, err
}

func (r *stockFamilyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.StockFamily{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *stockFamilyRepo) SetBaseProduct(ctx context.Context, id uuid.UUID, productID *uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.StockFamily{}).Where("id = ?", id).
		Update("base_product_id", productID).Error
}

func (r *stockFamilyRepo) CreateMember(ctx context.Context, m *model.StockFamilyMember) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *stockFamilyRepo) FindMemberByProduct(ctx context.Context, productID uuid.UUID) (*model.StockFamilyMember, error) {
	var m model.StockFamilyMember
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&m).Error
	return &m, err
}

func (r *stockFamilyRepo) DeleteMember(ctx context.Context, familyID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("stock_family_id = ? AND product_id = ?", familyID, productID).
		Delete(&model.StockFamilyMember{})
	return res.RowsAffected > 0, res.Error
}

func (r *stockFamilyRepo) DeleteMembers(ctx context.Context, familyID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("stock_family_id = ?", familyID).Delete(&model.StockFamilyMember{}).Error
}

func (r *stockFamilyRepo) DecrementTotal(ctx context.Context, id uuid.UUID, units int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.StockFamily{}).
		Where("id = ? AND total_stock >= ?", id, units).
		UpdateColumns(map[string]any{
			"total_stock": gorm.Expr("total_stock - ?", units),
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now().UTC(),
		})
	return res.RowsAffected == 1, res.Error
}

func (r *stockFamilyRepo) SetTotal(ctx context.Context, id uuid.UUID, total int, expectedVersion int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.StockFamily{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		UpdateColumns(map[string]any{
			"total_stock": total,
			"version":     expectedVersion + 1,
			"updated_at":  time.Now().UTC(),
		})
	return res.RowsAffected == 1, res.Error
}
