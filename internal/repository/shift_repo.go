package repository

import (
	"context"

	"posengine/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShiftRepository interface {
	Create(ctx context.Context, s *model.Shift) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Shift, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Shift, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*model.Shift, error)
	// Transition persists s only while the stored status still equals from.
	// Returns false when another writer moved the shift first.
	Transition(ctx context.Context, s *model.Shift, from string) (bool, error)
	ListByStatus(ctx context.Context, status string) ([]model.Shift, error)
	List(ctx context.Context, rg Range) ([]model.Shift, error)
}

type shiftRepo struct{ db *gorm.DB }

func NewShiftRepository(db *gorm.DB) ShiftRepository { return &shiftRepo{db: db} }

func (r *shiftRepo) Create(ctx context.Context, s *model.Shift) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *shiftRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	var s model.Shift
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	return &s, err
}

func (r *shiftRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	var s model.Shift
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&s).Error
	return &s, err
}

func (r *shiftRepo) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*model.Shift, error) {
	var s model.Shift
	err := r.db.WithContext(ctx).Where("user_id = ? AND status = ?", userID, model.ShiftActive).First(&s).Error
	return &s, err
}

func (r *shiftRepo) Transition(ctx context.Context, s *model.Shift, from string) (bool, error) {
	res := r.db.WithContext(ctx).Model(s).
		Where("status = ?", from).
		Select("*").Omit("id", "created_at").
		Updates(s)
	return res.RowsAffected == 1, res.Error
}

func (r *shiftRepo) ListByStatus(ctx context.Context, status string) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).Where("status = ?", status).
		Order("end_time ASC").Order("id ASC").Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) List(ctx context.Context, rg Range) ([]model.Shift, error) {
	var shifts []model.Shift
	q := r.db.WithContext(ctx).Model(&model.Shift{})
	err := rg.apply(q, "start_time").Order("start_time DESC").Order("id DESC").Find(&shifts).Error
	return shifts, err
}
