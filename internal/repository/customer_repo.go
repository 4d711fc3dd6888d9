package repository

import (
	"context"
	"strings"
	"time"

	"posengine/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerRepository interface {
	Create(ctx context.Context, c *model.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	Search(ctx context.Context, query string, limit int) ([]model.Customer, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
	UpdatePurchaseStats(ctx context.Context, id uuid.UUID, total decimal.Decimal, at time.Time) error

	CreateTransaction(ctx context.Context, t *model.CustomerTransaction) error
	ListTransactions(ctx context.Context, customerID uuid.UUID) ([]model.CustomerTransaction, error)
	// ListTransactionsBetween returns every customer's transactions of one type
	// created within [from, to].
	ListTransactionsBetween(ctx context.Context, txType string, from, to time.Time) ([]model.CustomerTransaction, error)
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) Create(ctx context.Context, c *model.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *customerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	return &c, err
}

func (r *customerRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&c).Error
	return &c, err
}

func (r *customerRepo) Search(ctx context.Context, query string, limit int) ([]model.Customer, error) {
	q := r.db.WithContext(ctx).Model(&model.Customer{})
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?",
			like, like, like, like)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var customers []model.Customer
	err := q.Order("last_name ASC").Order("first_name ASC").Limit(limit).Find(&customers).Error
	return customers, err
}

func (r *customerRepo) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&model.Customer{}).Where("id = ?", id).
		Updates(map[string]any{"credit_balance": balance, "updated_at": time.Now().UTC()}).Error
}

func (r *customerRepo) UpdatePurchaseStats(ctx context.Context, id uuid.UUID, total decimal.Decimal, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Customer{}).Where("id = ?", id).
		Updates(map[string]any{
			"total_purchases":    total,
			"last_purchase_date": at.UTC(),
			"updated_at":         time.Now().UTC(),
		}).Error
}

func (r *customerRepo) CreateTransaction(ctx context.Context, t *model.CustomerTransaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *customerRepo) ListTransactions(ctx context.Context, customerID uuid.UUID) ([]model.CustomerTransaction, error) {
	var txs []model.CustomerTransaction
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).
		Order("created_at DESC").Order("id DESC").Find(&txs).Error
	return txs, err
}

func (r *customerRepo) ListTransactionsBetween(ctx context.Context, txType string, from, to time.Time) ([]model.CustomerTransaction, error) {
	var txs []model.CustomerTransaction
	err := r.db.WithContext(ctx).
		Where("type = ? AND created_at >= ? AND created_at <= ?", txType, from.UTC(), to.UTC()).
		Order("created_at ASC").Find(&txs).Error
	return txs, err
}
