package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer holds a store-credit balance. The balance may go negative.
type Customer struct {
	ID               uuid.UUID       `gorm:"type:char(36);primaryKey"`
	FirstName        string          `gorm:"type:varchar(100);not null"`
	LastName         string          `gorm:"type:varchar(100);not null"`
	Email            *string         `gorm:"type:varchar(200);index"`
	Phone            *string         `gorm:"type:varchar(50)"`
	CreditBalance    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalPurchases   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	LastPurchaseDate *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Customer transaction types.
const (
	TxPurchase     = "purchase"
	TxCreditAdd    = "credit_add"
	TxCreditDeduct = "credit_deduct"
)

// CustomerTransaction is an immutable history entry. Amount is always >= 0;
// the direction is carried by Type.
type CustomerTransaction struct {
	ID          uuid.UUID       `gorm:"type:char(36);primaryKey"`
	CustomerID  uuid.UUID       `gorm:"type:char(36);not null;index"`
	Type        string          `gorm:"type:varchar(20);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description string          `gorm:"type:text;not null"`
	SaleID      *uuid.UUID      `gorm:"type:char(36)"`
	CreatedAt   time.Time       `gorm:"index"`
}

func (t *CustomerTransaction) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
