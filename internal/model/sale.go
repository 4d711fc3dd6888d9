package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment methods. Split payments record both portions.
const (
	PaymentCash  = "cash"
	PaymentEFT   = "eft"
	PaymentSplit = "split"
)

const (
	SaleCompleted = "completed"
	SaleVoided    = "voided"
)

// Sale is a finalized checkout. A negative Total is a refund.
type Sale struct {
	ID            uuid.UUID       `gorm:"type:char(36);primaryKey"`
	UserID        uuid.UUID       `gorm:"type:char(36);not null"`
	ShiftID       *uuid.UUID      `gorm:"type:char(36);index"`
	CustomerID    *uuid.UUID      `gorm:"type:char(36);index"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountTotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod string          `gorm:"type:varchar(10);not null"`
	CashAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	EFTAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreditAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Status        string          `gorm:"type:varchar(20);not null;index:idx_sales_status_created"`
	CreatedAt     time.Time       `gorm:"index:idx_sales_status_created"`

	Items []SaleItem `gorm:"foreignKey:SaleID"`
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

type SaleItem struct {
	ID        uuid.UUID       `gorm:"type:char(36);primaryKey"`
	SaleID    uuid.UUID       `gorm:"type:char(36);not null;index"`
	ProductID uuid.UUID       `gorm:"type:char(36);not null"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (i *SaleItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
