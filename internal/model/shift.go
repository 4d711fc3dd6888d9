package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Shift states. active → completed | pending_approval → completed.
const (
	ShiftActive          = "active"
	ShiftCompleted       = "completed"
	ShiftPendingApproval = "pending_approval"
)

// Shift is a cashier's till session. Summary fields are computed once on end
// and frozen afterwards.
type Shift struct {
	ID             uuid.UUID       `gorm:"type:char(36);primaryKey"`
	UserID         uuid.UUID       `gorm:"type:char(36);not null;index"`
	UserName       string          `gorm:"type:varchar(200);not null"`
	StartTime      time.Time       `gorm:"not null;index"`
	EndTime        *time.Time
	OpeningBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ClosingBalance  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// ExpectedBalance = OpeningBalance + CashSales
	ExpectedBalance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Variance        *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Notes           *string          `gorm:"type:text"`
	Status          string           `gorm:"type:varchar(20);not null;index"`

	TotalSales        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalRefunds      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalCreditIssued decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CashSales         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	EFTSales          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TransactionCount  int             `gorm:"not null;default:0"`

	ApprovedBy *uuid.UUID `gorm:"type:char(36)"`
	ApprovedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (s *Shift) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
