package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Movement types.
const (
	MovementSale       = "sale"
	MovementAdjustment = "adjustment"
	MovementRestock    = "restock"
	MovementReturn     = "return"
	MovementDamage     = "damage"
	MovementTransfer   = "transfer"
)

// ValidMovementType reports whether t is a known movement type.
func ValidMovementType(t string) bool {
	switch t {
	case MovementSale, MovementAdjustment, MovementRestock, MovementReturn, MovementDamage, MovementTransfer:
		return true
	}
	return false
}

// InventoryMovement is an immutable entry in the stock ledger.
// Quantity is signed and NewStock = PreviousStock + Quantity.
// Rows are NEVER updated or deleted.
type InventoryMovement struct {
	ID            uuid.UUID  `gorm:"type:char(36);primaryKey"`
	ProductID     uuid.UUID  `gorm:"type:char(36);not null;index:idx_movements_product_created"`
	ProductName   string     `gorm:"type:varchar(200);not null"`
	MovementType  string     `gorm:"type:varchar(20);not null"`
	Quantity      int        `gorm:"not null"`
	PreviousStock int        `gorm:"not null"`
	NewStock      int        `gorm:"not null"`
	Reason        *string    `gorm:"type:text"`
	ReferenceID   *uuid.UUID `gorm:"type:char(36);index"` // sale or adjustment id
	UserID        uuid.UUID  `gorm:"type:char(36);not null"`
	UserName      string     `gorm:"type:varchar(200);not null"`
	CreatedAt     time.Time  `gorm:"index:idx_movements_product_created"`
}

func (m *InventoryMovement) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// Adjustment types.
const (
	AdjustIncrease = "increase"
	AdjustDecrease = "decrease"
	AdjustSet      = "set"
)

// StockAdjustment records a manual correction. Each one is paired with exactly
// one InventoryMovement whose ReferenceID points back here.
type StockAdjustment struct {
	ID             uuid.UUID `gorm:"type:char(36);primaryKey"`
	ProductID      uuid.UUID `gorm:"type:char(36);not null;index"`
	AdjustmentType string    `gorm:"type:varchar(20);not null"`
	Quantity       int       `gorm:"not null"`
	PreviousStock  int       `gorm:"not null"`
	NewStock       int       `gorm:"not null"`
	Reason         string    `gorm:"type:text;not null"`
	UserID         uuid.UUID `gorm:"type:char(36);not null"`
	UserName       string    `gorm:"type:varchar(200);not null"`
	CreatedAt      time.Time
}

func (a *StockAdjustment) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
