package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable catalog item. Stock is the pack-level count shown to
// operators; when StockFamilyID is set the authoritative quantity lives in the
// family's base-unit pool.
type Product struct {
	ID            uuid.UUID       `gorm:"type:char(36);primaryKey"`
	Name          string          `gorm:"type:varchar(200);index;not null"`
	Category      string          `gorm:"type:varchar(100);not null;default:''"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock         int             `gorm:"not null;default:0"`
	StockFamilyID *uuid.UUID      `gorm:"type:char(36);index"`
	Active        bool            `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
