package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockFamily is a shared pool of base units for products sold in different
// pack sizes (single, 6-pack, case). TotalStock never goes below zero and
// Version is bumped on every change to TotalStock.
type StockFamily struct {
	ID            uuid.UUID  `gorm:"type:char(36);primaryKey"`
	Name          string     `gorm:"type:varchar(200);not null"`
	Description   *string    `gorm:"type:text"`
	Category      string     `gorm:"type:varchar(100);not null;default:''"`
	BaseProductID *uuid.UUID `gorm:"type:char(36)"`
	TotalStock    int        `gorm:"not null;default:0"`
	Version       int64      `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Members []StockFamilyMember `gorm:"foreignKey:StockFamilyID"`
}

func (f *StockFamily) BeforeCreate(*gorm.DB) error {
	ensureID(&f.ID)
	return nil
}

// StockFamilyMember links one product to one family. A product belongs to at
// most one family.
type StockFamilyMember struct {
	ID            uuid.UUID `gorm:"type:char(36);primaryKey"`
	StockFamilyID uuid.UUID `gorm:"type:char(36);index;not null"`
	ProductID     uuid.UUID `gorm:"type:char(36);uniqueIndex;not null"`
	UnitsPerPack  int       `gorm:"not null"`
	IsBaseUnit    bool      `gorm:"not null"`
	CreatedAt     time.Time
}

func (m *StockFamilyMember) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
