package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bundle is a "buy N of these, pay X" promotion.
type Bundle struct {
	ID              uuid.UUID       `gorm:"type:char(36);primaryKey"`
	Name            string          `gorm:"type:varchar(200);not null"`
	Description     *string         `gorm:"type:text"`
	MinimumQuantity int             `gorm:"not null"`
	BundlePrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IsActive        bool            `gorm:"not null"`
	ValidFrom       *time.Time
	ValidTo         *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Products []BundleProduct `gorm:"foreignKey:BundleID"`
}

func (b *Bundle) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

// ProductIDs lists the member product ids.
func (b *Bundle) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(b.Products))
	for i, p := range b.Products {
		ids[i] = p.ProductID
	}
	return ids
}

type BundleProduct struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	BundleID  uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_bundle_product"`
	ProductID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_bundle_product"`
}

func (p *BundleProduct) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
