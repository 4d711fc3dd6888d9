package dto

import (
	"time"

	"posengine/internal/bundle"
	"posengine/internal/model"

	"github.com/shopspring/decimal"
)

type CreateBundleRequest struct {
	Name            string          `json:"name"             validate:"required,min=1,max=200"`
	Description     *string         `json:"description"`
	MinimumQuantity int             `json:"minimum_quantity" validate:"required,min=1"`
	BundlePrice     decimal.Decimal `json:"bundle_price"     validate:"gt=0"`
	IsActive        bool            `json:"is_active"`
	ValidFrom       *time.Time      `json:"valid_from"`
	ValidTo         *time.Time      `json:"valid_to"`
	ProductIDs      []string        `json:"product_ids"      validate:"required,min=1,dive,uuid"`
}

type UpdateBundleRequest struct {
	Name            *string          `json:"name"             validate:"omitempty,min=1,max=200"`
	Description     *string          `json:"description"`
	MinimumQuantity *int             `json:"minimum_quantity" validate:"omitempty,min=1"`
	BundlePrice     *decimal.Decimal `json:"bundle_price"     validate:"omitempty,gt=0"`
	IsActive        *bool            `json:"is_active"`
	ValidFrom       *time.Time       `json:"valid_from"`
	ValidTo         *time.Time       `json:"valid_to"`
}

type BundleProductRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

type CartLine struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int             `json:"quantity"   validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"min=0"`
}

type ApplyBundlesRequest struct {
	Lines []CartLine `json:"lines" validate:"required,min=1,dive"`
}

type BundleResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     *string         `json:"description"`
	MinimumQuantity int             `json:"minimum_quantity"`
	BundlePrice     decimal.Decimal `json:"bundle_price"`
	IsActive        bool            `json:"is_active"`
	ValidFrom       *time.Time      `json:"valid_from"`
	ValidTo         *time.Time      `json:"valid_to"`
	ProductIDs      []string        `json:"product_ids"`
}

func NewBundleResponse(b *model.Bundle) BundleResponse {
	ids := make([]string, len(b.Products))
	for i, p := range b.Products {
		ids[i] = p.ProductID.String()
	}
	return BundleResponse{
		ID:              b.ID.String(),
		Name:            b.Name,
		Description:     b.Description,
		MinimumQuantity: b.MinimumQuantity,
		BundlePrice:     b.BundlePrice,
		IsActive:        b.IsActive,
		ValidFrom:       b.ValidFrom,
		ValidTo:         b.ValidTo,
		ProductIDs:      ids,
	}
}

func NewBundleList(bs []model.Bundle) []BundleResponse {
	resp := make([]BundleResponse, len(bs))
	for i := range bs {
		resp[i] = NewBundleResponse(&bs[i])
	}
	return resp
}

type BundleApplicationResponse struct {
	BundleID       string          `json:"bundle_id"`
	BundleName     string          `json:"bundle_name"`
	ProductIDs     []string        `json:"product_ids"`
	BundleQuantity int             `json:"bundle_quantity"`
	OriginalTotal  decimal.Decimal `json:"original_total"`
	BundleTotal    decimal.Decimal `json:"bundle_total"`
	Savings        decimal.Decimal `json:"savings"`
}

func NewApplicationList(apps []bundle.Application) []BundleApplicationResponse {
	resp := make([]BundleApplicationResponse, len(apps))
	for i, a := range apps {
		ids := make([]string, len(a.ProductIDs))
		for j, id := range a.ProductIDs {
			ids[j] = id.String()
		}
		resp[i] = BundleApplicationResponse{
			BundleID:       a.BundleID.String(),
			BundleName:     a.BundleName,
			ProductIDs:     ids,
			BundleQuantity: a.BundleQuantity,
			OriginalTotal:  a.OriginalTotal,
			BundleTotal:    a.BundleTotal,
			Savings:        a.Savings,
		}
	}
	return resp
}
