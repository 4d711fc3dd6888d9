package dto

import (
	"time"

	"posengine/internal/model"
)

type CreateFamilyRequest struct {
	Name        string  `json:"name"        validate:"required,min=1,max=200"`
	Description *string `json:"description"`
	Category    string  `json:"category"    validate:"max=100"`
	TotalStock  int     `json:"total_stock" validate:"min=0"`
}

type AddMemberRequest struct {
	ProductID    string `json:"product_id"     validate:"required,uuid"`
	UnitsPerPack int    `json:"units_per_pack" validate:"required,min=1"`
	IsBaseUnit   bool   `json:"is_base_unit"`
}

type SetFamilyTotalRequest struct {
	TotalStock int    `json:"total_stock" validate:"min=0"`
	Reason     string `json:"reason"      validate:"required"`
}

type MemberResponse struct {
	ProductID    string `json:"product_id"`
	UnitsPerPack int    `json:"units_per_pack"`
	IsBaseUnit   bool   `json:"is_base_unit"`
	Available    int    `json:"available"`
}

type FamilyResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   *string          `json:"description"`
	Category      string           `json:"category"`
	BaseProductID *string          `json:"base_product_id"`
	TotalStock    int              `json:"total_stock"`
	Version       int64            `json:"version"`
	Members       []MemberResponse `json:"members"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func NewFamilyResponse(f *model.StockFamily) FamilyResponse {
	members := make([]MemberResponse, len(f.Members))
	for i, m := range f.Members {
		members[i] = MemberResponse{
			ProductID:    m.ProductID.String(),
			UnitsPerPack: m.UnitsPerPack,
			IsBaseUnit:   m.IsBaseUnit,
			Available:    f.TotalStock / m.UnitsPerPack,
		}
	}
	return FamilyResponse{
		ID:            f.ID.String(),
		Name:          f.Name,
		Description:   f.Description,
		Category:      f.Category,
		BaseProductID: uuidPtrString(f.BaseProductID),
		TotalStock:    f.TotalStock,
		Version:       f.Version,
		Members:       members,
		UpdatedAt:     f.UpdatedAt,
	}
}
