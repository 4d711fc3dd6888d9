package dto

import (
	"time"

	"posengine/internal/model"

	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Name      string          `json:"name"       validate:"required,min=1,max=200"`
	Category  string          `json:"category"   validate:"max=100"`
	Price     decimal.Decimal `json:"price"      validate:"min=0"`
	CostPrice decimal.Decimal `json:"cost_price" validate:"min=0"`
	Stock     int             `json:"stock"      validate:"min=0"`
}

// UpdateProductRequest never touches stock; stock changes go through
// adjustments so the ledger stays complete.
type UpdateProductRequest struct {
	Name      *string          `json:"name"       validate:"omitempty,min=1,max=200"`
	Category  *string          `json:"category"   validate:"omitempty,max=100"`
	Price     *decimal.Decimal `json:"price"      validate:"omitempty,min=0"`
	CostPrice *decimal.Decimal `json:"cost_price" validate:"omitempty,min=0"`
	Active    *bool            `json:"active"`
}

type ProductResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	Stock         int             `json:"stock"`
	StockFamilyID *string         `json:"stock_family_id"`
	Active        bool            `json:"active"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func NewProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		Category:      p.Category,
		Price:         p.Price,
		CostPrice:     p.CostPrice,
		Stock:         p.Stock,
		StockFamilyID: uuidPtrString(p.StockFamilyID),
		Active:        p.Active,
		UpdatedAt:     p.UpdatedAt,
	}
}
