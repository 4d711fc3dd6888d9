package dto

import (
	"time"

	"posengine/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type DeductStockRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,gt=0"`
	// MovementType defaults to sale.
	MovementType string  `json:"movement_type" validate:"omitempty,oneof=sale damage transfer"`
	ReferenceID  *string `json:"reference_id"  validate:"omitempty,uuid"`
	Reason       *string `json:"reason"`
}

type AdjustStockRequest struct {
	ProductID      string `json:"product_id"      validate:"required,uuid"`
	AdjustmentType string `json:"adjustment_type" validate:"required,oneof=increase decrease set"`
	Quantity       int    `json:"quantity"        validate:"min=0"`
	Reason         string `json:"reason"          validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AvailableStockResponse struct {
	ProductID string `json:"product_id"`
	Available int    `json:"available"`
}

type MovementResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name"`
	MovementType  string    `json:"movement_type"`
	Quantity      int       `json:"quantity"`
	PreviousStock int       `json:"previous_stock"`
	NewStock      int       `json:"new_stock"`
	Reason        *string   `json:"reason"`
	ReferenceID   *string   `json:"reference_id"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewMovementResponse(m *model.InventoryMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID.String(),
		ProductID:     m.ProductID.String(),
		ProductName:   m.ProductName,
		MovementType:  m.MovementType,
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		Reason:        m.Reason,
		ReferenceID:   uuidPtrString(m.ReferenceID),
		UserID:        m.UserID.String(),
		UserName:      m.UserName,
		CreatedAt:     m.CreatedAt,
	}
}

func NewMovementList(ms []model.InventoryMovement) []MovementResponse {
	resp := make([]MovementResponse, len(ms))
	for i := range ms {
		resp[i] = NewMovementResponse(&ms[i])
	}
	return resp
}

type AdjustmentResponse struct {
	ID             string           `json:"id"`
	ProductID      string           `json:"product_id"`
	AdjustmentType string           `json:"adjustment_type"`
	Quantity       int              `json:"quantity"`
	PreviousStock  int              `json:"previous_stock"`
	NewStock       int              `json:"new_stock"`
	Reason         string           `json:"reason"`
	UserName       string           `json:"user_name"`
	CreatedAt      time.Time        `json:"created_at"`
	Movement       *MovementResponse `json:"movement,omitempty"`
}

func NewAdjustmentResponse(a *model.StockAdjustment, m *model.InventoryMovement) AdjustmentResponse {
	resp := AdjustmentResponse{
		ID:             a.ID.String(),
		ProductID:      a.ProductID.String(),
		AdjustmentType: a.AdjustmentType,
		Quantity:       a.Quantity,
		PreviousStock:  a.PreviousStock,
		NewStock:       a.NewStock,
		Reason:         a.Reason,
		UserName:       a.UserName,
		CreatedAt:      a.CreatedAt,
	}
	if m != nil {
		mv := NewMovementResponse(m)
		resp.Movement = &mv
	}
	return resp
}

func NewAdjustmentList(as []model.StockAdjustment) []AdjustmentResponse {
	resp := make([]AdjustmentResponse, len(as))
	for i := range as {
		resp[i] = NewAdjustmentResponse(&as[i], nil)
	}
	return resp
}

type LowStockItem struct {
	ProductID     string  `json:"product_id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Stock         int     `json:"stock"`
	Available     int     `json:"available"`
	StockFamilyID *string `json:"stock_family_id"`
}

type LowStockResponse struct {
	Threshold int            `json:"threshold"`
	Items     []LowStockItem `json:"items"`
}

type CategoryValue struct {
	Category string          `json:"category"`
	Products int             `json:"products"`
	Units    int             `json:"units"`
	Value    decimal.Decimal `json:"value"`
	Cost     decimal.Decimal `json:"cost"`
}

type StockValueResponse struct {
	ProductCount int             `json:"product_count"`
	TotalValue   decimal.Decimal `json:"total_value"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Categories   []CategoryValue `json:"categories"`
}
