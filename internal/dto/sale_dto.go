package dto

import (
	"time"

	"posengine/internal/model"

	"github.com/shopspring/decimal"
)

type SaleLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,gt=0"`
	// UnitPrice defaults to the catalog price when omitted.
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"omitempty,min=0"`
}

type CompleteSaleRequest struct {
	Lines         []SaleLineRequest `json:"lines"          validate:"required,min=1,dive"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=cash eft split"`
	// Split payments declare both portions; they must add up to the amount due.
	CashAmount   decimal.Decimal `json:"cash_amount"   validate:"min=0"`
	EFTAmount    decimal.Decimal `json:"eft_amount"    validate:"min=0"`
	CustomerID   *string         `json:"customer_id"   validate:"omitempty,uuid"`
	StoreCredit  decimal.Decimal `json:"store_credit"  validate:"min=0"`
	ApplyBundles bool            `json:"apply_bundles"`
	// Refund returns the goods to stock and records a negative total.
	Refund         bool `json:"refund"`
	RefundToCredit bool `json:"refund_to_credit"`
}

type SaleItemResponse struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type SaleResponse struct {
	ID            string             `json:"id"`
	ShiftID       *string            `json:"shift_id"`
	CustomerID    *string            `json:"customer_id"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	DiscountTotal decimal.Decimal    `json:"discount_total"`
	Total         decimal.Decimal    `json:"total"`
	PaymentMethod string             `json:"payment_method"`
	CashAmount    decimal.Decimal    `json:"cash_amount"`
	EFTAmount     decimal.Decimal    `json:"eft_amount"`
	CreditAmount  decimal.Decimal    `json:"credit_amount"`
	Items         []SaleItemResponse `json:"items"`
	CreatedAt     time.Time          `json:"created_at"`
}

func NewSaleResponse(s *model.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for i, it := range s.Items {
		items[i] = SaleItemResponse{
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		}
	}
	return SaleResponse{
		ID:            s.ID.String(),
		ShiftID:       uuidPtrString(s.ShiftID),
		CustomerID:    uuidPtrString(s.CustomerID),
		Subtotal:      s.Subtotal,
		DiscountTotal: s.DiscountTotal,
		Total:         s.Total,
		PaymentMethod: s.PaymentMethod,
		CashAmount:    s.CashAmount,
		EFTAmount:     s.EFTAmount,
		CreditAmount:  s.CreditAmount,
		Items:         items,
		CreatedAt:     s.CreatedAt,
	}
}
