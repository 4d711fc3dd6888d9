package dto

import (
	"time"

	"posengine/internal/model"

	"github.com/shopspring/decimal"
)

type CreateCustomerRequest struct {
	FirstName string  `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string  `json:"last_name"  validate:"required,min=1,max=100"`
	Email     *string `json:"email"      validate:"omitempty,email"`
	Phone     *string `json:"phone"      validate:"omitempty,max=50"`
}

// AdjustBalanceRequest: a positive amount adds store credit, a negative one
// deducts it. Zero is rejected.
type AdjustBalanceRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=500"`
	SaleID      *string         `json:"sale_id"     validate:"omitempty,uuid"`
}

type RecordPurchaseRequest struct {
	Amount decimal.Decimal `json:"amount"  validate:"gt=0"`
	SaleID *string         `json:"sale_id" validate:"omitempty,uuid"`
}

type CustomerResponse struct {
	ID               string          `json:"id"`
	FirstName        string          `json:"first_name"`
	LastName         string          `json:"last_name"`
	Email            *string         `json:"email"`
	Phone            *string         `json:"phone"`
	CreditBalance    decimal.Decimal `json:"credit_balance"`
	TotalPurchases   decimal.Decimal `json:"total_purchases"`
	LastPurchaseDate *time.Time      `json:"last_purchase_date"`
}

func NewCustomerResponse(c *model.Customer) CustomerResponse {
	return CustomerResponse{
		ID:               c.ID.String(),
		FirstName:        c.FirstName,
		LastName:         c.LastName,
		Email:            c.Email,
		Phone:            c.Phone,
		CreditBalance:    c.CreditBalance,
		TotalPurchases:   c.TotalPurchases,
		LastPurchaseDate: c.LastPurchaseDate,
	}
}

type CustomerTransactionResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	SaleID      *string         `json:"sale_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewCustomerTransactionList(txs []model.CustomerTransaction) []CustomerTransactionResponse {
	resp := make([]CustomerTransactionResponse, len(txs))
	for i, t := range txs {
		resp[i] = CustomerTransactionResponse{
			ID:          t.ID.String(),
			Type:        t.Type,
			Amount:      t.Amount,
			Description: t.Description,
			SaleID:      uuidPtrString(t.SaleID),
			CreatedAt:   t.CreatedAt,
		}
	}
	return resp
}
