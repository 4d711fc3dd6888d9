package dto

import (
	"time"

	"posengine/internal/model"

	"github.com/shopspring/decimal"
)

type StartShiftRequest struct {
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"gt=0"`
}

type EndShiftRequest struct {
	ClosingBalance decimal.Decimal `json:"closing_balance" validate:"min=0"`
	Notes          *string         `json:"notes"           validate:"omitempty,max=1000"`
}

type ShiftSummaryResponse struct {
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalRefunds      decimal.Decimal `json:"total_refunds"`
	TotalCreditIssued decimal.Decimal `json:"total_credit_issued"`
	CashSales         decimal.Decimal `json:"cash_sales"`
	EFTSales          decimal.Decimal `json:"eft_sales"`
	TransactionCount  int             `json:"transaction_count"`
}

type ShiftResponse struct {
	ID              string                `json:"id"`
	UserID          string                `json:"user_id"`
	UserName        string                `json:"user_name"`
	Status          string                `json:"status"`
	StartTime       time.Time             `json:"start_time"`
	EndTime         *time.Time            `json:"end_time"`
	OpeningBalance  decimal.Decimal       `json:"opening_balance"`
	ClosingBalance  *decimal.Decimal      `json:"closing_balance"`
	ExpectedBalance *decimal.Decimal      `json:"expected_balance"`
	Variance        *decimal.Decimal      `json:"variance"`
	Notes           *string               `json:"notes"`
	Summary         *ShiftSummaryResponse `json:"summary,omitempty"`
	ApprovedBy      *string               `json:"approved_by"`
	ApprovedAt      *time.Time            `json:"approved_at"`
}

func NewShiftResponse(s *model.Shift) ShiftResponse {
	resp := ShiftResponse{
		ID:              s.ID.String(),
		UserID:          s.UserID.String(),
		UserName:        s.UserName,
		Status:          s.Status,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		OpeningBalance:  s.OpeningBalance,
		ClosingBalance:  s.ClosingBalance,
		ExpectedBalance: s.ExpectedBalance,
		Variance:        s.Variance,
		Notes:           s.Notes,
		ApprovedBy:      uuidPtrString(s.ApprovedBy),
		ApprovedAt:      s.ApprovedAt,
	}
	if s.Status != model.ShiftActive {
		resp.Summary = &ShiftSummaryResponse{
			TotalSales:        s.TotalSales,
			TotalRefunds:      s.TotalRefunds,
			TotalCreditIssued: s.TotalCreditIssued,
			CashSales:         s.CashSales,
			EFTSales:          s.EFTSales,
			TransactionCount:  s.TransactionCount,
		}
	}
	return resp
}

func NewShiftList(ss []model.Shift) []ShiftResponse {
	resp := make([]ShiftResponse, len(ss))
	for i := range ss {
		resp[i] = NewShiftResponse(&ss[i])
	}
	return resp
}
