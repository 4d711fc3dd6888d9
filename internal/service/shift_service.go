package service

import (
	"context"
	"io"

	"posengine/internal/apierror"
	"posengine/internal/infra"
	"posengine/internal/model"
	"posengine/internal/repository"
	"posengine/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultVarianceThreshold is the absolute cash variance above which a
// closed shift needs manager approval.
var DefaultVarianceThreshold = decimal.NewFromInt(10)

// ShiftSummary is the sales snapshot frozen onto a shift when it ends.
type ShiftSummary struct {
	TotalSales        decimal.Decimal
	TotalRefunds      decimal.Decimal
	TotalCreditIssued decimal.Decimal
	CashSales         decimal.Decimal
	EFTSales          decimal.Decimal
	TransactionCount  int
}

// ShiftService drives the cash-drawer state machine:
// active → completed | pending_approval → completed.
type ShiftService interface {
	Start(ctx context.Context, actor Actor, openingBalance decimal.Decimal) (*model.Shift, error)
	End(ctx context.Context, shiftID uuid.UUID, closingBalance decimal.Decimal, notes *string) (*model.Shift, error)
	// Approve resolves a pending_approval shift. Callers check the manager
	// role before calling.
	Approve(ctx context.Context, shiftID uuid.UUID, approver Actor) (*model.Shift, error)
	ActiveShiftFor(ctx context.Context, userID uuid.UUID) (*model.Shift, error)
	PendingApprovals(ctx context.Context) ([]model.Shift, error)
	History(ctx context.Context, rg repository.Range) ([]model.Shift, error)
	Get(ctx context.Context, shiftID uuid.UUID) (*model.Shift, error)
	WriteReport(ctx context.Context, shiftID uuid.UUID, w io.Writer) error
}

type shiftService struct {
	store     *repository.Store
	clock     Clock
	threshold decimal.Decimal
	alerts    AlertPublisher
}

func NewShiftService(store *repository.Store, clock Clock, threshold decimal.Decimal, alerts AlertPublisher) ShiftService {
	if threshold.IsNegative() {
		threshold = DefaultVarianceThreshold
	}
	return &shiftService{store: store, clock: clock, threshold: threshold, alerts: alerts}
}

// ── Start ────────────────────────────────────────────────────────────────────

func (s *shiftService) Start(ctx context.Context, actor Actor, openingBalance decimal.Decimal) (*model.Shift, error) {
	if err := validateActor(actor); err != nil {
		return nil, err
	}
	if !openingBalance.IsPositive() {
		return nil, apierror.Validation("opening balance must be positive")
	}

	var shift *model.Shift
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		// Locking the user row serializes concurrent starts for one user.
		user, err := tx.Users.FindByIDForUpdate(ctx, actor.ID)
		if err != nil {
			return lookup(err, "user", actor.ID)
		}
		if _, err := tx.Shifts.FindActiveByUser(ctx, user.ID); err == nil {
			return apierror.Conflict("user already has an active shift")
		} else if !repository.IsNotFound(err) {
			return repository.Classify(err)
		}

		name := actor.Name
		if name == "" {
			name = user.Name
		}
		shift = &model.Shift{
			UserID:            user.ID,
			UserName:          name,
			StartTime:         s.clock.now(),
			OpeningBalance:    openingBalance,
			Status:            model.ShiftActive,
			TotalSales:        decimal.Zero,
			TotalRefunds:      decimal.Zero,
			TotalCreditIssued: decimal.Zero,
			CashSales:         decimal.Zero,
			EFTSales:          decimal.Zero,
		}
		if err := tx.Shifts.Create(ctx, shift); err != nil {
			if apierror.Is(repository.Classify(err), apierror.KindConflict) {
				return apierror.Conflict("user already has an active shift")
			}
			return repository.Classify(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shift, nil
}

// ── End ──────────────────────────────────────────────────────────────────────
// now is captured once: sales committed after this call are excluded even if
// their timestamp falls inside the window.

func (s *shiftService) End(ctx context.Context, shiftID uuid.UUID, closingBalance decimal.Decimal, notes *string) (*model.Shift, error) {
	if closingBalance.IsNegative() {
		return nil, apierror.Validation("closing balance cannot be negative")
	}
	now := s.clock.now()

	var shift *model.Shift
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		shift, err = tx.Shifts.FindByIDForUpdate(ctx, shiftID)
		if err != nil {
			return lookup(err, "shift", shiftID)
		}
		if shift.Status != model.ShiftActive {
			return apierror.Conflict("shift is %s, only active shifts can be ended", shift.Status)
		}

		sales, err := tx.Sales.ListCompletedBetween(ctx, shift.StartTime, now)
		if err != nil {
			return repository.Classify(err)
		}
		credits, err := tx.Customers.ListTransactionsBetween(ctx, model.TxCreditAdd, shift.StartTime, now)
		if err != nil {
			return repository.Classify(err)
		}
		summary := Summarize(sales, credits)

		expected := shift.OpeningBalance.Add(summary.CashSales)
		variance := closingBalance.Sub(expected)
		status := model.ShiftCompleted
		if variance.Abs().GreaterThan(s.threshold) {
			status = model.ShiftPendingApproval
		}

		shift.EndTime = &now
		shift.ClosingBalance = &closingBalance
		shift.ExpectedBalance = &expected
		shift.Variance = &variance
		shift.Notes = notes
		shift.Status = status
		shift.TotalSales = summary.TotalSales
		shift.TotalRefunds = summary.TotalRefunds
		shift.TotalCreditIssued = summary.TotalCreditIssued
		shift.CashSales = summary.CashSales
		shift.EFTSales = summary.EFTSales
		shift.TransactionCount = summary.TransactionCount

		ok, err := tx.Shifts.Transition(ctx, shift, model.ShiftActive)
		if err != nil {
			return repository.Classify(err)
		}
		if !ok {
			return apierror.Conflict("shift %s was closed concurrently", shiftID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if shift.Status == model.ShiftPendingApproval {
		publishShiftPending(ctx, s.alerts, worker.ShiftAlert{
			ShiftID:  shift.ID.String(),
			UserID:   shift.UserID.String(),
			UserName: shift.UserName,
			Variance: *shift.Variance,
		})
	}
	return shift, nil
}

// Summarize aggregates completed sales and credit issued in a shift window.
// Only positive totals count as sales; everything else is a refund and does
// not touch the drawer. Cash and EFT sales count what was actually tendered
// by that method: store credit applied to a sale is excluded.
func Summarize(sales []model.Sale, credits []model.CustomerTransaction) ShiftSummary {
	sum := ShiftSummary{
		TotalSales:        decimal.Zero,
		TotalRefunds:      decimal.Zero,
		TotalCreditIssued: decimal.Zero,
		CashSales:         decimal.Zero,
		EFTSales:          decimal.Zero,
		TransactionCount:  len(sales),
	}
	for _, sale := range sales {
		if !sale.Total.IsPositive() {
			sum.TotalRefunds = sum.TotalRefunds.Add(sale.Total.Abs())
			continue
		}
		sum.TotalSales = sum.TotalSales.Add(sale.Total)
		tendered := sale.Total.Sub(sale.CreditAmount)
		switch sale.PaymentMethod {
		case model.PaymentCash:
			sum.CashSales = sum.CashSales.Add(tendered)
		case model.PaymentEFT:
			sum.EFTSales = sum.EFTSales.Add(tendered)
		case model.PaymentSplit:
			sum.CashSales = sum.CashSales.Add(sale.CashAmount)
			sum.EFTSales = sum.EFTSales.Add(sale.EFTAmount)
		}
	}
	for _, c := range credits {
		if c.Type == model.TxCreditAdd {
			sum.TotalCreditIssued = sum.TotalCreditIssued.Add(c.Amount)
		}
	}
	return sum
}

// ── Approve ──────────────────────────────────────────────────────────────────

func (s *shiftService) Approve(ctx context.Context, shiftID uuid.UUID, approver Actor) (*model.Shift, error) {
	if err := validateActor(approver); err != nil {
		return nil, err
	}
	var shift *model.Shift
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		shift, err = tx.Shifts.FindByIDForUpdate(ctx, shiftID)
		if err != nil {
			return lookup(err, "shift", shiftID)
		}
		if shift.Status != model.ShiftPendingApproval {
			return apierror.Conflict("shift is %s, only pending_approval shifts can be approved", shift.Status)
		}
		now := s.clock.now()
		shift.Status = model.ShiftCompleted
		shift.ApprovedBy = &approver.ID
		shift.ApprovedAt = &now

		ok, err := tx.Shifts.Transition(ctx, shift, model.ShiftPendingApproval)
		if err != nil {
			return repository.Classify(err)
		}
		if !ok {
			return apierror.Conflict("shift %s was approved concurrently", shiftID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shift, nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *shiftService) ActiveShiftFor(ctx context.Context, userID uuid.UUID) (*model.Shift, error) {
	shift, err := s.store.Shifts.FindActiveByUser(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound("no active shift for user %s", userID)
		}
		return nil, repository.Classify(err)
	}
	return shift, nil
}

func (s *shiftService) PendingApprovals(ctx context.Context) ([]model.Shift, error) {
	shifts, err := s.store.Shifts.ListByStatus(ctx, model.ShiftPendingApproval)
	return shifts, repository.Classify(err)
}

func (s *shiftService) History(ctx context.Context, rg repository.Range) ([]model.Shift, error) {
	if rg.From != nil && rg.To != nil && rg.To.Before(*rg.From) {
		return nil, apierror.Validation("range end is before its start")
	}
	shifts, err := s.store.Shifts.List(ctx, rg)
	return shifts, repository.Classify(err)
}

func (s *shiftService) Get(ctx context.Context, shiftID uuid.UUID) (*model.Shift, error) {
	shift, err := s.store.Shifts.FindByID(ctx, shiftID)
	if err != nil {
		return nil, lookup(err, "shift", shiftID)
	}
	return shift, nil
}

func (s *shiftService) WriteReport(ctx context.Context, shiftID uuid.UUID, w io.Writer) error {
	shift, err := s.Get(ctx, shiftID)
	if err != nil {
		return err
	}
	if shift.Status == model.ShiftActive {
		return apierror.Conflict("shift %s is still active", shiftID)
	}
	return infra.WriteShiftReportPDF(w, shift)
}

