package service

import (
	"context"
	"strings"

	"posengine/internal/apierror"
	"posengine/internal/dto"
	"posengine/internal/model"
	"posengine/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultCreditDescription = "Manual balance adjustment"
	purchaseDescription      = "Purchase"
)

// CustomerService manages customers and their store-credit ledger.
type CustomerService interface {
	Create(ctx context.Context, req dto.CreateCustomerRequest) (*model.Customer, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	Search(ctx context.Context, query string, limit int) ([]model.Customer, error)

	// AdjustBalance adds amount (negative deducts) to the credit balance.
	// The balance may go below zero.
	AdjustBalance(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, description string, saleID *uuid.UUID) (*model.Customer, error)
	AdjustBalanceTx(ctx context.Context, tx *repository.Store, customerID uuid.UUID, amount decimal.Decimal, description string, saleID *uuid.UUID) (*model.Customer, error)
	// RecordPurchase bumps lifetime purchases without touching credit.
	RecordPurchase(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, saleID *uuid.UUID) (*model.Customer, error)
	RecordPurchaseTx(ctx context.Context, tx *repository.Store, customerID uuid.UUID, amount decimal.Decimal, saleID *uuid.UUID) (*model.Customer, error)
	TransactionHistory(ctx context.Context, customerID uuid.UUID) ([]model.CustomerTransaction, error)
}

type customerService struct {
	store *repository.Store
	clock Clock
}

func NewCustomerService(store *repository.Store, clock Clock) CustomerService {
	return &customerService{store: store, clock: clock}
}

func (s *customerService) Create(ctx context.Context, req dto.CreateCustomerRequest) (*model.Customer, error) {
	first, last := strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)
	if first == "" || last == "" {
		return nil, apierror.Validation("first and last name are required")
	}
	c := &model.Customer{
		FirstName:      first,
		LastName:       last,
		Email:          req.Email,
		Phone:          req.Phone,
		CreditBalance:  decimal.Zero,
		TotalPurchases: decimal.Zero,
	}
	if err := s.store.Customers.Create(ctx, c); err != nil {
		return nil, repository.Classify(err)
	}
	return c, nil
}

func (s *customerService) Get(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	c, err := s.store.Customers.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "customer", id)
	}
	return c, nil
}

func (s *customerService) Search(ctx context.Context, query string, limit int) ([]model.Customer, error) {
	cs, err := s.store.Customers.Search(ctx, query, limit)
	return cs, repository.Classify(err)
}

// ── Credit ledger ─────────────────────────────────────────────────────────────

func (s *customerService) AdjustBalance(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, description string, saleID *uuid.UUID) (*model.Customer, error) {
	var c *model.Customer
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		c, err = s.AdjustBalanceTx(ctx, tx, customerID, amount, description, saleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *customerService) AdjustBalanceTx(ctx context.Context, tx *repository.Store, customerID uuid.UUID, amount decimal.Decimal, description string, saleID *uuid.UUID) (*model.Customer, error) {
	if amount.IsZero() {
		return nil, apierror.Validation("amount cannot be zero")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = defaultCreditDescription
	}

	c, err := tx.Customers.FindByIDForUpdate(ctx, customerID)
	if err != nil {
		return nil, lookup(err, "customer", customerID)
	}
	c.CreditBalance = c.CreditBalance.Add(amount)
	if err := tx.Customers.UpdateBalance(ctx, c.ID, c.CreditBalance); err != nil {
		return nil, repository.Classify(err)
	}

	txType := model.TxCreditAdd
	if amount.IsNegative() {
		txType = model.TxCreditDeduct
	}
	entry := &model.CustomerTransaction{
		CustomerID:  c.ID,
		Type:        txType,
		Amount:      amount.Abs(),
		Description: description,
		SaleID:      saleID,
		CreatedAt:   s.clock.now(),
	}
	if err := tx.Customers.CreateTransaction(ctx, entry); err != nil {
		return nil, repository.Classify(err)
	}
	return c, nil
}

func (s *customerService) RecordPurchase(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, saleID *uuid.UUID) (*model.Customer, error) {
	var c *model.Customer
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		c, err = s.RecordPurchaseTx(ctx, tx, customerID, amount, saleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *customerService) RecordPurchaseTx(ctx context.Context, tx *repository.Store, customerID uuid.UUID, amount decimal.Decimal, saleID *uuid.UUID) (*model.Customer, error) {
	if !amount.IsPositive() {
		return nil, apierror.Validation("purchase amount must be positive")
	}
	c, err := tx.Customers.FindByIDForUpdate(ctx, customerID)
	if err != nil {
		return nil, lookup(err, "customer", customerID)
	}
	now := s.clock.now()
	c.TotalPurchases = c.TotalPurchases.Add(amount)
	c.LastPurchaseDate = &now
	if err := tx.Customers.UpdatePurchaseStats(ctx, c.ID, c.TotalPurchases, now); err != nil {
		return nil, repository.Classify(err)
	}
	entry := &model.CustomerTransaction{
		CustomerID:  c.ID,
		Type:        model.TxPurchase,
		Amount:      amount,
		Description: purchaseDescription,
		SaleID:      saleID,
		CreatedAt:   now,
	}
	if err := tx.Customers.CreateTransaction(ctx, entry); err != nil {
		return nil, repository.Classify(err)
	}
	return c, nil
}

func (s *customerService) TransactionHistory(ctx context.Context, customerID uuid.UUID) ([]model.CustomerTransaction, error) {
	if _, err := s.Get(ctx, customerID); err != nil {
		return nil, err
	}
	txs, err := s.store.Customers.ListTransactions(ctx, customerID)
	return txs, repository.Classify(err)
}
