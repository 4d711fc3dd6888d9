package service

import (
	"context"

	"posengine/internal/apierror"
	"posengine/internal/model"
	"posengine/internal/repository"

	"github.com/google/uuid"
)

// LedgerService is the read/append surface of the inventory movement ledger.
// Entries are never updated or deleted.
type LedgerService interface {
	Record(ctx context.Context, m *model.InventoryMovement) (uuid.UUID, error)
	// RecordSaleMovement logs a sale for a product whose stock was already
	// decremented by the caller.
	RecordSaleMovement(ctx context.Context, actor Actor, productID uuid.UUID, quantity int, saleID uuid.UUID) (*model.InventoryMovement, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, rg repository.Range) ([]model.InventoryMovement, error)
	ListAll(ctx context.Context, rg repository.Range) ([]model.InventoryMovement, error)
	ListAdjustments(ctx context.Context, rg repository.Range) ([]model.StockAdjustment, error)
}

type ledgerService struct {
	store *repository.Store
	clock Clock
}

func NewLedgerService(store *repository.Store, clock Clock) LedgerService {
	return &ledgerService{store: store, clock: clock}
}

func (s *ledgerService) Record(ctx context.Context, m *model.InventoryMovement) (uuid.UUID, error) {
	if err := recordMovement(ctx, s.store, s.clock, m); err != nil {
		return uuid.Nil, err
	}
	return m.ID, nil
}

func (s *ledgerService) RecordSaleMovement(ctx context.Context, actor Actor, productID uuid.UUID, quantity int, saleID uuid.UUID) (*model.InventoryMovement, error) {
	if quantity <= 0 {
		return nil, apierror.Validation("quantity must be positive")
	}
	var mv *model.InventoryMovement
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		p, err := tx.Products.FindByID(ctx, productID)
		if err != nil {
			return lookup(err, "product", productID)
		}
		mv = &model.InventoryMovement{
			ProductID:     p.ID,
			ProductName:   p.Name,
			MovementType:  model.MovementSale,
			Quantity:      -quantity,
			PreviousStock: p.Stock + quantity,
			NewStock:      p.Stock,
			ReferenceID:   &saleID,
			UserID:        actor.ID,
			UserName:      actor.Name,
		}
		return recordMovement(ctx, tx, s.clock, mv)
	})
	if err != nil {
		return nil, err
	}
	return mv, nil
}

func (s *ledgerService) ListByProduct(ctx context.Context, productID uuid.UUID, rg repository.Range) ([]model.InventoryMovement, error) {
	if _, err := s.store.Products.FindByID(ctx, productID); err != nil {
		return nil, lookup(err, "product", productID)
	}
	ms, err := s.store.Movements.ListByProduct(ctx, productID, rg)
	return ms, repository.Classify(err)
}

func (s *ledgerService) ListAll(ctx context.Context, rg repository.Range) ([]model.InventoryMovement, error) {
	ms, err := s.store.Movements.List(ctx, rg)
	return ms, repository.Classify(err)
}

func (s *ledgerService) ListAdjustments(ctx context.Context, rg repository.Range) ([]model.StockAdjustment, error) {
	as, err := s.store.Movements.ListAdjustments(ctx, rg)
	return as, repository.Classify(err)
}

// recordMovement validates the required fields and the stock identity, then
// appends m through store. Every stock-changing path writes through here.
func recordMovement(ctx context.Context, store *repository.Store, clock Clock, m *model.InventoryMovement) error {
	switch {
	case m.ProductID == uuid.Nil:
		return apierror.Validation("movement product is required")
	case !model.ValidMovementType(m.MovementType):
		return apierror.Validation("invalid movement type %q", m.MovementType)
	case m.UserID == uuid.Nil:
		return apierror.Validation("movement user is required")
	case m.NewStock != m.PreviousStock+m.Quantity:
		return apierror.Validation("movement stock mismatch: %d + %d != %d", m.PreviousStock, m.Quantity, m.NewStock)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = clock.now()
	}
	return repository.Classify(store.Movements.Create(ctx, m))
}
