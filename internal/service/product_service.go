package service

import (
	"context"
	"strings"

	"posengine/internal/apierror"
	"posengine/internal/dto"
	"posengine/internal/model"
	"posengine/internal/repository"

	"github.com/google/uuid"
)

const openingStockReason = "Opening stock"

// ProductService is the thin catalog collaborator. Stock is never patched
// directly: it changes through deductions, adjustments and restocks.
type ProductService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateProductRequest) (*model.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*model.Product, error)
}

type productService struct {
	store *repository.Store
	clock Clock
}

func NewProductService(store *repository.Store, clock Clock) ProductService {
	return &productService{store: store, clock: clock}
}

func (s *productService) Create(ctx context.Context, actor Actor, req dto.CreateProductRequest) (*model.Product, error) {
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return nil, apierror.Validation("product name is required")
	case req.Price.IsNegative() || req.CostPrice.IsNegative():
		return nil, apierror.Validation("prices cannot be negative")
	case req.Stock < 0:
		return nil, apierror.Validation("stock cannot be negative")
	}
	if req.Stock > 0 {
		if err := validateActor(actor); err != nil {
			return nil, err
		}
	}

	p := &model.Product{
		Name:      name,
		Category:  strings.TrimSpace(req.Category),
		Price:     req.Price,
		CostPrice: req.CostPrice,
		Stock:     req.Stock,
		Active:    true,
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Products.Create(ctx, p); err != nil {
			return repository.Classify(err)
		}
		if p.Stock == 0 {
			return nil
		}
		reason := openingStockReason
		return recordMovement(ctx, tx, s.clock, &model.InventoryMovement{
			ProductID:     p.ID,
			ProductName:   p.Name,
			MovementType:  model.MovementRestock,
			Quantity:      p.Stock,
			PreviousStock: 0,
			NewStock:      p.Stock,
			Reason:        &reason,
			UserID:        actor.ID,
			UserName:      actor.Name,
		})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.store.Products.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "product", id)
	}
	return p, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*model.Product, error) {
	var p *model.Product
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		p, err = tx.Products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return lookup(err, "product", id)
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return apierror.Validation("product name is required")
			}
			p.Name = name
		}
		if req.Category != nil {
			p.Category = strings.TrimSpace(*req.Category)
		}
		if req.Price != nil {
			if req.Price.IsNegative() {
				return apierror.Validation("price cannot be negative")
			}
			p.Price = *req.Price
		}
		if req.CostPrice != nil {
			if req.CostPrice.IsNegative() {
				return apierror.Validation("cost price cannot be negative")
			}
			p.CostPrice = *req.CostPrice
		}
		if req.Active != nil {
			p.Active = *req.Active
		}
		return repository.Classify(tx.Products.Update(ctx, p))
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
