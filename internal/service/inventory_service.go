package service

import (
	"context"
	"sort"
	"strings"

	"posengine/internal/apierror"
	"posengine/internal/dto"
	"posengine/internal/model"
	"posengine/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const uncategorized = "Uncategorized"

// AdjustInput is a manual stock correction.
type AdjustInput struct {
	ProductID uuid.UUID
	Type      string
	Quantity  int
	Reason    string
}

// AdjustResult pairs the adjustment with the movement it produced.
type AdjustResult struct {
	Adjustment *model.StockAdjustment
	Movement   *model.InventoryMovement
}

// InventoryService covers manual stock corrections and stock reports.
type InventoryService interface {
	Adjust(ctx context.Context, actor Actor, in AdjustInput) (*AdjustResult, error)
	// LowStockReport lists active products whose available stock is at or
	// below threshold. A nil threshold uses the configured default.
	LowStockReport(ctx context.Context, threshold *int) (*dto.LowStockResponse, error)
	StockValueReport(ctx context.Context) (*dto.StockValueResponse, error)
}

type inventoryService struct {
	store             *repository.Store
	clock             Clock
	lowStockThreshold int
}

func NewInventoryService(store *repository.Store, clock Clock, lowStockThreshold int) InventoryService {
	return &inventoryService{store: store, clock: clock, lowStockThreshold: lowStockThreshold}
}

// ── Adjust ────────────────────────────────────────────────────────────────────
// increase → previous + q, decrease → max(0, previous − q), set → q.
// The display delta, measured from a non-negative starting value, is carried
// to the family pool in base units.

func (s *inventoryService) Adjust(ctx context.Context, actor Actor, in AdjustInput) (*AdjustResult, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	switch {
	case in.Reason == "":
		return nil, apierror.Validation("reason is required")
	case in.Quantity < 0:
		return nil, apierror.Validation("quantity cannot be negative")
	case in.Type != model.AdjustIncrease && in.Type != model.AdjustDecrease && in.Type != model.AdjustSet:
		return nil, apierror.Validation("invalid adjustment type %q", in.Type)
	}
	if err := validateActor(actor); err != nil {
		return nil, err
	}

	var result AdjustResult
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		lock, err := lockStock(ctx, tx, in.ProductID)
		if err != nil {
			return err
		}
		product := lock.product

		previous := product.Stock
		var next int
		switch in.Type {
		case model.AdjustIncrease:
			next = previous + in.Quantity
		case model.AdjustDecrease:
			next = max(0, previous-in.Quantity)
		case model.AdjustSet:
			next = in.Quantity
		}
		delta := next - previous

		if err := tx.Products.SetStock(ctx, product.ID, next); err != nil {
			return repository.Classify(err)
		}
		if familyDelta := next - max(0, previous); familyDelta != 0 {
			if err := propagateToFamily(ctx, tx, lock, familyDelta); err != nil {
				return err
			}
		}

		now := s.clock.now()
		adj := &model.StockAdjustment{
			ProductID:      product.ID,
			AdjustmentType: in.Type,
			Quantity:       in.Quantity,
			PreviousStock:  previous,
			NewStock:       next,
			Reason:         in.Reason,
			UserID:         actor.ID,
			UserName:       actor.Name,
			CreatedAt:      now,
		}
		if err := tx.Movements.CreateAdjustment(ctx, adj); err != nil {
			return repository.Classify(err)
		}
		reason := in.Reason
		mv := &model.InventoryMovement{
			ProductID:     product.ID,
			ProductName:   product.Name,
			MovementType:  model.MovementAdjustment,
			Quantity:      delta,
			PreviousStock: previous,
			NewStock:      next,
			Reason:        &reason,
			ReferenceID:   &adj.ID,
			UserID:        actor.ID,
			UserName:      actor.Name,
			CreatedAt:     now,
		}
		if err := recordMovement(ctx, tx, s.clock, mv); err != nil {
			return err
		}
		result = AdjustResult{Adjustment: adj, Movement: mv}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// propagateToFamily applies a display-level delta to the locked family pool,
// if any. The pool is clamped at zero.
func propagateToFamily(ctx context.Context, tx *repository.Store, lock *stockLock, delta int) error {
	family := lock.family
	if family == nil {
		return nil
	}
	total := max(0, family.TotalStock+delta*lock.member.UnitsPerPack)
	ok, err := tx.Families.SetTotal(ctx, family.ID, total, family.Version)
	if err != nil {
		return repository.Classify(err)
	}
	if !ok {
		return apierror.Conflict("stock family %s changed concurrently, retry", family.Name)
	}
	return nil
}

// ── Reports ───────────────────────────────────────────────────────────────────

func (s *inventoryService) LowStockReport(ctx context.Context, threshold *int) (*dto.LowStockResponse, error) {
	limit := s.lowStockThreshold
	if threshold != nil {
		if *threshold < 0 {
			return nil, apierror.Validation("threshold cannot be negative")
		}
		limit = *threshold
	}

	products, err := s.store.Products.ListActive(ctx)
	if err != nil {
		return nil, repository.Classify(err)
	}
	families, err := s.store.Families.List(ctx)
	if err != nil {
		return nil, repository.Classify(err)
	}
	// productID → floor(pool / unitsPerPack)
	pooled := make(map[uuid.UUID]int)
	for _, f := range families {
		for _, m := range f.Members {
			pooled[m.ProductID] = f.TotalStock / m.UnitsPerPack
		}
	}

	items := make([]dto.LowStockItem, 0)
	for _, p := range products {
		available, ok := pooled[p.ID]
		if !ok {
			available = p.Stock
		}
		if available > limit {
			continue
		}
		items = append(items, dto.LowStockItem{
			ProductID:     p.ID.String(),
			Name:          p.Name,
			Category:      p.Category,
			Stock:         p.Stock,
			Available:     available,
			StockFamilyID: uuidString(p.StockFamilyID),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Available != items[j].Available {
			return items[i].Available < items[j].Available
		}
		return items[i].Name < items[j].Name
	})
	return &dto.LowStockResponse{Threshold: limit, Items: items}, nil
}

func (s *inventoryService) StockValueReport(ctx context.Context) (*dto.StockValueResponse, error) {
	products, err := s.store.Products.ListActive(ctx)
	if err != nil {
		return nil, repository.Classify(err)
	}

	resp := &dto.StockValueResponse{
		ProductCount: len(products),
		TotalValue:   decimal.Zero,
		TotalCost:    decimal.Zero,
	}
	byCategory := make(map[string]*dto.CategoryValue)
	for _, p := range products {
		qty := decimal.NewFromInt(int64(p.Stock))
		value := p.Price.Mul(qty)
		cost := p.CostPrice.Mul(qty)
		resp.TotalValue = resp.TotalValue.Add(value)
		resp.TotalCost = resp.TotalCost.Add(cost)

		name := p.Category
		if name == "" {
			name = uncategorized
		}
		cv, ok := byCategory[name]
		if !ok {
			cv = &dto.CategoryValue{Category: name, Value: decimal.Zero, Cost: decimal.Zero}
			byCategory[name] = cv
		}
		cv.Products++
		cv.Units += p.Stock
		cv.Value = cv.Value.Add(value)
		cv.Cost = cv.Cost.Add(cost)
	}

	resp.Categories = make([]dto.CategoryValue, 0, len(byCategory))
	for _, cv := range byCategory {
		resp.Categories = append(resp.Categories, *cv)
	}
	sort.Slice(resp.Categories, func(i, j int) bool {
		return resp.Categories[i].Category < resp.Categories[j].Category
	})
	return resp, nil
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
