package service

import (
	"context"
	"strings"
	"time"

	"posengine/internal/apierror"
	"posengine/internal/bundle"
	"posengine/internal/cache"
	"posengine/internal/dto"
	"posengine/internal/model"
	"posengine/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type BundleService interface {
	Create(ctx context.Context, req dto.CreateBundleRequest) (*model.Bundle, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateBundleRequest) (*model.Bundle, error)
	AddProduct(ctx context.Context, id, productID uuid.UUID) (*model.Bundle, error)
	RemoveProduct(ctx context.Context, id, productID uuid.UUID) (*model.Bundle, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.Bundle, error)
	List(ctx context.Context) ([]model.Bundle, error)
	// ListActive returns bundles flagged active whose validity window
	// contains the current time.
	ListActive(ctx context.Context) ([]model.Bundle, error)
	// Apply prices lines against the active bundles. Nothing is persisted.
	Apply(ctx context.Context, lines []bundle.Line) ([]bundle.Application, error)
}

type bundleService struct {
	store *repository.Store
	cache cache.BundleCache
	ttl   time.Duration
	mode  bundle.Mode
	clock Clock
}

func NewBundleService(store *repository.Store, c cache.BundleCache, ttl time.Duration, mode bundle.Mode, clock Clock) BundleService {
	if c == nil {
		c = cache.NoopBundleCache{}
	}
	if mode == "" {
		mode = bundle.ModeAllLines
	}
	return &bundleService{store: store, cache: c, ttl: ttl, mode: mode, clock: clock}
}

// ── Management ───────────────────────────────────────────────────────────────

func (s *bundleService) Create(ctx context.Context, req dto.CreateBundleRequest) (*model.Bundle, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apierror.Validation("bundle name is required")
	}
	if err := validateBundleTerms(req.MinimumQuantity, req.BundlePrice.IsPositive(), req.ValidFrom, req.ValidTo); err != nil {
		return nil, err
	}
	productIDs, err := parseProductIDs(req.ProductIDs)
	if err != nil {
		return nil, err
	}

	b := &model.Bundle{
		Name:            name,
		Description:     req.Description,
		MinimumQuantity: req.MinimumQuantity,
		BundlePrice:     req.BundlePrice,
		IsActive:        req.IsActive,
		ValidFrom:       utcPtr(req.ValidFrom),
		ValidTo:         utcPtr(req.ValidTo),
	}
	for _, id := range productIDs {
		b.Products = append(b.Products, model.BundleProduct{ProductID: id})
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		for _, id := range productIDs {
			if _, err := tx.Products.FindByID(ctx, id); err != nil {
				return lookup(err, "product", id)
			}
		}
		return repository.Classify(tx.Bundles.Create(ctx, b))
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return b, nil
}

func (s *bundleService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateBundleRequest) (*model.Bundle, error) {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		b, err := tx.Bundles.FindByID(ctx, id)
		if err != nil {
			return lookup(err, "bundle", id)
		}
		if req.Name != nil {
			if strings.TrimSpace(*req.Name) == "" {
				return apierror.Validation("bundle name is required")
			}
			b.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			b.Description = req.Description
		}
		if req.MinimumQuantity != nil {
			b.MinimumQuantity = *req.MinimumQuantity
		}
		if req.BundlePrice != nil {
			b.BundlePrice = *req.BundlePrice
		}
		if req.IsActive != nil {
			b.IsActive = *req.IsActive
		}
		if req.ValidFrom != nil {
			b.ValidFrom = utcPtr(req.ValidFrom)
		}
		if req.ValidTo != nil {
			b.ValidTo = utcPtr(req.ValidTo)
		}
		if err := validateBundleTerms(b.MinimumQuantity, b.BundlePrice.IsPositive(), b.ValidFrom, b.ValidTo); err != nil {
			return err
		}
		return repository.Classify(tx.Bundles.Update(ctx, b))
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

func (s *bundleService) AddProduct(ctx context.Context, id, productID uuid.UUID) (*model.Bundle, error) {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		b, err := tx.Bundles.FindByID(ctx, id)
		if err != nil {
			return lookup(err, "bundle", id)
		}
		if _, err := tx.Products.FindByID(ctx, productID); err != nil {
			return lookup(err, "product", productID)
		}
		for _, p := range b.Products {
			if p.ProductID == productID {
				return apierror.Conflict("product %s is already in bundle %s", productID, b.Name)
			}
		}
		return repository.Classify(tx.Bundles.AddProduct(ctx, &model.BundleProduct{BundleID: id, ProductID: productID}))
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

func (s *bundleService) RemoveProduct(ctx context.Context, id, productID uuid.UUID) (*model.Bundle, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	removed, err := s.store.Bundles.RemoveProduct(ctx, id, productID)
	if err != nil {
		return nil, repository.Classify(err)
	}
	if !removed {
		return nil, apierror.NotFound("product %s is not in bundle %s", productID, id)
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Delete removes the bundle together with its product links.
func (s *bundleService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Bundles.Delete(ctx, id); err != nil {
			return lookup(err, "bundle", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *bundleService) Get(ctx context.Context, id uuid.UUID) (*model.Bundle, error) {
	b, err := s.store.Bundles.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "bundle", id)
	}
	return b, nil
}

func (s *bundleService) List(ctx context.Context) ([]model.Bundle, error) {
	bs, err := s.store.Bundles.List(ctx)
	return bs, repository.Classify(err)
}

// ── Pricing ──────────────────────────────────────────────────────────────────

func (s *bundleService) ListActive(ctx context.Context) ([]model.Bundle, error) {
	enabled, err := s.enabled(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.now()
	active := make([]model.Bundle, 0, len(enabled))
	for _, b := range enabled {
		if toRule(b).ActiveAt(now) {
			active = append(active, b)
		}
	}
	return active, nil
}

func (s *bundleService) Apply(ctx context.Context, lines []bundle.Line) ([]bundle.Application, error) {
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, apierror.Validation("line quantity must be positive")
		}
		if l.UnitPrice.IsNegative() {
			return nil, apierror.Validation("line unit price cannot be negative")
		}
	}
	active, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	rules := make([]bundle.Rule, len(active))
	for i, b := range active {
		rules[i] = toRule(b)
	}
	return bundle.Compute(lines, rules, s.mode, s.clock.now()), nil
}

// enabled reads the is_active set through the cache. Cache failures fall
// back to storage.
func (s *bundleService) enabled(ctx context.Context) ([]model.Bundle, error) {
	cached, ok, err := s.cache.Get(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("bundle cache read failed")
	}
	if ok {
		return cached, nil
	}
	bundles, err := s.store.Bundles.ListEnabled(ctx)
	if err != nil {
		return nil, repository.Classify(err)
	}
	if err := s.cache.Set(ctx, bundles, s.ttl); err != nil {
		log.Warn().Err(err).Msg("bundle cache write failed")
	}
	return bundles, nil
}

func (s *bundleService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("bundle cache invalidation failed")
	}
}

func toRule(b model.Bundle) bundle.Rule {
	return bundle.Rule{
		ID:              b.ID,
		Name:            b.Name,
		ProductIDs:      b.ProductIDs(),
		MinimumQuantity: b.MinimumQuantity,
		BundlePrice:     b.BundlePrice,
		IsActive:        b.IsActive,
		ValidFrom:       b.ValidFrom,
		ValidTo:         b.ValidTo,
	}
}

func validateBundleTerms(minQty int, pricePositive bool, from, to *time.Time) error {
	switch {
	case minQty < 1:
		return apierror.Validation("minimum quantity must be at least 1")
	case !pricePositive:
		return apierror.Validation("bundle price must be positive")
	case from != nil && to != nil && to.Before(*from):
		return apierror.Validation("valid_to is before valid_from")
	}
	return nil
}

func parseProductIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, apierror.Validation("a bundle needs at least one product")
	}
	ids := make([]uuid.UUID, 0, len(raw))
	seen := make(map[uuid.UUID]bool, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, apierror.Validation("invalid product id %q", r)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
