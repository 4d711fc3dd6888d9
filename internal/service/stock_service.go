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

// DeductInput describes one outbound stock change.
type DeductInput struct {
	ProductID uuid.UUID
	Quantity  int
	// MovementType defaults to sale; damage and transfer are also outbound.
	MovementType string
	ReferenceID  *uuid.UUID
	Reason       *string
}

// StockService resolves a product's stock through its stock family, when it
// has one, and owns family membership.
type StockService interface {
	AvailableStock(ctx context.Context, productID uuid.UUID) (int, error)
	Deduct(ctx context.Context, actor Actor, in DeductInput) (*model.InventoryMovement, error)
	// DeductTx runs Deduct on an already open transaction.
	DeductTx(ctx context.Context, tx *repository.Store, actor Actor, in DeductInput) (*model.InventoryMovement, error)
	// ReturnTx puts quantity units of a product back into stock.
	ReturnTx(ctx context.Context, tx *repository.Store, actor Actor, productID uuid.UUID, quantity int, referenceID *uuid.UUID) (*model.InventoryMovement, error)

	CreateFamily(ctx context.Context, req dto.CreateFamilyRequest) (*model.StockFamily, error)
	// AddMember links a product to a family and aligns its display stock
	// with what the pool can supply.
	AddMember(ctx context.Context, actor Actor, familyID uuid.UUID, req dto.AddMemberRequest) (*model.StockFamily, error)
	RemoveMember(ctx context.Context, familyID, productID uuid.UUID) error
	DeleteFamily(ctx context.Context, familyID uuid.UUID) error
	GetFamily(ctx context.Context, familyID uuid.UUID) (*model.StockFamily, error)
	ListFamilies(ctx context.Context) ([]model.StockFamily, error)
	FamilyForProduct(ctx context.Context, productID uuid.UUID) (*model.StockFamily, error)
	// SetFamilyTotal restocks (or recounts) the base-unit pool and brings
	// every member's display stock in line with it.
	SetFamilyTotal(ctx context.Context, actor Actor, familyID uuid.UUID, total int, reason string) (*model.StockFamily, error)
}

type stockService struct {
	store *repository.Store
	clock Clock
}

func NewStockService(store *repository.Store, clock Clock) StockService {
	return &stockService{store: store, clock: clock}
}

// ── Resolver ─────────────────────────────────────────────────────────────────

func (s *stockService) AvailableStock(ctx context.Context, productID uuid.UUID) (int, error) {
	return availableStock(ctx, s.store, productID)
}

func availableStock(ctx context.Context, store *repository.Store, productID uuid.UUID) (int, error) {
	member, err := store.Families.FindMemberByProduct(ctx, productID)
	if err != nil {
		if !repository.IsNotFound(err) {
			return 0, repository.Classify(err)
		}
		p, err := store.Products.FindByID(ctx, productID)
		if err != nil {
			return 0, lookup(err, "product", productID)
		}
		return p.Stock, nil
	}
	family, err := store.Families.FindByID(ctx, member.StockFamilyID)
	if err != nil {
		return 0, lookup(err, "stock family", member.StockFamilyID)
	}
	return family.TotalStock / member.UnitsPerPack, nil
}

func (s *stockService) Deduct(ctx context.Context, actor Actor, in DeductInput) (*model.InventoryMovement, error) {
	var mv *model.InventoryMovement
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		mv, err = s.DeductTx(ctx, tx, actor, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return mv, nil
}

func (s *stockService) DeductTx(ctx context.Context, tx *repository.Store, actor Actor, in DeductInput) (*model.InventoryMovement, error) {
	if in.Quantity <= 0 {
		return nil, apierror.Validation("quantity must be positive")
	}
	if in.MovementType == "" {
		in.MovementType = model.MovementSale
	}
	switch in.MovementType {
	case model.MovementSale, model.MovementDamage, model.MovementTransfer:
	default:
		return nil, apierror.Validation("movement type %q does not remove stock", in.MovementType)
	}
	if err := validateActor(actor); err != nil {
		return nil, err
	}

	lock, err := lockStock(ctx, tx, in.ProductID)
	if err != nil {
		return nil, err
	}
	product := lock.product

	// The authoritative quantity gates the deduction: the product's own
	// stock, or the family pool when the product is affiliated.
	if lock.family == nil {
		if product.Stock < in.Quantity {
			return nil, apierror.InsufficientStock("%s: %d available, %d requested", product.Name, product.Stock, in.Quantity)
		}
	} else {
		family := lock.family
		baseUnits := in.Quantity * lock.member.UnitsPerPack
		if family.TotalStock < baseUnits {
			return nil, apierror.InsufficientStock("%s: family %s holds %d base units, %d required",
				product.Name, family.Name, family.TotalStock, baseUnits)
		}
		// Guarded decrement: a concurrent writer that drained the pool
		// between the read and this write makes it affect zero rows.
		ok, err := tx.Families.DecrementTotal(ctx, family.ID, baseUnits)
		if err != nil {
			return nil, repository.Classify(err)
		}
		if !ok {
			return nil, apierror.InsufficientStock("%s: family %s no longer holds %d base units",
				product.Name, family.Name, baseUnits)
		}
	}

	// Display stock of an affiliated product may lag the pool; it floors at
	// zero and the movement records the change actually applied.
	newStock := max(0, product.Stock-in.Quantity)
	if err := tx.Products.SetStock(ctx, product.ID, newStock); err != nil {
		return nil, repository.Classify(err)
	}
	mv := &model.InventoryMovement{
		ProductID:     product.ID,
		ProductName:   product.Name,
		MovementType:  in.MovementType,
		Quantity:      newStock - product.Stock,
		PreviousStock: product.Stock,
		NewStock:      newStock,
		Reason:        in.Reason,
		ReferenceID:   in.ReferenceID,
		UserID:        actor.ID,
		UserName:      actor.Name,
	}
	if err := recordMovement(ctx, tx, s.clock, mv); err != nil {
		return nil, err
	}
	return mv, nil
}

func (s *stockService) ReturnTx(ctx context.Context, tx *repository.Store, actor Actor, productID uuid.UUID, quantity int, referenceID *uuid.UUID) (*model.InventoryMovement, error) {
	if quantity <= 0 {
		return nil, apierror.Validation("quantity must be positive")
	}
	lock, err := lockStock(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	product := lock.product
	if family := lock.family; family != nil {
		ok, err := tx.Families.SetTotal(ctx, family.ID, family.TotalStock+quantity*lock.member.UnitsPerPack, family.Version)
		if err != nil {
			return nil, repository.Classify(err)
		}
		if !ok {
			return nil, apierror.Conflict("stock family %s changed concurrently, retry", family.Name)
		}
	}

	newStock := product.Stock + quantity
	if err := tx.Products.SetStock(ctx, product.ID, newStock); err != nil {
		return nil, repository.Classify(err)
	}
	mv := &model.InventoryMovement{
		ProductID:     product.ID,
		ProductName:   product.Name,
		MovementType:  model.MovementReturn,
		Quantity:      quantity,
		PreviousStock: product.Stock,
		NewStock:      newStock,
		ReferenceID:   referenceID,
		UserID:        actor.ID,
		UserName:      actor.Name,
	}
	if err := recordMovement(ctx, tx, s.clock, mv); err != nil {
		return nil, err
	}
	return mv, nil
}

// stockLock is a product row locked for update together with its family
// membership and, when affiliated, the locked family row.
type stockLock struct {
	product *model.Product
	member  *model.StockFamilyMember
	family  *model.StockFamily
}

// lockStock takes the family row before the product row. Membership changes
// lock in the same order, so a membership read before the locks is checked
// again once both are held.
func lockStock(ctx context.Context, tx *repository.Store, productID uuid.UUID) (*stockLock, error) {
	for attempt := 0; attempt < 2; attempt++ {
		var l stockLock
		member, err := findMember(ctx, tx, productID)
		if err != nil {
			return nil, err
		}
		if member != nil {
			l.member = member
			l.family, err = tx.Families.FindByIDForUpdate(ctx, member.StockFamilyID)
			if err != nil {
				return nil, lookup(err, "stock family", member.StockFamilyID)
			}
		}
		l.product, err = tx.Products.FindByIDForUpdate(ctx, productID)
		if err != nil {
			return nil, lookup(err, "product", productID)
		}
		current, err := findMember(ctx, tx, productID)
		if err != nil {
			return nil, err
		}
		if sameMembership(l.member, current) {
			return &l, nil
		}
	}
	return nil, apierror.Conflict("stock family membership of product %s changed concurrently, retry", productID)
}

// stockLockKey is the first row lockStock takes for a product: its family
// when affiliated, otherwise the product itself.
func stockLockKey(ctx context.Context, store *repository.Store, productID uuid.UUID) (uuid.UUID, error) {
	member, err := findMember(ctx, store, productID)
	if err != nil {
		return uuid.Nil, err
	}
	if member != nil {
		return member.StockFamilyID, nil
	}
	return productID, nil
}

func findMember(ctx context.Context, store *repository.Store, productID uuid.UUID) (*model.StockFamilyMember, error) {
	member, err := store.Families.FindMemberByProduct(ctx, productID)
	switch {
	case repository.IsNotFound(err):
		return nil, nil
	case err != nil:
		return nil, repository.Classify(err)
	}
	return member, nil
}

func sameMembership(a, b *model.StockFamilyMember) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StockFamilyID == b.StockFamilyID && a.UnitsPerPack == b.UnitsPerPack
}

// ── Families ─────────────────────────────────────────────────────────────────

func (s *stockService) CreateFamily(ctx context.Context, req dto.CreateFamilyRequest) (*model.StockFamily, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apierror.Validation("family name is required")
	}
	if req.TotalStock < 0 {
		return nil, apierror.Validation("total stock cannot be negative")
	}
	f := &model.StockFamily{
		Name:        name,
		Description: req.Description,
		Category:    req.Category,
		TotalStock:  req.TotalStock,
	}
	if err := s.store.Families.Create(ctx, f); err != nil {
		return nil, repository.Classify(err)
	}
	return f, nil
}

func (s *stockService) AddMember(ctx context.Context, actor Actor, familyID uuid.UUID, req dto.AddMemberRequest) (*model.StockFamily, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, apierror.Validation("invalid product_id")
	}
	if req.UnitsPerPack < 1 {
		return nil, apierror.Validation("units per pack must be at least 1")
	}
	if err := validateActor(actor); err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		family, err := tx.Families.FindByIDForUpdate(ctx, familyID)
		if err != nil {
			return lookup(err, "stock family", familyID)
		}
		product, err := tx.Products.FindByIDForUpdate(ctx, productID)
		if err != nil {
			return lookup(err, "product", productID)
		}
		if existing, err := tx.Families.FindMemberByProduct(ctx, productID); err == nil {
			if existing.StockFamilyID == family.ID {
				return apierror.Conflict("%s is already a member of %s", product.Name, family.Name)
			}
			return apierror.Conflict("%s already belongs to another stock family", product.Name)
		} else if !repository.IsNotFound(err) {
			return repository.Classify(err)
		}

		member := &model.StockFamilyMember{
			StockFamilyID: family.ID,
			ProductID:     product.ID,
			UnitsPerPack:  req.UnitsPerPack,
			IsBaseUnit:    req.IsBaseUnit,
		}
		if err := tx.Families.CreateMember(ctx, member); err != nil {
			return repository.Classify(err)
		}
		if err := tx.Products.LinkFamily(ctx, product.ID, &family.ID); err != nil {
			return repository.Classify(err)
		}
		if req.IsBaseUnit {
			if err := tx.Families.SetBaseProduct(ctx, family.ID, &product.ID); err != nil {
				return repository.Classify(err)
			}
		}
		return syncDisplayStock(ctx, tx, s.clock, actor, *member, family.TotalStock, "Linked to stock family "+family.Name)
	})
	if err != nil {
		return nil, err
	}
	return s.GetFamily(ctx, familyID)
}

func (s *stockService) RemoveMember(ctx context.Context, familyID, productID uuid.UUID) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		family, err := tx.Families.FindByIDForUpdate(ctx, familyID)
		if err != nil {
			return lookup(err, "stock family", familyID)
		}
		removed, err := tx.Families.DeleteMember(ctx, familyID, productID)
		if err != nil {
			return repository.Classify(err)
		}
		if !removed {
			return apierror.NotFound("product %s is not a member of %s", productID, family.Name)
		}
		if err := tx.Products.LinkFamily(ctx, productID, nil); err != nil {
			return lookup(err, "product", productID)
		}
		if family.BaseProductID != nil && *family.BaseProductID == productID {
			return repository.Classify(tx.Families.SetBaseProduct(ctx, familyID, nil))
		}
		return nil
	})
}

// DeleteFamily clears every member product's family reference, then removes
// the member links, then the family itself.
func (s *stockService) DeleteFamily(ctx context.Context, familyID uuid.UUID) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Families.FindByIDForUpdate(ctx, familyID); err != nil {
			return lookup(err, "stock family", familyID)
		}
		if err := tx.Products.UnlinkFamily(ctx, familyID); err != nil {
			return repository.Classify(err)
		}
		if err := tx.Families.DeleteMembers(ctx, familyID); err != nil {
			return repository.Classify(err)
		}
		if err := tx.Families.Delete(ctx, familyID); err != nil {
			return lookup(err, "stock family", familyID)
		}
		return nil
	})
}

func (s *stockService) GetFamily(ctx context.Context, familyID uuid.UUID) (*model.StockFamily, error) {
	f, err := s.store.Families.FindByID(ctx, familyID)
	if err != nil {
		return nil, lookup(err, "stock family", familyID)
	}
	return f, nil
}

func (s *stockService) ListFamilies(ctx context.Context) ([]model.StockFamily, error) {
	fs, err := s.store.Families.List(ctx)
	return fs, repository.Classify(err)
}

func (s *stockService) FamilyForProduct(ctx context.Context, productID uuid.UUID) (*model.StockFamily, error) {
	member, err := s.store.Families.FindMemberByProduct(ctx, productID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound("product %s has no stock family", productID)
		}
		return nil, repository.Classify(err)
	}
	return s.GetFamily(ctx, member.StockFamilyID)
}

func (s *stockService) SetFamilyTotal(ctx context.Context, actor Actor, familyID uuid.UUID, total int, reason string) (*model.StockFamily, error) {
	if total < 0 {
		return nil, apierror.Validation("total stock cannot be negative")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apierror.Validation("reason is required")
	}
	if err := validateActor(actor); err != nil {
		return nil, err
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		locked, err := tx.Families.FindByIDForUpdate(ctx, familyID)
		if err != nil {
			return lookup(err, "stock family", familyID)
		}
		ok, err := tx.Families.SetTotal(ctx, familyID, total, locked.Version)
		if err != nil {
			return repository.Classify(err)
		}
		if !ok {
			return apierror.Conflict("stock family %s changed concurrently, retry", locked.Name)
		}

		family, err := tx.Families.FindByID(ctx, familyID)
		if err != nil {
			return repository.Classify(err)
		}
		for _, m := range family.Members {
			if err := syncDisplayStock(ctx, tx, s.clock, actor, m, total, reason); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetFamily(ctx, familyID)
}

// syncDisplayStock sets a member's display stock to what the pool can supply
// and records the difference in the ledger.
func syncDisplayStock(ctx context.Context, tx *repository.Store, clock Clock, actor Actor, m model.StockFamilyMember, total int, reason string) error {
	product, err := tx.Products.FindByIDForUpdate(ctx, m.ProductID)
	if err != nil {
		return lookup(err, "product", m.ProductID)
	}
	display := total / m.UnitsPerPack
	if display == product.Stock {
		return nil
	}
	if err := tx.Products.SetStock(ctx, product.ID, display); err != nil {
		return repository.Classify(err)
	}
	movementType := model.MovementRestock
	if display < product.Stock {
		movementType = model.MovementAdjustment
	}
	return recordMovement(ctx, tx, clock, &model.InventoryMovement{
		ProductID:     product.ID,
		ProductName:   product.Name,
		MovementType:  movementType,
		Quantity:      display - product.Stock,
		PreviousStock: product.Stock,
		NewStock:      display,
		Reason:        &reason,
		UserID:        actor.ID,
		UserName:      actor.Name,
	})
}
