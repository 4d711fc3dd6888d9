package service

import (
	"context"
	"sync"
	"testing"

	"posengine/internal/apierror"
	"posengine/internal/dto"
	"posengine/internal/model"
	"posengine/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type beerFamily struct {
	family  *model.StockFamily
	single  *model.Product
	sixPack *model.Product
}

// setupBeerFamily builds a family of single bottles and six-packs sharing
// total base units.
func setupBeerFamily(t *testing.T, store *repository.Store, svc StockService, total int) beerFamily {
	t.Helper()
	ctx := context.Background()
	manager := seedUser(t, store, model.RoleManager)
	single := seedProduct(t, store, "Lager bottle", total, "2.00")
	sixPack := seedProduct(t, store, "Lager 6-pack", total/6, "10.00")

	f, err := svc.CreateFamily(ctx, dto.CreateFamilyRequest{Name: "Lager", TotalStock: total})
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, manager, f.ID, dto.AddMemberRequest{ProductID: single.ID.String(), UnitsPerPack: 1, IsBaseUnit: true})
	require.NoError(t, err)
	f, err = svc.AddMember(ctx, manager, f.ID, dto.AddMemberRequest{ProductID: sixPack.ID.String(), UnitsPerPack: 6})
	require.NoError(t, err)
	return beerFamily{family: f, single: single, sixPack: sixPack}
}

func TestAvailableStock(t *testing.T) {
	store := newTestStore(t)
	svc := NewStockService(store, newFakeClock().Now)
	ctx := context.Background()

	loose := seedProduct(t, store, "Chips", 7, "1.50")
	n, err := svc.AvailableStock(ctx, loose.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	bf := setupBeerFamily(t, store, svc, 20)
	n, err = svc.AvailableStock(ctx, bf.sixPack.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "floor(20 / 6)")

	again, err := svc.AvailableStock(ctx, bf.sixPack.ID)
	require.NoError(t, err)
	assert.Equal(t, n, again)

	_, err = svc.AvailableStock(ctx, uuid.New())
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}

func TestDeduct_FamilyDrawsBaseUnits(t *testing.T) {
	store := newTestStore(t)
	svc := NewStockService(store, newFakeClock().Now)
	actor := seedUser(t, store, model.RoleCashier)
	bf := setupBeerFamily(t, store, svc, 24)

	mv, err := svc.Deduct(context.Background(), actor, DeductInput{ProductID: bf.sixPack.ID, Quantity: 2})
	require.NoError(t, err)

	assert.Equal(t, 12, familyTotal(t, store, bf.family.ID))
	assert.Equal(t, 2, productStock(t, store, bf.sixPack.ID))
	assert.Equal(t, model.MovementSale, mv.MovementType)
	assert.Equal(t, -2, mv.Quantity)
	assert.Equal(t, 4, mv.PreviousStock)
	assert.Equal(t, 2, mv.NewStock)
}

func TestDeduct_InsufficientFamilyStockLeavesNoTrace(t *testing.T) {
	store := newTestStore(t)
	svc := NewStockService(store, newFakeClock().Now)
	actor := seedUser(t, store, model.RoleCashier)
	bf := setupBeerFamily(t, store, svc, 10)

	_, err := svc.Deduct(context.Background(), actor, DeductInput{ProductID: bf.sixPack.ID, Quantity: 2})
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.KindInsufficientStock))

	assert.Equal(t, 10, familyTotal(t, store, bf.family.ID))
	assert.Equal(t, 1, productStock(t, store, bf.sixPack.ID))
	ms, err := store.Movements.ListByProduct(context.Background(), bf.sixPack.ID, repository.Range{})
	require.NoError(t, err)
	assert.Empty(t, ms)
}

func TestDeduct_ConcurrentCallsNeverOverdraw(t *testing.T) {
	store := newTestStore(t)
	svc := NewStockService(store, newFakeClock().Now)
	actor := seedUser(t, store, model.RoleCashier)
	ctx := context.Background()

	product := seedProduct(t, store, "Water 3-pack", 6, "4.00")
	f, err := svc.CreateFamily(ctx, dto.CreateFamilyRequest{Name: "Water", TotalStock: 20})
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, actor, f.ID, dto.AddMemberRequest{ProductID: product.ID.String(), UnitsPerPack: 3})
	require.NoError(t, err)

	const callers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		otherErrs []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Deduct(ctx, actor, DeductInput{ProductID: product.ID, Quantity: 1})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case !apierror.Is(err, apierror.KindInsufficientStock):
				otherErrs = append(otherErrs, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, otherErrs)
	assert.Equal(t, 6, succeeded, "20 base units cover six 3-unit packs")
	total := familyTotal(t, store, f.ID)
	assert.Equal(t, 20-succeeded*3, total)
	assert.GreaterOrEqual(t, total, 0)
}

func TestDeduct_UnaffiliatedProduct(t *testing.T) {
	store := newTestStore(t)
	svc := NewStockService(store, newFakeClock().Now)
	actor := seedUser(t, store, model.RoleCashier)
	ctx := context.Background()
	p := seedProduct(t, store, "Gum", 3, "0.50")

	_, err := svc.Deduct(ctx, actor, DeductInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, productStock(t, store, p.ID))

	_, err = svc.Deduct(ctx, actor, DeductInput{ProductID: p.ID, Quantity: 2})
	assert.True(t, apierror.Is(err, apierror.KindInsufficientStock))

	_, err = svc.Deduct(ctx, actor, DeductInput{ProductID: p.ID, Quantity: 0})
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	_, err = svc.Deduct(ctx, actor, DeductInput{ProductID: p.ID, Quantity: 1, MovementType: model.MovementRestock})
	assert.True(t, apierror.Is(err, apierror.KindValidation))
}

func TestFamilyMembership(t *testing.T) {
	store := newTestStore(t)
	svc := NewStockService(store, newFakeClock().Now)
	ctx := context.Background()
	manager := seedUser(t, store, model.RoleManager)
	bf := setupBeerFamily(t, store, svc, 12)

	assert.Len(t, bf.family.Members, 2)
	require.NotNil(t, bf.family.BaseProductID)
	assert.Equal(t, bf.single.ID, *bf.family.BaseProductID)

	got, err := svc.FamilyForProduct(ctx, bf.sixPack.ID)
	require.NoError(t, err)
	assert.Equal(t, bf.family.ID, got.ID)

	// a product belongs to at most one family
	other, err := svc.CreateFamily(ctx, dto.CreateFamilyRequest{Name: "Other"})
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, manager, other.ID, dto.AddMemberRequest{ProductID: bf.sixPack.ID.String(), UnitsPerPack: 6})
	assert.True(t, apierror.Is(err, apierror.KindConflict))

	require.NoError(t, svc.RemoveMember(ctx, bf.family.ID, bf.single.ID))
	p, err := store.Products.FindByID(ctx, bf.single.ID)
	require.NoError(t, err)
	assert.Nil(t, p.StockFamilyID)
	f, err := svc.GetFamily(ctx, bf.family.ID)
	require.NoError(t, err)
	assert.Nil(t, f.BaseProductID)
	assert.Len(t, f.Members, 1)

	err = svc.RemoveMember(ctx, bf.family.ID, bf.single.ID)
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}

func TestDeleteFamily_ClearsProductReferences(t *testing.T) {
	store := newTestStore(t)
	svc := NewStockService(store, newFakeClock().Now)
	ctx := context.Background()
	bf := setupBeerFamily(t, store, svc, 12)

	require.NoError(t, svc.DeleteFamily(ctx, bf.family.ID))

	for _, id := range []uuid.UUID{bf.single.ID, bf.sixPack.ID} {
		p, err := store.Products.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, p.StockFamilyID)
		_, err = store.Families.FindMemberByProduct(ctx, id)
		assert.True(t, repository.IsNotFound(err))
	}
	_, err := svc.GetFamily(ctx, bf.family.ID)
	assert.True(t, apierror.Is(err, apierror.KindNotFound))

	assert.True(t, apierror.Is(svc.DeleteFamily(ctx, bf.family.ID), apierror.KindNotFound))
}

func TestSetFamilyTotal_SyncsMemberStock(t *testing.T) {
	store := newTestStore(t)
	svc := NewStockService(store, newFakeClock().Now)
	actor := seedUser(t, store, model.RoleManager)
	ctx := context.Background()
	bf := setupBeerFamily(t, store, svc, 12)

	f, err := svc.SetFamilyTotal(ctx, actor, bf.family.ID, 30, "delivery")
	require.NoError(t, err)
	assert.Equal(t, 30, f.TotalStock)
	assert.Equal(t, bf.family.Version+1, f.Version)
	assert.Equal(t, 30, productStock(t, store, bf.single.ID))
	assert.Equal(t, 5, productStock(t, store, bf.sixPack.ID))

	ms, err := store.Movements.ListByProduct(ctx, bf.sixPack.ID, repository.Range{})
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, model.MovementRestock, ms[0].MovementType)
	assert.Equal(t, 3, ms[0].Quantity)

	_, err = svc.SetFamilyTotal(ctx, actor, bf.family.ID, -1, "oops")
	assert.True(t, apierror.Is(err, apierror.KindValidation))
	_, err = svc.SetFamilyTotal(ctx, actor, bf.family.ID, 5, " ")
	assert.True(t, apierror.Is(err, apierror.KindValidation))
}

func TestReturnTx_AddsBaseUnitsBack(t *testing.T) {
	store := newTestStore(t)
	svc := NewStockService(store, newFakeClock().Now)
	actor := seedUser(t, store, model.RoleCashier)
	ctx := context.Background()
	bf := setupBeerFamily(t, store, svc, 12)

	err := store.Transaction(ctx, func(tx *repository.Store) error {
		_, err := svc.ReturnTx(ctx, tx, actor, bf.sixPack.ID, 1, nil)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 18, familyTotal(t, store, bf.family.ID))
	assert.Equal(t, 3, productStock(t, store, bf.sixPack.ID))
}

func TestAddMember_AlignsDisplayStockWithPool(t *testing.T) {
	store := newTestStore(t)
	svc := NewStockService(store, newFakeClock().Now)
	manager := seedUser(t, store, model.RoleManager)
	ctx := context.Background()

	pack := seedProduct(t, store, "Soda 6-pack", 0, "9.00")
	f, err := svc.CreateFamily(ctx, dto.CreateFamilyRequest{Name: "Soda", TotalStock: 60})
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, manager, f.ID, dto.AddMemberRequest{ProductID: pack.ID.String(), UnitsPerPack: 6})
	require.NoError(t, err)

	assert.Equal(t, 10, productStock(t, store, pack.ID))
	ms, err := store.Movements.ListByProduct(ctx, pack.ID, repository.Range{})
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, model.MovementRestock, ms[0].MovementType)
	assert.Equal(t, 0, ms[0].PreviousStock)
	assert.Equal(t, 10, ms[0].NewStock)
	require.NotNil(t, ms[0].Reason)
	assert.Contains(t, *ms[0].Reason, "Soda")

	_, err = svc.AddMember(ctx, Actor{}, f.ID, dto.AddMemberRequest{ProductID: uuid.NewString(), UnitsPerPack: 1})
	assert.True(t, apierror.Is(err, apierror.KindValidation))
}

func TestDeduct_FamilyDisplayStockFloorsAtZero(t *testing.T) {
	store := newTestStore(t)
	svc := NewStockService(store, newFakeClock().Now)
	actor := seedUser(t, store, model.RoleCashier)
	ctx := context.Background()
	bf := setupBeerFamily(t, store, svc, 24)

	// display lags the pool: 1 shown, 24 base units held
	require.NoError(t, store.Products.SetStock(ctx, bf.sixPack.ID, 1))

	mv, err := svc.Deduct(ctx, actor, DeductInput{ProductID: bf.sixPack.ID, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 6, familyTotal(t, store, bf.family.ID), "the pool gates the deduction")
	assert.Equal(t, 0, productStock(t, store, bf.sixPack.ID))
	assert.Equal(t, 1, mv.PreviousStock)
	assert.Equal(t, 0, mv.NewStock)
	assert.Equal(t, -1, mv.Quantity)

	// an unaffiliated product is gated by its own stock
	loose := seedProduct(t, store, "Crisps", 1, "1.00")
	_, err = svc.Deduct(ctx, actor, DeductInput{ProductID: loose.ID, Quantity: 3})
	assert.True(t, apierror.Is(err, apierror.KindInsufficientStock))
	assert.Equal(t, 1, productStock(t, store, loose.ID))
}

func TestLockStock_TakesFamilyForAffiliatedProducts(t *testing.T) {
	store := newTestStore(t)
	svc := NewStockService(store, newFakeClock().Now)
	ctx := context.Background()
	bf := setupBeerFamily(t, store, svc, 12)
	loose := seedProduct(t, store, "Peanuts", 4, "1.00")

	err := store.Transaction(ctx, func(tx *repository.Store) error {
		l, err := lockStock(ctx, tx, bf.sixPack.ID)
		require.NoError(t, err)
		require.NotNil(t, l.family)
		assert.Equal(t, bf.family.ID, l.family.ID)
		assert.Equal(t, 6, l.member.UnitsPerPack)
		assert.Equal(t, bf.sixPack.ID, l.product.ID)

		l, err = lockStock(ctx, tx, loose.ID)
		require.NoError(t, err)
		assert.Nil(t, l.family)
		assert.Nil(t, l.member)

		_, err = lockStock(ctx, tx, uuid.New())
		assert.True(t, apierror.Is(err, apierror.KindNotFound))
		return nil
	})
	require.NoError(t, err)

	key, err := stockLockKey(ctx, store, bf.single.ID)
	require.NoError(t, err)
	assert.Equal(t, bf.family.ID, key)
	key, err = stockLockKey(ctx, store, loose.ID)
	require.NoError(t, err)
	assert.Equal(t, loose.ID, key)
}
