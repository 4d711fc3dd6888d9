package service

import (
	"context"
	"testing"

	"posengine/internal/apierror"
	"posengine/internal/dto"
	"posengine/internal/model"
	"posengine/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjust_ResolvesNewStockByType(t *testing.T) {
	store := newTestStore(t)
	svc := NewInventoryService(store, newFakeClock().Now, 5)
	actor := seedUser(t, store, model.RoleManager)
	ctx := context.Background()
	p := seedProduct(t, store, "Bread", 10, "3.00")

	cases := []struct {
		typ      string
		qty      int
		expected int
	}{
		{model.AdjustIncrease, 5, 15},
		{model.AdjustDecrease, 4, 11},
		{model.AdjustDecrease, 50, 0},
		{model.AdjustSet, 8, 8},
		{model.AdjustSet, 8, 8},
	}
	for _, tc := range cases {
		res, err := svc.Adjust(ctx, actor, AdjustInput{ProductID: p.ID, Type: tc.typ, Quantity: tc.qty, Reason: "count"})
		require.NoError(t, err, tc.typ)
		assert.Equal(t, tc.expected, res.Adjustment.NewStock, tc.typ)
		assert.Equal(t, tc.expected, productStock(t, store, p.ID))
		require.NotNil(t, res.Movement.ReferenceID)
		assert.Equal(t, res.Adjustment.ID, *res.Movement.ReferenceID)
		assert.Equal(t, res.Movement.PreviousStock+res.Movement.Quantity, res.Movement.NewStock)
	}

	adjustments, err := store.Movements.ListAdjustments(ctx, repository.Range{})
	require.NoError(t, err)
	assert.Len(t, adjustments, len(cases), "no-op set is still audited")
}

func TestAdjust_RejectsBeforeAnyWrite(t *testing.T) {
	store := newTestStore(t)
	svc := NewInventoryService(store, newFakeClock().Now, 5)
	actor := seedUser(t, store, model.RoleManager)
	ctx := context.Background()
	p := seedProduct(t, store, "Milk", 4, "1.20")

	for _, in := range []AdjustInput{
		{ProductID: p.ID, Type: model.AdjustIncrease, Quantity: 1, Reason: "  "},
		{ProductID: p.ID, Type: model.AdjustIncrease, Quantity: -1, Reason: "x"},
		{ProductID: p.ID, Type: "double", Quantity: 1, Reason: "x"},
	} {
		_, err := svc.Adjust(ctx, actor, in)
		assert.True(t, apierror.Is(err, apierror.KindValidation), "%+v", in)
	}
	assert.Equal(t, 4, productStock(t, store, p.ID))

	ms, err := store.Movements.List(ctx, repository.Range{})
	require.NoError(t, err)
	assert.Empty(t, ms)
}

func TestAdjust_PropagatesToFamilyInBaseUnits(t *testing.T) {
	store := newTestStore(t)
	stock := NewStockService(store, newFakeClock().Now)
	svc := NewInventoryService(store, newFakeClock().Now, 5)
	actor := seedUser(t, store, model.RoleManager)
	ctx := context.Background()
	bf := setupBeerFamily(t, store, stock, 12)

	_, err := svc.Adjust(ctx, actor, AdjustInput{ProductID: bf.sixPack.ID, Type: model.AdjustIncrease, Quantity: 1, Reason: "found a pack"})
	require.NoError(t, err)
	assert.Equal(t, 18, familyTotal(t, store, bf.family.ID))

	_, err = svc.Adjust(ctx, actor, AdjustInput{ProductID: bf.single.ID, Type: model.AdjustDecrease, Quantity: 5, Reason: "broken"})
	require.NoError(t, err)
	assert.Equal(t, 13, familyTotal(t, store, bf.family.ID))

	// the pool is clamped at zero
	_, err = svc.Adjust(ctx, actor, AdjustInput{ProductID: bf.sixPack.ID, Type: model.AdjustSet, Quantity: 0, Reason: "recount"})
	require.NoError(t, err)
	_, err = svc.Adjust(ctx, actor, AdjustInput{ProductID: bf.sixPack.ID, Type: model.AdjustSet, Quantity: 0, Reason: "recount"})
	require.NoError(t, err)
	assert.Equal(t, 0, familyTotal(t, store, bf.family.ID))
}

func TestMovements_ReplayReconstructsStock(t *testing.T) {
	store := newTestStore(t)
	clock := newFakeClock()
	stock := NewStockService(store, clock.Now)
	inv := NewInventoryService(store, clock.Now, 5)
	ledger := NewLedgerService(store, clock.Now)
	actor := seedUser(t, store, model.RoleManager)
	ctx := context.Background()
	p := seedProduct(t, store, "Soap", 10, "2.50")

	_, err := stock.Deduct(ctx, actor, DeductInput{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = inv.Adjust(ctx, actor, AdjustInput{ProductID: p.ID, Type: model.AdjustIncrease, Quantity: 6, Reason: "delivery"})
	require.NoError(t, err)
	// same instant: ids keep the order
	_, err = stock.Deduct(ctx, actor, DeductInput{ProductID: p.ID, Quantity: 2, MovementType: model.MovementDamage})
	require.NoError(t, err)
	clock.Advance(1)
	_, err = inv.Adjust(ctx, actor, AdjustInput{ProductID: p.ID, Type: model.AdjustDecrease, Quantity: 40, Reason: "shrinkage"})
	require.NoError(t, err)

	ms, err := ledger.ListByProduct(ctx, p.ID, repository.Range{})
	require.NoError(t, err)
	require.Len(t, ms, 4)

	running := ms[len(ms)-1].PreviousStock
	assert.Equal(t, 10, running)
	for i := len(ms) - 1; i >= 0; i-- {
		m := ms[i]
		assert.Equal(t, running, m.PreviousStock)
		assert.Equal(t, m.PreviousStock+m.Quantity, m.NewStock)
		running = m.NewStock
	}
	assert.Equal(t, productStock(t, store, p.ID), running)
	assert.Equal(t, 0, running)

	limited, err := ledger.ListByProduct(ctx, p.ID, repository.Range{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, ms[0].ID, limited[0].ID)
}

func TestLedger_RecordValidatesIdentity(t *testing.T) {
	store := newTestStore(t)
	ledger := NewLedgerService(store, newFakeClock().Now)
	actor := seedUser(t, store, model.RoleCashier)
	ctx := context.Background()
	p := seedProduct(t, store, "Tea", 5, "4.00")

	_, err := ledger.Record(ctx, &model.InventoryMovement{
		ProductID: p.ID, ProductName: p.Name, MovementType: model.MovementRestock,
		Quantity: 3, PreviousStock: 5, NewStock: 9, UserID: actor.ID,
	})
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	_, err = ledger.Record(ctx, &model.InventoryMovement{
		ProductID: p.ID, ProductName: p.Name, MovementType: "gift",
		Quantity: 3, PreviousStock: 5, NewStock: 8, UserID: actor.ID,
	})
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	id, err := ledger.Record(ctx, &model.InventoryMovement{
		ProductID: p.ID, ProductName: p.Name, MovementType: model.MovementTransfer,
		Quantity: 3, PreviousStock: 5, NewStock: 8, UserID: actor.ID,
	})
	require.NoError(t, err)
	assert.NotZero(t, id)
}

func TestLedger_RecordSaleMovement(t *testing.T) {
	store := newTestStore(t)
	ledger := NewLedgerService(store, newFakeClock().Now)
	actor := seedUser(t, store, model.RoleCashier)
	p := seedProduct(t, store, "Jam", 4, "3.00")
	saleID := model.NewID()

	mv, err := ledger.RecordSaleMovement(context.Background(), actor, p.ID, 2, saleID)
	require.NoError(t, err)
	assert.Equal(t, 6, mv.PreviousStock)
	assert.Equal(t, 4, mv.NewStock)
	assert.Equal(t, -2, mv.Quantity)
	assert.Equal(t, saleID, *mv.ReferenceID)
}

func TestLowStockReport_IsFamilyAware(t *testing.T) {
	store := newTestStore(t)
	stock := NewStockService(store, newFakeClock().Now)
	svc := NewInventoryService(store, newFakeClock().Now, 3)
	ctx := context.Background()

	seedProduct(t, store, "Plenty", 50, "1.00")
	seedProduct(t, store, "Almost out", 2, "1.00")
	bf := setupBeerFamily(t, store, stock, 14)
	// six-pack: floor(14/6) = 2, single: 14

	report, err := svc.LowStockReport(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Threshold)
	require.Len(t, report.Items, 2)
	assert.Equal(t, "Almost out", report.Items[0].Name)
	assert.Equal(t, bf.sixPack.ID.String(), report.Items[1].ProductID)
	assert.Equal(t, 2, report.Items[1].Available)

	zero := 0
	report, err = svc.LowStockReport(ctx, &zero)
	require.NoError(t, err)
	assert.Empty(t, report.Items)

	neg := -1
	_, err = svc.LowStockReport(ctx, &neg)
	assert.True(t, apierror.Is(err, apierror.KindValidation))
}

func TestStockValueReport(t *testing.T) {
	store := newTestStore(t)
	svc := NewInventoryService(store, newFakeClock().Now, 5)
	ctx := context.Background()

	seedProduct(t, store, "Rice", 10, "2.00")
	p := seedProduct(t, store, "Loose candy", 4, "0.50")
	p.Category = ""
	require.NoError(t, store.Products.Update(ctx, p))

	report, err := svc.StockValueReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.ProductCount)
	assert.Equal(t, "22", report.TotalValue.String())
	assert.Equal(t, "11", report.TotalCost.String())
	require.Len(t, report.Categories, 2)
	assert.Equal(t, "General", report.Categories[0].Category)
	assert.Equal(t, 10, report.Categories[0].Units)
	assert.Equal(t, uncategorized, report.Categories[1].Category)
	assert.Equal(t, 1, report.Categories[1].Products)
}

func TestAdjust_DecreaseNeverGrowsFamilyPool(t *testing.T) {
	store := newTestStore(t)
	stock := NewStockService(store, newFakeClock().Now)
	svc := NewInventoryService(store, newFakeClock().Now, 5)
	actor := seedUser(t, store, model.RoleManager)
	ctx := context.Background()

	pack := seedProduct(t, store, "Water 6-pack", 0, "5.00")
	f, err := stock.CreateFamily(ctx, dto.CreateFamilyRequest{Name: "Water", TotalStock: 60})
	require.NoError(t, err)
	_, err = stock.AddMember(ctx, actor, f.ID, dto.AddMemberRequest{ProductID: pack.ID.String(), UnitsPerPack: 6})
	require.NoError(t, err)

	_, err = stock.Deduct(ctx, actor, DeductInput{ProductID: pack.ID, Quantity: 2})
	require.NoError(t, err)
	require.Equal(t, 48, familyTotal(t, store, f.ID))
	require.Equal(t, 8, productStock(t, store, pack.ID))

	_, err = svc.Adjust(ctx, actor, AdjustInput{ProductID: pack.ID, Type: model.AdjustDecrease, Quantity: 1, Reason: "dented"})
	require.NoError(t, err)
	assert.Equal(t, 42, familyTotal(t, store, f.ID))
	assert.Equal(t, 7, productStock(t, store, pack.ID))

	// a negative display left by older data is measured from zero
	require.NoError(t, store.Products.SetStock(ctx, pack.ID, -2))
	res, err := svc.Adjust(ctx, actor, AdjustInput{ProductID: pack.ID, Type: model.AdjustDecrease, Quantity: 1, Reason: "recount"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Adjustment.NewStock)
	assert.Equal(t, 2, res.Movement.Quantity)
	assert.Equal(t, 42, familyTotal(t, store, f.ID))

	_, err = svc.Adjust(ctx, actor, AdjustInput{ProductID: pack.ID, Type: model.AdjustIncrease, Quantity: 1, Reason: "found"})
	require.NoError(t, err)
	assert.Equal(t, 48, familyTotal(t, store, f.ID))
}
