package service

import (
	"context"
	"testing"

	"posengine/internal/apierror"
	"posengine/internal/bundle"
	"posengine/internal/dto"
	"posengine/internal/model"
	"posengine/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saleFixture struct {
	store     *repository.Store
	clock     *fakeClock
	pub       *recordingPublisher
	stock     StockService
	bundles   BundleService
	customers CustomerService
	shifts    ShiftService
	sales     SaleService
	cashier   Actor
}

func newSaleFixture(t *testing.T) saleFixture {
	t.Helper()
	store := newTestStore(t)
	clock := newFakeClock()
	pub := &recordingPublisher{}
	stock := NewStockService(store, clock.Now)
	bundles := NewBundleService(store, nil, 0, bundle.ModeAllLines, clock.Now)
	customers := NewCustomerService(store, clock.Now)
	return saleFixture{
		store:     store,
		clock:     clock,
		pub:       pub,
		stock:     stock,
		bundles:   bundles,
		customers: customers,
		shifts:    NewShiftService(store, clock.Now, DefaultVarianceThreshold, pub),
		sales:     NewSaleService(store, stock, bundles, customers, pub, clock.Now, 5),
		cashier:   seedUser(t, store, model.RoleCashier),
	}
}

func (f saleFixture) count(t *testing.T, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.store.DB().Model(m).Count(&n).Error)
	return n
}

func TestCompleteSale_BundleFamilyAndCredit(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()

	yogurt := seedProduct(t, f.store, "Yogurt", 10, "6.00")
	beer := setupBeerFamily(t, f.store, f.stock, 24)
	_, err := f.bundles.Create(ctx, dto.CreateBundleRequest{
		Name: "Three yogurts", MinimumQuantity: 3, BundlePrice: dec("15"), IsActive: true,
		ProductIDs: []string{yogurt.ID.String()},
	})
	require.NoError(t, err)

	customer, err := f.customers.Create(ctx, dto.CreateCustomerRequest{FirstName: "Ana", LastName: "Diaz"})
	require.NoError(t, err)
	_, err = f.customers.AdjustBalance(ctx, customer.ID, dec("20"), "goodwill", nil)
	require.NoError(t, err)

	shift, err := f.shifts.Start(ctx, f.cashier, dec("100"))
	require.NoError(t, err)

	cid := customer.ID.String()
	sale, err := f.sales.Complete(ctx, f.cashier, dto.CompleteSaleRequest{
		Lines: []dto.SaleLineRequest{
			{ProductID: yogurt.ID.String(), Quantity: 3},
			{ProductID: beer.sixPack.ID.String(), Quantity: 1},
		},
		PaymentMethod: model.PaymentCash,
		CustomerID:    &cid,
		StoreCredit:   dec("5"),
		ApplyBundles:  true,
	})
	require.NoError(t, err)

	assert.True(t, sale.Subtotal.Equal(dec("28")))
	assert.True(t, sale.DiscountTotal.Equal(dec("3")))
	assert.True(t, sale.Total.Equal(dec("25")))
	assert.True(t, sale.CashAmount.Equal(dec("20")))
	assert.True(t, sale.CreditAmount.Equal(dec("5")))
	require.NotNil(t, sale.ShiftID)
	assert.Equal(t, shift.ID, *sale.ShiftID)

	assert.Equal(t, 7, productStock(t, f.store, yogurt.ID))
	assert.Equal(t, 18, familyTotal(t, f.store, beer.family.ID))

	stored, err := f.customers.Get(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, stored.CreditBalance.Equal(dec("15")))
	assert.True(t, stored.TotalPurchases.Equal(dec("25")))

	history, err := f.customers.TransactionHistory(ctx, customer.ID)
	require.NoError(t, err)
	types := make([]string, 0, len(history))
	for _, tx := range history {
		types = append(types, tx.Type)
	}
	assert.ElementsMatch(t, []string{model.TxCreditAdd, model.TxPurchase, model.TxCreditDeduct}, types)

	// six-pack: floor(18 / 6) = 3 <= 5
	require.Len(t, f.pub.lowStock, 1)
	assert.Equal(t, beer.sixPack.ID.String(), f.pub.lowStock[0].ProductID)
	assert.Equal(t, 3, f.pub.lowStock[0].Available)

	got, err := f.sales.Get(ctx, sale.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
}

func TestCompleteSale_InsufficientStockRollsBackEverything(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()

	yogurt := seedProduct(t, f.store, "Yogurt", 10, "6.00")
	chips := seedProduct(t, f.store, "Chips", 5, "1.50")
	customer, err := f.customers.Create(ctx, dto.CreateCustomerRequest{FirstName: "Ana", LastName: "Diaz"})
	require.NoError(t, err)
	cid := customer.ID.String()

	_, err = f.sales.Complete(ctx, f.cashier, dto.CompleteSaleRequest{
		Lines: []dto.SaleLineRequest{
			{ProductID: yogurt.ID.String(), Quantity: 2},
			{ProductID: chips.ID.String(), Quantity: 50},
		},
		PaymentMethod: model.PaymentEFT,
		CustomerID:    &cid,
	})
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.KindInsufficientStock))

	assert.Equal(t, 10, productStock(t, f.store, yogurt.ID))
	assert.Equal(t, 5, productStock(t, f.store, chips.ID))
	assert.Zero(t, f.count(t, &model.Sale{}))
	assert.Zero(t, f.count(t, &model.SaleItem{}))
	assert.Zero(t, f.count(t, &model.InventoryMovement{}))
	assert.Zero(t, f.count(t, &model.CustomerTransaction{}))
	assert.Empty(t, f.pub.lowStock)
}

func TestCompleteSale_RefundToCredit(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()

	tea := seedProduct(t, f.store, "Tea", 5, "4.00")
	customer, err := f.customers.Create(ctx, dto.CreateCustomerRequest{FirstName: "Ana", LastName: "Diaz"})
	require.NoError(t, err)
	cid := customer.ID.String()

	sale, err := f.sales.Complete(ctx, f.cashier, dto.CompleteSaleRequest{
		Lines:          []dto.SaleLineRequest{{ProductID: tea.ID.String(), Quantity: 2}},
		PaymentMethod:  model.PaymentCash,
		CustomerID:     &cid,
		Refund:         true,
		RefundToCredit: true,
	})
	require.NoError(t, err)
	assert.True(t, sale.Total.Equal(dec("-8")))
	assert.True(t, sale.CreditAmount.Equal(dec("-8")))
	assert.True(t, sale.CashAmount.IsZero())

	assert.Equal(t, 7, productStock(t, f.store, tea.ID))
	stored, err := f.customers.Get(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, stored.CreditBalance.Equal(dec("8")))
	assert.True(t, stored.TotalPurchases.IsZero())

	ms, err := f.store.Movements.ListByProduct(ctx, tea.ID, repository.Range{})
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, model.MovementReturn, ms[0].MovementType)
	assert.Equal(t, sale.ID, *ms[0].ReferenceID)
}

func TestCompleteSale_PaymentValidation(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	tea := seedProduct(t, f.store, "Tea", 5, "4.00")
	line := []dto.SaleLineRequest{{ProductID: tea.ID.String(), Quantity: 2}}
	customer, err := f.customers.Create(ctx, dto.CreateCustomerRequest{FirstName: "Ana", LastName: "Diaz"})
	require.NoError(t, err)
	cid := customer.ID.String()

	cases := map[string]dto.CompleteSaleRequest{
		"split mismatch":      {Lines: line, PaymentMethod: model.PaymentSplit, CashAmount: dec("5"), EFTAmount: dec("2")},
		"unknown method":      {Lines: line, PaymentMethod: "cheque"},
		"credit, no customer": {Lines: line, PaymentMethod: model.PaymentCash, StoreCredit: dec("1")},
		"credit over total":   {Lines: line, PaymentMethod: model.PaymentCash, CustomerID: &cid, StoreCredit: dec("9")},
		"refund by split":     {Lines: line, PaymentMethod: model.PaymentSplit, Refund: true},
		"no lines":            {PaymentMethod: model.PaymentCash},
	}
	for name, req := range cases {
		_, err := f.sales.Complete(ctx, f.cashier, req)
		assert.True(t, apierror.Is(err, apierror.KindValidation), name)
	}
	assert.Zero(t, f.count(t, &model.Sale{}))

	sale, err := f.sales.Complete(ctx, f.cashier, dto.CompleteSaleRequest{
		Lines: line, PaymentMethod: model.PaymentSplit, CashAmount: dec("5"), EFTAmount: dec("3"),
	})
	require.NoError(t, err)
	assert.True(t, sale.Total.Equal(dec("8")))
	assert.Nil(t, sale.ShiftID)
	assert.True(t, sale.CreditAmount.Equal(decimal.Zero))
}

func TestInLockOrder_GroupsLinesByFirstLockedRow(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	beer := setupBeerFamily(t, f.store, f.stock, 24)
	gum := seedProduct(t, f.store, "Gum", 5, "0.50")
	mints := seedProduct(t, f.store, "Mints", 5, "0.80")

	lines := []pricedLine{
		{product: gum, quantity: 1},
		{product: beer.sixPack, quantity: 1},
		{product: mints, quantity: 1},
		{product: beer.single, quantity: 1},
	}
	ordered, err := inLockOrder(ctx, f.store, lines)
	require.NoError(t, err)
	require.Len(t, ordered, len(lines))
	assert.Equal(t, gum.ID, lines[0].product.ID, "input is left untouched")

	keyOf := func(l pricedLine) string {
		k, err := stockLockKey(ctx, f.store, l.product.ID)
		require.NoError(t, err)
		return k.String()
	}
	for i := 1; i < len(ordered); i++ {
		assert.LessOrEqual(t, keyOf(ordered[i-1]), keyOf(ordered[i]))
	}
	// both beer lines share the family key and keep their relative order
	var beerLines []*model.Product
	for _, l := range ordered {
		if l.product.ID == beer.sixPack.ID || l.product.ID == beer.single.ID {
			beerLines = append(beerLines, l.product)
		}
	}
	require.Len(t, beerLines, 2)
	assert.Equal(t, beer.sixPack.ID, beerLines[0].ID)
	assert.Equal(t, beer.single.ID, beerLines[1].ID)
}
