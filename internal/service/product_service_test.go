package service

import (
	"context"
	"testing"

	"posengine/internal/apierror"
	"posengine/internal/dto"
	"posengine/internal/model"
	"posengine/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductService_CreateRecordsOpeningStock(t *testing.T) {
	store := newTestStore(t)
	svc := NewProductService(store, newFakeClock().Now)
	actor := seedUser(t, store, model.RoleManager)
	ctx := context.Background()

	p, err := svc.Create(ctx, actor, dto.CreateProductRequest{Name: "Coffee", Category: "Drinks", Price: dec("9.50"), CostPrice: dec("5"), Stock: 12})
	require.NoError(t, err)

	ms, err := store.Movements.ListByProduct(ctx, p.ID, repository.Range{})
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, model.MovementRestock, ms[0].MovementType)
	assert.Equal(t, 0, ms[0].PreviousStock)
	assert.Equal(t, 12, ms[0].NewStock)

	empty, err := svc.Create(ctx, Actor{}, dto.CreateProductRequest{Name: "Filters", Price: dec("2")})
	require.NoError(t, err)
	ms, err = store.Movements.ListByProduct(ctx, empty.ID, repository.Range{})
	require.NoError(t, err)
	assert.Empty(t, ms)

	_, err = svc.Create(ctx, actor, dto.CreateProductRequest{Name: "Broken", Price: dec("-1")})
	assert.True(t, apierror.Is(err, apierror.KindValidation))
}

func TestProductService_Update(t *testing.T) {
	store := newTestStore(t)
	svc := NewProductService(store, newFakeClock().Now)
	ctx := context.Background()
	p := seedProduct(t, store, "Coffee", 3, "9.50")

	price := dec("10.25")
	inactive := false
	updated, err := svc.Update(ctx, p.ID, dto.UpdateProductRequest{Price: &price, Active: &inactive})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(price))
	assert.False(t, updated.Active)
	assert.Equal(t, 3, updated.Stock)

	blank := " "
	_, err = svc.Update(ctx, p.ID, dto.UpdateProductRequest{Name: &blank})
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	_, err = svc.Update(ctx, uuid.New(), dto.UpdateProductRequest{Price: &price})
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}
