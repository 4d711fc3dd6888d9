package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"posengine/internal/infra"
	"posengine/internal/model"
	"posengine/internal/repository"
	"posengine/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// newTestStore opens an isolated in-memory SQLite database with the full
// schema applied.
func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := infra.NewDatabase("sqlite", dsn)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return repository.NewStore(db)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu       sync.Mutex
	lowStock []worker.LowStockAlert
	shifts   []worker.ShiftAlert
}

func (p *recordingPublisher) EnqueueLowStock(_ context.Context, a worker.LowStockAlert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lowStock = append(p.lowStock, a)
	return nil
}

func (p *recordingPublisher) EnqueueShiftPendingApproval(_ context.Context, a worker.ShiftAlert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shifts = append(p.shifts, a)
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedUser(t *testing.T, store *repository.Store, role string) Actor {
	t.Helper()
	u := &model.User{
		Username:     "user-" + uuid.NewString()[:8],
		Name:         "Test " + role,
		PasswordHash: "x",
		Role:         role,
		Active:       true,
	}
	require.NoError(t, store.Users.Create(context.Background(), u))
	return Actor{ID: u.ID, Name: u.Name}
}

func seedProduct(t *testing.T, store *repository.Store, name string, stock int, price string) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:      name,
		Category:  "General",
		Price:     dec(price),
		CostPrice: dec(price).Div(decimal.NewFromInt(2)),
		Stock:     stock,
		Active:    true,
	}
	require.NoError(t, store.Products.Create(context.Background(), p))
	return p
}

func productStock(t *testing.T, store *repository.Store, id uuid.UUID) int {
	t.Helper()
	p, err := store.Products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func familyTotal(t *testing.T, store *repository.Store, id uuid.UUID) int {
	t.Helper()
	f, err := store.Families.FindByID(context.Background(), id)
	require.NoError(t, err)
	return f.TotalStock
}
