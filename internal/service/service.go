package service

import (
	"context"
	"time"

	"posengine/internal/apierror"
	"posengine/internal/repository"
	"posengine/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Actor is the authenticated operator a mutation is attributed to.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// Clock returns the current instant. Services normalise it to UTC.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now().UTC() }

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// AlertPublisher receives best-effort notifications after a commit.
// *worker.Dispatcher satisfies it.
type AlertPublisher interface {
	EnqueueLowStock(ctx context.Context, alert worker.LowStockAlert) error
	EnqueueShiftPendingApproval(ctx context.Context, alert worker.ShiftAlert) error
}

func publishLowStock(ctx context.Context, pub AlertPublisher, alert worker.LowStockAlert) {
	if pub == nil {
		return
	}
	if err := pub.EnqueueLowStock(ctx, alert); err != nil {
		log.Warn().Err(err).Str("product_id", alert.ProductID).Msg("low stock alert not published")
	}
}

func publishShiftPending(ctx context.Context, pub AlertPublisher, alert worker.ShiftAlert) {
	if pub == nil {
		return
	}
	if err := pub.EnqueueShiftPendingApproval(ctx, alert); err != nil {
		log.Warn().Err(err).Str("shift_id", alert.ShiftID).Msg("shift approval alert not published")
	}
}

// lookup turns a repository error into NotFound for the named entity, or
// classifies it otherwise.
func lookup(err error, entity string, id uuid.UUID) error {
	if repository.IsNotFound(err) {
		return apierror.NotFound("%s %s not found", entity, id)
	}
	return repository.Classify(err)
}

func validateActor(a Actor) error {
	if a.ID == uuid.Nil {
		return apierror.Validation("user is required")
	}
	return nil
}
