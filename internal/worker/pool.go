package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"posengine/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAlerts = "jobs:alerts"

	maxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP. Every push goes through a circuit
// breaker so a Redis outage fails fast.
type Dispatcher struct {
	rdb          *redis.Client
	cb           *infra.CircuitBreaker
	reportEmails bool
}

func NewDispatcher(rdb *redis.Client, cb *infra.CircuitBreaker) *Dispatcher {
	return &Dispatcher{rdb: rdb, cb: cb}
}

// WithReportEmails makes a pending-approval shift also queue an email of its
// report.
func (d *Dispatcher) WithReportEmails(enabled bool) *Dispatcher {
	d.reportEmails = enabled
	return d
}

// EnqueueLowStock pushes a low_stock alert.
func (d *Dispatcher) EnqueueLowStock(ctx context.Context, alert LowStockAlert) error {
	return d.enqueue(ctx, QueueAlerts, JobLowStock, alert)
}

// EnqueueShiftPendingApproval pushes a shift_pending_approval alert and, when
// enabled, the report email.
func (d *Dispatcher) EnqueueShiftPendingApproval(ctx context.Context, alert ShiftAlert) error {
	if err := d.enqueue(ctx, QueueAlerts, JobShiftPendingApproval, alert); err != nil {
		return err
	}
	if !d.reportEmails {
		return nil
	}
	return d.enqueue(ctx, QueueAlerts, JobShiftReportEmail, ShiftReportEmail{
		ShiftID:  alert.ShiftID,
		UserName: alert.UserName,
		Variance: alert.Variance,
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.cb.Execute(func() error {
		return d.rdb.LPush(ctx, queue, encoded).Err()
	})
}

// JobHandler processes one decoded job. A returned error triggers a retry
// until maxAttempts, then the job moves to the DLQ.
type JobHandler interface {
	Handle(ctx context.Context, job Job) error
}

// StartWorkerPool launches numWorkers goroutines consuming the alert queue.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handler JobHandler, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handler, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handler JobHandler, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueAlerts).Result()
			if err != nil || len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handler, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handler JobHandler, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, rdb, queue, "unknown", json.RawMessage(raw), "malformed job: "+err.Error(), 1)
		return
	}
	job.Attempts++

	err := handler.Handle(ctx, job)
	if err == nil {
		return
	}
	if job.Attempts >= maxAttempts || errors.Is(err, ErrUnknownJobType) {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
		return
	}

	log.Warn().Err(err).Str("type", job.Type).Int("attempts", job.Attempts).Msg("job failed, requeueing")
	encoded, mErr := json.Marshal(job)
	if mErr != nil {
		return
	}
	if pErr := rdb.LPush(ctx, queue, encoded).Err(); pErr != nil {
		log.Error().Err(pErr).Str("queue", queue).Msg("failed to requeue job")
	}
}
