package worker

// alert_worker.go
// Processes jobs from QueueAlerts: logs them and keeps the most recent ones in
// a capped Redis list that managers read from the dashboard endpoint.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	JobLowStock             = "low_stock"
	JobShiftPendingApproval = "shift_pending_approval"

	RecentAlertsKey = "alerts:recent"
	recentAlertsCap = 100
)

var ErrUnknownJobType = errors.New("unknown job type")

type LowStockAlert struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Available   int    `json:"available"`
	Threshold   int    `json:"threshold"`
}

type ShiftAlert struct {
	ShiftID  string          `json:"shift_id"`
	UserID   string          `json:"user_id"`
	UserName string          `json:"user_name"`
	Variance decimal.Decimal `json:"variance"`
}

// Alert is what the dashboard sees.
type Alert struct {
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

type AlertWorker struct {
	rdb *redis.Client
}

func NewAlertWorker(rdb *redis.Client) *AlertWorker {
	return &AlertWorker{rdb: rdb}
}

func (w *AlertWorker) Handle(ctx context.Context, job Job) error {
	switch job.Type {
	case JobLowStock:
		var a LowStockAlert
		if err := json.Unmarshal(job.Payload, &a); err != nil {
			return fmt.Errorf("low_stock payload: %w", err)
		}
		log.Warn().Str("product_id", a.ProductID).Str("product", a.ProductName).
			Int("available", a.Available).Int("threshold", a.Threshold).
			Msg("alert_worker: low stock")
	case JobShiftPendingApproval:
		var a ShiftAlert
		if err := json.Unmarshal(job.Payload, &a); err != nil {
			return fmt.Errorf("shift payload: %w", err)
		}
		log.Warn().Str("shift_id", a.ShiftID).Str("user", a.UserName).
			Str("variance", a.Variance.StringFixed(2)).
			Msg("alert_worker: shift awaiting approval")
	default:
		return ErrUnknownJobType
	}

	data, err := json.Marshal(Alert{Type: job.Type, Payload: job.Payload, ReceivedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	pipe := w.rdb.TxPipeline()
	pipe.LPush(ctx, RecentAlertsKey, data)
	pipe.LTrim(ctx, RecentAlertsKey, 0, recentAlertsCap-1)
	_, err = pipe.Exec(ctx)
	return err
}

// RecentAlerts returns up to limit alerts, newest first.
func RecentAlerts(ctx context.Context, rdb *redis.Client, limit int) ([]Alert, error) {
	if limit <= 0 || limit > recentAlertsCap {
		limit = recentAlertsCap
	}
	raw, err := rdb.LRange(ctx, RecentAlertsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	alerts := make([]Alert, 0, len(raw))
	for _, r := range raw {
		var a Alert
		if err := json.Unmarshal([]byte(r), &a); err != nil {
			continue
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}
