package handler

import (
	"context"
	"net/http"
	"strconv"

	"posengine/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// AlertSource returns up to limit recent alerts, newest first.
type AlertSource func(ctx context.Context, limit int) ([]worker.Alert, error)

// RedisAlerts reads the list the alert worker maintains.
func RedisAlerts(rdb *redis.Client) AlertSource {
	return func(ctx context.Context, limit int) ([]worker.Alert, error) {
		return worker.RecentAlerts(ctx, rdb, limit)
	}
}

type AlertsHandler struct{ recent AlertSource }

func NewAlertsHandler(recent AlertSource) *AlertsHandler {
	return &AlertsHandler{recent: recent}
}

func (h *AlertsHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	alerts, err := h.recent(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}
