package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

var startTime = time.Now()

const healthCheckTimeout = 2 * time.Second

// DBPinger is satisfied by *sqlx.DB.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// RedisPinger is satisfied by *cache.RedisClient.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health endpoint.
type HealthHandler struct {
	db    DBPinger
	redis RedisPinger
}

// NewHealthHandler creates a new HealthHandler. redis may be nil when the
// deployment runs without Redis.
func NewHealthHandler(db DBPinger, redis RedisPinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// GetHealth responds with service, database and Redis status. A database
// failure makes the service unhealthy; Redis is optional.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	dbStatus := "connected"
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "disconnected"
	}

	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = "connected"
		if err := h.redis.Ping(ctx); err != nil {
			redisStatus = "disconnected"
		}
	}

	data := gin.H{
		"status":   "healthy",
		"version":  "1.0.0",
		"uptime":   int(time.Since(startTime).Seconds()),
		"database": gin.H{"status": dbStatus},
		"redis":    gin.H{"status": redisStatus},
	}
	if dbStatus != "connected" {
		data["status"] = "unhealthy"
		c.JSON(503, utils.Response{
			Success: false,
			Code:    503,
			Message: "Service is unhealthy",
			Data:    data,
			Error:   &utils.ErrorInfo{Code: "SERVICE_UNAVAILABLE", Message: "database unavailable"},
			Meta:    utils.Meta{RequestID: c.GetString("request_id"), Timestamp: time.Now().UTC().Format(time.RFC3339)},
		})
		return
	}
	utils.Success(c, 200, "Service is healthy", data)
}
