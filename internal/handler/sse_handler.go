package handler

import (
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/halal_inventory_api/internal/middleware"
	"github.com/GTDGit/halal_inventory_api/internal/sse"
)

const ssePingInterval = 30 * time.Second

// SSEHandler streams live stock and alert events.
type SSEHandler struct {
	hub *sse.Hub
}

// NewSSEHandler creates a new SSEHandler.
func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// Stream handles GET /api/v1/events?token=<jwt>
// EventSource cannot set headers, so the stream route accepts the JWT as a
// query parameter; the caller's scope filters what it receives.
func (h *SSEHandler) Stream(c *gin.Context) {
	actor := middleware.GetActor(c)
	scope := middleware.GetScope(c)
	clientID := fmt.Sprintf("user-%d-%s", actor.UserID, uuid.New().String()[:8])

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering

	client := h.hub.Register(clientID, scope)
	defer h.hub.Unregister(clientID)

	c.SSEvent("connected", gin.H{
		"client_id": clientID,
		"message":   "SSE connection established",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	c.Writer.Flush()

	log.Info().Str("client_id", clientID).Int64("user_id", actor.UserID).Msg("Inventory SSE stream started")

	ticker := time.NewTicker(ssePingInterval)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case data, ok := <-client.Events:
			if !ok {
				return false
			}
			c.SSEvent("inventory", string(data))
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"timestamp": time.Now().UTC().Format(time.RFC3339)})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
