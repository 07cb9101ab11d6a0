package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/halal_inventory_api/internal/models"
)

// EventType defines the SSE event name.
type EventType string

const (
	EventStockChanged EventType = "stock.changed"
	EventAlertCreated EventType = "alert.created"
)

// InventoryEvent is the payload broadcast to dashboard clients and published
// to the event topic.
type InventoryEvent struct {
	Event         EventType `json:"event"`
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	SKU           string    `json:"sku"`
	StoreID       *int64    `json:"store_id,omitempty"`
	SubLocationID *int64    `json:"sub_location_id,omitempty"`

	TransactionID   *int64  `json:"transaction_id,omitempty"`
	TransactionType string  `json:"transaction_type,omitempty"`
	Quantity        *int    `json:"quantity,omitempty"`
	PreviousStock   *int    `json:"previous_stock,omitempty"`
	NewStock        *int    `json:"new_stock,omitempty"`
	Reason          *string `json:"reason,omitempty"`

	AlertID   *int64 `json:"alert_id,omitempty"`
	AlertType string `json:"alert_type,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Owner returns the event's place in the store hierarchy.
func (e *InventoryEvent) Owner() models.Owner {
	o, _ := models.OwnerFromColumns(e.StoreID, e.SubLocationID)
	return o
}

// Client represents a connected SSE dashboard client. It only receives events
// for products inside its scope.
type Client struct {
	ID     string
	Scope  models.Scope
	Events chan []byte
}

// Hub manages SSE client connections and broadcasts.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new SSE hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a new client and returns it for streaming.
func (h *Hub) Register(clientID string, scope models.Scope) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &Client{
		ID:     clientID,
		Scope:  scope,
		Events: make(chan []byte, 64),
	}
	h.clients[clientID] = c
	log.Info().Str("client_id", clientID).Int("total_clients", len(h.clients)).Msg("SSE client connected")
	return c
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		close(c.Events)
		delete(h.clients, clientID)
		log.Info().Str("client_id", clientID).Int("total_clients", len(h.clients)).Msg("SSE client disconnected")
	}
}

// Broadcast sends an event to every client whose scope covers the product.
// Non-blocking: drops message if client buffer is full.
func (h *Hub) Broadcast(event *InventoryEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE event")
		return
	}
	owner := event.Owner()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if !c.Scope.Allows(owner) {
			continue
		}
		select {
		case c.Events <- data:
		default:
			log.Warn().Str("client_id", c.ID).Msg("SSE client buffer full, dropping event")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
