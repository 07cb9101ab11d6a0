package sse

import (
	"time"

	"github.com/GTDGit/halal_inventory_api/internal/models"
)

// InventoryNotifier is the interface services use to emit inventory events.
// Implementations must not block the caller for long; notifications are sent
// after the underlying change has committed.
type InventoryNotifier interface {
	NotifyStockChanged(p *models.Product, t *models.StockTransaction)
	NotifyAlertCreated(p *models.Product, a *models.ExpiryAlert)
}

// HubNotifier implements InventoryNotifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyStockChanged(p *models.Product, t *models.StockTransaction) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(StockChangedEvent(p, t))
}

func (n *HubNotifier) NotifyAlertCreated(p *models.Product, a *models.ExpiryAlert) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(AlertCreatedEvent(p, a))
}

// StockChangedEvent builds the event for one committed ledger entry.
func StockChangedEvent(p *models.Product, t *models.StockTransaction) *InventoryEvent {
	e := productEvent(EventStockChanged, p)
	id, qty, prev, next, reason := t.ID, t.Quantity, t.PreviousStock, t.NewStock, t.Reason
	e.TransactionID = &id
	e.TransactionType = string(t.TransactionType)
	e.Quantity = &qty
	e.PreviousStock = &prev
	e.NewStock = &next
	e.Reason = &reason
	return e
}

// AlertCreatedEvent builds the event for a newly created expiry alert.
func AlertCreatedEvent(p *models.Product, a *models.ExpiryAlert) *InventoryEvent {
	e := productEvent(EventAlertCreated, p)
	id := a.ID
	e.AlertID = &id
	e.AlertType = string(a.AlertType)
	return e
}

func productEvent(eventType EventType, p *models.Product) *InventoryEvent {
	return &InventoryEvent{
		Event:         eventType,
		ProductID:     p.ID,
		ProductName:   p.Name,
		SKU:           p.SKU,
		StoreID:       p.StoreID,
		SubLocationID: p.SubLocationID,
		Timestamp:     time.Now().UTC(),
	}
}

// MultiNotifier fans out to several notifiers in order.
type MultiNotifier []InventoryNotifier

func (m MultiNotifier) NotifyStockChanged(p *models.Product, t *models.StockTransaction) {
	for _, n := range m {
		n.NotifyStockChanged(p, t)
	}
}

func (m MultiNotifier) NotifyAlertCreated(p *models.Product, a *models.ExpiryAlert) {
	for _, n := range m {
		n.NotifyAlertCreated(p, a)
	}
}

// NopNotifier is a no-op implementation for when nothing listens.
type NopNotifier struct{}

func (n *NopNotifier) NotifyStockChanged(p *models.Product, t *models.StockTransaction) {}
func (n *NopNotifier) NotifyAlertCreated(p *models.Product, a *models.ExpiryAlert)     {}

var (
	_ InventoryNotifier = (*HubNotifier)(nil)
	_ InventoryNotifier = MultiNotifier(nil)
	_ InventoryNotifier = (*NopNotifier)(nil)
)
