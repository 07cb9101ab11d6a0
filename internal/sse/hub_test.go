package sse

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/halal_inventory_api/internal/models"
)

func TestHub_BroadcastRespectsScope(t *testing.T) {
	hub := NewHub()
	storeClient := hub.Register("store", models.Scope{StoreIDs: []int64{1}, SubLocationIDs: []int64{10}})
	otherClient := hub.Register("other", models.Scope{StoreIDs: []int64{2}})
	adminClient := hub.Register("admin", models.AllScope())
	defer hub.Unregister("store")
	defer hub.Unregister("other")
	defer hub.Unregister("admin")

	sub := int64(10)
	p := &models.Product{ID: uuid.New(), Name: "Dates", SKU: "D1", SubLocationID: &sub}
	tx := &models.StockTransaction{ID: 7, TransactionType: models.TransactionOut, Quantity: 3, PreviousStock: 5, NewStock: 2}

	NewHubNotifier(hub).NotifyStockChanged(p, tx)

	require.Len(t, storeClient.Events, 1)
	require.Len(t, adminClient.Events, 1)
	assert.Len(t, otherClient.Events, 0)

	var got InventoryEvent
	require.NoError(t, json.Unmarshal(<-storeClient.Events, &got))
	assert.Equal(t, EventStockChanged, got.Event)
	assert.Equal(t, p.ID, got.ProductID)
	require.NotNil(t, got.NewStock)
	assert.Equal(t, 2, *got.NewStock)
}

func TestHub_UnregisterClosesChannel(t *testing.T) {
	hub := NewHub()
	c := hub.Register("x", models.AllScope())
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister("x")
	_, ok := <-c.Events
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())
}

type countingNotifier struct{ stock, alerts int }

func (c *countingNotifier) NotifyStockChanged(*models.Product, *models.StockTransaction) { c.stock++ }
func (c *countingNotifier) NotifyAlertCreated(*models.Product, *models.ExpiryAlert)     { c.alerts++ }

func TestMultiNotifier(t *testing.T) {
	a, b := &countingNotifier{}, &countingNotifier{}
	m := MultiNotifier{a, b, &NopNotifier{}}

	p := &models.Product{ID: uuid.New()}
	m.NotifyStockChanged(p, &models.StockTransaction{})
	m.NotifyAlertCreated(p, &models.ExpiryAlert{AlertType: models.AlertExpired})

	assert.Equal(t, 1, a.stock)
	assert.Equal(t, 1, b.alerts)
}
