package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/halal_inventory_api/internal/config"
	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/sse"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.msgs)
}

// stalledWriter models a broker that accepts connections but never answers.
// Writes block until release is closed or the context ends.
type stalledWriter struct {
	fakeWriter
	release chan struct{}
}

func (w *stalledWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	select {
	case <-w.release:
		return w.fakeWriter.WriteMessages(ctx, msgs...)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func saleTransaction() *models.StockTransaction {
	return &models.StockTransaction{ID: 1, TransactionType: models.TransactionOut, Quantity: 1, PreviousStock: 2, NewStock: 1}
}

func TestPublisher_StockChanged(t *testing.T) {
	w := &fakeWriter{}
	pub := NewPublisherWithWriter(w)

	store := int64(3)
	p := &models.Product{ID: uuid.New(), Name: "Halal Beef", SKU: "HB-1", StoreID: &store}
	pub.NotifyStockChanged(p, &models.StockTransaction{
		ID: 1, TransactionType: models.TransactionIn, Quantity: 5, PreviousStock: 0, NewStock: 5,
	})
	require.NoError(t, pub.Close())

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, p.ID.String(), string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "stock.changed", string(msg.Headers[0].Value))

	var e sse.InventoryEvent
	require.NoError(t, json.Unmarshal(msg.Value, &e))
	assert.Equal(t, "IN", e.TransactionType)
	require.NotNil(t, e.StoreID)
	assert.Equal(t, store, *e.StoreID)
}

func TestPublisher_WriteErrorIsSwallowed(t *testing.T) {
	pub := NewPublisherWithWriter(&fakeWriter{err: errors.New("broker down")})
	assert.NotPanics(t, func() {
		pub.NotifyAlertCreated(&models.Product{ID: uuid.New()}, &models.ExpiryAlert{ID: 1, AlertType: models.AlertExpired})
		require.NoError(t, pub.Close())
	})
}

func TestPublisher_StalledBrokerDoesNotBlockNotify(t *testing.T) {
	w := &stalledWriter{release: make(chan struct{})}
	pub := newPublisher(w, 64, time.Minute, time.Minute)

	p := &models.Product{ID: uuid.New()}
	start := time.Now()
	for i := 0; i < 50; i++ {
		pub.NotifyStockChanged(p, saleTransaction())
	}
	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, w.count())

	close(w.release)
	require.NoError(t, pub.Close())
	assert.Equal(t, 50, w.count())
}

func TestPublisher_FullQueueDropsEvents(t *testing.T) {
	w := &stalledWriter{release: make(chan struct{})}
	pub := newPublisher(w, 1, time.Minute, time.Minute)

	p := &models.Product{ID: uuid.New()}
	for i := 0; i < 20; i++ {
		pub.NotifyStockChanged(p, saleTransaction())
	}

	close(w.release)
	require.NoError(t, pub.Close())
	assert.NotZero(t, w.count())
	assert.Less(t, w.count(), 20)
}

func TestPublisher_CloseAbandonsStalledWrites(t *testing.T) {
	w := &stalledWriter{release: make(chan struct{})}
	pub := newPublisher(w, 8, time.Minute, 50*time.Millisecond)

	p := &models.Product{ID: uuid.New()}
	pub.NotifyStockChanged(p, saleTransaction())

	start := time.Now()
	require.NoError(t, pub.Close())
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Zero(t, w.count())

	assert.NotPanics(t, func() { pub.NotifyStockChanged(p, saleTransaction()) })
	assert.NoError(t, pub.Close())
}

func TestNewPublisher_DisabledWithoutBrokers(t *testing.T) {
	assert.Nil(t, NewPublisher(config.KafkaConfig{Topic: "x"}))
}
