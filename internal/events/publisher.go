// Package events publishes inventory changes to Kafka for downstream POS and
// reporting consumers.
package events

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/GTDGit/halal_inventory_api/internal/config"
	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/sse"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	defaultQueueSize = 1024
	maxBatch         = 100
	closeGrace       = 10 * time.Second
)

// Publisher implements sse.InventoryNotifier by writing each event as a JSON
// message keyed by product id, so one product's events stay ordered on a
// single partition. Notify calls only enqueue; one goroutine drains the queue
// into the writer, so a slow broker never holds up a committed mutation.
type Publisher struct {
	writer  MessageWriter
	timeout time.Duration
	grace   time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan kafka.Message
	done   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// NewPublisher builds a publisher from config. It returns nil when no brokers
// are configured.
func NewPublisher(cfg config.KafkaConfig) *Publisher {
	if len(cfg.Brokers) == 0 {
		return nil
	}

	transport := &kafka.Transport{DialTimeout: 10 * time.Second}
	if cfg.Username != "" && cfg.Password != "" {
		transport.SASL = plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
		transport.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		Transport:              transport,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	log.Info().Strs("brokers", cfg.Brokers).Str("topic", cfg.Topic).Msg("Kafka publisher configured")
	return NewPublisherWithWriter(w)
}

// NewPublisherWithWriter wraps an existing writer and starts the drain loop.
func NewPublisherWithWriter(w MessageWriter) *Publisher {
	return newPublisher(w, defaultQueueSize, 5*time.Second, closeGrace)
}

func newPublisher(w MessageWriter, queueSize int, timeout, grace time.Duration) *Publisher {
	p := &Publisher{
		writer:  w,
		timeout: timeout,
		grace:   grace,
		queue:   make(chan kafka.Message, queueSize),
		done:    make(chan struct{}),
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())
	go p.run()
	return p
}

func (p *Publisher) NotifyStockChanged(product *models.Product, t *models.StockTransaction) {
	p.publish(sse.StockChangedEvent(product, t))
}

func (p *Publisher) NotifyAlertCreated(product *models.Product, a *models.ExpiryAlert) {
	p.publish(sse.AlertCreatedEvent(product, a))
}

// publish enqueues the event without blocking. The change has already
// committed, so a full queue drops the event with a warning.
func (p *Publisher) publish(event *sse.InventoryEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal inventory event")
		return
	}
	msg := kafka.Message{
		Key:   []byte(event.ProductID.String()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event.Event)},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- msg:
	default:
		log.Warn().
			Str("event", string(event.Event)).
			Str("product_id", event.ProductID.String()).
			Msg("Kafka publish queue full, dropping inventory event")
	}
}

// run writes queued messages, taking whatever is already waiting as one batch.
func (p *Publisher) run() {
	defer close(p.done)
	batch := make([]kafka.Message, 0, maxBatch)
	for msg := range p.queue {
		batch = append(batch[:0], msg)
	fill:
		for len(batch) < maxBatch {
			select {
			case next, ok := <-p.queue:
				if !ok {
					break fill
				}
				batch = append(batch, next)
			default:
				break fill
			}
		}
		p.write(batch)
	}
}

func (p *Publisher) write(batch []kafka.Message) {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, batch...); err != nil {
		log.Warn().Err(err).
			Int("messages", len(batch)).
			Str("first_product_id", string(batch[0].Key)).
			Msg("Failed to publish inventory events")
	}
}

// Close stops accepting events, drains the queue and closes the writer. Writes
// still pending after the grace period are abandoned.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	timer := time.NewTimer(p.grace)
	defer timer.Stop()
	select {
	case <-p.done:
	case <-timer.C:
		log.Warn().Msg("Kafka publisher did not drain in time, abandoning pending events")
		p.cancel()
		<-p.done
	}
	p.cancel()
	return p.writer.Close()
}

var _ sse.InventoryNotifier = (*Publisher)(nil)
