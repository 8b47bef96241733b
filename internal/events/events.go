// AngelaMos | 2026
// events.go

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/carterperez-dev/canteen-backend/internal/config"
)

type Type string

const (
	OrderPlaced             Type = "order.placed"
	OrderStatusChanged      Type = "order.status_changed"
	OrderConfirmed          Type = "order.confirmed"
	SubscriptionPurchased   Type = "subscription.purchased"
	BalanceToppedUp         Type = "balance.topped_up"
	PurchaseRequestCreated  Type = "purchase_request.created"
	PurchaseRequestResolved Type = "purchase_request.resolved"
	MenuItemAdded           Type = "menu_item.added"
	MenuItemDeleted         Type = "menu_item.deleted"
)

// Event is the envelope written to the broker. Key is used as the message
// key so that all events about one aggregate land on the same partition.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func New(t Type, key string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

const (
	emitTimeout  = time.Second
	writeTimeout = 5 * time.Second
	queueSize    = 1024
)

var (
	ErrQueueFull       = errors.New("event queue full")
	ErrPublisherClosed = errors.New("event publisher closed")
)

type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// Emit publishes after a transaction has committed. Delivery failures are
// logged and never fail the business operation.
func Emit(ctx context.Context, p Publisher, events ...Event) {
	if p == nil || len(events) == 0 {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
	defer cancel()

	if err := p.Publish(pubCtx, events...); err != nil {
		slog.Warn("publish domain events failed",
			"type", events[0].Type,
			"count", len(events),
			"error", err,
		)
	}
}

// KafkaPublisher hands batches to a background writer so a slow or
// unreachable broker never holds up the caller. Batches are written in the
// order they were published.
type KafkaPublisher struct {
	writer  *kafka.Writer
	brokers []string

	mu     sync.RWMutex
	closed bool
	queue  chan []kafka.Message
	done   chan struct{}
}

func NewKafkaPublisher(cfg config.EventsConfig) *KafkaPublisher {
	p := &KafkaPublisher{
		brokers: cfg.Brokers,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			WriteTimeout:           writeTimeout,
			AllowAutoTopicCreation: true,
		},
		queue: make(chan []kafka.Message, queueSize),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish queues the events and returns at once. It fails only when the
// events cannot be encoded, the queue is full or the publisher is closed.
func (p *KafkaPublisher) Publish(_ context.Context, events ...Event) error {
	msgs, err := encode(events)
	if err != nil {
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.queue <- msgs:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *KafkaPublisher) run() {
	defer close(p.done)

	for msgs := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := p.writer.WriteMessages(ctx, msgs...)
		cancel()

		if err != nil {
			slog.Warn("kafka write failed",
				"count", len(msgs),
				"error", err,
			)
		}
	}
}

func encode(events []Event) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal event %s: %w", e.Type, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.Key),
			Value: data,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(e.Type)},
			},
			Time: e.OccurredAt,
		})
	}
	return msgs, nil
}

// Ping dials the brokers until one answers.
func (p *KafkaPublisher) Ping(ctx context.Context) error {
	var lastErr error
	for _, broker := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	if lastErr == nil {
		return fmt.Errorf("no kafka brokers configured")
	}
	return fmt.Errorf("kafka dial: %w", lastErr)
}

// Close flushes queued batches, then closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return p.writer.Close()
}

// Noop discards events. Used when the broker is disabled.
type Noop struct{}

func (Noop) Publish(context.Context, ...Event) error { return nil }

func (Noop) Close() error { return nil }

func NewPublisher(cfg config.EventsConfig) Publisher {
	if !cfg.Enabled {
		return Noop{}
	}
	return NewKafkaPublisher(cfg)
}
