// Package event fans domain events out to in-process listeners and to Kafka.
// Mutations return events instead of emitting them; the bus is the single
// place that side effects happen, so domain code stays side-effect free.
package event

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/gamevault/gamevault/internal/domain"
	"github.com/gamevault/gamevault/pkg/kafka"
)

// Listener handles a published domain event.
type Listener func(ctx context.Context, ev *domain.Event)

// Publisher is the subset of the Kafka producer the bus needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// Bus dispatches domain events to subscribed listeners and forwards them to
// Kafka. A panicking or failing listener never prevents the others from
// running.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	producer  Publisher
	logger    *slog.Logger
}

// NewBus creates an event bus. The producer may be nil, in which case events
// stay in-process only.
func NewBus(producer Publisher, logger *slog.Logger) *Bus {
	return &Bus{
		listeners: make(map[string][]Listener),
		producer:  producer,
		logger:    logger,
	}
}

// Subscribe registers a listener for an event type. The wildcard "*"
// subscribes to all events.
func (b *Bus) Subscribe(eventType string, l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[eventType] = append(b.listeners[eventType], l)
}

// Publish delivers the event to every matching listener, then forwards it to
// Kafka. A nil event is a recorded no-op mutation and is ignored.
func (b *Bus) Publish(ctx context.Context, ev *domain.Event) {
	if ev == nil {
		return
	}

	b.mu.RLock()
	listeners := append(append([]Listener{}, b.listeners[ev.Type]...), b.listeners["*"]...)
	b.mu.RUnlock()

	for _, l := range listeners {
		b.deliver(ctx, l, ev)
	}

	b.forward(ctx, ev)
}

// deliver invokes one listener, containing panics so one faulty subscriber
// cannot take down the rest.
func (b *Bus) deliver(ctx context.Context, l Listener, ev *domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "event listener panicked",
				slog.String("event_type", ev.Type),
				slog.Any("panic", r),
			)
		}
	}()
	l(ctx, ev)
}

func (b *Bus) forward(ctx context.Context, ev *domain.Event) {
	if b.producer == nil {
		return
	}

	kev, err := kafka.NewEvent(ev.Type, ev.AggregateID, ev.AggregateType, "gamevault", ev.Data)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to build kafka event",
			slog.String("event_type", ev.Type),
			slog.String("error", err.Error()),
		)
		return
	}

	// "game.rating-added" publishes to "gamevault.game.rating-added".
	domainPart, action, _ := strings.Cut(ev.Type, ".")
	topic := kafka.Topic(domainPart, action)

	if err := b.producer.Publish(ctx, topic, kev); err != nil {
		// Event delivery is best effort; the mutation already committed.
		b.logger.ErrorContext(ctx, "failed to publish event to kafka",
			slog.String("topic", topic),
			slog.String("event_type", ev.Type),
			slog.String("error", err.Error()),
		)
	}
}
