package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamevault/gamevault/internal/domain"
	"github.com/gamevault/gamevault/pkg/kafka"
)

type capturingProducer struct {
	topics []string
	events []*kafka.Event
	err    error
}

func (p *capturingProducer) Publish(_ context.Context, topic string, event *kafka.Event) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func newBus(producer Publisher) *Bus {
	return NewBus(producer, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func ratingEvent() *domain.Event {
	return &domain.Event{
		Type:          domain.EventGameRatingAdded,
		AggregateType: "game",
		AggregateID:   "game-1",
		Data:          map[string]any{"value": 8.5},
	}
}

func TestBus_DeliversToSubscribers(t *testing.T) {
	bus := newBus(nil)

	var got []*domain.Event
	bus.Subscribe(domain.EventGameRatingAdded, func(_ context.Context, ev *domain.Event) {
		got = append(got, ev)
	})
	bus.Subscribe(domain.EventReviewVoted, func(_ context.Context, _ *domain.Event) {
		t.Fatal("wrong event type delivered")
	})

	bus.Publish(context.Background(), ratingEvent())

	require.Len(t, got, 1)
	assert.Equal(t, "game-1", got[0].AggregateID)
}

func TestBus_WildcardSubscription(t *testing.T) {
	bus := newBus(nil)

	count := 0
	bus.Subscribe("*", func(_ context.Context, _ *domain.Event) { count++ })

	bus.Publish(context.Background(), ratingEvent())
	bus.Publish(context.Background(), &domain.Event{Type: domain.EventReviewVoted})

	assert.Equal(t, 2, count)
}

func TestBus_NilEventIsANoOp(t *testing.T) {
	producer := &capturingProducer{}
	bus := newBus(producer)

	called := false
	bus.Subscribe("*", func(_ context.Context, _ *domain.Event) { called = true })

	bus.Publish(context.Background(), nil)

	assert.False(t, called)
	assert.Empty(t, producer.events)
}

func TestBus_PanickingListenerDoesNotBlockOthers(t *testing.T) {
	bus := newBus(nil)

	delivered := false
	bus.Subscribe(domain.EventGameRatingAdded, func(_ context.Context, _ *domain.Event) {
		panic("faulty subscriber")
	})
	bus.Subscribe(domain.EventGameRatingAdded, func(_ context.Context, _ *domain.Event) {
		delivered = true
	})

	bus.Publish(context.Background(), ratingEvent())

	assert.True(t, delivered)
}

func TestBus_ForwardsToKafkaTopic(t *testing.T) {
	producer := &capturingProducer{}
	bus := newBus(producer)

	bus.Publish(context.Background(), ratingEvent())

	require.Len(t, producer.topics, 1)
	assert.Equal(t, "gamevault.game.rating-added", producer.topics[0])
	assert.Equal(t, domain.EventGameRatingAdded, producer.events[0].EventType)
	assert.Equal(t, "game-1", producer.events[0].AggregateID)
}

func TestBus_KafkaFailureIsBestEffort(t *testing.T) {
	producer := &capturingProducer{err: errors.New("broker down")}
	bus := newBus(producer)

	delivered := false
	bus.Subscribe(domain.EventGameRatingAdded, func(_ context.Context, _ *domain.Event) {
		delivered = true
	})

	// Publish must not panic or surface the broker error.
	bus.Publish(context.Background(), ratingEvent())
	assert.True(t, delivered)
}
