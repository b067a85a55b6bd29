// Package bus provides the process-wide broadcast channel that decouples
// event producers (error handlers, the chat controller) from their single
// rendering consumers (the toast viewport, the timeline).
package bus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jkowal/recall"
)

// subscriberBufferSize is the channel buffer for each subscriber. Publishes
// never block; a full subscriber drops the event instead.
const subscriberBufferSize = 16

// Bus is an in-memory fan-out broadcaster for recall.Event values. Any
// component may publish without holding a reference to a consumer. Safe for
// concurrent use.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan recall.Event
	logger      *slog.Logger
}

// New creates a Bus. Pass nil logger for the default.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[string]chan recall.Event),
		logger:      logger.With("component", "bus"),
	}
}

// Subscribe registers a subscriber and returns a channel that receives every
// published event, plus a subscription id for Unsubscribe. The subscription
// is cleaned up automatically when ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context) (<-chan recall.Event, string) {
	subID := uuid.New().String()
	ch := make(chan recall.Event, subscriberBufferSize)

	b.mu.Lock()
	b.subscribers[subID] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.Unsubscribe(subID)
	}()

	return ch, subID
}

// Unsubscribe removes a subscriber. Unsubscribing an unknown id is a no-op.
// The subscriber channel is not closed: a concurrent Publish may still hold
// a reference to it, and receivers stop via their own context instead.
func (b *Bus) Unsubscribe(subID string) {
	b.mu.Lock()
	delete(b.subscribers, subID)
	b.mu.Unlock()
}

// Publish sends an event to all current subscribers. Non-blocking: the event
// is dropped for subscribers whose channels are full.
func (b *Bus) Publish(event recall.Event) {
	b.mu.RLock()
	targets := make([]chan recall.Event, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- event:
		default:
			b.logger.Debug("dropped event for slow subscriber", "event", event)
		}
	}
}
