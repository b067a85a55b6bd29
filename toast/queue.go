// Package toast implements the bounded, self-expiring notification queue
// behind the toast viewport.
package toast

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jkowal/recall"
)

// Capacity is the maximum number of toasts held at once. Publishing beyond
// it evicts the oldest toast and cancels its expiry timer.
const Capacity = 4

// Queue is an ordered, bounded sequence of toasts. Expiry timers are owned
// solely by the queue; no other component may cancel one. Safe for
// concurrent use.
type Queue struct {
	mu     sync.Mutex
	toasts []recall.Toast
	timers map[string]*time.Timer
	closed bool

	updates chan struct{}
	logger  *slog.Logger
}

// New creates an empty Queue. Pass nil logger for the default.
func New(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		timers:  make(map[string]*time.Timer),
		updates: make(chan struct{}, 1),
		logger:  logger.With("component", "toast"),
	}
}

// Publish enqueues a toast. A payload without a title is rejected and the
// queue is left unchanged. Zero variant and duration take their defaults; a
// negative duration persists until dismissed. Returns the id of the new
// toast, or "" when rejected.
func (q *Queue) Publish(p recall.ToastPayload) string {
	if p.Title == "" {
		q.logger.Debug("rejected toast without title")
		return ""
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ""
	}

	toast := recall.Toast{
		ID:          uuid.New().String(),
		Title:       p.Title,
		Description: p.Description,
		Variant:     p.Variant,
		Duration:    p.Duration,
		CreatedAt:   time.Now(),
	}
	if toast.Variant == "" {
		toast.Variant = recall.ToastInfo
	}
	if toast.Duration == 0 {
		toast.Duration = recall.DefaultToastDuration
	}

	q.toasts = append(q.toasts, toast)
	if len(q.toasts) > Capacity {
		oldest := q.toasts[0]
		q.toasts = q.toasts[1:]
		q.cancelTimerLocked(oldest.ID)
		q.logger.Debug("evicted oldest toast", "toast_id", oldest.ID)
	}

	if toast.Duration > 0 {
		id := toast.ID
		q.timers[id] = time.AfterFunc(toast.Duration, func() {
			q.Dismiss(id)
		})
	}

	q.notifyLocked()
	return toast.ID
}

// Dismiss removes a toast by id and cancels its pending expiry timer.
// Idempotent: dismissing an unknown or already-gone id is a no-op.
func (q *Queue) Dismiss(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.cancelTimerLocked(id)
	for i, toast := range q.toasts {
		if toast.ID == id {
			q.toasts = append(q.toasts[:i], q.toasts[i+1:]...)
			q.notifyLocked()
			return
		}
	}
}

// Toasts returns a snapshot of the queue in display order, oldest first.
func (q *Queue) Toasts() []recall.Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]recall.Toast, len(q.toasts))
	copy(out, q.toasts)
	return out
}

// Len returns the number of queued toasts.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.toasts)
}

// Updates returns a coalesced notification channel that receives a value
// after every queue mutation. Intended for the single rendering consumer.
func (q *Queue) Updates() <-chan struct{} {
	return q.updates
}

// Listen consumes ToastEvents from the broadcast bus until ctx is cancelled.
// It lets any component publish a toast without holding the queue.
func (q *Queue) Listen(ctx context.Context, b Subscriber) {
	events, _ := b.Subscribe(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-events:
				if te, ok := evt.(recall.ToastEvent); ok {
					q.Publish(te.Payload)
				}
			}
		}
	}()
}

// Subscriber is the part of the broadcast bus Listen needs.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan recall.Event, string)
}

// Close cancels all outstanding timers and rejects further publishes. Safe
// to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
}

func (q *Queue) cancelTimerLocked(id string) {
	if timer, ok := q.timers[id]; ok {
		timer.Stop()
		delete(q.timers, id)
	}
}

func (q *Queue) notifyLocked() {
	select {
	case q.updates <- struct{}{}:
	default:
	}
}
