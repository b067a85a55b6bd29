package bus_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkowal/recall"
	"github.com/jkowal/recall/bus"
)

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	t.Parallel()

	b := bus.New(nil)
	ctx := context.Background()

	ch1, _ := b.Subscribe(ctx)
	ch2, _ := b.Subscribe(ctx)

	b.Publish(recall.ToastEvent{Payload: recall.ToastPayload{Title: "hello"}})

	for _, ch := range []<-chan recall.Event{ch1, ch2} {
		select {
		case evt := <-ch:
			te, ok := evt.(recall.ToastEvent)
			require.True(t, ok)
			assert.Equal(t, "hello", te.Payload.Title)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	b := bus.New(nil)
	ch, subID := b.Subscribe(context.Background())
	b.Unsubscribe(subID)

	b.Publish(recall.FocusEvent{ItemID: "mem_1", ContextID: "ctx_1", Mode: recall.FocusModeDay})

	select {
	case evt := <-ch:
		t.Fatalf("received event after unsubscribe: %T", evt)
	default:
	}
}

func TestBus_ContextCancellationUnsubscribes(t *testing.T) {
	t.Parallel()

	b := bus.New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := b.Subscribe(ctx)
	cancel()

	// Cleanup runs in a goroutine; poll until the subscription is gone.
	assert.Eventually(t, func() bool {
		b.Publish(recall.ToastEvent{Payload: recall.ToastPayload{Title: "x"}})
		select {
		case <-ch:
			return false
		default:
			return true
		}
	}, time.Second, 10*time.Millisecond)
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	t.Parallel()

	b := bus.New(nil)
	b.Subscribe(context.Background()) // never drained

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Publish(recall.ToastEvent{Payload: recall.ToastPayload{Title: "flood"}})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
