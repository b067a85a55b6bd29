package recall

import "time"

// Event is a sealed interface representing a cross-component broadcast
// event. Payload shapes are statically checked; producers publish without
// holding a reference to the consumer. The unexported marker method
// prevents external implementations.
type Event interface {
	event()
}

// ToastEvent asks the toast viewport to show a notification.
type ToastEvent struct {
	Payload ToastPayload
}

func (ToastEvent) event() {}

// FocusModeDay is the timeline view mode requested by a FocusEvent.
const FocusModeDay = "day"

// FocusEvent asks the timeline view to jump to a specific memory item.
// Fire-and-forget: exactly one is emitted per citation activation and no
// acknowledgment is awaited.
type FocusEvent struct {
	ItemID    string
	ContextID string
	Mode      string
	// Anchor is the day to open, when known. Zero means unknown.
	Anchor time.Time
}

func (FocusEvent) event() {}

// Interface compliance checks.
var (
	_ Event = ToastEvent{}
	_ Event = FocusEvent{}
)
