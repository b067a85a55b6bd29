package recall

import "time"

// ToastVariant selects the severity styling of a toast.
type ToastVariant string

const (
	ToastInfo    ToastVariant = "info"
	ToastSuccess ToastVariant = "success"
	ToastError   ToastVariant = "error"
)

// DefaultToastDuration is applied when a payload leaves Duration zero.
const DefaultToastDuration = 4500 * time.Millisecond

// ToastPayload is a request to show a toast. Title is required; a payload
// without one is rejected. Zero Variant defaults to ToastInfo and zero
// Duration to DefaultToastDuration. A negative Duration means the toast
// persists until explicitly dismissed.
type ToastPayload struct {
	Title       string
	Description string
	Variant     ToastVariant
	Duration    time.Duration
}

// Toast is a queued notification. It auto-expires after Duration unless
// Duration is negative, and can be dismissed early by id.
type Toast struct {
	ID          string
	Title       string
	Description string
	Variant     ToastVariant
	Duration    time.Duration
	CreatedAt   time.Time
}
