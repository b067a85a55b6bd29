package recall

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrSendInFlight indicates a send was attempted while another send
	// for the same controller is still in flight.
	ErrSendInFlight = errors.New("send already in flight")

	// ErrEmptyMessage indicates a send with no text and no attachment.
	ErrEmptyMessage = errors.New("empty message")

	// ErrNotImage indicates a selected attachment is not an image.
	ErrNotImage = errors.New("attachment is not an image")

	// ErrRevoked indicates an operation on an already-revoked preview handle.
	ErrRevoked = errors.New("preview handle revoked")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")
)
