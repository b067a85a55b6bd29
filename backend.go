package recall

import (
	"context"
	"io"
)

// SendRequest carries one outbound chat message.
type SendRequest struct {
	// Text is the trimmed user input. May be empty when an image is sent.
	Text string
	// SessionID is empty for the first message of a new conversation;
	// the backend then creates a session and returns its id.
	SessionID string
	// TZOffsetMinutes is the caller's timezone offset in minutes, used by
	// the service to resolve relative dates in the query.
	TZOffsetMinutes int
}

// SendResponse is the assistant's reply to a SendRequest.
type SendResponse struct {
	SessionID string
	Message   string
	Sources   []Source
}

// Upload is an image payload for a multipart send.
type Upload struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// Backend is the remote chat service consumed by the client. Implementations
// must be safe for concurrent use. Cancellation flows through the context
// passed to each call.
type Backend interface {
	// ListSessions returns all known sessions for the current user in
	// server-provided recency order.
	ListSessions(ctx context.Context) ([]Session, error)

	// GetSession returns the full transcript for a session id.
	GetSession(ctx context.Context, id string) (SessionDetail, error)

	// SendText sends a text-only message.
	SendText(ctx context.Context, req SendRequest) (SendResponse, error)

	// SendImage sends a message carrying an image payload.
	SendImage(ctx context.Context, req SendRequest, img Upload) (SendResponse, error)

	// GetMemory returns the detail record of an archived memory item.
	GetMemory(ctx context.Context, id string) (Memory, error)
}

// StateStore persists the small piece of client state that survives a
// restart: the active session id. Active returns "" when none is stored.
type StateStore interface {
	Active() (string, error)
	SetActive(id string) error
	Clear() error
}
