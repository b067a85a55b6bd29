package recall

import "time"

// Session is a directory summary of a persisted conversation thread. The
// client never mutates it except to reflect updated summary fields after a
// successful exchange.
type Session struct {
	ID           string
	Title        string
	LastActivity time.Time
	MessageCount int
}

// SessionDetail is a session together with its full transcript, as returned
// by the remote store.
type SessionDetail struct {
	Session
	Messages []Message
}

// Memory is the detail record of an archived item. Only the fields the
// client reads are modeled; the service returns more.
type Memory struct {
	ID         string
	CapturedAt time.Time
	Title      string
	MediaType  string
}
