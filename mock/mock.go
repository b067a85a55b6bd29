// Package mock provides test doubles for recall interfaces using function
// fields.
package mock

import (
	"context"

	"github.com/jkowal/recall"
)

// Interface compliance checks.
var (
	_ recall.Backend    = (*Backend)(nil)
	_ recall.StateStore = (*StateStore)(nil)
)

// Backend is a test double for recall.Backend.
// Set the function fields for the methods you need.
type Backend struct {
	ListSessionsFn func(ctx context.Context) ([]recall.Session, error)
	GetSessionFn   func(ctx context.Context, id string) (recall.SessionDetail, error)
	SendTextFn     func(ctx context.Context, req recall.SendRequest) (recall.SendResponse, error)
	SendImageFn    func(ctx context.Context, req recall.SendRequest, img recall.Upload) (recall.SendResponse, error)
	GetMemoryFn    func(ctx context.Context, id string) (recall.Memory, error)
}

// ListSessions delegates to ListSessionsFn.
func (b *Backend) ListSessions(ctx context.Context) ([]recall.Session, error) {
	return b.ListSessionsFn(ctx)
}

// GetSession delegates to GetSessionFn.
func (b *Backend) GetSession(ctx context.Context, id string) (recall.SessionDetail, error) {
	return b.GetSessionFn(ctx, id)
}

// SendText delegates to SendTextFn.
func (b *Backend) SendText(ctx context.Context, req recall.SendRequest) (recall.SendResponse, error) {
	return b.SendTextFn(ctx, req)
}

// SendImage delegates to SendImageFn.
func (b *Backend) SendImage(ctx context.Context, req recall.SendRequest, img recall.Upload) (recall.SendResponse, error) {
	return b.SendImageFn(ctx, req, img)
}

// GetMemory delegates to GetMemoryFn.
func (b *Backend) GetMemory(ctx context.Context, id string) (recall.Memory, error) {
	return b.GetMemoryFn(ctx, id)
}

// StateStore is an in-memory test double for recall.StateStore. The zero
// value is usable; function fields override individual methods when set.
type StateStore struct {
	ActiveID string

	ActiveFn    func() (string, error)
	SetActiveFn func(id string) error
	ClearFn     func() error
}

// Active returns ActiveID unless ActiveFn is set.
func (s *StateStore) Active() (string, error) {
	if s.ActiveFn != nil {
		return s.ActiveFn()
	}
	return s.ActiveID, nil
}

// SetActive records the id unless SetActiveFn is set.
func (s *StateStore) SetActive(id string) error {
	if s.SetActiveFn != nil {
		return s.SetActiveFn(id)
	}
	s.ActiveID = id
	return nil
}

// Clear resets the id unless ClearFn is set.
func (s *StateStore) Clear() error {
	if s.ClearFn != nil {
		return s.ClearFn()
	}
	s.ActiveID = ""
	return nil
}
