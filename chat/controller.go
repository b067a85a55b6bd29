// Package chat implements the conversation session controller: the state
// machine that owns the active session's transcript, mediates between
// optimistic local echoes and the authoritative remote reply, and issues
// outbound requests.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jkowal/recall"
	"github.com/jkowal/recall/preview"
)

// FallbackText is appended as an assistant message when a send fails, so
// failures on the primary path are always user-visible in the transcript.
const FallbackText = "Sorry, I couldn't answer that right now. Please try again."

// Publisher is the part of the broadcast bus the controller needs.
type Publisher interface {
	Publish(recall.Event)
}

// Controller drives one chat panel. It is safe for concurrent use; the
// sending flag gives the send path real mutual exclusion, not an advisory
// check.
type Controller struct {
	backend  recall.Backend
	store    recall.StateStore
	events   Publisher
	previews *preview.Manager
	logger   *slog.Logger

	sendTimeout     time.Duration
	rejectionToasts bool

	mu        sync.Mutex
	sessionID string
	messages  []recall.Message
	sessions  []recall.Session
	byID      map[string]recall.Session
	sending   bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithSendTimeout bounds each send request. Zero (the default) means no
// timeout; a hung call then keeps the controller in sending until the
// context is cancelled.
func WithSendTimeout(d time.Duration) Option {
	return func(c *Controller) { c.sendTimeout = d }
}

// WithRejectionToasts makes invalid attachment selections publish an error
// toast instead of failing silently.
func WithRejectionToasts() Option {
	return func(c *Controller) { c.rejectionToasts = true }
}

// WithPreviewManager injects the attachment preview manager. Default is a
// fresh manager owned by the controller.
func WithPreviewManager(m *preview.Manager) Option {
	return func(c *Controller) { c.previews = m }
}

// New creates a Controller. The transcript starts with the welcome message.
func New(backend recall.Backend, store recall.StateStore, events Publisher, opts ...Option) *Controller {
	c := &Controller{
		backend:  backend,
		store:    store,
		events:   events,
		messages: []recall.Message{recall.WelcomeMessage()},
		byID:     make(map[string]recall.Session),
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("component", "chat")
	if c.previews == nil {
		c.previews = preview.New(c.logger)
	}
	return c
}

// Resume restores the persisted active session, if any. A missing or
// unloadable session falls back to a fresh welcome transcript; the failure
// is logged, never surfaced.
func (c *Controller) Resume(ctx context.Context) {
	id, err := c.store.Active()
	if err != nil {
		c.logger.Warn("read persisted session id", "error", err)
		return
	}
	if id == "" {
		return
	}
	if err := c.Select(ctx, id); err != nil {
		c.logger.Warn("resume session", "session_id", id, "error", err)
	}
}

// Send dispatches the user's input as one outbound request. The input and
// attachment selection are snapshotted and cleared immediately, the
// optimistic user message is appended before the request is issued, and the
// controller always returns to idle afterward.
//
// A remote failure is not propagated: it is converted into the fallback
// assistant message and Send returns nil. Only precondition failures are
// returned: ErrSendInFlight while another send is active, ErrEmptyMessage
// when there is neither text nor an attachment.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return recall.ErrSendInFlight
	}
	handle, hasImage := c.previews.Take()
	if text == "" && !hasImage {
		c.mu.Unlock()
		return recall.ErrEmptyMessage
	}

	content := text
	if content == "" {
		content = recall.ImagePlaceholderText
	}
	userMsg := recall.Message{
		ID:        uuid.New().String(),
		Role:      recall.RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if hasImage {
		userMsg.Attachments = []recall.Attachment{handle.Attachment()}
	}
	c.messages = append(c.messages, userMsg)
	c.sending = true
	sessionID := c.sessionID
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	if c.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.sendTimeout)
		defer cancel()
	}

	req := recall.SendRequest{
		Text:            text,
		SessionID:       sessionID,
		TZOffsetMinutes: tzOffsetMinutes(time.Now()),
	}

	resp, err := c.dispatch(ctx, req, handle, hasImage)
	if err != nil {
		c.logger.Error("send failed", "session_id", sessionID, "error", err)
		c.append(recall.Message{
			ID:        uuid.New().String(),
			Role:      recall.RoleAssistant,
			Content:   FallbackText,
			CreatedAt: time.Now(),
		})
		return nil
	}

	if resp.SessionID != "" && resp.SessionID != sessionID {
		c.mu.Lock()
		c.sessionID = resp.SessionID
		c.mu.Unlock()
		if err := c.store.SetActive(resp.SessionID); err != nil {
			c.logger.Warn("persist session id", "error", err)
		}
	}

	c.append(recall.Message{
		ID:        uuid.New().String(),
		Role:      recall.RoleAssistant,
		Content:   resp.Message,
		CreatedAt: time.Now(),
		Sources:   resp.Sources,
	})

	_ = c.Refresh(ctx)
	return nil
}

func (c *Controller) dispatch(ctx context.Context, req recall.SendRequest, handle preview.Handle, hasImage bool) (recall.SendResponse, error) {
	if !hasImage {
		return c.backend.SendText(ctx, req)
	}
	up, err := c.previews.Upload(handle.ID)
	if err != nil {
		return recall.SendResponse{}, fmt.Errorf("attachment payload: %w", err)
	}
	return c.backend.SendImage(ctx, req, up)
}

// NewConversation clears the active session, in memory and in the persisted
// store, resets the transcript to the welcome message and revokes any
// pending attachment selection.
func (c *Controller) NewConversation() error {
	c.mu.Lock()
	c.sessionID = ""
	c.messages = []recall.Message{recall.WelcomeMessage()}
	c.mu.Unlock()

	c.previews.Remove()

	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("clear persisted session: %w", err)
	}
	return nil
}

// Select hydrates the transcript from the remote store and adopts the
// session as active. System-role messages are filtered out; an empty result
// substitutes the welcome message. On failure the controller is left
// unchanged and the error is returned for logging, not for a toast.
func (c *Controller) Select(ctx context.Context, id string) error {
	detail, err := c.backend.GetSession(ctx, id)
	if err != nil {
		return fmt.Errorf("load session %s: %w", id, err)
	}

	msgs := make([]recall.Message, 0, len(detail.Messages))
	for _, m := range detail.Messages {
		if m.Role == recall.RoleSystem {
			continue
		}
		msgs = append(msgs, m)
	}
	if len(msgs) == 0 {
		msgs = []recall.Message{recall.WelcomeMessage()}
	}

	c.mu.Lock()
	c.sessionID = id
	c.messages = msgs
	c.mu.Unlock()

	if err := c.store.SetActive(id); err != nil {
		c.logger.Warn("persist session id", "error", err)
	}
	return nil
}

// Refresh reloads the session directory. On failure the directory keeps its
// prior value and the error is logged as well as returned.
func (c *Controller) Refresh(ctx context.Context) error {
	sessions, err := c.backend.ListSessions(ctx)
	if err != nil {
		c.logger.Warn("refresh session directory", "error", err)
		return fmt.Errorf("list sessions: %w", err)
	}

	byID := make(map[string]recall.Session, len(sessions))
	for _, s := range sessions {
		byID[s.ID] = s
	}

	c.mu.Lock()
	c.sessions = sessions
	c.byID = byID
	c.mu.Unlock()
	return nil
}

// OpenSource emits the cross-view focus signal for a citation. Citations
// without an item id are not navigable and the call is a no-op. A missing
// timestamp is resolved best-effort from the memory detail record; that
// lookup failing is logged and does not block navigation. Exactly one
// FocusEvent is published per call.
func (c *Controller) OpenSource(ctx context.Context, src recall.Source) {
	if !src.Navigable() {
		return
	}

	anchor := src.CapturedAt
	if anchor.IsZero() {
		mem, err := c.backend.GetMemory(ctx, src.ItemID)
		if err != nil {
			c.logger.Warn("resolve memory timestamp", "item_id", src.ItemID, "error", err)
		} else {
			anchor = mem.CapturedAt
		}
	}

	c.events.Publish(recall.FocusEvent{
		ItemID:    src.ItemID,
		ContextID: src.ContextID,
		Mode:      recall.FocusModeDay,
		Anchor:    anchor,
	})
}

// Attach selects a local file as the pending attachment. Non-image files
// are rejected with ErrNotImage; whether that rejection is surfaced as a
// toast is configurable (WithRejectionToasts), silent by default.
func (c *Controller) Attach(path string) (recall.Attachment, error) {
	h, err := c.previews.Select(path)
	if err != nil {
		if errors.Is(err, recall.ErrNotImage) && c.rejectionToasts {
			c.events.Publish(recall.ToastEvent{Payload: recall.ToastPayload{
				Title:       "Only images can be attached",
				Description: path,
				Variant:     recall.ToastError,
			}})
		}
		return recall.Attachment{}, err
	}
	return h.Attachment(), nil
}

// RemoveAttachment revokes and clears the pending attachment selection.
func (c *Controller) RemoveAttachment() {
	c.previews.Remove()
}

// Attachment returns the pending attachment selection, if any.
func (c *Controller) Attachment() (recall.Attachment, bool) {
	h, ok := c.previews.Current()
	if !ok {
		return recall.Attachment{}, false
	}
	return h.Attachment(), true
}

// Messages returns a snapshot of the transcript in insertion order.
func (c *Controller) Messages() []recall.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]recall.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Sessions returns the directory snapshot in server-provided recency order.
func (c *Controller) Sessions() []recall.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]recall.Session, len(c.sessions))
	copy(out, c.sessions)
	return out
}

// Session looks up a directory summary by id.
func (c *Controller) Session(id string) (recall.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.byID[id]
	return s, ok
}

// ActiveSession returns the active session id, "" for a new conversation.
func (c *Controller) ActiveSession() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Sending reports whether a send is in flight.
func (c *Controller) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// Close revokes every preview handle allocated during the controller's
// lifetime.
func (c *Controller) Close() {
	c.previews.CloseAll()
}

func (c *Controller) append(msg recall.Message) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
}

// tzOffsetMinutes returns the local timezone offset in minutes at t.
func tzOffsetMinutes(t time.Time) int {
	_, offset := t.Zone()
	return offset / 60
}
