// Package gemini implements [recall.Backend] for local development: sessions
// are held in memory and replies come straight from the Gemini API instead
// of the memory service. No archive exists in this mode, so replies carry no
// source citations and memory lookups return not-found.
package gemini

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/jkowal/recall"
)

// Interface compliance check.
var _ recall.Backend = (*Backend)(nil)

const (
	defaultModel    = "gemini-3.1-pro-preview"
	defaultMaxWords = 6 // session title length

	systemPrompt = "You are a personal memory assistant. Answer questions " +
		"about the user's photo, video and audio archive conversationally."
)

// Backend is an in-memory [recall.Backend] backed by the Gemini API.
type Backend struct {
	client *genai.Client
	model  string

	mu       sync.Mutex
	sessions map[string]*session
	order    []string // most recent first
}

type session struct {
	recall.Session
	messages []recall.Message
	contents []*genai.Content
}

// Option configures a [Backend].
type Option func(*Backend)

// WithModel sets the model ID. Default is gemini-3.1-pro-preview.
func WithModel(model string) Option {
	return func(b *Backend) { b.model = model }
}

// New creates a Gemini-backed [Backend] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Backend, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	b := &Backend{
		client:   gc,
		model:    defaultModel,
		sessions: make(map[string]*session),
	}
	for _, o := range opts {
		o(b)
	}
	return b, nil
}

// ListSessions returns the in-memory sessions, most recent first.
func (b *Backend) ListSessions(context.Context) ([]recall.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]recall.Session, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.sessions[id].Session)
	}
	return out, nil
}

// GetSession returns a session's transcript.
func (b *Backend) GetSession(_ context.Context, id string) (recall.SessionDetail, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[id]
	if !ok {
		return recall.SessionDetail{}, fmt.Errorf("gemini: session %s: %w", id, recall.ErrNotFound)
	}
	return recall.SessionDetail{
		Session:  s.Session,
		Messages: append([]recall.Message(nil), s.messages...),
	}, nil
}

// SendText sends a text-only message.
func (b *Backend) SendText(ctx context.Context, req recall.SendRequest) (recall.SendResponse, error) {
	return b.send(ctx, req, nil)
}

// SendImage sends a message with an inline image part.
func (b *Backend) SendImage(ctx context.Context, req recall.SendRequest, img recall.Upload) (recall.SendResponse, error) {
	data, err := io.ReadAll(img.Reader)
	if err != nil {
		return recall.SendResponse{}, fmt.Errorf("gemini: read image: %w", err)
	}
	return b.send(ctx, req, &genai.Part{
		InlineData: &genai.Blob{MIMEType: img.ContentType, Data: data},
	})
}

// GetMemory always reports not-found: there is no archive in local mode.
func (b *Backend) GetMemory(_ context.Context, id string) (recall.Memory, error) {
	return recall.Memory{}, fmt.Errorf("gemini: memory %s: %w", id, recall.ErrNotFound)
}

func (b *Backend) send(ctx context.Context, req recall.SendRequest, imagePart *genai.Part) (recall.SendResponse, error) {
	parts := make([]*genai.Part, 0, 2)
	if req.Text != "" {
		parts = append(parts, &genai.Part{Text: req.Text})
	}
	if imagePart != nil {
		parts = append(parts, imagePart)
	}
	userContent := &genai.Content{Role: "user", Parts: parts}

	b.mu.Lock()
	s := b.session(req.SessionID, req.Text)
	contents := append(append([]*genai.Content(nil), s.contents...), userContent)
	id := s.ID
	b.mu.Unlock()

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
	}
	resp, err := b.client.Models.GenerateContent(ctx, b.model, contents, config)
	if err != nil {
		return recall.SendResponse{}, fmt.Errorf("gemini: %w", err)
	}
	reply := extractText(resp)

	now := time.Now()
	userText := req.Text
	if userText == "" {
		userText = recall.ImagePlaceholderText
	}

	b.mu.Lock()
	s.contents = append(contents, &genai.Content{
		Role:  "model",
		Parts: []*genai.Part{{Text: reply}},
	})
	s.messages = append(s.messages,
		recall.Message{ID: uuid.New().String(), Role: recall.RoleUser, Content: userText, CreatedAt: now},
		recall.Message{ID: uuid.New().String(), Role: recall.RoleAssistant, Content: reply, CreatedAt: now},
	)
	s.LastActivity = now
	s.MessageCount = len(s.messages)
	b.promote(id)
	b.mu.Unlock()

	return recall.SendResponse{SessionID: id, Message: reply}, nil
}

// session returns the existing session or creates one titled after the
// first message. Caller holds b.mu.
func (b *Backend) session(id, text string) *session {
	if s, ok := b.sessions[id]; ok {
		return s
	}
	s := &session{
		Session: recall.Session{
			ID:    uuid.New().String(),
			Title: deriveTitle(text),
		},
	}
	b.sessions[s.ID] = s
	b.order = append([]string{s.ID}, b.order...)
	return s
}

// promote moves a session to the front of the recency order. Caller holds b.mu.
func (b *Backend) promote(id string) {
	for i, existing := range b.order {
		if existing == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.order = append([]string{id}, b.order...)
}

// deriveTitle builds a short session title from the first message text.
func deriveTitle(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return "New conversation"
	}
	if len(words) > defaultMaxWords {
		words = words[:defaultMaxWords]
		return strings.Join(words, " ") + "…"
	}
	return strings.Join(words, " ")
}

// extractText concatenates the text parts of the first candidate, skipping
// thought parts.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
