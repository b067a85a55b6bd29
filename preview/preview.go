// Package preview manages revocable preview handles for user-selected media.
// A handle is a private temp-file copy of the selected image, rendered
// locally before (and independently of) any upload. Handles are exclusively
// owned by the manager that created them until revoked; revocation is
// idempotent and CloseAll revokes every handle allocated during the
// manager's lifetime exactly once.
package preview

import (
	"bytes"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/jkowal/recall"
)

// Handle is a revocable reference to a local preview copy of a selected file.
type Handle struct {
	ID          string
	Name        string // original base name
	Path        string // preview temp file
	ContentType string
	CreatedAt   time.Time
}

// Attachment converts the handle to its message representation.
func (h Handle) Attachment() recall.Attachment {
	return recall.Attachment{
		HandleID:    h.ID,
		PreviewPath: h.Path,
		ContentType: h.ContentType,
		CreatedAt:   h.CreatedAt,
	}
}

// Manager owns the open-handles registry and the current selection. Safe
// for concurrent use.
type Manager struct {
	mu      sync.Mutex
	handles map[string]Handle
	current string // id of the selected handle, "" when none
	logger  *slog.Logger
}

// New creates an empty Manager. Pass nil logger for the default.
func New(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		handles: make(map[string]Handle),
		logger:  logger.With("component", "preview"),
	}
}

// Select accepts a file whose content type indicates an image, allocates a
// preview handle for it and makes it the current selection. The previous
// selection is replaced but not revoked; its owner decides when. A non-image
// file returns ErrNotImage and leaves the selection unchanged.
func (m *Manager) Select(path string) (Handle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Handle{}, fmt.Errorf("read attachment: %w", err)
	}

	ct := contentType(path, data)
	if !strings.HasPrefix(ct, "image/") {
		return Handle{}, fmt.Errorf("%s: %w", path, recall.ErrNotImage)
	}

	tmp, err := os.CreateTemp("", "recall-preview-*"+filepath.Ext(path))
	if err != nil {
		return Handle{}, fmt.Errorf("create preview: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Handle{}, fmt.Errorf("write preview: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Handle{}, fmt.Errorf("close preview: %w", err)
	}

	h := Handle{
		ID:          uuid.New().String(),
		Name:        filepath.Base(path),
		Path:        tmp.Name(),
		ContentType: ct,
		CreatedAt:   time.Now(),
	}

	m.mu.Lock()
	m.handles[h.ID] = h
	m.current = h.ID
	m.mu.Unlock()

	return h, nil
}

// Current returns the selected handle, if any.
func (m *Manager) Current() (Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[m.current]
	return h, ok
}

// Take clears the selection and returns the previously selected handle
// without revoking it. Used on send: the snapshot keeps rendering from the
// handle while the selection resets immediately.
func (m *Manager) Take() (Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[m.current]
	m.current = ""
	return h, ok
}

// Remove revokes the current selection, if any, and clears it.
func (m *Manager) Remove() {
	m.mu.Lock()
	id := m.current
	m.current = ""
	m.mu.Unlock()
	if id != "" {
		m.Revoke(id)
	}
}

// Revoke releases a handle and deletes its preview file. Idempotent:
// revoking an unknown or already-revoked id is a no-op.
func (m *Manager) Revoke(id string) {
	m.mu.Lock()
	h, ok := m.handles[id]
	if ok {
		delete(m.handles, id)
		if m.current == id {
			m.current = ""
		}
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	if err := os.Remove(h.Path); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("failed to remove preview file", "path", h.Path, "error", err)
	}
}

// CloseAll revokes every open handle. Called at teardown so no handle
// outlives the component tree that created it.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.handles))
	for id := range m.handles {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Revoke(id)
	}
}

// Upload reads a handle's preview copy into an upload payload.
func (m *Manager) Upload(id string) (recall.Upload, error) {
	m.mu.Lock()
	h, ok := m.handles[id]
	m.mu.Unlock()
	if !ok {
		return recall.Upload{}, recall.ErrRevoked
	}

	data, err := os.ReadFile(h.Path)
	if err != nil {
		return recall.Upload{}, fmt.Errorf("read preview: %w", err)
	}
	return recall.Upload{
		Name:        h.Name,
		ContentType: h.ContentType,
		Reader:      bytes.NewReader(data),
	}, nil
}

// Glob resolves an attachment-picker pattern to image paths, sorted.
// Supports ** for recursive matching.
func Glob(pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob: %w", err)
	}
	var images []string
	for _, match := range matches {
		if strings.HasPrefix(mime.TypeByExtension(filepath.Ext(match)), "image/") {
			images = append(images, match)
		}
	}
	sort.Strings(images)
	return images, nil
}

// contentType resolves a file's content type from its extension, falling
// back to sniffing the leading bytes.
func contentType(path string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
