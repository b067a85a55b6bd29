// Package state persists the client's small cross-restart state: the active
// conversation session id, kept under a fixed storage path so a restart
// resumes the same conversation.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jkowal/recall"
)

// Interface compliance check.
var _ recall.StateStore = (*File)(nil)

// envelope is the v1 on-disk format.
type envelope struct {
	Version         int       `json:"version"`
	ActiveSessionID string    `json:"active_session_id"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// File is a file-backed StateStore. Writes are atomic (temp file + rename).
type File struct {
	path string
}

// NewFile creates a store backed by the given path. A missing file means no
// active session.
func NewFile(path string) *File {
	return &File{path: path}
}

// DefaultPath returns the conventional state location under the user config
// directory, or a relative fallback when it cannot be resolved.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".recall", "state.json")
	}
	return filepath.Join(dir, "recall", "state.json")
}

// Active returns the persisted session id, or "" when none is stored.
func (f *File) Active() (string, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read state: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("unmarshal state: %w", err)
	}
	if env.Version != 1 {
		return "", fmt.Errorf("unsupported state version: %d", env.Version)
	}
	return env.ActiveSessionID, nil
}

// SetActive persists the given session id.
func (f *File) SetActive(id string) error {
	return f.write(envelope{Version: 1, ActiveSessionID: id, UpdatedAt: time.Now()})
}

// Clear removes the persisted session id. Clearing an empty store is a no-op.
func (f *File) Clear() error {
	return f.write(envelope{Version: 1, UpdatedAt: time.Now()})
}

func (f *File) write(env envelope) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
