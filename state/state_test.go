package state_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkowal/recall/state"
)

func TestFile_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "state.json")
	f := state.NewFile(path)

	require.NoError(t, f.SetActive("sess_abc"))

	id, err := f.Active()
	require.NoError(t, err)
	assert.Equal(t, "sess_abc", id)
}

func TestFile_MissingFileMeansNoSession(t *testing.T) {
	t.Parallel()

	f := state.NewFile(filepath.Join(t.TempDir(), "state.json"))
	id, err := f.Active()
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestFile_Clear(t *testing.T) {
	t.Parallel()

	f := state.NewFile(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, f.SetActive("sess_abc"))
	require.NoError(t, f.Clear())

	id, err := f.Active()
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestFile_CorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := state.NewFile(path).Active()
	assert.Error(t, err)
}

func TestFile_UnsupportedVersion(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":2,"active_session_id":"x"}`), 0o600))

	_, err := state.NewFile(path).Active()
	assert.Error(t, err)
}
