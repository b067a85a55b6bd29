package bubbletea_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	bt "github.com/jkowal/recall/bubbletea"
)

func TestTruncate(t *testing.T) {
	t.Parallel()

	t.Run("short string unchanged", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "hello", bt.Truncate("hello", 10))
	})

	t.Run("exact width unchanged", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "hello", bt.Truncate("hello", 5))
	})

	t.Run("long string gets ellipsis", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "hell…", bt.Truncate("hello world", 5))
	})

	t.Run("wide runes counted by display width", func(t *testing.T) {
		t.Parallel()
		// Each CJK rune occupies two columns.
		got := bt.Truncate("日本語テスト", 5)
		assert.Equal(t, "日本…", got)
	})

	t.Run("grapheme clusters not split", func(t *testing.T) {
		t.Parallel()
		// Flag emoji is a two-rune cluster; it must survive or vanish whole.
		got := bt.Truncate("🇵🇱🇵🇱🇵🇱 poland", 5)
		assert.NotContains(t, got, "\U0001F1F5…")
	})

	t.Run("non-positive width yields empty", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", bt.Truncate("hello", 0))
	})
}
