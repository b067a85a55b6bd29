package markdown_test

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkowal/recall"
	"github.com/jkowal/recall/markdown"
)

func stripANSI(s string) string {
	// Matches SGR, cursor movement, and other CSI sequences.
	re := regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)
	return re.ReplaceAllString(s, "")
}

func TestMain(m *testing.M) {
	// Force ANSI color output so styled elements (headings, links) produce
	// visible escape codes that we can assert against.
	lipgloss.SetColorProfile(termenv.ANSI)
	os.Exit(m.Run())
}

func TestRender(t *testing.T) {
	t.Parallel()

	theme := recall.DefaultTheme()

	t.Run("empty input returns empty string", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", markdown.Render("", 80, theme))
	})

	t.Run("plain paragraph", func(t *testing.T) {
		t.Parallel()
		assert.Contains(t, stripANSI(markdown.Render("hello world", 80, theme)), "hello world")
	})

	t.Run("heading renders with styling", func(t *testing.T) {
		t.Parallel()
		heading := markdown.Render("# Title", 80, theme)
		paragraph := markdown.Render("Title", 80, theme)
		assert.Contains(t, stripANSI(heading), "Title")
		assert.NotEqual(t, heading, paragraph)
	})

	t.Run("emphasis", func(t *testing.T) {
		t.Parallel()
		assert.Contains(t, stripANSI(markdown.Render("**bold** and *italic*", 80, theme)), "bold")
		assert.Contains(t, stripANSI(markdown.Render("`inline`", 80, theme)), "inline")
	})

	t.Run("fenced code block preserves content without reflow", func(t *testing.T) {
		t.Parallel()
		src := "```go\nfmt.Println(\"hello world\")\n```"
		result := stripANSI(markdown.Render(src, 20, theme))
		assert.Contains(t, result, `fmt.Println("hello world")`)
		assert.Contains(t, result, "go")
	})

	t.Run("multi-line code block renders every line in order", func(t *testing.T) {
		t.Parallel()
		src := "```\nfirst line\nsecond line\nthird line\n```"
		result := markdown.Render(src, 80, theme)
		first := strings.Index(result, "first line")
		second := strings.Index(result, "second line")
		third := strings.Index(result, "third line")
		require.NotEqual(t, -1, first)
		assert.Greater(t, second, first)
		assert.Greater(t, third, second)
	})

	t.Run("lists", func(t *testing.T) {
		t.Parallel()
		result := stripANSI(markdown.Render("- one\n- two\n\n1. first\n2. second", 80, theme))
		assert.Contains(t, result, "- one")
		assert.Contains(t, result, "1. first")
		assert.Contains(t, result, "2. second")
	})

	t.Run("link shows destination", func(t *testing.T) {
		t.Parallel()
		result := stripANSI(markdown.Render("[docs](https://example.com)", 80, theme))
		assert.Contains(t, result, "docs")
		assert.Contains(t, result, "https://example.com")
	})

	t.Run("paragraph wraps to width", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render(strings.Repeat("word ", 20), 20, theme)
		assert.Greater(t, len(strings.Split(result, "\n")), 1)
	})

	t.Run("no trailing newline", func(t *testing.T) {
		t.Parallel()
		assert.False(t, strings.HasSuffix(markdown.Render("text", 80, theme), "\n"))
	})
}
