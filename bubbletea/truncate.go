package bubbletea

import (
	"strings"

	rw "github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// truncate shortens s to at most width display columns, appending an
// ellipsis when anything was cut. Grapheme-safe: wide characters and
// combining sequences are never split.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if rw.StringWidth(s) <= width {
		return s
	}

	target := width - 1 // room for the ellipsis
	var b strings.Builder
	cols := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if cols+w > target {
			break
		}
		b.WriteString(g.Str())
		cols += w
	}
	return b.String() + "…"
}
