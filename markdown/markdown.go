// Package markdown renders assistant replies to ANSI-styled terminal output
// using goldmark for parsing and lipgloss for styling.
package markdown

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/jkowal/recall"
)

// Render parses markdown source and returns ANSI-styled terminal output
// word-wrapped to width. Code blocks are rendered at full width without
// reflow.
func Render(source string, width int, theme recall.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := renderer{
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		heading:   lipgloss.NewStyle().Foreground(ansi(theme.Accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(ansi(theme.Muted)).Faint(true),
		underline: lipgloss.NewStyle().Underline(true),
	}
	var buf bytes.Buffer
	doc := goldmark.DefaultParser().Parse(text.NewReader([]byte(source)))
	r.blocks(doc, []byte(source), width, &buf)
	return strings.TrimRight(buf.String(), "\n")
}

func ansi(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

type renderer struct {
	bold      lipgloss.Style
	italic    lipgloss.Style
	heading   lipgloss.Style
	muted     lipgloss.Style
	underline lipgloss.Style
}

func (r renderer) blocks(parent ast.Node, src []byte, width int, buf *bytes.Buffer) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		r.block(n, src, width, buf)
	}
}

func (r renderer) block(n ast.Node, src []byte, width int, buf *bytes.Buffer) {
	switch n := n.(type) {
	case *ast.Paragraph:
		buf.WriteString(lipgloss.NewStyle().Width(width).Render(r.inlines(n, src)))
		r.blockGap(n, buf)

	case *ast.Heading:
		styled := r.heading.Render(r.inlines(n, src))
		buf.WriteString(lipgloss.NewStyle().Width(width).Render(styled))
		r.blockGap(n, buf)

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(src)); lang != "" {
			buf.WriteString(r.muted.Render(lang) + "\n")
		}
		r.codeLines(n, src, buf)
		if n.NextSibling() != nil {
			buf.WriteString("\n")
		}

	case *ast.CodeBlock:
		r.codeLines(n, src, buf)
		if n.NextSibling() != nil {
			buf.WriteString("\n")
		}

	case *ast.List:
		r.list(n, src, width, buf, 0)
		if n.NextSibling() != nil {
			buf.WriteString("\n")
		}

	case *ast.ThematicBreak:
		buf.WriteString("---\n")
		if n.NextSibling() != nil {
			buf.WriteString("\n")
		}

	default:
		// Blockquotes and anything else: recurse into children unstyled.
		r.blocks(n, src, width, buf)
	}
}

func (r renderer) blockGap(n ast.Node, buf *bytes.Buffer) {
	buf.WriteString("\n")
	if n.NextSibling() != nil {
		buf.WriteString("\n")
	}
}

func (r renderer) codeLines(n ast.Node, src []byte, buf *bytes.Buffer) {
	gutter := r.muted.Render("│") + " "
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		content := strings.TrimRight(string(line.Value(src)), "\n")
		buf.WriteString(gutter + content + "\n")
	}
}

func (r renderer) list(n *ast.List, src []byte, width int, buf *bytes.Buffer, depth int) {
	num := 0
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "- "
		if n.IsOrdered() {
			num++
			marker = fmt.Sprintf("%d. ", n.Start+num-1)
		}
		prefix := strings.Repeat("  ", depth) + marker

		var content strings.Builder
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				content.WriteString(r.inlines(in, src))
			case *ast.List:
				if content.Len() > 0 {
					r.writeItem(buf, prefix, content.String(), width)
					content.Reset()
					prefix = strings.Repeat(" ", len(prefix))
				}
				r.list(in, src, width, buf, depth+1)
			}
		}
		if content.Len() > 0 {
			r.writeItem(buf, prefix, content.String(), width)
		}
	}
}

func (r renderer) writeItem(buf *bytes.Buffer, prefix, content string, width int) {
	itemWidth := width - len(prefix)
	if itemWidth < 10 {
		itemWidth = 10
	}
	continuation := strings.Repeat(" ", len(prefix))
	for i, line := range strings.Split(lipgloss.NewStyle().Width(itemWidth).Render(content), "\n") {
		if i == 0 {
			buf.WriteString(prefix + line + "\n")
		} else {
			buf.WriteString(continuation + line + "\n")
		}
	}
}

func (r renderer) inlines(parent ast.Node, src []byte) string {
	var buf bytes.Buffer
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		r.inline(n, src, &buf)
	}
	return buf.String()
}

func (r renderer) inline(n ast.Node, src []byte, buf *bytes.Buffer) {
	switch n := n.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(src))
		if n.SoftLineBreak() {
			buf.WriteByte(' ')
		}
		if n.HardLineBreak() {
			buf.WriteByte('\n')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		inner := r.inlines(n, src)
		if n.Level == 1 {
			buf.WriteString(r.italic.Render(inner))
		} else {
			buf.WriteString(r.bold.Render(inner))
		}

	case *ast.CodeSpan:
		buf.WriteString(r.bold.Render(r.inlines(n, src)))

	case *ast.Link:
		buf.WriteString(r.underline.Render(r.inlines(n, src)))
		buf.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))

	case *ast.AutoLink:
		buf.WriteString(r.underline.Render(string(n.URL(src))))

	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			r.inline(c, src, buf)
		}
	}
}
