package bubbletea

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jkowal/recall"
	"github.com/jkowal/recall/chat"
	"github.com/jkowal/recall/markdown"
	"github.com/jkowal/recall/preview"
	"github.com/jkowal/recall/toast"
)

var _ tea.Model = Model{}

// transcriptTickInterval drives transcript refreshes during a send.
const transcriptTickInterval = 100 * time.Millisecond

// Model is the Bubble Tea model for the chat panel.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable transcript area. Exported for test access.
	Viewport viewport.Model

	controller *chat.Controller
	queue      *toast.Queue
	events     <-chan recall.Event
	theme      recall.Theme
	styles     Styles

	sending       bool
	cancel        context.CancelFunc
	showDirectory bool
	status        string
	width         int
	ready         bool
}

// New creates the chat panel model. events may be nil when no bus
// subscription is wired; it only feeds the status line.
func New(controller *chat.Controller, queue *toast.Queue, events <-chan recall.Event, theme recall.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about your memories... (/help for commands)"
	ti.Prompt = "> "
	ti.Focus()

	return Model{
		Input:      ti,
		controller: controller,
		queue:      queue,
		events:     events,
		theme:      theme,
		styles:     NewStyles(theme),
	}
}

// Sending returns whether a send is in flight. Exported for test access.
func (m Model) Sending() bool { return m.sending }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, listenToasts(m.queue)}
	if m.events != nil {
		cmds = append(cmds, listenEvents(m.events))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SendDoneMsg:
		m.sending = false
		m.cancel = nil
		if msg.Err != nil {
			m.status = msg.Err.Error()
		}
		m.refreshTranscript()
		return m, m.Input.Focus()

	case SelectDoneMsg:
		if msg.Err != nil {
			m.status = "couldn't open that conversation"
			return m, nil
		}
		m.showDirectory = false
		m.status = ""
		m.refreshTranscript()
		return m, nil

	case TranscriptTickMsg:
		m.refreshTranscript()
		if m.sending {
			return m, transcriptTick()
		}
		return m, nil

	case ToastsChangedMsg:
		return m, listenToasts(m.queue)

	case FocusRequestedMsg:
		m.status = "timeline: opening memory " + msg.Event.ItemID
		return m, listenEvents(m.events)
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds := []tea.Cmd{cmd}

	if !m.sending {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	for _, line := range m.toastLines() {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	// Reserve rows for the toast viewport, the status line and the input.
	vpHeight := msg.Height - toast.Capacity - 3
	if vpHeight < 1 {
		vpHeight = 1
	}

	m.width = msg.Width
	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Input.Width = msg.Width
	m.refreshTranscript()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.sending {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEsc:
		if toasts := m.queue.Toasts(); len(toasts) > 0 {
			m.queue.Dismiss(toasts[0].ID)
		}
		return m, nil

	case tea.KeyEnter:
		value := strings.TrimSpace(m.Input.Value())
		if value == "" {
			if _, ok := m.controller.Attachment(); ok {
				return m.submit("")
			}
			return m, nil
		}
		if strings.HasPrefix(value, "/") {
			return m.handleCommand(value)
		}
		return m.submit(value)
	}

	if !m.sending {
		var cmd tea.Cmd
		var cmds []tea.Cmd
		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	if m.sending {
		return m, nil
	}
	m.Input.SetValue("")
	m.status = ""
	m.sending = true

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	return m, tea.Batch(startSend(ctx, m.controller, text), transcriptTick())
}

func (m Model) handleCommand(value string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	cmd, arg, _ := strings.Cut(value[1:], " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "new":
		if err := m.controller.NewConversation(); err != nil {
			m.status = err.Error()
		} else {
			m.status = "started a new conversation"
		}
		m.refreshTranscript()
		return m, nil

	case "attach":
		return m.attach(arg), nil

	case "remove":
		m.controller.RemoveAttachment()
		m.status = "attachment removed"
		return m, nil

	case "sessions":
		m.showDirectory = true
		return m, refreshDirectory(m.controller)

	case "session":
		idx, err := strconv.Atoi(arg)
		sessions := m.controller.Sessions()
		if err != nil || idx < 1 || idx > len(sessions) {
			m.status = "usage: /session <number> (see /sessions)"
			return m, nil
		}
		return m, startSelect(m.controller, sessions[idx-1].ID)

	case "open":
		return m.openSource(arg)

	case "help":
		m.status = "/new /attach <pattern> /remove /sessions /session <n> /open <n>"
		return m, nil

	default:
		m.status = "unknown command: /" + cmd
		return m, nil
	}
}

func (m Model) attach(pattern string) Model {
	if pattern == "" {
		m.status = "usage: /attach <path or glob>"
		return m
	}

	path := pattern
	if matches, err := preview.Glob(pattern); err == nil && len(matches) > 0 {
		path = matches[0]
	}

	att, err := m.controller.Attach(path)
	if err != nil {
		m.status = "couldn't attach: " + err.Error()
		return m
	}
	m.status = "attached " + att.ContentType
	return m
}

func (m Model) openSource(arg string) (tea.Model, tea.Cmd) {
	sources := m.lastSources()
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 1 || idx > len(sources) {
		m.status = "usage: /open <source number>"
		return m, nil
	}
	src := sources[idx-1]
	if !src.Navigable() {
		m.status = "that source has no linked memory"
		return m, nil
	}
	m.status = "opening memory in timeline"
	controller := m.controller
	return m, func() tea.Msg {
		controller.OpenSource(context.Background(), src)
		return nil
	}
}

// lastSources returns the citations of the most recent assistant message.
func (m Model) lastSources() []recall.Source {
	msgs := m.controller.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == recall.RoleAssistant {
			return msgs[i].Sources
		}
	}
	return nil
}

func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	if m.showDirectory {
		m.Viewport.SetContent(m.renderDirectory())
	} else {
		m.Viewport.SetContent(m.renderTranscript())
		m.Viewport.GotoBottom()
	}
}

func (m Model) renderTranscript() string {
	var b strings.Builder
	for _, msg := range m.controller.Messages() {
		switch msg.Role {
		case recall.RoleUser:
			b.WriteString(m.styles.UserMsg.Render("You"))
			b.WriteString("  ")
			b.WriteString(msg.Content)
			b.WriteString("\n")
			for _, att := range msg.Attachments {
				b.WriteString(m.styles.Muted.Render("    [" + att.ContentType + "] " + att.PreviewPath))
				b.WriteString("\n")
			}
		case recall.RoleAssistant:
			b.WriteString(markdown.Render(msg.Content, m.width, m.theme))
			b.WriteString("\n")
			for i, src := range msg.Sources {
				b.WriteString(m.styles.Source.Render("  [" + strconv.Itoa(i+1) + "] " + sourceLabel(src)))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderDirectory() string {
	sessions := m.controller.Sessions()
	if len(sessions) == 0 {
		return m.styles.Muted.Render("No conversations yet.")
	}
	var b strings.Builder
	b.WriteString(m.styles.Accent.Render("Conversations"))
	b.WriteString("\n\n")
	for i, s := range sessions {
		line := fmt.Sprintf("%2d. %s", i+1, s.Title)
		if !s.LastActivity.IsZero() {
			line += m.styles.Muted.Render("  " + s.LastActivity.Format("Jan 2 15:04"))
		}
		line += m.styles.Muted.Render(fmt.Sprintf("  (%d messages)", s.MessageCount))
		b.WriteString(truncate(line, m.width))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("/session <n> to open"))
	return b.String()
}

func sourceLabel(src recall.Source) string {
	label := src.Title
	if label == "" {
		label = src.Snippet
	}
	if label == "" {
		label = src.ContextID
	}
	if !src.CapturedAt.IsZero() {
		label += " · " + src.CapturedAt.Format("Jan 2, 2006")
	}
	if src.Navigable() {
		label += " ↗"
	}
	return label
}

func (m Model) toastLines() []string {
	toasts := m.queue.Toasts()
	lines := make([]string, toast.Capacity)
	for i := range lines {
		if i >= len(toasts) {
			lines[i] = ""
			continue
		}
		t := toasts[i]
		text := t.Title
		if t.Description != "" {
			text += " — " + t.Description
		}
		style := m.styles.ToastInfo
		switch t.Variant {
		case recall.ToastSuccess:
			style = m.styles.ToastSuccess
		case recall.ToastError:
			style = m.styles.ToastError
		}
		lines[i] = style.Render(truncate(text, m.width-2))
	}
	return lines
}

func (m Model) statusLine() string {
	var parts []string
	if id := m.controller.ActiveSession(); id != "" {
		title := id
		if s, ok := m.controller.Session(id); ok && s.Title != "" {
			title = s.Title
		}
		parts = append(parts, title)
	} else {
		parts = append(parts, "new conversation")
	}
	if m.sending {
		parts = append(parts, "thinking…")
	}
	if att, ok := m.controller.Attachment(); ok {
		parts = append(parts, "attachment: "+att.ContentType)
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return m.styles.Muted.Render(truncate(strings.Join(parts, " · "), m.width))
}

func startSend(ctx context.Context, c *chat.Controller, text string) tea.Cmd {
	return func() tea.Msg {
		return SendDoneMsg{Err: c.Send(ctx, text)}
	}
}

func startSelect(c *chat.Controller, id string) tea.Cmd {
	return func() tea.Msg {
		return SelectDoneMsg{SessionID: id, Err: c.Select(context.Background(), id)}
	}
}

func refreshDirectory(c *chat.Controller) tea.Cmd {
	return func() tea.Msg {
		// Refresh logs a failure itself and keeps the prior directory.
		_ = c.Refresh(context.Background())
		return TranscriptTickMsg{}
	}
}

func transcriptTick() tea.Cmd {
	return tea.Tick(transcriptTickInterval, func(time.Time) tea.Msg {
		return TranscriptTickMsg{}
	})
}

func listenToasts(q *toast.Queue) tea.Cmd {
	return func() tea.Msg {
		<-q.Updates()
		return ToastsChangedMsg{}
	}
}

func listenEvents(events <-chan recall.Event) tea.Cmd {
	return func() tea.Msg {
		for evt := range events {
			if fe, ok := evt.(recall.FocusEvent); ok {
				return FocusRequestedMsg{Event: fe}
			}
		}
		return nil
	}
}
