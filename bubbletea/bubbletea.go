// Package bubbletea provides the Bubble Tea chat panel for recall: the
// transcript viewport, the input line and the toast viewport.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jkowal/recall"
)

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits. The context is used for graceful shutdown: when cancelled, the
// program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// SendDoneMsg signals that a send has completed. A nil Err covers both a
// successful exchange and a remote failure already converted into the
// fallback transcript message.
type SendDoneMsg struct {
	Err error
}

// SelectDoneMsg signals that a session selection finished hydrating.
type SelectDoneMsg struct {
	SessionID string
	Err       error
}

// ToastsChangedMsg signals that the toast queue mutated.
type ToastsChangedMsg struct{}

// TranscriptTickMsg drives transcript refreshes while a send is in flight,
// so the optimistic user message is visible before the reply arrives.
type TranscriptTickMsg struct{}

// FocusRequestedMsg mirrors a FocusEvent from the broadcast bus; the chat
// panel only reports it in the status line, the timeline view is a separate
// consumer.
type FocusRequestedMsg struct {
	Event recall.FocusEvent
}
