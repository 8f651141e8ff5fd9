package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/rnagent/runtime"
	"github.com/pithecene-io/rnagent/sink"
)

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunProgress shows a live view of an invocation. events is the receive
// side of a channel sink; invoke runs the invocation and returns its
// outcome. Quitting before invoke returns calls cancel and waits for invoke
// to observe it.
func RunProgress(
	ctx context.Context,
	title string,
	events <-chan sink.Message,
	cancel context.CancelFunc,
	invoke func(ctx context.Context) runtime.Outcome,
	opts ...tea.ProgramOption,
) (runtime.Outcome, error) {
	p := tea.NewProgram(NewProgressModel(title, events), opts...)

	result := make(chan runtime.Outcome, 1)
	go func() {
		out := invoke(ctx)
		result <- out
		p.Send(finishedMsg{outcome: out})
	}()

	_, err := p.Run()
	cancel()
	return <-result, err
}
