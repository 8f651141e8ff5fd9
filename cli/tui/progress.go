package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/rnagent/runtime"
	"github.com/pithecene-io/rnagent/sink"
	"github.com/pithecene-io/rnagent/types"
)

// maxRecentFiles bounds the written-files list shown while streaming.
const maxRecentFiles = 8

type eventMsg struct{ msg sink.Message }

type eventsClosedMsg struct{}

type finishedMsg struct{ outcome runtime.Outcome }

// ProgressModel is a Bubble Tea model for a live invocation.
type ProgressModel struct {
	title   string
	events  <-chan sink.Message
	spinner spinner.Model

	status    string
	files     []string
	fileCount int
	errors    []string

	outcome  *runtime.Outcome
	canceled bool
	quitting bool
	width    int
}

// NewProgressModel creates a progress model reading agent events from events.
func NewProgressModel(title string, events <-chan sink.Message) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)
	return ProgressModel{
		title:   title,
		events:  events,
		spinner: s,
		status:  "connecting",
	}
}

// Init implements tea.Model.
func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func waitForEvent(events <-chan sink.Message) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{msg: msg}
	}
}

// Update implements tea.Model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			if m.outcome == nil {
				m.canceled = true
			}
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if m.outcome != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m.apply(msg.msg)
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		return m, nil

	case finishedMsg:
		m.drain()
		out := msg.outcome
		m.outcome = &out
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *ProgressModel) apply(msg sink.Message) {
	if msg.Event != types.EventName {
		return
	}
	switch ev := msg.Payload.(type) {
	case types.StatusEvent:
		m.status = ev.Message
	case types.FileWriteEvent:
		m.fileCount++
		m.files = append(m.files, ev.Path)
		if len(m.files) > maxRecentFiles {
			m.files = m.files[len(m.files)-maxRecentFiles:]
		}
	case types.DoneEvent:
		m.status = "done"
		if ev.Summary != "" {
			m.status = ev.Summary
		}
	case types.ErrorEvent:
		m.errors = append(m.errors, ev.Message)
	}
}

// drain applies events already buffered when the invocation finished.
func (m *ProgressModel) drain() {
	for {
		select {
		case msg, ok := <-m.events:
			if !ok {
				return
			}
			m.apply(msg)
		default:
			return
		}
	}
}

// Canceled reports whether the user quit before the invocation finished.
func (m ProgressModel) Canceled() bool {
	return m.canceled
}

// View implements tea.Model.
func (m ProgressModel) View() string {
	if m.quitting && m.outcome == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n")

	if m.outcome == nil {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(ValueStyle.Render(m.status))
	} else {
		state := "done"
		if m.outcome.ExitCode != runtime.ExitCodeDone {
			state = "failed"
		}
		b.WriteString(StateStyle(state).Render(m.outcome.Message))
	}
	b.WriteString("\n\n")

	boxes := []string{
		renderStatBox("Files", m.fileCount, highlightColor),
		renderStatBox("Errors", len(m.errors), errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n")

	if len(m.files) > 0 {
		b.WriteString("\n")
		for _, f := range m.files {
			b.WriteString(LabelStyle.Render("wrote"))
			b.WriteString(ValueStyle.Render(f))
			b.WriteString("\n")
		}
	}
	for _, e := range m.errors {
		b.WriteString(ErrorStyle.Render("error: " + e))
		b.WriteString("\n")
	}

	if m.outcome == nil {
		b.WriteString(HelpStyle.Render("Press q or Ctrl+C to cancel"))
	}
	return b.String()
}

func renderStatBox(label string, value int, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr))
}
