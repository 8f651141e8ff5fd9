package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/rnagent/runtime"
	"github.com/pithecene-io/rnagent/sink"
	"github.com/pithecene-io/rnagent/types"
)

func update(t *testing.T, m ProgressModel, msg tea.Msg) (ProgressModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	pm, ok := next.(ProgressModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return pm, cmd
}

func TestProgressModel_AppliesEvents(t *testing.T) {
	events := make(chan sink.Message, 4)
	m := NewProgressModel("scaffold", events)

	m, _ = update(t, m, eventMsg{msg: sink.Message{Event: types.EventName, Payload: types.StatusEvent{Message: "planning"}}})
	m, _ = update(t, m, eventMsg{msg: sink.Message{Event: types.EventName, Payload: types.FileWriteEvent{Path: "app/index.tsx"}}})
	m, _ = update(t, m, eventMsg{msg: sink.Message{Event: types.EventName, Payload: types.ErrorEvent{Message: "Security violation: path traversal detected"}}})
	m, _ = update(t, m, eventMsg{msg: sink.Message{Event: "other", Payload: types.FileWriteEvent{Path: "ignored.txt"}}})

	if m.status != "planning" {
		t.Errorf("status = %q", m.status)
	}
	if m.fileCount != 1 || len(m.files) != 1 || m.files[0] != "app/index.tsx" {
		t.Errorf("files = %v (count %d)", m.files, m.fileCount)
	}
	if len(m.errors) != 1 {
		t.Errorf("errors = %v", m.errors)
	}

	view := m.View()
	for _, want := range []string{"scaffold", "planning", "app/index.tsx", "path traversal", "Ctrl+C"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestProgressModel_RecentFilesBounded(t *testing.T) {
	m := NewProgressModel("scaffold", nil)
	for i := 0; i < maxRecentFiles+5; i++ {
		m, _ = update(t, m, eventMsg{msg: sink.Message{Event: types.EventName, Payload: types.FileWriteEvent{Path: "f"}}})
	}
	if len(m.files) != maxRecentFiles {
		t.Errorf("kept %d files, want %d", len(m.files), maxRecentFiles)
	}
	if m.fileCount != maxRecentFiles+5 {
		t.Errorf("fileCount = %d", m.fileCount)
	}
}

func TestProgressModel_FinishedDrainsAndQuits(t *testing.T) {
	events := make(chan sink.Message, 2)
	events <- sink.Message{Event: types.EventName, Payload: types.DoneEvent{Summary: "built it"}}
	m := NewProgressModel("edit", events)

	m, cmd := update(t, m, finishedMsg{outcome: runtime.Outcome{ExitCode: runtime.ExitCodeDone, Message: "built it"}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if m.status != "built it" {
		t.Errorf("buffered done event not applied, status = %q", m.status)
	}
	if m.Canceled() {
		t.Error("finished invocation must not report canceled")
	}
	if view := m.View(); !strings.Contains(view, "built it") || strings.Contains(view, "Ctrl+C") {
		t.Errorf("unexpected final view:\n%s", view)
	}
}

func TestProgressModel_QuitBeforeFinishCancels(t *testing.T) {
	m := NewProgressModel("scaffold", nil)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !m.Canceled() {
		t.Error("expected canceled")
	}
	if m.View() != "" {
		t.Error("view should be empty after cancel")
	}
}

func TestRunProgress(t *testing.T) {
	ch := sink.NewChannel(8, nil)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	var out bytes.Buffer
	outcome, err := RunProgress(ctx, "scaffold", ch.C(), cancel,
		func(context.Context) runtime.Outcome {
			ch.Emit(types.EventName, types.FileWriteEvent{Path: "a.txt"})
			ch.Emit(types.EventName, types.DoneEvent{Summary: "ok"})
			return runtime.Outcome{ExitCode: runtime.ExitCodeDone, Message: "ok"}
		},
		tea.WithInput(nil), tea.WithOutput(&out),
	)
	if err != nil {
		t.Fatalf("RunProgress: %v", err)
	}
	if outcome.ExitCode != runtime.ExitCodeDone || outcome.Message != "ok" {
		t.Errorf("outcome = %+v", outcome)
	}
	if ctx.Err() == nil {
		t.Error("RunProgress should cancel the context when it returns")
	}
}
