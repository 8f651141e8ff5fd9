package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/rnagent/metrics"
	"github.com/pithecene-io/rnagent/types"
)

func TestMultiAndFunc(t *testing.T) {
	var got []string
	rec := &Recorder{}
	m := Multi{
		Func(func(name string, _ any) { got = append(got, name) }),
		rec,
		Nop{},
	}

	m.Emit(types.EventName, types.StatusEvent{Message: "a"})
	m.Emit(types.EventName, types.DoneEvent{Summary: "ok"})

	if !reflect.DeepEqual(got, []string{types.EventName, types.EventName}) {
		t.Errorf("func sink got %v", got)
	}
	want := []types.Event{types.StatusEvent{Message: "a"}, types.DoneEvent{Summary: "ok"}}
	if !reflect.DeepEqual(rec.Events(), want) {
		t.Errorf("recorder events = %#v", rec.Events())
	}
}

func TestRecorder_EventsSkipsNonEvents(t *testing.T) {
	rec := &Recorder{}
	rec.Emit("other", map[string]string{"k": "v"})
	rec.Emit(types.EventName, types.ErrorEvent{Message: "x"})

	if len(rec.Messages()) != 2 {
		t.Fatalf("Messages() = %d, want 2", len(rec.Messages()))
	}
	if evs := rec.Events(); len(evs) != 1 {
		t.Errorf("Events() = %v, want 1", evs)
	}
}

func TestWriter_JSONLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, nil)

	w.Emit(types.EventName, types.FileWriteEvent{Path: "a.txt", Content: "hi"})
	w.Emit(types.EventName, types.DoneEvent{Summary: "ok"})

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	want := []string{
		`{"event":"agent_event","payload":{"type":"file_write","path":"a.txt","content":"hi"}}`,
		`{"event":"agent_event","payload":{"type":"done","summary":"ok","files":[]}}`,
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %s, want %s", i, lines[i], want[i])
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriter_WriteFailureDoesNotPanic(t *testing.T) {
	w := NewWriter(failingWriter{}, nil)
	w.Emit(types.EventName, types.StatusEvent{Message: "x"})
}

func TestEncode(t *testing.T) {
	msg := Message{Event: types.EventName, Payload: types.StatusEvent{Message: "hello"}}

	t.Run("json", func(t *testing.T) {
		data, err := Encode(EncodingJSON, msg)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		payload := decoded["payload"].(map[string]any)
		if decoded["event"] != types.EventName || payload["type"] != "status" || payload["message"] != "hello" {
			t.Errorf("decoded = %v", decoded)
		}
	})

	t.Run("msgpack", func(t *testing.T) {
		data, err := Encode(EncodingMsgpack, msg)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		var decoded map[string]any
		if err := msgpack.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		payload, ok := decoded["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload type = %T", decoded["payload"])
		}
		if decoded["event"] != types.EventName || payload["type"] != "status" || payload["message"] != "hello" {
			t.Errorf("decoded = %v", decoded)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := Encode("xml", msg); err == nil {
			t.Error("expected error for unknown encoding")
		}
	})
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    Encoding
		wantErr bool
	}{
		{"", EncodingJSON, false},
		{"json", EncodingJSON, false},
		{"msgpack", EncodingMsgpack, false},
		{"protobuf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseEncoding(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEncoding(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseEncoding(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if EncodingMsgpack.ContentType() != "application/msgpack" || EncodingJSON.ContentType() != "application/json" {
		t.Error("unexpected content types")
	}
}

func TestChannel_DeliversInOrder(t *testing.T) {
	c := NewChannel(4, nil)
	c.Emit(types.EventName, types.StatusEvent{Message: "1"})
	c.Emit(types.EventName, types.StatusEvent{Message: "2"})
	_ = c.Close()

	var got []string
	for msg := range c.C() {
		got = append(got, msg.Payload.(types.StatusEvent).Message)
	}
	if !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("got %v", got)
	}
}

func TestChannel_DropsWhenFull(t *testing.T) {
	collector := metrics.NewCollector("scaffold", "inv", "channel")
	c := NewChannel(1, collector)

	c.Emit("a", nil)
	c.Emit("b", nil) // full, must not block
	c.Emit("c", nil)

	if c.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", c.Dropped())
	}
	if collector.Snapshot().SinkDropped != 2 {
		t.Errorf("SinkDropped = %d, want 2", collector.Snapshot().SinkDropped)
	}
	if msg := <-c.C(); msg.Event != "a" {
		t.Errorf("first message = %q, want a", msg.Event)
	}
}

func TestChannel_EmitAfterClose(t *testing.T) {
	c := NewChannel(1, nil)
	_ = c.Close()
	_ = c.Close()
	c.Emit("late", nil)
	if c.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", c.Dropped())
	}
}

func TestAsync_DeliversInOrderAndFlushesOnClose(t *testing.T) {
	var mu sync.Mutex
	var got []string
	a := NewAsync(AsyncConfig{Name: "test"}, func(_ context.Context, msg Message) error {
		time.Sleep(time.Millisecond)
		mu.Lock()
		got = append(got, msg.Event)
		mu.Unlock()
		return nil
	})

	for _, name := range []string{"a", "b", "c"} {
		a.Emit(name, nil)
	}
	_ = a.Close()

	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("got %v", got)
	}
}

func TestAsync_FailuresCountedNotRetried(t *testing.T) {
	collector := metrics.NewCollector("scaffold", "inv", "test")
	var calls int
	a := NewAsync(AsyncConfig{Name: "test", Collector: collector}, func(context.Context, Message) error {
		calls++
		return errors.New("unreachable")
	})

	a.Emit("a", nil)
	a.Emit("b", nil)
	_ = a.Close()

	if calls != 2 {
		t.Errorf("deliver calls = %d, want 2", calls)
	}
	if got := collector.Snapshot().SinkDropped; got != 2 {
		t.Errorf("SinkDropped = %d, want 2", got)
	}
}

func TestAsync_EmitNeverBlocks(t *testing.T) {
	block := make(chan struct{})
	a := NewAsync(AsyncConfig{Name: "test", Buffer: 1}, func(ctx context.Context, _ Message) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	})

	done := make(chan struct{})
	go func() {
		for range 10 {
			a.Emit("x", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Emit blocked on a stalled sink")
	}
	close(block)
	_ = a.Close()
	a.Emit("after-close", nil)
}
