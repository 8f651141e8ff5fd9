package sse

import (
	"errors"
	"reflect"
	"testing"

	"github.com/pithecene-io/rnagent/types"
)

func TestDecodeEvent_Variants(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  types.Event
	}{
		{
			name:  "file_write",
			frame: `data:{"type":"file_write","path":"a.txt","content":"hi"}`,
			want:  types.FileWriteEvent{Path: "a.txt", Content: "hi"},
		},
		{
			name:  "status",
			frame: `data:{"type":"status","message":"start"}`,
			want:  types.StatusEvent{Message: "start"},
		},
		{
			name:  "done",
			frame: `data:{"type":"done","summary":"ok","files":["a.txt","b/c.ts"]}`,
			want:  types.DoneEvent{Summary: "ok", Files: []string{"a.txt", "b/c.ts"}},
		},
		{
			name:  "done with empty files",
			frame: `data:{"type":"done","summary":"","files":[]}`,
			want:  types.DoneEvent{Summary: "", Files: []string{}},
		},
		{
			name:  "error",
			frame: `data:{"type":"error","message":"model overloaded"}`,
			want:  types.ErrorEvent{Message: "model overloaded"},
		},
		{
			name:  "space after prefix",
			frame: `data: {"type":"status","message":"Agent initialized..."}`,
			want:  types.StatusEvent{Message: "Agent initialized..."},
		},
		{
			name:  "unknown fields ignored",
			frame: `data:{"type":"status","message":"m","seq":4}`,
			want:  types.StatusEvent{Message: "m"},
		},
		{
			name:  "empty content is present",
			frame: `data:{"type":"file_write","path":".gitkeep","content":""}`,
			want:  types.FileWriteEvent{Path: ".gitkeep", Content: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEvent(tt.frame)
			if err != nil {
				t.Fatalf("DecodeEvent failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeEvent = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDecodeEvent_Errors(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		wantKind DecodeErrorKind
	}{
		{"no prefix", `{"type":"status","message":"x"}`, DecodeErrorNoPrefix},
		{"comment line", `: keep-alive`, DecodeErrorNoPrefix},
		{"event field", `event: status`, DecodeErrorNoPrefix},
		{"bad json", `data:{"type":"status",`, DecodeErrorJSON},
		{"non-object", `data:[1,2]`, DecodeErrorJSON},
		{"wrong field type", `data:{"type":"status","message":42}`, DecodeErrorJSON},
		{"unknown type", `data:{"type":"progress","message":"x"}`, DecodeErrorUnknownType},
		{"missing type", `data:{"message":"x"}`, DecodeErrorUnknownType},
		{"null payload", `data:null`, DecodeErrorUnknownType},
		{"file_write missing path", `data:{"type":"file_write","content":"x"}`, DecodeErrorMissingField},
		{"file_write missing content", `data:{"type":"file_write","path":"a"}`, DecodeErrorMissingField},
		{"status missing message", `data:{"type":"status"}`, DecodeErrorMissingField},
		{"done missing files", `data:{"type":"done","summary":"ok"}`, DecodeErrorMissingField},
		{"done null files", `data:{"type":"done","summary":"ok","files":null}`, DecodeErrorMissingField},
		{"done missing summary", `data:{"type":"done","files":[]}`, DecodeErrorMissingField},
		{"error missing message", `data:{"type":"error"}`, DecodeErrorMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeEvent(tt.frame)
			if err == nil {
				t.Fatalf("expected error, got event %#v", ev)
			}
			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("error type = %T, want *DecodeError", err)
			}
			if decErr.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", decErr.Kind, tt.wantKind)
			}
			if !IsDecodeError(err) {
				t.Error("IsDecodeError should be true")
			}
			if IsFatalFrameError(err) {
				t.Error("decode errors must never be fatal")
			}
		})
	}
}

// TestDecode_MalformedFrameDoesNotStopLaterFrames runs assembler and decoder
// together over a stream with a malformed frame in the middle.
func TestDecode_MalformedFrameDoesNotStopLaterFrames(t *testing.T) {
	stream := "data:{\"type\":\"status\",\"message\":\"one\"}\n\n" +
		"data:{\"type\":\"status\",\n\n" +
		"data:{\"type\":\"status\",\"message\":\"two\"}\n\n"

	frames, err := NewFrameAssembler().Append([]byte(stream))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	var events []types.Event
	for _, f := range frames {
		ev, err := DecodeEvent(f)
		if err != nil {
			continue
		}
		events = append(events, ev)
	}

	want := []types.Event{
		types.StatusEvent{Message: "one"},
		types.StatusEvent{Message: "two"},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %#v, want %#v", events, want)
	}
}

func TestDecodeErrorKind_String(t *testing.T) {
	if DecodeErrorMissingField.String() != "missing_field" {
		t.Errorf("String() = %q", DecodeErrorMissingField.String())
	}
	if DecodeErrorKind(99).String() != "unknown" {
		t.Errorf("String() = %q", DecodeErrorKind(99).String())
	}
}
