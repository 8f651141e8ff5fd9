package render

import (
	"github.com/pithecene-io/rnagent/runtime"
)

// Report is the summary printed after an invocation.
type Report struct {
	InvocationID  string   `json:"invocation_id,omitempty" yaml:"invocation_id,omitempty"`
	Operation     string   `json:"operation,omitempty" yaml:"operation,omitempty"`
	ProjectPath   string   `json:"project_path,omitempty" yaml:"project_path,omitempty"`
	State         string   `json:"state" yaml:"state"`
	ExitCode      int      `json:"exit_code" yaml:"exit_code"`
	Message       string   `json:"message" yaml:"message"`
	DurationMS    int64    `json:"duration_ms" yaml:"duration_ms"`
	FramesDropped int64    `json:"frames_dropped" yaml:"frames_dropped"`
	SinkDropped   int64    `json:"sink_dropped" yaml:"sink_dropped"`
	WriteFailures int      `json:"write_failures" yaml:"write_failures"`
	FilesWritten  []string `json:"files_written" yaml:"files_written"`
}

// NewReport builds a report from an invocation result and its outcome.
// result may be nil when the invocation failed before the stream opened.
func NewReport(result *runtime.RunResult, outcome runtime.Outcome) Report {
	r := Report{
		State:        "rejected",
		ExitCode:     outcome.ExitCode,
		Message:      outcome.Message,
		FilesWritten: []string{},
	}
	if result == nil {
		return r
	}

	if result.Meta != nil {
		r.InvocationID = result.Meta.InvocationID
		r.Operation = string(result.Meta.Operation)
		r.ProjectPath = result.Meta.ProjectPath
	}
	if result.State != "" {
		r.State = string(result.State)
	} else {
		r.State = "aborted"
	}
	r.DurationMS = result.Duration.Milliseconds()
	r.FramesDropped = result.Metrics.FramesDropped
	r.SinkDropped = result.Metrics.SinkDropped
	r.WriteFailures = result.WriteFailures
	if result.FilesWritten != nil {
		r.FilesWritten = result.FilesWritten
	}
	return r
}
