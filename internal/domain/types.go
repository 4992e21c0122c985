package domain

import (
	"fmt"

	"github.com/kballard/go-shellquote"
)

// ToolKind is the closed set of external tools an output can require.
type ToolKind int

const (
	ToolKindSinglePass ToolKind = iota + 1
	ToolKindTwoPass
	ToolKindTheora
	ToolKindLegacyPreset
)

// String returns the stable identifier used in logs and JSON payloads.
func (k ToolKind) String() string {
	switch k {
	case ToolKindSinglePass:
		return "single-pass"
	case ToolKindTwoPass:
		return "two-pass"
	case ToolKindTheora:
		return "theora"
	case ToolKindLegacyPreset:
		return "legacy-preset"
	default:
		return fmt.Sprintf("tool-kind(%d)", int(k))
	}
}

// ToolName returns the executable name that satisfies the kind.
func (k ToolKind) ToolName() string {
	switch k {
	case ToolKindSinglePass, ToolKindTwoPass:
		return ToolFFmpeg
	case ToolKindTheora:
		return ToolFFmpeg2Theora
	case ToolKindLegacyPreset:
		return ToolQTExport
	default:
		return ""
	}
}

// Multipass reports whether the kind compiles to two chained invocations.
func (k ToolKind) Multipass() bool {
	return k == ToolKindTwoPass
}

// MarshalText encodes the kind by name.
func (k ToolKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Executable names of the supported encoders.
const (
	ToolFFmpeg        = "ffmpeg"
	ToolFFmpeg2Theora = "ffmpeg2theora"
	ToolQTExport      = "qt_export"
)

// OutputSpec declares one output file a conversion mode produces.
type OutputSpec struct {
	Kind   ToolKind `json:"kind"`
	Flags  []string `json:"flags"`
	Suffix string   `json:"suffix"`
	// Note is shown next to the output when a substitution applies.
	Note string `json:"note,omitempty"`
	// Preset is the qt_export settings file for legacy-preset outputs.
	Preset string `json:"preset,omitempty"`
	// FallbackFlags replace Flags with an ffmpeg invocation when the
	// legacy exporter is unavailable.
	FallbackFlags []string `json:"fallbackFlags,omitempty"`
}

// HasFallback reports whether a degraded ffmpeg path exists for the output.
func (s OutputSpec) HasFallback() bool {
	return s.Kind == ToolKindLegacyPreset && len(s.FallbackFlags) > 0
}

// ConversionMode is one entry of the mode catalog.
type ConversionMode struct {
	Index   int          `json:"index"`
	Label   string       `json:"label"`
	Outputs []OutputSpec `json:"outputs"`
}

// ResolvedTool is the outcome of resolving one executable for a batch.
type ResolvedTool struct {
	Name          string `json:"name"`
	ConfiguredDir string `json:"configuredDir"`
	Path          string `json:"path,omitempty"`
	Available     bool   `json:"available"`
}

// ToolSet holds every tool resolved for a batch.
type ToolSet struct {
	FFmpeg        ResolvedTool `json:"ffmpeg"`
	FFmpeg2Theora ResolvedTool `json:"ffmpeg2theora"`
	QTExport      ResolvedTool `json:"qtExport"`
}

// For returns the resolved tool backing kind.
func (t ToolSet) For(kind ToolKind) ResolvedTool {
	switch kind {
	case ToolKindSinglePass, ToolKindTwoPass:
		return t.FFmpeg
	case ToolKindTheora:
		return t.FFmpeg2Theora
	case ToolKindLegacyPreset:
		return t.QTExport
	default:
		return ResolvedTool{}
	}
}

// Invocation is one external process launch.
type Invocation struct {
	Path string   `json:"path"`
	Args []string `json:"args"`
}

// Argv returns the executable followed by its arguments.
func (i Invocation) Argv() []string {
	argv := make([]string, 0, len(i.Args)+1)
	argv = append(argv, i.Path)
	return append(argv, i.Args...)
}

// String renders the invocation as a shell-quoted command line in execution order.
func (i Invocation) String() string {
	return shellquote.Join(i.Argv()...)
}

// Job is one compiled unit of work: an input paired with an output spec.
type Job struct {
	Kind      ToolKind    `json:"kind"`
	Input     string      `json:"input"`
	Output    string      `json:"output"`
	Primary   Invocation  `json:"primary"`
	Secondary *Invocation `json:"secondary,omitempty"`
	Note      string      `json:"note"`
	Multipass bool        `json:"multipass"`
}

// Invocations returns the job's invocations in execution order.
func (j Job) Invocations() []Invocation {
	if j.Secondary == nil {
		return []Invocation{j.Primary}
	}
	return []Invocation{j.Primary, *j.Secondary}
}

// BatchResult is returned synchronously once a drop has been compiled.
type BatchResult struct {
	OK        bool     `json:"ok"`
	Message   string   `json:"message"`
	Commands  []string `json:"commands"`
	Label     string   `json:"label,omitempty"`
	JobsTotal int      `json:"jobs_total,omitempty"`
	WrongType bool     `json:"wrong_type,omitempty"`
	BatchID   string   `json:"batchId,omitempty"`
}

// CompletionEvent is delivered once per batch after execution finishes.
type CompletionEvent struct {
	BatchID string `json:"batchId,omitempty"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// BatchStatus tracks the lifecycle of one dispatched batch.
type BatchStatus string

const (
	BatchStatusQueued    BatchStatus = "queued"
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusDone      BatchStatus = "done"
	BatchStatusFailed    BatchStatus = "failed"
	BatchStatusCancelled BatchStatus = "cancelled"
)

// Batch stores identity and progress of one dispatched batch.
type Batch struct {
	ID        string      `json:"id"`
	Label     string      `json:"label"`
	Status    BatchStatus `json:"status"`
	JobsTotal int         `json:"jobsTotal"`
	JobsDone  int         `json:"jobsDone"`
	Failures  int         `json:"failures"`
}
