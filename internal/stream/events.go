// Package stream implements the progress event wire: one prefixed JSON
// document per line, newline as the only framing signal. The Writer is the
// producing side (server), the Reader the consuming side (client).
package stream

// Prefix precedes every frame on the wire.
const Prefix = "data: "

// EventType discriminates the event union.
type EventType string

// Event kinds
const (
	EventPhaseStart    EventType = "phase_start"
	EventPhaseProgress EventType = "phase_progress"
	EventPhaseComplete EventType = "phase_complete"
	EventError         EventType = "error"
	EventResult        EventType = "result"
)

// Terminal reports whether the event kind ends a stream.
func (t EventType) Terminal() bool {
	return t == EventError || t == EventResult
}

// Event is one frame of the progress wire.
type Event struct {
	Type    EventType `json:"type"`
	Phase   string    `json:"phase,omitempty"`
	Message string    `json:"message,omitempty"`

	// Progress is a 0-100 percentage, present on phase_progress frames.
	Progress *int `json:"progress,omitempty"`

	// Code carries the error code on error frames.
	Code string `json:"code,omitempty"`

	// Data is present only on the result frame.
	Data *GenerationResult `json:"data,omitempty"`
}

// PhaseStart builds a phase_start event.
func PhaseStart(phase, message string) Event {
	return Event{Type: EventPhaseStart, Phase: phase, Message: message}
}

// PhaseProgress builds a phase_progress event with a 0-100 percentage.
func PhaseProgress(phase, message string, progress int) Event {
	return Event{Type: EventPhaseProgress, Phase: phase, Message: message, Progress: &progress}
}

// PhaseComplete builds a phase_complete event.
func PhaseComplete(phase, message string) Event {
	return Event{Type: EventPhaseComplete, Phase: phase, Message: message}
}

// ArtifactPayload is the per-artifact slice of a result frame.
type ArtifactPayload struct {
	Filename      string `json:"filename"`
	Source        string `json:"source"`
	Digest        string `json:"digest,omitempty"`
	LowConfidence bool   `json:"low_confidence,omitempty"`
}

// GenerationResult is the terminal payload of a successful run. Like the
// request, its wire fields are camelCase.
type GenerationResult struct {
	ProjectID string `json:"projectId"`
	Success   bool   `json:"success"`

	// PlanFingerprint identifies the plan this run executed.
	PlanFingerprint string `json:"planFingerprint,omitempty"`

	// Phases maps task IDs to their generated artifacts.
	Phases map[string]ArtifactPayload `json:"phases,omitempty"`

	Error string `json:"error,omitempty"`
}
