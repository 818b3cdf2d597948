// Package projection folds the progress event stream into a client-side
// timeline for display.
package projection

import (
	"sync"

	"github.com/felixgeelhaar/appforge/internal/stream"
)

// Status is the display state of one timeline record.
type Status string

// Record statuses
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Record is one row of the timeline.
type Record struct {
	Phase    string
	Status   Status
	Message  string
	Progress int
}

// Timeline is an append-only projection of the event stream: every incoming
// event becomes a new record, never an update to an earlier one. The full
// history stays visible, including repeated progress rows for one phase.
type Timeline struct {
	mu      sync.RWMutex
	records []Record
}

// NewTimeline creates an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{}
}

// Apply appends one record for the event.
func (t *Timeline) Apply(ev stream.Event) {
	rec := Record{Phase: ev.Phase, Message: ev.Message}

	switch ev.Type {
	case stream.EventPhaseStart:
		rec.Status = StatusRunning
	case stream.EventPhaseProgress:
		rec.Status = StatusRunning
		if ev.Progress != nil {
			rec.Progress = *ev.Progress
		}
	case stream.EventPhaseComplete:
		rec.Status = StatusCompleted
		rec.Progress = 100
	case stream.EventError:
		rec.Status = StatusError
	default:
		rec.Status = StatusPending
	}

	t.mu.Lock()
	t.records = append(t.records, rec)
	t.mu.Unlock()
}

// Fail marks the run as failed: the last record is flipped to error with the
// carried message. With no records yet, a standalone error record is
// appended so a failure is never invisible.
func (t *Timeline) Fail(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.records) == 0 {
		t.records = append(t.records, Record{Status: StatusError, Message: message})
		return
	}

	last := &t.records[len(t.records)-1]
	last.Status = StatusError
	last.Message = message
}

// Records returns a copy of the timeline rows in arrival order.
func (t *Timeline) Records() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Len returns the number of records.
func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Reset clears the timeline before a new run.
func (t *Timeline) Reset() {
	t.mu.Lock()
	t.records = nil
	t.mu.Unlock()
}
