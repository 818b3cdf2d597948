package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/felixgeelhaar/appforge/internal/errors"
)

// writerState tracks the producer lifecycle. Transitions are one-way:
// idle → streaming → resultSent|errorSent → closed.
type writerState int

const (
	stateIdle writerState = iota
	stateStreaming
	stateResultSent
	stateErrorSent
	stateClosed
)

// Writer produces the frame stream. It enforces the terminal-frame contract:
// exactly one result or error frame per stream, nothing after it.
type Writer struct {
	mu         sync.Mutex
	w          io.Writer
	state      writerState
	terminated bool
}

// NewWriter wraps a sink. If the sink implements http.Flusher, every frame
// is flushed immediately so remote consumers see progress live.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, state: stateIdle}
}

// Send writes one non-terminal progress frame.
func (s *Writer) Send(ev Event) error {
	if ev.Type.Terminal() {
		return errors.New(errors.ErrCodeStreamFraming,
			fmt.Sprintf("%s frames must go through SendResult or SendError", ev.Type))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state >= stateResultSent {
		return errors.New(errors.ErrCodeStreamClosed, "stream already terminated")
	}

	if err := s.writeFrame(ev); err != nil {
		return err
	}
	s.state = stateStreaming
	return nil
}

// SendResult writes the terminal result frame and seals the stream.
func (s *Writer) SendResult(result *GenerationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state >= stateResultSent {
		return errors.New(errors.ErrCodeStreamClosed, "stream already terminated")
	}

	if err := s.writeFrame(Event{Type: EventResult, Data: result}); err != nil {
		return err
	}
	s.state = stateResultSent
	s.terminated = true
	return nil
}

// SendError writes the terminal error frame and seals the stream.
func (s *Writer) SendError(phase, code, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state >= stateResultSent {
		return errors.New(errors.ErrCodeStreamClosed, "stream already terminated")
	}

	if err := s.writeFrame(Event{Type: EventError, Phase: phase, Code: code, Message: message}); err != nil {
		return err
	}
	s.state = stateErrorSent
	s.terminated = true
	return nil
}

// Close seals the stream. Closing without a terminal frame is legal on the
// writer side but the remote reader will report a termination error, which
// is the intended signal for an aborted run.
func (s *Writer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateClosed
	return nil
}

// Terminated reports whether a terminal frame was sent. Closing the stream
// afterwards does not reset this.
func (s *Writer) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

// writeFrame marshals and writes one prefixed, newline-terminated frame.
// Callers hold the mutex.
func (s *Writer) writeFrame(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStreamFraming, "marshal event", err)
	}

	if _, err := fmt.Fprintf(s.w, "%s%s\n", Prefix, payload); err != nil {
		return errors.Wrap(errors.ErrCodeStreamFraming, "write frame", err)
	}

	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
