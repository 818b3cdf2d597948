package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/appforge/internal/errors"
	"github.com/felixgeelhaar/appforge/internal/log"
)

// Reader consumes a frame stream. Chunk boundaries carry no meaning: frames
// are reassembled from an internal buffer and split on newlines only, so a
// frame torn across arbitrary chunks parses identically to one delivered
// whole.
type Reader struct {
	r      io.Reader
	logger *log.Logger
}

// NewReader wraps a frame source.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, logger: log.DefaultLogger()}
}

// WithLogger replaces the reader's logger.
func (r *Reader) WithLogger(logger *log.Logger) *Reader {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Read drains the stream. Progress frames are forwarded to onEvent in
// arrival order. The result frame is stored, not forwarded. An error frame
// is fatal and stops reading. Malformed lines are logged and skipped, which
// keeps one corrupt frame from killing a live stream but can mask deeper
// corruption. EOF without a stored result is a termination error; a dropped
// connection therefore never looks like silent success.
func (r *Reader) Read(onEvent func(Event)) (*GenerationResult, error) {
	var buf bytes.Buffer
	var result *GenerationResult
	chunk := make([]byte, 4096)

	for {
		n, err := r.r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])

			for {
				line, rest, found := bytes.Cut(buf.Bytes(), []byte{'\n'})
				if !found {
					break
				}
				// The unconsumed tail carries over to the next chunk.
				remainder := append([]byte(nil), rest...)
				ev, ok := r.parseLine(line)
				buf.Reset()
				buf.Write(remainder)
				if !ok {
					continue
				}

				switch ev.Type {
				case EventResult:
					result = ev.Data
				case EventError:
					return nil, r.errorFrame(ev)
				default:
					if onEvent != nil {
						onEvent(ev)
					}
				}
			}
		}

		if err != nil {
			if err != io.EOF {
				return nil, errors.Wrap(errors.ErrCodeStreamTermination, "stream read failed", err)
			}
			break
		}
	}

	if result == nil {
		return nil, errors.NewStreamTerminationError(nil)
	}
	return result, nil
}

// parseLine extracts one event from a complete line. Unprefixed and
// malformed lines are skipped.
func (r *Reader) parseLine(line []byte) (Event, bool) {
	text := strings.TrimSpace(string(line))
	if text == "" {
		return Event{}, false
	}
	if !strings.HasPrefix(text, Prefix) {
		r.logger.Debug("skipping unprefixed stream line", "line", text)
		return Event{}, false
	}

	var ev Event
	if err := json.Unmarshal([]byte(strings.TrimPrefix(text, Prefix)), &ev); err != nil {
		r.logger.WithError(err).Warn("skipping malformed stream frame")
		return Event{}, false
	}
	return ev, true
}

// errorFrame converts a received error frame into a caller-facing error.
func (r *Reader) errorFrame(ev Event) error {
	msg := ev.Message
	if msg == "" {
		msg = "generation failed"
	}
	if ev.Phase != "" {
		msg = fmt.Sprintf("%s (phase %s)", msg, ev.Phase)
	}

	code := errors.ErrorCode(ev.Code)
	if code == "" {
		code = errors.ErrCodeBackendAPI
	}
	return errors.New(code, msg)
}
