// Package ux renders run progress and results for the terminal.
package ux

import (
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/appforge/internal/errors"
	"github.com/felixgeelhaar/appforge/internal/projection"
	"github.com/felixgeelhaar/appforge/internal/stream"
)

var (
	styleRunning   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	styleCompleted = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleError     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleMuted     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleHeading   = lipgloss.NewStyle().Bold(true)
	styleFilename  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// Renderer writes styled progress and summaries to one writer.
type Renderer struct {
	w       io.Writer
	noColor bool
}

// NewRenderer creates a renderer. With noColor set, all styling is dropped.
func NewRenderer(w io.Writer, noColor bool) *Renderer {
	return &Renderer{w: w, noColor: noColor}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if r.noColor {
		return text
	}
	return s.Render(text)
}

func glyph(status projection.Status) string {
	switch status {
	case projection.StatusRunning:
		return "…"
	case projection.StatusCompleted:
		return "✓"
	case projection.StatusError:
		return "✗"
	default:
		return "·"
	}
}

// Event prints one progress line as it arrives.
func (r *Renderer) Event(ev stream.Event) {
	var line string
	switch ev.Type {
	case stream.EventPhaseStart:
		line = r.style(styleRunning, fmt.Sprintf("… %s", ev.Phase))
		if ev.Message != "" {
			line += " " + r.style(styleMuted, ev.Message)
		}
	case stream.EventPhaseProgress:
		if ev.Progress != nil {
			line = r.style(styleMuted, fmt.Sprintf("  %s %d%%", ev.Phase, *ev.Progress))
		} else {
			line = r.style(styleMuted, "  "+ev.Phase)
		}
	case stream.EventPhaseComplete:
		line = r.style(styleCompleted, fmt.Sprintf("✓ %s", ev.Phase))
		if ev.Message != "" {
			line += " " + r.style(styleMuted, ev.Message)
		}
	default:
		return
	}
	fmt.Fprintln(r.w, line)
}

// Timeline prints the full projected timeline, one line per record.
func (r *Renderer) Timeline(tl *projection.Timeline) {
	for _, rec := range tl.Records() {
		var style lipgloss.Style
		switch rec.Status {
		case projection.StatusCompleted:
			style = styleCompleted
		case projection.StatusError:
			style = styleError
		case projection.StatusRunning:
			style = styleRunning
		default:
			style = styleMuted
		}

		line := fmt.Sprintf("%s %s", glyph(rec.Status), rec.Phase)
		if rec.Message != "" {
			line += "  " + rec.Message
		}
		fmt.Fprintln(r.w, r.style(style, line))
	}
}

// Summary prints the final result: project identity and the generated
// files, flagging low-confidence extractions.
func (r *Renderer) Summary(result *stream.GenerationResult) {
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, r.style(styleHeading, fmt.Sprintf("Generated %d files (project %s)", len(result.Phases), result.ProjectID)))

	taskIDs := make([]string, 0, len(result.Phases))
	for id := range result.Phases {
		taskIDs = append(taskIDs, id)
	}
	sort.Strings(taskIDs)

	for _, id := range taskIDs {
		artifact := result.Phases[id]
		line := fmt.Sprintf("  %s  %s", r.style(styleFilename, artifact.Filename), r.style(styleMuted, id))
		if artifact.LowConfidence {
			line += " " + r.style(styleError, "(low confidence)")
		}
		fmt.Fprintln(r.w, line)
	}
}

// Error prints a failure with its code and suggestions.
func (r *Renderer) Error(err error) {
	var fe *errors.ForgeError
	if stderrors.As(err, &fe) {
		fmt.Fprintln(r.w, r.style(styleError, fmt.Sprintf("✗ [%s] %s", fe.Code, fe.Message)))
		for _, s := range fe.Suggestions {
			fmt.Fprintln(r.w, r.style(styleMuted, "  → "+s))
		}
		if fe.DocsURL != "" {
			fmt.Fprintln(r.w, r.style(styleMuted, "  docs: "+fe.DocsURL))
		}
		return
	}
	fmt.Fprintln(r.w, r.style(styleError, "✗ "+err.Error()))
}

// WriteSources dumps each artifact's source with a filename header,
// separated by blank lines. Used by --print.
func (r *Renderer) WriteSources(result *stream.GenerationResult) {
	taskIDs := make([]string, 0, len(result.Phases))
	for id := range result.Phases {
		taskIDs = append(taskIDs, id)
	}
	sort.Strings(taskIDs)

	for _, id := range taskIDs {
		artifact := result.Phases[id]
		fmt.Fprintln(r.w, r.style(styleHeading, "── "+artifact.Filename+" "+strings.Repeat("─", 40)))
		fmt.Fprintln(r.w, artifact.Source)
		fmt.Fprintln(r.w)
	}
}
