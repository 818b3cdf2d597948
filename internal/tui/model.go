// Package tui renders a live generation run with bubbletea: a spinner over
// the current phase and the projected timeline below it.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/appforge/internal/projection"
	"github.com/felixgeelhaar/appforge/internal/stream"
)

// EventMsg delivers one progress event into the model.
type EventMsg stream.Event

// DoneMsg ends the run, with either a result or an error.
type DoneMsg struct {
	Result *stream.GenerationResult
	Err    error
}

// Styles contains lipgloss styles for the TUI
type Styles struct {
	Title     lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Muted     lipgloss.Style
	Highlight lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")). // Purple
			MarginBottom(1),
		Status: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")), // Cyan
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Highlight: lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")), // Pink
	}
}

// Model is the live-run TUI state.
type Model struct {
	projectName string
	timeline    *projection.Timeline
	spinner     spinner.Model
	startTime   time.Time

	currentPhase string
	done         bool
	quitting     bool
	result       *stream.GenerationResult
	err          error

	styles Styles
}

// NewModel creates the live-run model for one project.
func NewModel(projectName string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

	return Model{
		projectName: projectName,
		timeline:    projection.NewTimeline(),
		spinner:     sp,
		startTime:   time.Now(),
		styles:      DefaultStyles(),
	}
}

// Result returns the final result once the run finished.
func (m Model) Result() *stream.GenerationResult {
	return m.result
}

// Err returns the run error, if any.
func (m Model) Err() error {
	return m.err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case EventMsg:
		ev := stream.Event(msg)
		m.timeline.Apply(ev)
		if ev.Type == stream.EventPhaseStart {
			m.currentPhase = ev.Phase
		}
		return m, nil

	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		if msg.Err != nil {
			m.timeline.Fail(msg.Err.Error())
		}
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b []byte

	b = append(b, m.styles.Title.Render("appforge · "+m.projectName)...)
	b = append(b, '\n')

	for _, rec := range m.timeline.Records() {
		var line string
		switch rec.Status {
		case projection.StatusCompleted:
			line = m.styles.Success.Render("✓ ") + rec.Phase
		case projection.StatusError:
			line = m.styles.Error.Render("✗ ") + rec.Phase
			if rec.Message != "" {
				line += m.styles.Muted.Render("  " + rec.Message)
			}
		case projection.StatusRunning:
			line = m.styles.Status.Render("… ") + rec.Phase
		default:
			line = m.styles.Muted.Render("· " + rec.Phase)
		}
		b = append(b, line...)
		b = append(b, '\n')
	}

	switch {
	case m.quitting:
		b = append(b, m.styles.Muted.Render("aborted")...)
		b = append(b, '\n')
	case m.done && m.err == nil:
		b = append(b, m.styles.Success.Render("done")...)
		b = append(b, ' ')
		b = append(b, m.styles.Muted.Render(time.Since(m.startTime).Round(time.Second).String())...)
		b = append(b, '\n')
	case !m.done:
		b = append(b, m.spinner.View()...)
		b = append(b, m.styles.Highlight.Render(m.currentPhase)...)
		b = append(b, '\n')
	}

	return string(b)
}
