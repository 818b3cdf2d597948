package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/appforge/internal/stream"
)

// Generate runs one generation function under the live view. The function
// receives an emit callback wired into the TUI; its completion ends the
// program. Quitting the view cancels the run through the context.
func Generate(ctx context.Context, projectName string,
	generate func(ctx context.Context, emit func(stream.Event)) (*stream.GenerationResult, error),
) (*stream.GenerationResult, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(projectName), tea.WithContext(runCtx))

	go func() {
		result, err := generate(runCtx, func(ev stream.Event) {
			p.Send(EventMsg(ev))
		})
		p.Send(DoneMsg{Result: result, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}

	m := final.(Model)
	if m.Err() != nil {
		return nil, m.Err()
	}
	if m.Result() == nil {
		// The view was quit before the run finished.
		return nil, context.Canceled
	}
	return m.Result(), nil
}
