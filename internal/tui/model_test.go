package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/appforge/internal/errors"
	"github.com/felixgeelhaar/appforge/internal/stream"
)

func TestModelAppliesEvents(t *testing.T) {
	m := NewModel("demo")

	next, _ := m.Update(EventMsg(stream.PhaseStart("store:A", "generating")))
	m = next.(Model)
	next, _ = m.Update(EventMsg(stream.PhaseComplete("store:A", "done")))
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "appforge · demo")
	assert.Contains(t, view, "store:A")
}

func TestModelDoneWithResult(t *testing.T) {
	m := NewModel("demo")

	result := &stream.GenerationResult{ProjectID: "p1", Success: true}
	next, cmd := m.Update(DoneMsg{Result: result})
	m = next.(Model)

	require.NotNil(t, cmd, "done must quit the program")
	assert.Equal(t, result, m.Result())
	assert.NoError(t, m.Err())
	assert.Contains(t, m.View(), "done")
}

func TestModelDoneWithError(t *testing.T) {
	m := NewModel("demo")

	next, _ := m.Update(EventMsg(stream.PhaseStart("store:A", "generating")))
	m = next.(Model)

	runErr := errors.NewBackendAuthError("anthropic")
	next, _ = m.Update(DoneMsg{Err: runErr})
	m = next.(Model)

	assert.Equal(t, runErr, m.Err())
	// The failing phase is flipped to an error row.
	assert.Contains(t, m.View(), "✗")
}

func TestModelQuitKeys(t *testing.T) {
	m := NewModel("demo")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)

	m = NewModel("demo")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
}
