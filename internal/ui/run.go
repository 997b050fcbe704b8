package ui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"crawlwatch/internal/tracker"
)

// Run launches the TUI and blocks until the user quits (or, with ExitOnDone,
// until the job is terminal). It returns the last display state.
func Run(ctx context.Context, t tracker.Model, cfg Config) (tracker.Display, error) {
	m := NewModel(t, cfg)
	prog := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := prog.Run()
	if fm, ok := final.(Model); ok {
		return fm.Display(), err
	}
	return tracker.Display{}, err
}

// RunPlain tracks handle without a terminal UI, writing one line per status
// change to out, and returns once the job is terminal.
func RunPlain(ctx context.Context, t tracker.Model, handle string, maxSeconds int, out io.Writer) (tracker.Display, error) {
	pm := newPlainModel(t, handle, maxSeconds, out)
	prog := tea.NewProgram(pm,
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(out),
		tea.WithoutRenderer(),
	)
	final, err := prog.Run()
	if fm, ok := final.(plainModel); ok {
		return fm.tracker.Display(), err
	}
	return tracker.Display{}, err
}
