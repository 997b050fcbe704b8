package ui

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"crawlwatch/internal/tracker"
)

// plainModel drives the same tracker as the TUI but prints lines instead of rendering.
type plainModel struct {
	tracker tracker.Model
	out     io.Writer
	initCmd tea.Cmd
	last    tracker.Display
}

func newPlainModel(t tracker.Model, handle string, maxSeconds int, out io.Writer) plainModel {
	var cmd tea.Cmd
	t, cmd = t.Track(handle, maxSeconds)
	if cmd == nil {
		// Nothing to track.
		cmd = tea.Quit
	}
	return plainModel{tracker: t, out: out, initCmd: cmd, last: t.Display()}
}

func (m plainModel) Init() tea.Cmd {
	return m.initCmd
}

func (m plainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if done, ok := msg.(tracker.DoneMsg); ok {
		if done.ID != m.tracker.SessionID() {
			return m, nil
		}
		m.printDone(m.tracker.Display())
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.tracker, cmd = m.tracker.Update(msg)
	d := m.tracker.Display()
	if _, ok := msg.(tracker.StatusMsg); ok && d.HasRecord && !d.IsDone {
		if !m.last.HasRecord || d.Record != m.last.Record {
			m.printProgress(d)
		}
	}
	m.last = d
	return m, cmd
}

func (m plainModel) View() string {
	return ""
}

func (m plainModel) printProgress(d tracker.Display) {
	fmt.Fprintf(m.out, "%s  distance=%d pages=%d elapsed=%s remaining=%s\n",
		d.Handle, d.Record.Distance, d.Record.NumPages, d.ElapsedText(), d.RemainingText())
}

func (m plainModel) printDone(d tracker.Display) {
	fmt.Fprintf(m.out, "%s  done: %s after %s (distance=%d pages=%d)\n",
		d.Handle, d.StopReasonText, d.ElapsedText(), d.Record.Distance, d.Record.NumPages)
	if d.ErrorMessage != "" {
		fmt.Fprintf(m.out, "%s  %s\n", d.Handle, d.ErrorMessage)
	}
}
