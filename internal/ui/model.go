package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"crawlwatch/internal/model"
	"crawlwatch/internal/tracker"
)

// Config selects the job the TUI starts with.
type Config struct {
	Handle     string
	MaxSeconds int
	ExitOnDone bool // quit as soon as the tracked job is terminal
}

type Model struct {
	tracker    tracker.Model
	maxSeconds int
	exitOnDone bool
	initCmd    tea.Cmd

	// Session IDs of a user stop waiting on, or already past, the backend notification.
	stopPending  int
	stopNotified int

	// UI
	keys      keyMap
	help      help.Model
	spinner   spinner.Model
	bar       bubblesprogress.Model
	prompt    textinput.Model
	prompting bool
	width     int
	styles    Styles
}

func NewModel(t tracker.Model, cfg Config) Model {
	sty := defaultStyles()

	sp := spinner.New()
	sp.Style = sty.Spinner

	ti := textinput.New()
	ti.Placeholder = "crawl id (empty to stop tracking)"
	ti.Prompt = "Job id: "
	ti.PromptStyle = sty.Prompt
	ti.CharLimit = 128

	var cmd tea.Cmd
	t, cmd = t.Track(cfg.Handle, cfg.MaxSeconds)

	return Model{
		tracker:    t,
		maxSeconds: cfg.MaxSeconds,
		exitOnDone: cfg.ExitOnDone,
		initCmd:    cmd,
		keys:       defaultKeys(),
		help:       help.New(),
		spinner:    sp,
		bar:        bubblesprogress.New(bubblesprogress.WithDefaultGradient(), bubblesprogress.WithWidth(40)),
		prompt:     ti,
		styles:     sty,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.initCmd)
}

// Display exposes the tracker's current render model.
func (m Model) Display() tracker.Display {
	return m.tracker.Display()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.prompting {
			return m.updatePrompt(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Stop):
			var cmd tea.Cmd
			m.tracker, cmd = m.tracker.Stop()
			return m, cmd
		case key.Matches(msg, m.keys.New):
			m.prompting = true
			m.prompt.Reset()
			return m, m.prompt.Focus()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.bar.Width = clampInt(msg.Width-12, 10, 60)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tracker.DoneMsg:
		if !m.exitOnDone || msg.ID != m.tracker.SessionID() {
			return m, nil
		}
		// Quitting now would drop the in-flight stop request.
		if msg.Reason == model.ReasonUserInitiated && m.tracker.Notifies() && m.stopNotified != msg.ID {
			m.stopPending = msg.ID
			return m, nil
		}
		return m, tea.Quit

	case tracker.StopNotifiedMsg:
		var cmd tea.Cmd
		m.tracker, cmd = m.tracker.Update(msg)
		m.stopNotified = msg.ID
		if m.stopPending != 0 && m.stopPending == msg.ID {
			m.stopPending = 0
			return m, tea.Quit
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.tracker, cmd = m.tracker.Update(msg)
	return m, cmd
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Esc):
		m.prompting = false
		m.prompt.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		m.prompting = false
		m.prompt.Blur()
		var cmd tea.Cmd
		m.tracker, cmd = m.tracker.Track(m.prompt.Value(), m.maxSeconds)
		return m, cmd
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
