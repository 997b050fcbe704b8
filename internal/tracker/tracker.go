//go:generate mockgen -destination=../../mocks/mock_tracker.go -package=mocks crawlwatch/internal/tracker Fetcher,Notifier

// Package tracker observes a server-side crawl job by polling its status.
//
// Model is a Bubble Tea component. Every tick, poll trigger, fetch result and
// user action goes through Update (or Track/Stop/Clear), which is the only
// writer of session state. Timers and in-flight fetches cannot be cancelled
// once dispatched, so every message carries the ID of the session that
// scheduled it and Update drops anything that does not belong to the live,
// still-running session.
package tracker

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"crawlwatch/internal/model"
)

const (
	DefaultTickInterval = 100 * time.Millisecond
	DefaultPollInterval = 2 * time.Second
)

// Fetcher retrieves the latest server-known status of a job.
// It returns an error wrapping model.ErrJobNotFound when the server no longer knows the job.
type Fetcher interface {
	FetchStatus(ctx context.Context, id string) (model.StatusRecord, error)
}

// Notifier tells the backend that the user asked to stop a job.
type Notifier interface {
	StopCrawl(ctx context.Context, id string) error
}

// Scheduler returns a command that yields msg after d.
type Scheduler func(d time.Duration, msg tea.Msg) tea.Cmd

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// TickMsg drives the local elapsed-time estimate.
type TickMsg struct {
	ID int
}

// PollMsg triggers the next status fetch.
type PollMsg struct {
	ID int
}

// StatusMsg is the outcome of one status fetch, tagged with the session and
// job it was issued for.
type StatusMsg struct {
	ID     int
	Handle string
	Record model.StatusRecord
	Err    error
}

// DoneMsg is emitted once per session, when it becomes terminal.
type DoneMsg struct {
	ID     int
	Handle string
	Reason model.StopReason
}

// StopNotifiedMsg reports the result of notifying the backend about a user stop.
type StopNotifiedMsg struct {
	ID     int
	Handle string
	Err    error
}

// Model tracks at most one job at a time.
type Model struct {
	fetcher  Fetcher
	notifier Notifier
	clock    Clock
	after    Scheduler
	logger   *log.Logger
	parent   context.Context

	tickInterval time.Duration
	pollInterval time.Duration

	session *Session
}

// Option configures a Model.
type Option func(*Model)

// WithNotifier sets the callback used when the user stops the job.
func WithNotifier(n Notifier) Option {
	return func(m *Model) {
		m.notifier = n
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(m *Model) {
		m.clock = c
	}
}

// WithScheduler replaces tea.Tick as the timer source.
func WithScheduler(s Scheduler) Option {
	return func(m *Model) {
		m.after = s
	}
}

// WithLogger sets the debug logger. Nothing is logged by default.
func WithLogger(l *log.Logger) Option {
	return func(m *Model) {
		m.logger = l
	}
}

// WithContext sets the parent context for fetches and stop notifications.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.parent = ctx
	}
}

// WithTickInterval sets how often the elapsed estimate is refreshed.
func WithTickInterval(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.tickInterval = d
		}
	}
}

// WithPollInterval sets how often the status endpoint is polled.
func WithPollInterval(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

// New returns an idle tracker that fetches through f.
func New(f Fetcher, opts ...Option) Model {
	m := Model{
		fetcher:      f,
		tickInterval: DefaultTickInterval,
		pollInterval: DefaultPollInterval,
	}
	for _, o := range opts {
		o(&m)
	}
	if m.clock == nil {
		m.clock = systemClock{}
	}
	if m.after == nil {
		m.after = func(d time.Duration, msg tea.Msg) tea.Cmd {
			return tea.Tick(d, func(time.Time) tea.Msg { return msg })
		}
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard, "", 0)
	}
	if m.parent == nil {
		m.parent = context.Background()
	}
	return m
}

// Phase reports the current state.
func (m Model) Phase() Phase {
	switch {
	case m.session == nil:
		return PhaseIdle
	case m.session.Running():
		return PhaseRunning
	default:
		return PhaseTerminal
	}
}

// Handle returns the tracked job id, or "" when idle.
func (m Model) Handle() string {
	if m.session == nil {
		return ""
	}
	return m.session.Handle
}

// SessionID returns the live session's ID, or 0 when idle.
func (m Model) SessionID() int {
	if m.session == nil {
		return 0
	}
	return m.session.ID
}

// Notifies reports whether Stop will tell the backend.
func (m Model) Notifies() bool {
	return m.notifier != nil
}

// Display derives the render model from the current state.
func (m Model) Display() Display {
	return Present(m.session)
}

// Track starts observing handle with a budget of maxSeconds, replacing any
// previous session. Supplying the handle already tracked is a no-op; an empty
// handle returns the tracker to idle.
func (m Model) Track(handle string, maxSeconds int) (Model, tea.Cmd) {
	handle = strings.TrimSpace(handle)
	if handle != "" && m.session != nil && m.session.Handle == handle {
		return m, nil
	}
	m = m.Clear()
	if handle == "" {
		return m, nil
	}
	if maxSeconds < 1 {
		maxSeconds = model.DefaultMaxSeconds
	}

	ctx, cancel := context.WithCancel(m.parent)
	s := &Session{
		ID:         nextID(),
		Handle:     handle,
		MaxSeconds: maxSeconds,
		StartedAt:  m.clock.Now(),
		ctx:        ctx,
		cancel:     cancel,
	}
	m.session = s
	m.logger.Printf("session %d: tracking %q (budget %ds)", s.ID, handle, maxSeconds)

	return m, tea.Batch(
		m.fetchCmd(s),
		m.after(m.tickInterval, TickMsg{ID: s.ID}),
		m.after(m.pollInterval, PollMsg{ID: s.ID}),
	)
}

// Clear tears down the current session, if any, and returns to idle.
func (m Model) Clear() Model {
	if m.session != nil {
		m.logger.Printf("session %d: released", m.session.ID)
		m.session.release()
		m.session = nil
	}
	return m
}

// Stop ends the running session with reason userInitiated and notifies the
// backend asynchronously. It does nothing unless a session is running.
func (m Model) Stop() (Model, tea.Cmd) {
	s := m.session
	if !s.Running() {
		return m, nil
	}
	done := m.commit(s, model.ReasonUserInitiated, m.clock.Now())
	return m, tea.Batch(done, m.notifyCmd(s))
}

// Update handles tracker messages; anything else is ignored.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		s := m.live(msg.ID)
		if s == nil {
			return m, nil
		}
		now := m.clock.Now()
		s.Elapsed = s.estimate(now)
		if s.Elapsed >= float64(s.MaxSeconds) {
			return m, m.commit(s, model.ReasonTimeout, now)
		}
		return m, m.after(m.tickInterval, TickMsg{ID: s.ID})

	case PollMsg:
		s := m.live(msg.ID)
		if s == nil {
			return m, nil
		}
		return m, tea.Batch(
			m.fetchCmd(s),
			m.after(m.pollInterval, PollMsg{ID: s.ID}),
		)

	case StatusMsg:
		s := m.live(msg.ID)
		if s == nil || s.Handle != msg.Handle {
			m.logger.Printf("session %d: dropped late status for %q", msg.ID, msg.Handle)
			return m, nil
		}
		return m, m.reconcile(s, msg)

	case StopNotifiedMsg:
		s := m.session
		if s == nil || s.ID != msg.ID {
			return m, nil
		}
		if msg.Err != nil {
			m.logger.Printf("session %d: stop notification failed: %v", s.ID, msg.Err)
			s.NotifyErr = msg.Err.Error()
		}
	}
	return m, nil
}

// live returns the session addressed by id if it is current and running.
func (m Model) live(id int) *Session {
	s := m.session
	if s == nil || s.ID != id || !s.Running() {
		return nil
	}
	return s
}

// reconcile merges one fetch outcome. A server stop reason outranks the local
// budget check made in the same evaluation.
func (m Model) reconcile(s *Session, msg StatusMsg) tea.Cmd {
	now := m.clock.Now()
	switch {
	case msg.Err == nil && msg.Record.Terminal():
		s.merge(msg.Record)
		return m.commit(s, msg.Record.StopReason, now)

	case errors.Is(msg.Err, model.ErrJobNotFound):
		s.Record.ErrorMessage = ""
		return m.commit(s, model.ReasonTimeout, now)

	case msg.Err != nil:
		s.Record.ErrorMessage = "Failed to fetch status: " + msg.Err.Error()
		return m.commit(s, model.ReasonError, now)
	}

	s.merge(msg.Record)
	if s.estimate(now) >= float64(s.MaxSeconds) {
		return m.commit(s, model.ReasonTimeout, now)
	}
	return nil
}

// commit moves s to Terminal. Callers guarantee s is running, so it happens once.
func (m Model) commit(s *Session, reason model.StopReason, now time.Time) tea.Cmd {
	final := s.estimate(now)
	s.Outcome = &Outcome{Reason: reason, FinalElapsed: final, At: now}
	s.Elapsed = final
	s.Record.StopReason = reason
	s.release()
	m.logger.Printf("session %d: terminal %q after %.1fs", s.ID, reason, final)

	id, handle := s.ID, s.Handle
	return func() tea.Msg {
		return DoneMsg{ID: id, Handle: handle, Reason: reason}
	}
}

func (m Model) fetchCmd(s *Session) tea.Cmd {
	f, ctx, id, handle := m.fetcher, s.ctx, s.ID, s.Handle
	return func() tea.Msg {
		rec, err := f.FetchStatus(ctx, handle)
		return StatusMsg{ID: id, Handle: handle, Record: rec, Err: err}
	}
}

func (m Model) notifyCmd(s *Session) tea.Cmd {
	if m.notifier == nil {
		return nil
	}
	n, ctx, id, handle := m.notifier, m.parent, s.ID, s.Handle
	return func() tea.Msg {
		return StopNotifiedMsg{ID: id, Handle: handle, Err: n.StopCrawl(ctx, handle)}
	}
}
