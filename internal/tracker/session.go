package tracker

import (
	"context"
	"time"

	"crawlwatch/internal/model"
)

// Phase is the coarse state of the tracker.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseTerminal
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseTerminal:
		return "terminal"
	default:
		return "idle"
	}
}

// Outcome is set exactly once, when a session becomes terminal.
type Outcome struct {
	Reason       model.StopReason
	FinalElapsed float64 // seconds
	At           time.Time
}

// Session is the working state for one tracked job. A nil *Session means Idle,
// a session without an Outcome is Running, and one with an Outcome is Terminal.
type Session struct {
	ID         int
	Handle     string
	MaxSeconds int
	StartedAt  time.Time

	Record   model.StatusRecord
	Received bool    // at least one status body arrived
	Elapsed  float64 // last ticker estimate, seconds

	Outcome   *Outcome
	NotifyErr string // failure reported by the stop notifier, if any

	ctx    context.Context
	cancel context.CancelFunc
}

// Running reports whether the session still accepts input.
func (s *Session) Running() bool {
	return s != nil && s.Outcome == nil
}

// estimate returns now - start clamped to [0, MaxSeconds].
func (s *Session) estimate(now time.Time) float64 {
	sec := now.Sub(s.StartedAt).Seconds()
	if sec < 0 {
		return 0
	}
	if limit := float64(s.MaxSeconds); sec > limit {
		return limit
	}
	return sec
}

// merge applies a server record. Counters are last-write-wins; timestamps only
// overwrite when present; error text follows the newest record.
func (s *Session) merge(r model.StatusRecord) {
	s.Record.Distance = r.Distance
	s.Record.NumPages = r.NumPages
	if r.StartTimeMillis > 0 {
		s.Record.StartTimeMillis = r.StartTimeMillis
	}
	if r.LastModifiedMillis > 0 {
		s.Record.LastModifiedMillis = r.LastModifiedMillis
	}
	if r.MaxTimeMillis > 0 {
		s.Record.MaxTimeMillis = r.MaxTimeMillis
	}
	s.Record.ErrorMessage = r.ErrorMessage
	s.Received = true
}

func (s *Session) release() {
	if s.cancel != nil {
		s.cancel()
	}
}
