package tracker

import (
	"math"

	"crawlwatch/internal/model"
	"crawlwatch/internal/util/format"
)

// Display is everything a renderer needs. It carries no behavior.
type Display struct {
	Phase  Phase
	Handle string

	Record    model.StatusRecord
	HasRecord bool

	ElapsedSeconds   float64
	RemainingSeconds float64
	ProgressFraction float64
	MaxSeconds       int

	IsDone         bool
	StopReason     model.StopReason
	StopReasonText string
	ErrorMessage   string
	NotifyError    string
}

// Present derives a Display from s. A nil session renders as idle.
func Present(s *Session) Display {
	if s == nil {
		return Display{Phase: PhaseIdle, StopReasonText: StopReasonText(model.ReasonNone)}
	}

	d := Display{
		Phase:        PhaseRunning,
		Handle:       s.Handle,
		Record:       s.Record,
		HasRecord:    s.Received,
		MaxSeconds:   s.MaxSeconds,
		ErrorMessage: s.Record.ErrorMessage,
		NotifyError:  s.NotifyErr,
	}
	elapsed := s.Elapsed
	if s.Outcome != nil {
		d.Phase = PhaseTerminal
		d.IsDone = true
		d.StopReason = s.Outcome.Reason
		elapsed = s.Outcome.FinalElapsed
	}
	d.StopReasonText = StopReasonText(d.StopReason)

	budget := float64(s.MaxSeconds)
	d.ElapsedSeconds = elapsed
	d.RemainingSeconds = max(0, budget-elapsed)
	d.ProgressFraction = Fraction(elapsed, s.MaxSeconds)
	return d
}

// Fraction returns elapsed/max(1, budget) clamped to [0, 1].
func Fraction(elapsed float64, budget int) float64 {
	f := elapsed / float64(max(1, budget))
	switch {
	case f < 0 || math.IsNaN(f):
		return 0
	case f > 1:
		return 1
	}
	return f
}

// StopReasonText maps a stop reason to display text. Unknown server labels are shown as-is.
func StopReasonText(r model.StopReason) string {
	switch r {
	case model.ReasonNone:
		return format.Placeholder
	case model.ReasonTimeout:
		return "timed out"
	case model.ReasonUserInitiated:
		return "stopped by user"
	case model.ReasonError:
		return "error"
	case model.ReasonCompleted:
		return "completed"
	default:
		return string(r)
	}
}

// ElapsedText renders elapsed seconds rounded down.
func (d Display) ElapsedText() string {
	return format.FloorSeconds(d.ElapsedSeconds)
}

// RemainingText renders remaining seconds rounded up.
func (d Display) RemainingText() string {
	return format.CeilSeconds(d.RemainingSeconds)
}
