package ui

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"crawlwatch/internal/model"
	"crawlwatch/internal/tracker"
)

type stubFetcher struct {
	rec model.StatusRecord
	err error
}

func (f stubFetcher) FetchStatus(context.Context, string) (model.StatusRecord, error) {
	return f.rec, f.err
}

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

func newTestTracker(f tracker.Fetcher, clock *stubClock) tracker.Model {
	return tracker.New(f,
		tracker.WithClock(clock),
		tracker.WithScheduler(func(_ time.Duration, msg tea.Msg) tea.Cmd {
			return func() tea.Msg { return msg }
		}),
	)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want ui.Model", next)
	}
	return nm, cmd
}

func TestViewShowsStatusGrid(t *testing.T) {
	clock := &stubClock{now: time.Unix(1700000000, 0)}
	m := NewModel(newTestTracker(stubFetcher{}, clock), Config{Handle: "job-a", MaxSeconds: 60})

	m, _ = update(t, m, tracker.StatusMsg{
		ID:     m.tracker.SessionID(),
		Handle: "job-a",
		Record: model.StatusRecord{Distance: 3, NumPages: 40},
	})

	view := m.View()
	for _, want := range []string{"Crawl Status (ID: job-a)", "Distance:", "3", "Pages visited:", "40", "Remaining:", "60s", "Stop reason:", "—"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "✓") {
		t.Errorf("running view shows done mark:\n%s", view)
	}
}

func TestStopKeyEndsSession(t *testing.T) {
	clock := &stubClock{now: time.Unix(1700000000, 0)}
	m := NewModel(newTestTracker(stubFetcher{}, clock), Config{Handle: "job-a", MaxSeconds: 60})

	clock.now = clock.now.Add(7 * time.Second)
	m, cmd := update(t, m, keyRunes("s"))
	if cmd == nil {
		t.Fatal("stop produced no command")
	}

	d := m.Display()
	if d.StopReason != model.ReasonUserInitiated || d.ElapsedSeconds != 7 {
		t.Errorf("reason/elapsed = %q/%v, want userInitiated/7", d.StopReason, d.ElapsedSeconds)
	}
	view := m.View()
	if !strings.Contains(view, "✓") || !strings.Contains(view, "stopped by user") {
		t.Errorf("view does not show the stop:\n%s", view)
	}
}

func TestPromptSwitchesJob(t *testing.T) {
	clock := &stubClock{now: time.Unix(1700000000, 0)}
	m := NewModel(newTestTracker(stubFetcher{}, clock), Config{Handle: "job-a", MaxSeconds: 30})
	first := m.tracker.SessionID()

	m, _ = update(t, m, keyRunes("n"))
	if !m.prompting {
		t.Fatal("n did not open the prompt")
	}
	// Keys go to the prompt, not the tracker, while it is open.
	for _, r := range "job-bs" {
		m, _ = update(t, m, keyRunes(string(r)))
	}
	if m.Display().IsDone {
		t.Fatal("typing into the prompt stopped the crawl")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	d := m.Display()
	if d.Handle != "job-b" || d.MaxSeconds != 30 || m.tracker.SessionID() == first {
		t.Errorf("handle/budget/session = %q/%d/%d, want job-b/30/new", d.Handle, d.MaxSeconds, m.tracker.SessionID())
	}

	m, _ = update(t, m, keyRunes("n"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Display().Phase != tracker.PhaseIdle {
		t.Errorf("empty id should return to idle, got %v", m.Display().Phase)
	}
	if !strings.Contains(m.View(), "No crawl tracked") {
		t.Errorf("idle view:\n%s", m.View())
	}
}

func TestPromptEscapeKeepsJob(t *testing.T) {
	clock := &stubClock{now: time.Unix(1700000000, 0)}
	m := NewModel(newTestTracker(stubFetcher{}, clock), Config{Handle: "job-a", MaxSeconds: 60})

	m, _ = update(t, m, keyRunes("n"))
	m, _ = update(t, m, keyRunes("x"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	if m.prompting || m.Display().Handle != "job-a" {
		t.Errorf("prompting/handle = %v/%q, want false/job-a", m.prompting, m.Display().Handle)
	}
}

func TestExitOnDone(t *testing.T) {
	tests := []struct {
		name       string
		exitOnDone bool
		staleID    bool
		wantQuit   bool
	}{
		{name: "quits for current session", exitOnDone: true, wantQuit: true},
		{name: "ignores stale session", exitOnDone: true, staleID: true},
		{name: "keeps running when disabled", exitOnDone: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &stubClock{now: time.Unix(1700000000, 0)}
			m := NewModel(newTestTracker(stubFetcher{}, clock), Config{Handle: "job-a", MaxSeconds: 60, ExitOnDone: tt.exitOnDone})

			id := m.tracker.SessionID()
			if tt.staleID {
				id--
			}
			_, cmd := update(t, m, tracker.DoneMsg{ID: id, Handle: "job-a", Reason: model.ReasonCompleted})

			gotQuit := false
			if cmd != nil {
				_, gotQuit = cmd().(tea.QuitMsg)
			}
			if gotQuit != tt.wantQuit {
				t.Errorf("quit = %v, want %v", gotQuit, tt.wantQuit)
			}
		})
	}
}

func TestPlainModelPrintsProgressAndOutcome(t *testing.T) {
	clock := &stubClock{now: time.Unix(1700000000, 0)}
	var out bytes.Buffer
	pm := newPlainModel(newTestTracker(stubFetcher{}, clock), "job-a", 60, &out)
	id := pm.tracker.SessionID()

	step := func(msg tea.Msg) tea.Cmd {
		next, cmd := pm.Update(msg)
		pm = next.(plainModel)
		return cmd
	}

	rec := model.StatusRecord{Distance: 1, NumPages: 5}
	step(tracker.StatusMsg{ID: id, Handle: "job-a", Record: rec})
	step(tracker.StatusMsg{ID: id, Handle: "job-a", Record: rec}) // unchanged, not printed

	clock.now = clock.now.Add(4 * time.Second)
	doneCmd := step(tracker.StatusMsg{ID: id, Handle: "job-a", Err: model.ErrJobNotFound})
	if doneCmd == nil {
		t.Fatal("terminal status produced no command")
	}
	quit := step(doneCmd())
	if quit == nil {
		t.Fatal("DoneMsg did not quit")
	}
	if _, ok := quit().(tea.QuitMsg); !ok {
		t.Fatal("DoneMsg did not quit")
	}

	want := "job-a  distance=1 pages=5 elapsed=0s remaining=60s\n" +
		"job-a  done: timed out after 4s (distance=1 pages=5)\n"
	if out.String() != want {
		t.Errorf("output:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestPlainModelWithoutHandleQuits(t *testing.T) {
	pm := newPlainModel(newTestTracker(stubFetcher{}, &stubClock{}), "", 60, &bytes.Buffer{})
	if _, ok := pm.Init()().(tea.QuitMsg); !ok {
		t.Error("plain mode without a handle should quit immediately")
	}
}

type slowNotifier struct {
	delay time.Duration
	done  atomic.Bool
}

func (n *slowNotifier) StopCrawl(context.Context, string) error {
	time.Sleep(n.delay)
	n.done.Store(true)
	return nil
}

// collect runs cmd, flattening batches.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestExitOnDoneWaitsForStopNotification(t *testing.T) {
	tests := []struct {
		name         string
		notifiedLast bool
	}{
		{name: "notification after done", notifiedLast: true},
		{name: "notification before done", notifiedLast: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &stubClock{now: time.Unix(1700000000, 0)}
			tr := tracker.New(stubFetcher{},
				tracker.WithClock(clock),
				tracker.WithNotifier(&slowNotifier{}),
				tracker.WithScheduler(func(_ time.Duration, msg tea.Msg) tea.Cmd {
					return func() tea.Msg { return msg }
				}),
			)
			m := NewModel(tr, Config{Handle: "job-a", MaxSeconds: 60, ExitOnDone: true})

			m, cmd := update(t, m, keyRunes("s"))
			var done, notified tea.Msg
			for _, msg := range collect(cmd) {
				switch msg.(type) {
				case tracker.DoneMsg:
					done = msg
				case tracker.StopNotifiedMsg:
					notified = msg
				}
			}
			if done == nil || notified == nil {
				t.Fatalf("stop produced done=%v notified=%v", done, notified)
			}

			first, second := done, notified
			if !tt.notifiedLast {
				first, second = notified, done
			}
			m, cmd = update(t, m, first)
			if isQuit(cmd) {
				t.Fatalf("quit on %T before both messages arrived", first)
			}
			_, cmd = update(t, m, second)
			if !isQuit(cmd) {
				t.Fatalf("did not quit after %T", second)
			}
		})
	}
}

func TestProgramDeliversStopBeforeExit(t *testing.T) {
	notifier := &slowNotifier{delay: 50 * time.Millisecond}
	tr := tracker.New(stubFetcher{}, tracker.WithNotifier(notifier))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	prog := tea.NewProgram(NewModel(tr, Config{Handle: "job-a", MaxSeconds: 60, ExitOnDone: true}),
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
	)
	go prog.Send(keyRunes("s"))

	final, err := prog.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := final.(Model).Display().StopReason; got != model.ReasonUserInitiated {
		t.Errorf("StopReason = %q, want userInitiated", got)
	}
	if !notifier.done.Load() {
		t.Error("program exited before the backend was told to stop")
	}
}
