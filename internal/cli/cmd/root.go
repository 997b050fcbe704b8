package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"crawlwatch/internal/api"
	"crawlwatch/internal/config"
	"crawlwatch/internal/model"
	"crawlwatch/internal/tracker"
)

const (
	ExitOK             = 0
	ExitCLIError       = 1
	ExitAPIUnreachable = 2
	ExitCrawlFailed    = 3
	ExitCrawlTimedOut  = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

type ctxKey string

const optionsKey ctxKey = "options"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "crawlwatch",
		Short:         "Start, watch and stop crawl jobs",
		Long:          "crawlwatch talks to a crawl backend: it starts crawl jobs, tracks their progress live against a time budget, stops them on request and searches what they indexed.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Init(cmd.Root()); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			opts, err := config.Load()
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			cmd.SetContext(context.WithValue(cmd.Context(), optionsKey, opts))
			return nil
		},
	}

	bindPersistentFlags(root.PersistentFlags())

	root.AddCommand(newWatchCmd())
	root.AddCommand(newCrawlCmd())
	root.AddCommand(newStopCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

func bindPersistentFlags(fs *pflag.FlagSet) {
	fs.String("api-base", config.DefaultAPIBase, "Base URL of the crawl API")
	fs.Duration("poll-interval", config.DefaultPollInterval, "How often the job status is fetched")
	fs.Duration("tick-interval", config.DefaultTickInterval, "How often the elapsed time is re-estimated")
	fs.Int("max-seconds", model.DefaultMaxSeconds, "Time budget per crawl in seconds")
	fs.Duration("request-timeout", config.DefaultRequestTimeout, "Timeout for a single API request")
	fs.BoolP("verbose", "v", false, "Log tracker diagnostics to stderr (plain mode)")
	fs.String("debug-log", "", "Write tracker diagnostics to this file (use --debug-log=FILE; bare flag picks the state dir)")
	fs.Lookup("debug-log").NoOptDefVal = config.AutoLogPath
	fs.Bool("no-ui", false, "Disable TUI; use plain textual output")
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	return root.ExecuteContext(ctx)
}

// Helpers

func optionsFrom(cmd *cobra.Command) model.Options {
	if v, ok := cmd.Context().Value(optionsKey).(model.Options); ok {
		return v
	}
	return model.Options{}
}

func newClient(opts model.Options) (*api.Client, error) {
	c, err := api.New(opts.APIBase, api.WithHTTPClient(&http.Client{Timeout: opts.RequestTimeout}))
	if err != nil {
		return nil, &ExitError{Code: ExitCLIError, Err: err}
	}
	return c, nil
}

// apiExit classifies a failed API call. Transport failures mean the backend is
// unreachable; HTTP errors mean it answered and refused.
func apiExit(what string, err error) error {
	var se *api.StatusError
	switch {
	case errors.Is(err, model.ErrJobNotFound):
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("%s: %w", what, err)}
	case errors.As(err, &se):
		return &ExitError{Code: ExitCrawlFailed, Err: fmt.Errorf("%s: %w", what, err)}
	default:
		return &ExitError{Code: ExitAPIUnreachable, Err: fmt.Errorf("%s: %w", what, err)}
	}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// watchJob tracks handle until it is terminal (plain) or the user quits (TUI).
func watchJob(cmd *cobra.Command, opts model.Options, client *api.Client, handle string, exitOnDone bool) (tracker.Display, error) {
	useTUI := !opts.NoUI && isTerminal()

	logger := log.New(io.Discard, "", 0)
	switch {
	case opts.DebugLog != "":
		f, err := tea.LogToFile(opts.DebugLog, "crawlwatch")
		if err != nil {
			return tracker.Display{}, &ExitError{Code: ExitCLIError, Err: fmt.Errorf("open debug log: %w", err)}
		}
		defer f.Close()
		logger = log.Default()
	case opts.Verbose && !useTUI:
		logger = log.New(cmd.ErrOrStderr(), "crawlwatch: ", log.LstdFlags)
	}

	t := tracker.New(client,
		tracker.WithNotifier(client),
		tracker.WithContext(cmd.Context()),
		tracker.WithLogger(logger),
		tracker.WithTickInterval(opts.TickInterval),
		tracker.WithPollInterval(opts.PollInterval),
	)

	var (
		d   tracker.Display
		err error
	)
	if useTUI {
		d, err = runTUI(cmd.Context(), t, handle, opts.MaxSeconds, exitOnDone)
	} else {
		d, err = runPlain(cmd.Context(), t, handle, opts.MaxSeconds, cmd.OutOrStdout())
	}
	if errors.Is(err, tea.ErrProgramKilled) {
		return d, &ExitError{Code: ExitCLIError, Err: errors.New("interrupted")}
	}
	if err != nil {
		return d, &ExitError{Code: ExitCLIError, Err: err}
	}
	return d, nil
}

// outcomeExit maps a finished display to the process exit status.
func outcomeExit(d tracker.Display) error {
	if !d.IsDone {
		return nil
	}
	switch d.StopReason {
	case model.ReasonError:
		msg := d.ErrorMessage
		if msg == "" {
			msg = "crawl ended with an error"
		}
		return &ExitError{Code: ExitCrawlFailed, Err: fmt.Errorf("%s: %s", d.Handle, msg)}
	case model.ReasonTimeout:
		return &ExitError{Code: ExitCrawlTimedOut, Err: fmt.Errorf("%s: timed out after %s", d.Handle, d.ElapsedText())}
	}
	return nil
}
