package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"crawlwatch/internal/tracker"
	"crawlwatch/internal/ui"
)

func runTUI(ctx context.Context, t tracker.Model, handle string, maxSeconds int, exitOnDone bool) (tracker.Display, error) {
	return ui.Run(ctx, t, ui.Config{Handle: handle, MaxSeconds: maxSeconds, ExitOnDone: exitOnDone})
}

func runPlain(ctx context.Context, t tracker.Model, handle string, maxSeconds int, out io.Writer) (tracker.Display, error) {
	return ui.RunPlain(ctx, t, handle, maxSeconds, out)
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "watch <crawl-id>",
		Short:         "Track an existing crawl job until it finishes",
		Long:          "Track an existing crawl job until it finishes. In the TUI, press s to stop the crawl. In plain mode, Ctrl-C only detaches; run 'crawlwatch stop <crawl-id>' to stop the crawl itself.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := optionsFrom(cmd)
			client, err := newClient(opts)
			if err != nil {
				return err
			}
			exitOnDone, _ := cmd.Flags().GetBool("exit-on-done")
			d, err := watchJob(cmd, opts, client, args[0], exitOnDone)
			if err != nil {
				return err
			}
			return outcomeExit(d)
		},
	}
	cmd.Flags().Bool("exit-on-done", false, "Quit the TUI as soon as the job is finished")
	return cmd
}
