package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "stop <crawl-id>",
		Short:         "Ask the backend to stop a crawl job",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("empty crawl id")}
			}
			client, err := newClient(optionsFrom(cmd))
			if err != nil {
				return err
			}
			if err := client.StopCrawl(cmd.Context(), id); err != nil {
				return apiExit("stop crawl", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stop requested: %s\n", id)
			return nil
		},
	}
}
