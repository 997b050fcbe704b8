package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Check that the crawl API is reachable",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := optionsFrom(cmd)
			client, err := newClient(opts)
			if err != nil {
				return err
			}
			if err := client.Ping(cmd.Context()); err != nil {
				return &ExitError{Code: ExitAPIUnreachable, Err: fmt.Errorf("API %s unreachable: %w", opts.APIBase, err)}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API:           %s (reachable)\n", opts.APIBase)
			fmt.Fprintf(cmd.OutOrStdout(), "Poll interval: %s\n", opts.PollInterval)
			fmt.Fprintf(cmd.OutOrStdout(), "Tick interval: %s\n", opts.TickInterval)
			fmt.Fprintf(cmd.OutOrStdout(), "Budget:        %ds\n", opts.MaxSeconds)
			return nil
		},
	}
}
