package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"crawlwatch/internal/api"
)

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "search <query>",
		Short:         "Search pages indexed by finished crawls",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("empty search query")}
			}
			client, err := newClient(optionsFrom(cmd))
			if err != nil {
				return err
			}
			results, err := client.Search(cmd.Context(), query)
			if err != nil {
				return apiExit("search", err)
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No results found.")
				return nil
			}
			for i, r := range results {
				fmt.Fprintf(out, "%d. %s\n", i+1, r.URL)
				if s := api.SnippetText(r.Snippet); s != "" {
					fmt.Fprintf(out, "   %s\n", s)
				}
			}
			return nil
		},
	}
}
