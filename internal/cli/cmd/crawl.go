package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"crawlwatch/internal/model"
	"crawlwatch/internal/util"
)

func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "crawl <url>",
		Short:         "Start a crawl from a seed URL and watch it",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := optionsFrom(cmd)
			req, err := assembleCrawlRequest(cmd, args[0], opts)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			client, err := newClient(opts)
			if err != nil {
				return err
			}

			id, err := client.StartCrawl(cmd.Context(), req)
			if err != nil {
				return apiExit("start crawl", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)

			if detach, _ := cmd.Flags().GetBool("detach"); detach {
				return nil
			}
			exitOnDone, _ := cmd.Flags().GetBool("exit-on-done")
			// The budget the server enforces is the one we asked for.
			opts.MaxSeconds = req.MaxSeconds
			d, err := watchJob(cmd, opts, client, id, exitOnDone)
			if err != nil {
				return err
			}
			return outcomeExit(d)
		},
	}
	cmd.Flags().Int("max-distance", model.DefaultMaxDistance, "Maximum link distance from the seed")
	cmd.Flags().Int("max-urls", model.DefaultMaxURLs, "Maximum number of URLs to visit")
	cmd.Flags().Bool("detach", false, "Print the job id and exit without watching")
	cmd.Flags().Bool("exit-on-done", false, "Quit the TUI as soon as the job is finished")
	return cmd
}

func assembleCrawlRequest(cmd *cobra.Command, rawURL string, opts model.Options) (model.CrawlRequest, error) {
	seed, err := util.NormalizeSeedURL(rawURL)
	if err != nil {
		return model.CrawlRequest{}, err
	}
	maxDistance, _ := cmd.Flags().GetInt("max-distance")
	maxURLs, _ := cmd.Flags().GetInt("max-urls")
	if maxDistance < 0 {
		return model.CrawlRequest{}, fmt.Errorf("invalid --max-distance: %d (must be >= 0)", maxDistance)
	}
	if maxURLs < 1 {
		return model.CrawlRequest{}, fmt.Errorf("invalid --max-urls: %d (must be >= 1)", maxURLs)
	}
	maxSeconds := opts.MaxSeconds
	if maxSeconds < 1 {
		maxSeconds = model.DefaultMaxSeconds
	}
	return model.CrawlRequest{
		URL:         seed,
		MaxDistance: maxDistance,
		MaxSeconds:  maxSeconds,
		MaxURLs:     maxURLs,
	}, nil
}
