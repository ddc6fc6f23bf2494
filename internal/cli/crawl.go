package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jonpo-sc/AID/internal/crawl"
)

// newCrawlCommand creates the "crawl" subcommand that searches the web by keyword.
func newCrawlCommand(opts *Options) *cobra.Command {
	var (
		maxResults int
		maxPages   int
		delay      time.Duration
		timeout    time.Duration
		output     string
	)

	cmd := &cobra.Command{
		Use:   "crawl <keyword>",
		Short: "Search the web by keyword and fetch page previews",
		Long: "crawl queries the configured HTML search endpoint for the keyword, collects results with " +
			"title, URL, snippet and source host, fetches text previews for the first result pages, and " +
			"writes everything as JSON.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			crawlOpts := crawl.Options{
				Endpoint:   cfg.Crawler.Endpoint,
				UserAgent:  cfg.Crawler.UserAgent,
				MaxResults: cfg.Crawler.MaxResults,
				MaxPages:   cfg.Crawler.MaxPages,
			}
			if crawlOpts.Delay, err = cfg.Crawler.ResolveDelay(); err != nil {
				return err
			}
			if crawlOpts.Timeout, err = cfg.Crawler.ResolveTimeout(); err != nil {
				return err
			}

			if cmd.Flags().Changed("max-results") {
				crawlOpts.MaxResults = maxResults
			}
			if cmd.Flags().Changed("max-pages") {
				crawlOpts.MaxPages = maxPages
			}
			if cmd.Flags().Changed("delay") {
				crawlOpts.Delay = delay
			}
			if cmd.Flags().Changed("timeout") {
				crawlOpts.Timeout = timeout
			}

			outputPath := cfg.Crawler.Output
			if cmd.Flags().Changed("output") {
				outputPath = output
			}

			client, err := crawl.NewClient(logger, crawlOpts)
			if err != nil {
				return err
			}

			keyword := args[0]
			logger.Info("searching", "keyword", keyword, "maxResults", crawlOpts.MaxResults)

			results, err := client.Search(cmd.Context(), keyword)
			if err != nil {
				return err
			}
			logger.Info("search finished", "results", len(results))

			if err := client.FetchPages(cmd.Context(), results); err != nil {
				return err
			}

			if err := crawl.SaveResults(outputPath, results); err != nil {
				return err
			}
			logger.Info("results saved", "keyword", keyword, "results", len(results), "output", outputPath)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxResults, "max-results", 10, "Number of search results to collect")
	cmd.Flags().IntVar(&maxPages, "max-pages", 3, "Number of result pages to fetch for previews")
	cmd.Flags().DurationVar(&delay, "delay", time.Second, "Delay between network requests")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "Request timeout")
	cmd.Flags().StringVar(&output, "output", "crawl_results.json", "Output JSON file path")

	return cmd
}
