package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/absdata/absidx/internal/config"
	"github.com/absdata/absidx/internal/crawl"
	"github.com/absdata/absidx/internal/fetch"
	"github.com/absdata/absidx/internal/index"
)

func indexCmd() *cobra.Command {
	var (
		envFile  string
		rebuild  bool
		limit    int
		fromDate string
		toDate   string
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Crawl the search portal and index discovered filings",
		Long: `Crawl the ABS-EE search listing and index discovered filings.

Without --rebuild the crawl resumes from the day after the most recently
indexed filing. With --rebuild the index tables are dropped and the full
configured date window is crawled from scratch.

Environment variables:
  DATA_DIR                Data directory (default: ~/.absidx)
  DB_URL                  Filing index database URL (default: sqlite in data dir)
  ASSET_DB_URL            Asset record database URL (default: DB_URL)
  LOG_LEVEL               Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT              Log format: pretty, json (default: pretty)
  SEARCH_BASE_URL         Search portal base URL
  SEC_USER_AGENT          User-Agent header sent with every request
  CRAWL_START_DATE        Default window start, MM/DD/YYYY (default: 01/01/2016)
  CRAWL_END_DATE          Default window horizon, MM/DD/YYYY (default: 12/31/2028)
  PAGE_SIZE               Results per search page (default: 100)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, envFile, rebuild, limit, fromDate, toDate)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Drop the index tables and crawl the full date window")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Stop after indexing at least this many entries")
	cmd.Flags().StringVar(&fromDate, "from", "", "Override window start, MM/DD/YYYY")
	cmd.Flags().StringVar(&toDate, "to", "", "Override window horizon, MM/DD/YYYY")

	return cmd
}

func runIndex(cmd *cobra.Command, envFile string, rebuild bool, limit int, fromDate, toDate string) error {
	ctx := cmd.Context()

	var opts []config.AppConfigOption
	if fromDate != "" || toDate != "" {
		window, err := crawlWindowOverride(fromDate, toDate)
		if err != nil {
			return err
		}
		opts = append(opts, window)
	}

	a, err := newApp(ctx, envFile, opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	if rebuild {
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "You sure you want to rebuild the index") {
			return fmt.Errorf("aborted")
		}
		if err := index.Reset(a.indexDB); err != nil {
			return err
		}
		a.logger.Info("index cleared")
	}

	store := index.NewStore(a.indexDB)
	fetcher := fetch.NewFetcher(a.cfg.UserAgent())
	crawler := crawl.NewCrawler(&a.cfg, fetcher, store, a.logger)

	_, err = crawler.Run(ctx, crawl.Options{Rebuild: rebuild, Limit: limit})
	return err
}

// crawlWindowOverride builds a config option from --from/--to flags, filling
// the missing side from defaults.
func crawlWindowOverride(fromDate, toDate string) (config.AppConfigOption, error) {
	start, err := time.Parse("01/02/2006", config.DefaultCrawlStartDate)
	if err != nil {
		return nil, err
	}
	end, _ := time.Parse("01/02/2006", config.DefaultCrawlEndDate)

	if fromDate != "" {
		start, err = time.Parse("01/02/2006", fromDate)
		if err != nil {
			return nil, fmt.Errorf("invalid --from date %q: want MM/DD/YYYY", fromDate)
		}
	}
	if toDate != "" {
		end, err = time.Parse("01/02/2006", toDate)
		if err != nil {
			return nil, fmt.Errorf("invalid --to date %q: want MM/DD/YYYY", toDate)
		}
	}
	return config.WithCrawlWindow(start, end), nil
}
