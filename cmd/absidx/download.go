package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/absdata/absidx/internal/config"
	"github.com/absdata/absidx/internal/download"
	"github.com/absdata/absidx/internal/fetch"
	"github.com/absdata/absidx/internal/index"
	"github.com/absdata/absidx/internal/storage"
)

func downloadCmd() *cobra.Command {
	var (
		envFile    string
		rebuild    bool
		limit      int
		assetTypes string
		trusts     string
		filings    string
		gcsBucket  string
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download indexed filings that are still pending",
		Long: `Download pending exhibit documents to the local filings directory, in
(filing date, accession number) order. With a GCS bucket configured each
document is also mirrored to object storage, skipping keys that already
exist. The run aborts after the configured number of failures.

With --rebuild the downloaded flags of matching filings are cleared first,
so every matching document is fetched again.

Environment variables:
  GCS_BUCKET              Object storage bucket for the relay (optional)
  GCS_CREDENTIALS_JSON    Service account JSON; omit to use ADC
  DOWNLOAD_FAILURE_LIMIT  Abort the run after this many failures (default: 5)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, envFile, rebuild, limit, assetTypes, trusts, filings, gcsBucket)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Clear downloaded flags and fetch matching filings again")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Download at most this many filings")
	cmd.Flags().StringVarP(&assetTypes, "asset-type", "a", "", "Asset types separated by ':' (e.g. autoloan:autolease)")
	cmd.Flags().StringVarP(&trusts, "trust", "t", "", "Trust CIKs separated by ':'")
	cmd.Flags().StringVarP(&filings, "filing", "f", "", "Filing accession numbers separated by ':'")
	cmd.Flags().StringVar(&gcsBucket, "gcs-bucket", "", "Override the object storage bucket")
	cmd.MarkFlagsMutuallyExclusive("trust", "filing")

	return cmd
}

func runDownload(cmd *cobra.Command, envFile string, rebuild bool, limit int, assetTypes, trusts, filings, gcsBucket string) error {
	ctx := cmd.Context()

	filter, err := buildFilter(assetTypes, trusts, filings, limit)
	if err != nil {
		return err
	}

	var opts []config.AppConfigOption
	if gcsBucket != "" {
		opts = append(opts, config.WithGCSBucket(gcsBucket))
	}

	a, err := newApp(ctx, envFile, opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	store := index.NewStore(a.indexDB)

	if rebuild {
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "You sure you want to redownload") {
			return fmt.Errorf("aborted")
		}
		cleared, err := store.ResetStage(ctx, index.StageDownload, filter)
		if err != nil {
			return err
		}
		a.logger.Info("download stage cleared", "filings", cleared)
	}

	relay, err := storage.NewRelay(ctx, &a.cfg)
	if err != nil {
		return err
	}
	if relay != nil {
		defer relay.Close()
		a.logger.Info("relaying downloads to object storage", "bucket", relay.Bucket())
	}

	fetcher := fetch.NewFetcher(a.cfg.UserAgent())
	downloader := download.NewDownloader(&a.cfg, fetcher, store, relay, a.logger)
	_, err = downloader.Run(ctx, filter)
	return err
}

// buildFilter assembles the shared pending-queue filter from CLI flags.
func buildFilter(assetTypes, trusts, filings string, limit int) (index.Filter, error) {
	types, err := parseAssetTypes(assetTypes)
	if err != nil {
		return index.Filter{}, err
	}
	trustCIKs, err := parseInt64List(trusts)
	if err != nil {
		return index.Filter{}, fmt.Errorf("parse --trust: %w", err)
	}
	accNos, err := parseInt64List(filings)
	if err != nil {
		return index.Filter{}, fmt.Errorf("parse --filing: %w", err)
	}
	return index.Filter{
		AssetTypes: types,
		TrustCIKs:  trustCIKs,
		AccNos:     accNos,
		Limit:      limit,
	}, nil
}
