package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/absdata/absidx/internal/extract"
	"github.com/absdata/absidx/internal/index"
	"github.com/absdata/absidx/internal/storage"
)

func parseCmd() *cobra.Command {
	var (
		envFile    string
		rebuild    bool
		limit      int
		assetTypes string
		trusts     string
		filings    string
	)

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Extract asset records from downloaded filings",
		Long: `Stream downloaded exhibit documents into typed asset records. Only
downloaded, unparsed, non-skipped filings are processed, in (filing date,
accession number) order. A filing is marked parsed strictly after all of its
records are committed.

With --rebuild the parsed flags of matching filings are cleared and their
rows are removed, so everything selected is extracted again. An unrestricted
rebuild drops the asset tables wholesale; narrowing by --trust, --filing, or
--asset-type rebuilds only the matching filings and leaves the rest of the
asset tables in place. With GCS_BUCKET set, documents missing from local
disk are restored from the bucket first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, envFile, rebuild, limit, assetTypes, trusts, filings)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Remove extracted rows and reparse matching filings")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Parse at most this many filings")
	cmd.Flags().StringVarP(&assetTypes, "asset-type", "a", "autoloan:autolease", "Asset types separated by ':'")
	cmd.Flags().StringVarP(&trusts, "trust", "t", "", "Trust CIKs separated by ':'")
	cmd.Flags().StringVarP(&filings, "filing", "f", "", "Filing accession numbers separated by ':'")
	cmd.MarkFlagsMutuallyExclusive("trust", "filing")

	return cmd
}

func runParse(cmd *cobra.Command, envFile string, rebuild bool, limit int, assetTypes, trusts, filings string) error {
	ctx := cmd.Context()

	filter, err := buildFilter(assetTypes, trusts, filings, limit)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, envFile)
	if err != nil {
		return err
	}
	defer a.Close()

	store := index.NewStore(a.indexDB)

	if rebuild {
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "You sure you want to reparse") {
			return fmt.Errorf("aborted")
		}
		cleared, err := extract.ResetParsed(ctx, store, a.assetDB, filter)
		if err != nil {
			return err
		}
		a.logger.Info("parse stage cleared", "filings", cleared)
	}

	relay, err := storage.NewRelay(ctx, &a.cfg)
	if err != nil {
		return err
	}
	if relay != nil {
		defer relay.Close()
	}

	extractor := extract.NewExtractor(&a.cfg, store, a.assetDB, relay, a.logger)
	_, err = extractor.Run(ctx, filter)
	return err
}
