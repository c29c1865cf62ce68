package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/absdata/absidx/internal/index"
)

func skipCmd() *cobra.Command {
	var (
		envFile string
		filings string
	)

	cmd := &cobra.Command{
		Use:   "skip",
		Short: "Exclude filings from download and parse",
		Long: `Mark filings as skipped, excluding them from every downstream stage.
Used after 'absidx warn' to retire the superseded copy of a same-day
duplicate filing. Skipping does not delete anything; the filing stays in
the index with its skip flag set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSkip(cmd, envFile, filings)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVarP(&filings, "filing", "f", "", "Filing accession numbers separated by ':'")
	cmd.MarkFlagRequired("filing")

	return cmd
}

func runSkip(cmd *cobra.Command, envFile, filings string) error {
	ctx := cmd.Context()

	accNos, err := parseInt64List(filings)
	if err != nil {
		return fmt.Errorf("parse --filing: %w", err)
	}

	a, err := newApp(ctx, envFile)
	if err != nil {
		return err
	}
	defer a.Close()

	store := index.NewStore(a.indexDB)
	for _, accNo := range accNos {
		if err := store.MarkSkipped(ctx, accNo); err != nil {
			return err
		}
		a.logger.Info("filing skipped", "acc_no", accNo)
	}
	return nil
}
