package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/absdata/absidx/internal/index"
)

func statusCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show pipeline progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")

	return cmd
}

func runStatus(cmd *cobra.Command, envFile string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, envFile)
	if err != nil {
		return err
	}
	defer a.Close()

	store := index.NewStore(a.indexDB)
	total, downloaded, parsed, err := store.Counts(ctx)
	if err != nil {
		return err
	}

	latest, err := store.MostRecentFilingDate(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Filings indexed:    %d\n", total)
	fmt.Fprintf(out, "Filings downloaded: %d\n", downloaded)
	fmt.Fprintf(out, "Filings parsed:     %d\n", parsed)
	if latest != nil {
		fmt.Fprintf(out, "Most recent filing: %s\n", latest.Format("2006-01-02"))
	} else {
		fmt.Fprintln(out, "Index is empty.")
	}
	return nil
}
