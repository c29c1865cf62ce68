package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/absdata/absidx/internal/index"
)

func warnCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "warn",
		Short: "Report trusts with multiple filings on the same day",
		Long: `List trusts that filed more than one non-skipped exhibit on a single
day. Same-day duplicates usually indicate a corrected refiling; they are
reported for the operator to resolve with 'absidx skip' semantics (marking
the superseded filing), never merged automatically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWarn(cmd, envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")

	return cmd
}

func runWarn(cmd *cobra.Command, envFile string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, envFile)
	if err != nil {
		return err
	}
	defer a.Close()

	store := index.NewStore(a.indexDB)
	groups, err := store.SameDayDuplicates(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(groups) == 0 {
		fmt.Fprintln(out, "No same-day duplicate filings found.")
		return nil
	}

	fmt.Fprintf(out, "Found %d trust/day pairs with multiple filings:\n", len(groups))
	for _, g := range groups {
		fmt.Fprintf(out, "  %s  cik=%d  %s  (%d filings)\n",
			g.DateFiling.Format("2006-01-02"), g.CIKTrust, g.TrustName, g.Count)
	}
	return nil
}
