package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/absdata/absidx/internal/assets"
	"github.com/absdata/absidx/internal/flatten"
)

func flattenCmd() *cobra.Command {
	var (
		envFile string
		rebuild bool
		trusts  string
		filings string
		company string
	)

	cmd := &cobra.Command{
		Use:   "flatten",
		Short: "Fold periodic loan reports into one row per asset",
		Long: `Merge the periodic re-reports of each auto loan into a single
current-state row keyed by trust CIK and asset number. Rows already in the
flattened table only gain values in fields that are still empty; nothing is
overwritten, so repeated runs are safe.

With --rebuild the flattened table is dropped and recreated first. The raw
per-filing records are kept either way.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlatten(cmd, envFile, rebuild, trusts, filings, company)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Drop and recreate the flattened table first")
	cmd.Flags().StringVarP(&trusts, "trust", "t", "", "Trust CIKs separated by ':'")
	cmd.Flags().StringVarP(&filings, "filing", "f", "", "Filing accession numbers separated by ':'")
	cmd.Flags().StringVarP(&company, "company", "c", "", "Trust name substring")
	cmd.MarkFlagsMutuallyExclusive("trust", "filing", "company")

	return cmd
}

func runFlatten(cmd *cobra.Command, envFile string, rebuild bool, trusts, filings, company string) error {
	ctx := cmd.Context()

	trustCIKs, err := parseInt64List(trusts)
	if err != nil {
		return fmt.Errorf("parse --trust: %w", err)
	}
	accNos, err := parseInt64List(filings)
	if err != nil {
		return fmt.Errorf("parse --filing: %w", err)
	}

	a, err := newApp(ctx, envFile)
	if err != nil {
		return err
	}
	defer a.Close()

	if rebuild {
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "You sure you want to reprocess") {
			return fmt.Errorf("aborted")
		}
		if err := assets.ResetFlat(a.assetDB); err != nil {
			return err
		}
		a.logger.Info("flat table cleared")
	}

	flattener := flatten.NewFlattener(assets.NewStore(a.assetDB), a.logger)
	_, err = flattener.Run(ctx, flatten.Options{
		TrustCIKs: trustCIKs,
		AccNos:    accNos,
		Company:   company,
	})
	return err
}
