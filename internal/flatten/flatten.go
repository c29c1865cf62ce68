// Package flatten merges the periodic re-reports of each loan into one
// current-state row per (trust, asset number) pair.
package flatten

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/absdata/absidx/internal/assets"
)

const upsertBatchSize = 500

// Delinquency thresholds, in days, for the milestone date columns.
const (
	delinquency30 = 30
	delinquency90 = 90
)

// Flattener folds ordered loan history into the flattened table.
type Flattener struct {
	store  assets.Store
	logger *slog.Logger
}

// NewFlattener creates a Flattener.
func NewFlattener(store assets.Store, logger *slog.Logger) *Flattener {
	return &Flattener{store: store, logger: logger}
}

// Options narrows one flattening run. At most one identity filter applies.
type Options struct {
	TrustCIKs []int64
	AccNos    []int64
	Company   string
}

// Result reports what one flattening run covered.
type Result struct {
	SourceRows int
	Assets     int
}

// Run scans loan rows oldest-filing-first and folds them into one
// accumulator per asset: descriptive fields keep their first reported value,
// lifecycle dates keep the earliest, and terminal status fields latch once
// seen. Accumulated rows are then upserted; rows already in the flattened
// table only gain values in fields that are still empty.
func (f *Flattener) Run(ctx context.Context, opts Options) (Result, error) {
	f.logger.Info("starting flatten")

	accumulators := map[string]*assets.AutoloanFlat{}
	var order []string
	var result Result

	filter := assets.FlatFilter{
		TrustCIKs: opts.TrustCIKs,
		AccNos:    opts.AccNos,
		Company:   opts.Company,
	}
	err := f.store.FlatSourceRows(ctx, filter, func(row assets.FlatSourceRow) error {
		result.SourceRows++
		key := fmt.Sprintf("%d_%s", row.TrustCIK, row.AssetNumber)
		acc, ok := accumulators[key]
		if !ok {
			acc = newAccumulator(key, row)
			accumulators[key] = acc
			order = append(order, key)
		}
		fold(acc, row)
		return nil
	})
	if err != nil {
		return result, err
	}

	result.Assets = len(order)
	f.logger.Info("fold complete", "source_rows", result.SourceRows, "assets", result.Assets)

	batch := make([]assets.AutoloanFlat, 0, upsertBatchSize)
	for i, key := range order {
		batch = append(batch, *accumulators[key])
		if len(batch) == upsertBatchSize || i == len(order)-1 {
			if err := f.store.UpsertFlatBatch(ctx, batch); err != nil {
				return result, err
			}
			batch = batch[:0]
		}
	}

	f.logger.Info("flatten finished", "assets", result.Assets)
	return result, nil
}

func newAccumulator(key string, row assets.FlatSourceRow) *assets.AutoloanFlat {
	filingDate := row.DateFiling
	return &assets.AutoloanFlat{
		TrustAssetNumber: key,
		TrustCIK:         row.TrustCIK,
		AssetNumber:      row.AssetNumber,
		DateFirstFiling:  &filingDate,
	}
}

// fold merges one loan row into its accumulator. Rows arrive oldest filing
// first, so "first reported" and "earliest" both reduce to fill-if-empty.
func fold(acc *assets.AutoloanFlat, row assets.FlatSourceRow) {
	fillTime(&acc.OriginationDate, row.OriginationDate)
	if !acc.OriginalLoanAmount.Valid {
		acc.OriginalLoanAmount = row.OriginalLoanAmount
	}
	fillInt(&acc.OriginalLoanTerm, row.OriginalLoanTerm)
	fillTime(&acc.LoanMaturityDate, row.LoanMaturityDate)
	if !acc.OriginalInterestRatePercentage.Valid {
		acc.OriginalInterestRatePercentage = row.OriginalInterestRatePercentage
	}
	fillBool(&acc.UnderwritingIndicator, row.UnderwritingIndicator)
	fillInt(&acc.GracePeriodNumber, row.GracePeriodNumber)
	fillString(&acc.Subvented, row.Subvented)
	fillString(&acc.VehicleManufacturerName, row.VehicleManufacturerName)
	fillString(&acc.VehicleModelName, row.VehicleModelName)
	fillString(&acc.VehicleNewUsedCode, row.VehicleNewUsedCode)
	fillString(&acc.VehicleModelYear, row.VehicleModelYear)
	fillString(&acc.VehicleTypeCode, row.VehicleTypeCode)
	if !acc.VehicleValueAmount.Valid {
		acc.VehicleValueAmount = row.VehicleValueAmount
	}
	fillString(&acc.ObligorCreditScore, row.ObligorCreditScore)
	fillString(&acc.ObligorIncomeVerificationLevelCode, row.ObligorIncomeVerificationLevelCode)
	fillString(&acc.ObligorEmploymentVerificationCode, row.ObligorEmploymentVerificationCode)
	fillBool(&acc.CoObligorIndicator, row.CoObligorIndicator)
	if !acc.PaymentToIncomePercentage.Valid {
		acc.PaymentToIncomePercentage = row.PaymentToIncomePercentage
	}
	fillString(&acc.ObligorGeographicLocation, row.ObligorGeographicLocation)
	fillTime(&acc.ZeroBalanceEffectiveDate, row.ZeroBalanceEffectiveDate)
	fillString(&acc.ZeroBalanceCode, row.ZeroBalanceCode)

	// Milestone dates record the first reporting period end at which the
	// asset crossed each threshold.
	if status := row.CurrentDelinquencyStatus; status != nil {
		if *status > delinquency30 {
			fillTime(&acc.Delinquency30Days, row.ReportingPeriodEndingDate)
		}
		if *status > delinquency90 {
			fillTime(&acc.Delinquency90Days, row.ReportingPeriodEndingDate)
		}
	}

	// Repossession latches: once reported true it stays true, and the date
	// records the first period it was reported.
	if row.RepossessedIndicator != nil {
		if acc.RepossessedIndicator == nil || (!*acc.RepossessedIndicator && *row.RepossessedIndicator) {
			v := *row.RepossessedIndicator
			acc.RepossessedIndicator = &v
		}
		if *row.RepossessedIndicator {
			fillTime(&acc.RepossessedDate, row.ReportingPeriodEndingDate)
		}
	}
}

func fillTime(dst **time.Time, src *time.Time) {
	if *dst == nil && src != nil {
		v := *src
		*dst = &v
	}
}

func fillBool(dst **bool, src *bool) {
	if *dst == nil && src != nil {
		v := *src
		*dst = &v
	}
}

func fillInt(dst **int, src *int) {
	if *dst == nil && src != nil {
		v := *src
		*dst = &v
	}
}

func fillString(dst *string, src string) {
	if *dst == "" && src != "" {
		*dst = src
	}
}
