package extract

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/absdata/absidx/internal/assets"
)

// Disclosed dates come in two shapes: full dates as MM-DD-YYYY and
// month-resolution dates as MM/YYYY. The latter are anchored to the 15th as
// a stable placeholder since no day of month is reported.
const (
	date1Layout = "01-02-2006"
	date2Layout = "01/2006"
)

func date1(s string) *time.Time {
	t, err := time.Parse(date1Layout, s)
	if err != nil {
		return nil
	}
	return &t
}

func date2(s string) *time.Time {
	t, err := time.Parse(date2Layout, s)
	if err != nil {
		return nil
	}
	anchored := time.Date(t.Year(), t.Month(), 15, 0, 0, 0, 0, time.UTC)
	return &anchored
}

func boolean(s string) *bool {
	b := s == "true"
	return &b
}

func integer(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func dec(s string) decimal.NullDecimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// unlimited joins repeated occurrences of one tag with "|" in document
// order; a single occurrence stays plain text.
func unlimited(values []string) string {
	return strings.Join(values, "|")
}

// fieldValues groups all occurrences of one tag, in first-seen order.
type fieldValues struct {
	tag    string
	values []string
}

func groupFields(fields []Field) []fieldValues {
	var grouped []fieldValues
	positions := map[string]int{}
	for _, f := range fields {
		if i, seen := positions[f.Tag]; seen {
			grouped[i].values = append(grouped[i].values, f.Value)
			continue
		}
		positions[f.Tag] = len(grouped)
		grouped = append(grouped, fieldValues{tag: f.Tag, values: []string{f.Value}})
	}
	return grouped
}

// decodeAutoloan maps one asset element's fields onto a loan record. Each
// known tag has an explicit typed setter; unknown tags are logged and
// ignored rather than guessed at.
func decodeAutoloan(accNo int64, fields []Field, logger *slog.Logger) assets.Autoloan {
	rec := assets.Autoloan{FilingAccNo: accNo}
	for _, fv := range groupFields(fields) {
		v := fv.values[0]
		switch fv.tag {
		case "assetTypeNumber":
			rec.AssetTypeNumber = v
		case "assetNumber":
			rec.AssetNumber = v
		case "reportingPeriodBeginningDate":
			rec.ReportingPeriodBeginningDate = date1(v)
		case "reportingPeriodEndingDate":
			rec.ReportingPeriodEndingDate = date1(v)
		case "originatorName":
			rec.OriginatorName = v
		case "originationDate":
			rec.OriginationDate = date2(v)
		case "originalLoanAmount":
			rec.OriginalLoanAmount = dec(v)
		case "originalLoanTerm":
			rec.OriginalLoanTerm = integer(v)
		case "loanMaturityDate":
			rec.LoanMaturityDate = date2(v)
		case "originalInterestRatePercentage":
			rec.OriginalInterestRatePercentage = dec(v)
		case "interestCalculationTypeCode":
			rec.InterestCalculationTypeCode = v
		case "originalInterestRateTypeCode":
			rec.OriginalInterestRateTypeCode = v
		case "originalInterestOnlyTermNumber":
			rec.OriginalInterestOnlyTermNumber = integer(v)
		case "originalFirstPaymentDate":
			rec.OriginalFirstPaymentDate = date2(v)
		case "underwritingIndicator":
			rec.UnderwritingIndicator = boolean(v)
		case "gracePeriodNumber":
			rec.GracePeriodNumber = integer(v)
		case "paymentTypeCode":
			rec.PaymentTypeCode = v
		case "subvented":
			rec.Subvented = unlimited(fv.values)
		case "vehicleManufacturerName":
			rec.VehicleManufacturerName = v
		case "vehicleModelName":
			rec.VehicleModelName = v
		case "vehicleNewUsedCode":
			rec.VehicleNewUsedCode = v
		case "vehicleModelYear":
			rec.VehicleModelYear = v
		case "vehicleTypeCode":
			rec.VehicleTypeCode = v
		case "vehicleValueAmount":
			rec.VehicleValueAmount = dec(v)
		case "vehicleValueSourceCode":
			rec.VehicleValueSourceCode = v
		case "obligorCreditScoreType":
			rec.ObligorCreditScoreType = v
		case "obligorCreditScore":
			rec.ObligorCreditScore = v
		case "obligorIncomeVerificationLevelCode":
			rec.ObligorIncomeVerificationLevelCode = v
		case "obligorEmploymentVerificationCode":
			rec.ObligorEmploymentVerificationCode = v
		case "coObligorIndicator":
			rec.CoObligorIndicator = boolean(v)
		case "paymentToIncomePercentage":
			rec.PaymentToIncomePercentage = dec(v)
		case "obligorGeographicLocation":
			rec.ObligorGeographicLocation = v
		case "assetAddedIndicator":
			rec.AssetAddedIndicator = boolean(v)
		case "remainingTermToMaturityNumber":
			rec.RemainingTermToMaturityNumber = integer(v)
		case "reportingPeriodModificationIndicator":
			rec.ReportingPeriodModificationIndicator = boolean(v)
		case "servicingAdvanceMethodCode":
			rec.ServicingAdvanceMethodCode = v
		case "reportingPeriodBeginningLoanBalanceAmount":
			rec.ReportingPeriodBeginningLoanBalanceAmount = dec(v)
		case "nextReportingPeriodPaymentAmountDue":
			rec.NextReportingPeriodPaymentAmountDue = dec(v)
		case "reportingPeriodInterestRatePercentage":
			rec.ReportingPeriodInterestRatePercentage = dec(v)
		case "nextInterestRatePercentage":
			rec.NextInterestRatePercentage = dec(v)
		case "servicingFeePercentage":
			rec.ServicingFeePercentage = dec(v)
		case "servicingFlatFeeAmount":
			rec.ServicingFlatFeeAmount = dec(v)
		case "otherServicerFeeRetainedByServicer":
			rec.OtherServicerFeeRetainedByServicer = dec(v)
		case "otherAssessedUncollectedServicerFeeAmount":
			rec.OtherAssessedUncollectedServicerFeeAmount = dec(v)
		case "scheduledInterestAmount":
			rec.ScheduledInterestAmount = dec(v)
		case "scheduledPrincipalAmount":
			rec.ScheduledPrincipalAmount = dec(v)
		case "otherPrincipalAdjustmentAmount":
			rec.OtherPrincipalAdjustmentAmount = dec(v)
		case "reportingPeriodActualEndBalanceAmount":
			rec.ReportingPeriodActualEndBalanceAmount = dec(v)
		case "reportingPeriodScheduledPaymentAmount":
			rec.ReportingPeriodScheduledPaymentAmount = dec(v)
		case "totalActualAmountPaid":
			rec.TotalActualAmountPaid = dec(v)
		case "actualInterestCollectedAmount":
			rec.ActualInterestCollectedAmount = dec(v)
		case "actualPrincipalCollectedAmount":
			rec.ActualPrincipalCollectedAmount = dec(v)
		case "actualOtherCollectedAmount":
			rec.ActualOtherCollectedAmount = dec(v)
		case "servicerAdvancedAmount":
			rec.ServicerAdvancedAmount = dec(v)
		case "interestPaidThroughDate":
			rec.InterestPaidThroughDate = date1(v)
		case "zeroBalanceEffectiveDate":
			rec.ZeroBalanceEffectiveDate = date2(v)
		case "zeroBalanceCode":
			rec.ZeroBalanceCode = unlimited(fv.values)
		case "currentDelinquencyStatus":
			rec.CurrentDelinquencyStatus = integer(v)
		case "primaryLoanServicerName":
			rec.PrimaryLoanServicerName = v
		case "mostRecentServicingTransferReceivedDate":
			rec.MostRecentServicingTransferReceivedDate = date2(v)
		case "assetSubjectDemandIndicator":
			rec.AssetSubjectDemandIndicator = boolean(v)
		case "assetSubjectDemandStatusCode":
			rec.AssetSubjectDemandStatusCode = v
		case "repurchaseAmount":
			rec.RepurchaseAmount = dec(v)
		case "demandResolutionDate":
			rec.DemandResolutionDate = date1(v)
		case "repurchaserName":
			rec.RepurchaserName = v
		case "repurchaseReplacementReasonCode":
			rec.RepurchaseReplacementReasonCode = unlimited(fv.values)
		case "chargedoffPrincipalAmount":
			rec.ChargedoffPrincipalAmount = dec(v)
		case "recoveredAmount":
			rec.RecoveredAmount = dec(v)
		case "modificationTypeCode":
			rec.ModificationTypeCode = unlimited(fv.values)
		case "paymentExtendedNumber":
			rec.PaymentExtendedNumber = integer(v)
		case "repossessedIndicator":
			rec.RepossessedIndicator = boolean(v)
		case "repossessedProceedsAmount":
			rec.RepossessedProceedsAmount = dec(v)
		default:
			logger.Debug("ignoring unknown autoloan field", "tag", fv.tag)
		}
	}
	return rec
}

// decodeAutolease maps one asset element's fields onto a lease record.
func decodeAutolease(accNo int64, fields []Field, logger *slog.Logger) assets.Autolease {
	rec := assets.Autolease{FilingAccNo: accNo}
	for _, fv := range groupFields(fields) {
		v := fv.values[0]
		switch fv.tag {
		case "assetTypeNumber":
			rec.AssetTypeNumber = v
		case "assetNumber":
			rec.AssetNumber = v
		case "reportingPeriodBeginDate":
			rec.ReportingPeriodBeginDate = date1(v)
		case "reportingPeriodEndDate":
			rec.ReportingPeriodEndDate = date1(v)
		case "originatorName":
			rec.OriginatorName = v
		case "originationDate":
			rec.OriginationDate = date2(v)
		case "acquisitionCost":
			rec.AcquisitionCost = dec(v)
		case "originalLeaseTermNumber":
			rec.OriginalLeaseTermNumber = integer(v)
		case "scheduledTerminationDate":
			rec.ScheduledTerminationDate = date2(v)
		case "originalFirstPaymentDate":
			rec.OriginalFirstPaymentDate = date2(v)
		case "underwritingIndicator":
			rec.UnderwritingIndicator = boolean(v)
		case "gracePeriod":
			rec.GracePeriod = integer(v)
		case "paymentTypeCode":
			rec.PaymentTypeCode = v
		case "subvented":
			rec.Subvented = unlimited(fv.values)
		case "vehicleManufacturerName":
			rec.VehicleManufacturerName = v
		case "vehicleModelName":
			rec.VehicleModelName = v
		case "vehicleNewUsedCode":
			rec.VehicleNewUsedCode = v
		case "vehicleModelYear":
			rec.VehicleModelYear = v
		case "vehicleTypeCode":
			rec.VehicleTypeCode = v
		case "vehicleValueAmount":
			rec.VehicleValueAmount = dec(v)
		case "vehicleValueSourceCode":
			rec.VehicleValueSourceCode = v
		case "baseResidualValue":
			rec.BaseResidualValue = dec(v)
		case "baseResidualSourceCode":
			rec.BaseResidualSourceCode = v
		case "contractResidualValue":
			rec.ContractResidualValue = dec(v)
		case "lesseeCreditScoreType":
			rec.LesseeCreditScoreType = v
		case "lesseeCreditScore":
			rec.LesseeCreditScore = v
		case "lesseeIncomeVerificationLevelCode":
			rec.LesseeIncomeVerificationLevelCode = v
		case "lesseeEmploymentVerificationCode":
			rec.LesseeEmploymentVerificationCode = v
		case "coLesseePresentIndicator":
			rec.CoLesseePresentIndicator = boolean(v)
		case "paymentToIncomePercentage":
			rec.PaymentToIncomePercentage = dec(v)
		case "lesseeGeographicLocation":
			rec.LesseeGeographicLocation = v
		case "assetAddedIndicator":
			rec.AssetAddedIndicator = boolean(v)
		case "remainingTermNumber":
			rec.RemainingTermNumber = integer(v)
		case "reportingPeriodModificationIndicator":
			rec.ReportingPeriodModificationIndicator = boolean(v)
		case "servicingAdvanceMethodCode":
			rec.ServicingAdvanceMethodCode = v
		case "reportingPeriodSecuritizationValueAmount":
			rec.ReportingPeriodSecuritizationValueAmount = dec(v)
		case "securitizationDiscountRate":
			rec.SecuritizationDiscountRate = dec(v)
		case "nextReportingPeriodPaymentAmountDue":
			rec.NextReportingPeriodPaymentAmountDue = dec(v)
		case "servicingFeePercentage":
			rec.ServicingFeePercentage = dec(v)
		case "servicingFlatFeeAmount":
			rec.ServicingFlatFeeAmount = dec(v)
		case "otherLeaseLevelServicingFeesRetainedAmount":
			rec.OtherLeaseLevelServicingFeesRetainedAmount = dec(v)
		case "otherAssessedUncollectedServicerFeeAmount":
			rec.OtherAssessedUncollectedServicerFeeAmount = dec(v)
		case "reportingPeriodEndingActualBalanceAmount":
			rec.ReportingPeriodEndingActualBalanceAmount = dec(v)
		case "reportingPeriodScheduledPaymentAmount":
			rec.ReportingPeriodScheduledPaymentAmount = dec(v)
		case "totalActualAmountPaid":
			rec.TotalActualAmountPaid = dec(v)
		case "actualOtherCollectedAmount":
			rec.ActualOtherCollectedAmount = dec(v)
		case "reportingPeriodEndActualSecuritizationAmount":
			rec.ReportingPeriodEndActualSecuritizationAmount = dec(v)
		case "servicerAdvancedAmount":
			rec.ServicerAdvancedAmount = dec(v)
		case "paidThroughDate":
			rec.PaidThroughDate = date1(v)
		case "zeroBalanceEffectiveDate":
			rec.ZeroBalanceEffectiveDate = date2(v)
		case "zeroBalanceCode":
			rec.ZeroBalanceCode = unlimited(fv.values)
		case "currentDelinquencyStatus":
			rec.CurrentDelinquencyStatus = integer(v)
		case "primaryLeaseServicerName":
			rec.PrimaryLeaseServicerName = v
		case "mostRecentServicingTransferReceivedDate":
			rec.MostRecentServicingTransferReceivedDate = date2(v)
		case "assetSubjectDemandIndicator":
			rec.AssetSubjectDemandIndicator = boolean(v)
		case "assetSubjectDemandStatusCode":
			rec.AssetSubjectDemandStatusCode = v
		case "repurchaseAmount":
			rec.RepurchaseAmount = dec(v)
		case "demandResolutionDate":
			rec.DemandResolutionDate = date1(v)
		case "repurchaserName":
			rec.RepurchaserName = v
		case "repurchaseOrReplacementReasonCode":
			rec.RepurchaseOrReplacementReasonCode = unlimited(fv.values)
		case "chargedOffAmount":
			rec.ChargedOffAmount = dec(v)
		case "modificationTypeCode":
			rec.ModificationTypeCode = unlimited(fv.values)
		case "leaseExtended":
			rec.LeaseExtended = integer(v)
		case "terminationIndicator":
			rec.TerminationIndicator = unlimited(fv.values)
		case "excessFeeAmount":
			rec.ExcessFeeAmount = dec(v)
		case "liquidationProceedsAmount":
			rec.LiquidationProceedsAmount = dec(v)
		default:
			logger.Debug("ignoring unknown autolease field", "tag", fv.tag)
		}
	}
	return rec
}
