// Package assets persists per-asset records extracted from asset-data
// exhibits, the per-filing catalog, and the flattened reporting table.
package assets

import (
	"time"

	"github.com/shopspring/decimal"
)

// Autoloan is one reported auto loan line item. A loan reappears across
// periodic filings; rows are never updated in place, deduplication happens
// in the flattening step.
type Autoloan struct {
	ID                                        int64               `gorm:"column:id;primaryKey;autoIncrement"`
	FilingAccNo                               int64               `gorm:"column:filing_acc_no;not null;index"`
	AssetTypeNumber                           string              `gorm:"column:asset_type_number;size:100"`
	AssetNumber                               string              `gorm:"column:asset_number;size:25;index"`
	ReportingPeriodBeginningDate              *time.Time          `gorm:"column:reporting_period_beginning_date"`
	ReportingPeriodEndingDate                 *time.Time          `gorm:"column:reporting_period_ending_date"`
	OriginatorName                            string              `gorm:"column:originator_name;size:50"`
	OriginationDate                           *time.Time          `gorm:"column:origination_date"`
	OriginalLoanAmount                        decimal.NullDecimal `gorm:"column:original_loan_amount;type:decimal(20,8)"`
	OriginalLoanTerm                          *int                `gorm:"column:original_loan_term"`
	LoanMaturityDate                          *time.Time          `gorm:"column:loan_maturity_date"`
	OriginalInterestRatePercentage            decimal.NullDecimal `gorm:"column:original_interest_rate_percentage;type:decimal(20,8)"`
	InterestCalculationTypeCode               string              `gorm:"column:interest_calculation_type_code;size:255"`
	OriginalInterestRateTypeCode              string              `gorm:"column:original_interest_rate_type_code;size:255"`
	OriginalInterestOnlyTermNumber            *int                `gorm:"column:original_interest_only_term_number"`
	OriginalFirstPaymentDate                  *time.Time          `gorm:"column:original_first_payment_date"`
	UnderwritingIndicator                     *bool               `gorm:"column:underwriting_indicator"`
	GracePeriodNumber                         *int                `gorm:"column:grace_period_number"`
	PaymentTypeCode                           string              `gorm:"column:payment_type_code;size:255"`
	Subvented                                 string              `gorm:"column:subvented;size:255"`
	VehicleManufacturerName                   string              `gorm:"column:vehicle_manufacturer_name;size:30"`
	VehicleModelName                          string              `gorm:"column:vehicle_model_name;size:30"`
	VehicleNewUsedCode                        string              `gorm:"column:vehicle_new_used_code;size:255"`
	VehicleModelYear                          string              `gorm:"column:vehicle_model_year;size:4"`
	VehicleTypeCode                           string              `gorm:"column:vehicle_type_code;size:255"`
	VehicleValueAmount                        decimal.NullDecimal `gorm:"column:vehicle_value_amount;type:decimal(20,8)"`
	VehicleValueSourceCode                    string              `gorm:"column:vehicle_value_source_code;size:255"`
	ObligorCreditScoreType                    string              `gorm:"column:obligor_credit_score_type;size:35"`
	ObligorCreditScore                        string              `gorm:"column:obligor_credit_score;size:20"`
	ObligorIncomeVerificationLevelCode        string              `gorm:"column:obligor_income_verification_level_code;size:255"`
	ObligorEmploymentVerificationCode         string              `gorm:"column:obligor_employment_verification_code;size:255"`
	CoObligorIndicator                        *bool               `gorm:"column:co_obligor_indicator"`
	PaymentToIncomePercentage                 decimal.NullDecimal `gorm:"column:payment_to_income_percentage;type:decimal(20,8)"`
	ObligorGeographicLocation                 string              `gorm:"column:obligor_geographic_location;size:100"`
	AssetAddedIndicator                       *bool               `gorm:"column:asset_added_indicator"`
	RemainingTermToMaturityNumber             *int                `gorm:"column:remaining_term_to_maturity_number"`
	ReportingPeriodModificationIndicator      *bool               `gorm:"column:reporting_period_modification_indicator"`
	ServicingAdvanceMethodCode                string              `gorm:"column:servicing_advance_method_code;size:255"`
	ReportingPeriodBeginningLoanBalanceAmount decimal.NullDecimal `gorm:"column:reporting_period_beginning_loan_balance_amount;type:decimal(20,8)"`
	NextReportingPeriodPaymentAmountDue       decimal.NullDecimal `gorm:"column:next_reporting_period_payment_amount_due;type:decimal(20,8)"`
	ReportingPeriodInterestRatePercentage     decimal.NullDecimal `gorm:"column:reporting_period_interest_rate_percentage;type:decimal(20,8)"`
	NextInterestRatePercentage                decimal.NullDecimal `gorm:"column:next_interest_rate_percentage;type:decimal(20,8)"`
	ServicingFeePercentage                    decimal.NullDecimal `gorm:"column:servicing_fee_percentage;type:decimal(20,8)"`
	ServicingFlatFeeAmount                    decimal.NullDecimal `gorm:"column:servicing_flat_fee_amount;type:decimal(20,8)"`
	OtherServicerFeeRetainedByServicer        decimal.NullDecimal `gorm:"column:other_servicer_fee_retained_by_servicer;type:decimal(20,8)"`
	OtherAssessedUncollectedServicerFeeAmount decimal.NullDecimal `gorm:"column:other_assessed_uncollected_servicer_fee_amount;type:decimal(20,8)"`
	ScheduledInterestAmount                   decimal.NullDecimal `gorm:"column:scheduled_interest_amount;type:decimal(20,8)"`
	ScheduledPrincipalAmount                  decimal.NullDecimal `gorm:"column:scheduled_principal_amount;type:decimal(20,8)"`
	OtherPrincipalAdjustmentAmount            decimal.NullDecimal `gorm:"column:other_principal_adjustment_amount;type:decimal(20,8)"`
	ReportingPeriodActualEndBalanceAmount     decimal.NullDecimal `gorm:"column:reporting_period_actual_end_balance_amount;type:decimal(20,8)"`
	ReportingPeriodScheduledPaymentAmount     decimal.NullDecimal `gorm:"column:reporting_period_scheduled_payment_amount;type:decimal(20,8)"`
	TotalActualAmountPaid                     decimal.NullDecimal `gorm:"column:total_actual_amount_paid;type:decimal(20,8)"`
	ActualInterestCollectedAmount             decimal.NullDecimal `gorm:"column:actual_interest_collected_amount;type:decimal(20,8)"`
	ActualPrincipalCollectedAmount            decimal.NullDecimal `gorm:"column:actual_principal_collected_amount;type:decimal(20,8)"`
	ActualOtherCollectedAmount                decimal.NullDecimal `gorm:"column:actual_other_collected_amount;type:decimal(20,8)"`
	ServicerAdvancedAmount                    decimal.NullDecimal `gorm:"column:servicer_advanced_amount;type:decimal(20,8)"`
	InterestPaidThroughDate                   *time.Time          `gorm:"column:interest_paid_through_date"`
	ZeroBalanceEffectiveDate                  *time.Time          `gorm:"column:zero_balance_effective_date"`
	ZeroBalanceCode                           string              `gorm:"column:zero_balance_code;size:255"`
	CurrentDelinquencyStatus                  *int                `gorm:"column:current_delinquency_status"`
	PrimaryLoanServicerName                   string              `gorm:"column:primary_loan_servicer_name;size:100"`
	MostRecentServicingTransferReceivedDate   *time.Time          `gorm:"column:most_recent_servicing_transfer_received_date"`
	AssetSubjectDemandIndicator               *bool               `gorm:"column:asset_subject_demand_indicator"`
	AssetSubjectDemandStatusCode              string              `gorm:"column:asset_subject_demand_status_code;size:255"`
	RepurchaseAmount                          decimal.NullDecimal `gorm:"column:repurchase_amount;type:decimal(20,8)"`
	DemandResolutionDate                      *time.Time          `gorm:"column:demand_resolution_date"`
	RepurchaserName                           string              `gorm:"column:repurchaser_name;size:30"`
	RepurchaseReplacementReasonCode           string              `gorm:"column:repurchase_replacement_reason_code;size:255"`
	ChargedoffPrincipalAmount                 decimal.NullDecimal `gorm:"column:chargedoff_principal_amount;type:decimal(20,8)"`
	RecoveredAmount                           decimal.NullDecimal `gorm:"column:recovered_amount;type:decimal(20,8)"`
	ModificationTypeCode                      string              `gorm:"column:modification_type_code;size:255"`
	PaymentExtendedNumber                     *int                `gorm:"column:payment_extended_number"`
	RepossessedIndicator                      *bool               `gorm:"column:repossessed_indicator"`
	RepossessedProceedsAmount                 decimal.NullDecimal `gorm:"column:repossessed_proceeds_amount;type:decimal(20,8)"`
	CreatedAt                                 time.Time           `gorm:"column:created_at"`
}

// TableName returns the table name.
func (Autoloan) TableName() string {
	return "autoloans"
}

// Autolease is one reported auto lease line item.
type Autolease struct {
	ID                                          int64               `gorm:"column:id;primaryKey;autoIncrement"`
	FilingAccNo                                 int64               `gorm:"column:filing_acc_no;not null;index"`
	AssetTypeNumber                             string              `gorm:"column:asset_type_number;size:255"`
	AssetNumber                                 string              `gorm:"column:asset_number;size:255;index"`
	ReportingPeriodBeginDate                    *time.Time          `gorm:"column:reporting_period_begin_date"`
	ReportingPeriodEndDate                      *time.Time          `gorm:"column:reporting_period_end_date"`
	OriginatorName                              string              `gorm:"column:originator_name;size:255"`
	OriginationDate                             *time.Time          `gorm:"column:origination_date"`
	AcquisitionCost                             decimal.NullDecimal `gorm:"column:acquisition_cost;type:decimal(20,8)"`
	OriginalLeaseTermNumber                     *int                `gorm:"column:original_lease_term_number"`
	ScheduledTerminationDate                    *time.Time          `gorm:"column:scheduled_termination_date"`
	OriginalFirstPaymentDate                    *time.Time          `gorm:"column:original_first_payment_date"`
	UnderwritingIndicator                       *bool               `gorm:"column:underwriting_indicator"`
	GracePeriod                                 *int                `gorm:"column:grace_period"`
	PaymentTypeCode                             string              `gorm:"column:payment_type_code;size:255"`
	Subvented                                   string              `gorm:"column:subvented;size:255"`
	VehicleManufacturerName                     string              `gorm:"column:vehicle_manufacturer_name;size:255"`
	VehicleModelName                            string              `gorm:"column:vehicle_model_name;size:255"`
	VehicleNewUsedCode                          string              `gorm:"column:vehicle_new_used_code;size:255"`
	VehicleModelYear                            string              `gorm:"column:vehicle_model_year;size:255"`
	VehicleTypeCode                             string              `gorm:"column:vehicle_type_code;size:255"`
	VehicleValueAmount                          decimal.NullDecimal `gorm:"column:vehicle_value_amount;type:decimal(20,8)"`
	VehicleValueSourceCode                      string              `gorm:"column:vehicle_value_source_code;size:255"`
	BaseResidualValue                           decimal.NullDecimal `gorm:"column:base_residual_value;type:decimal(20,8)"`
	BaseResidualSourceCode                      string              `gorm:"column:base_residual_source_code;size:255"`
	ContractResidualValue                       decimal.NullDecimal `gorm:"column:contract_residual_value;type:decimal(20,8)"`
	LesseeCreditScoreType                       string              `gorm:"column:lessee_credit_score_type;size:255"`
	LesseeCreditScore                           string              `gorm:"column:lessee_credit_score;size:255"`
	LesseeIncomeVerificationLevelCode           string              `gorm:"column:lessee_income_verification_level_code;size:255"`
	LesseeEmploymentVerificationCode            string              `gorm:"column:lessee_employment_verification_code;size:255"`
	CoLesseePresentIndicator                    *bool               `gorm:"column:co_lessee_present_indicator"`
	PaymentToIncomePercentage                   decimal.NullDecimal `gorm:"column:payment_to_income_percentage;type:decimal(20,8)"`
	LesseeGeographicLocation                    string              `gorm:"column:lessee_geographic_location;size:255"`
	AssetAddedIndicator                         *bool               `gorm:"column:asset_added_indicator"`
	RemainingTermNumber                         *int                `gorm:"column:remaining_term_number"`
	ReportingPeriodModificationIndicator        *bool               `gorm:"column:reporting_period_modification_indicator"`
	ServicingAdvanceMethodCode                  string              `gorm:"column:servicing_advance_method_code;size:255"`
	ReportingPeriodSecuritizationValueAmount    decimal.NullDecimal `gorm:"column:reporting_period_securitization_value_amount;type:decimal(20,8)"`
	SecuritizationDiscountRate                  decimal.NullDecimal `gorm:"column:securitization_discount_rate;type:decimal(20,8)"`
	NextReportingPeriodPaymentAmountDue         decimal.NullDecimal `gorm:"column:next_reporting_period_payment_amount_due;type:decimal(20,8)"`
	ServicingFeePercentage                      decimal.NullDecimal `gorm:"column:servicing_fee_percentage;type:decimal(20,8)"`
	ServicingFlatFeeAmount                      decimal.NullDecimal `gorm:"column:servicing_flat_fee_amount;type:decimal(20,8)"`
	OtherLeaseLevelServicingFeesRetainedAmount  decimal.NullDecimal `gorm:"column:other_lease_level_servicing_fees_retained_amount;type:decimal(20,8)"`
	OtherAssessedUncollectedServicerFeeAmount   decimal.NullDecimal `gorm:"column:other_assessed_uncollected_servicer_fee_amount;type:decimal(20,8)"`
	ReportingPeriodEndingActualBalanceAmount    decimal.NullDecimal `gorm:"column:reporting_period_ending_actual_balance_amount;type:decimal(20,8)"`
	ReportingPeriodScheduledPaymentAmount       decimal.NullDecimal `gorm:"column:reporting_period_scheduled_payment_amount;type:decimal(20,8)"`
	TotalActualAmountPaid                       decimal.NullDecimal `gorm:"column:total_actual_amount_paid;type:decimal(20,8)"`
	ActualOtherCollectedAmount                  decimal.NullDecimal `gorm:"column:actual_other_collected_amount;type:decimal(20,8)"`
	ReportingPeriodEndActualSecuritizationAmount decimal.NullDecimal `gorm:"column:reporting_period_end_actual_securitization_amount;type:decimal(20,8)"`
	ServicerAdvancedAmount                      decimal.NullDecimal `gorm:"column:servicer_advanced_amount;type:decimal(20,8)"`
	PaidThroughDate                             *time.Time          `gorm:"column:paid_through_date"`
	ZeroBalanceEffectiveDate                    *time.Time          `gorm:"column:zero_balance_effective_date"`
	ZeroBalanceCode                             string              `gorm:"column:zero_balance_code;size:255"`
	CurrentDelinquencyStatus                    *int                `gorm:"column:current_delinquency_status"`
	PrimaryLeaseServicerName                    string              `gorm:"column:primary_lease_servicer_name;size:255"`
	MostRecentServicingTransferReceivedDate     *time.Time          `gorm:"column:most_recent_servicing_transfer_received_date"`
	AssetSubjectDemandIndicator                 *bool               `gorm:"column:asset_subject_demand_indicator"`
	AssetSubjectDemandStatusCode                string              `gorm:"column:asset_subject_demand_status_code;size:255"`
	RepurchaseAmount                            decimal.NullDecimal `gorm:"column:repurchase_amount;type:decimal(20,8)"`
	DemandResolutionDate                        *time.Time          `gorm:"column:demand_resolution_date"`
	RepurchaserName                             string              `gorm:"column:repurchaser_name;size:255"`
	RepurchaseOrReplacementReasonCode           string              `gorm:"column:repurchase_or_replacement_reason_code;size:255"`
	ChargedOffAmount                            decimal.NullDecimal `gorm:"column:charged_off_amount;type:decimal(20,8)"`
	ModificationTypeCode                        string              `gorm:"column:modification_type_code;size:255"`
	LeaseExtended                               *int                `gorm:"column:lease_extended"`
	TerminationIndicator                        string              `gorm:"column:termination_indicator;size:255"`
	ExcessFeeAmount                             decimal.NullDecimal `gorm:"column:excess_fee_amount;type:decimal(20,8)"`
	LiquidationProceedsAmount                   decimal.NullDecimal `gorm:"column:liquidation_proceeds_amount;type:decimal(20,8)"`
	CreatedAt                                   time.Time           `gorm:"column:created_at"`
}

// TableName returns the table name.
func (Autolease) TableName() string {
	return "autoleases"
}

// AssetFiling is the per-filing catalog row registered after a successful
// extraction. Immutable once created.
type AssetFiling struct {
	AccNo      int64     `gorm:"column:acc_no;primaryKey"`
	TrustCIK   int64     `gorm:"column:trust_cik;index"`
	TrustName  string    `gorm:"column:trust_name;size:255"`
	URL        string    `gorm:"column:url;size:255;not null"`
	DateFiling time.Time `gorm:"column:date_filing"`
	AssetType  string    `gorm:"column:asset_type;size:32"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

// TableName returns the table name.
func (AssetFiling) TableName() string {
	return "asset_filings"
}

// AutoloanFlat is the flattened reporting row: one row per unique
// (trust, asset number) pair, keyed "<trustCik>_<assetNumber>". Existing
// rows are only back-filled in empty fields, never overwritten.
type AutoloanFlat struct {
	TrustAssetNumber                   string              `gorm:"column:trust_asset_number;primaryKey;size:50"`
	DateFirstFiling                    *time.Time          `gorm:"column:date_first_filing"`
	TrustCIK                           int64               `gorm:"column:trust_cik;index"`
	AssetNumber                        string              `gorm:"column:asset_number;size:25"`
	OriginationDate                    *time.Time          `gorm:"column:origination_date"`
	OriginalLoanAmount                 decimal.NullDecimal `gorm:"column:original_loan_amount;type:decimal(20,8)"`
	OriginalLoanTerm                   *int                `gorm:"column:original_loan_term"`
	LoanMaturityDate                   *time.Time          `gorm:"column:loan_maturity_date"`
	OriginalInterestRatePercentage     decimal.NullDecimal `gorm:"column:original_interest_rate_percentage;type:decimal(20,8)"`
	UnderwritingIndicator              *bool               `gorm:"column:underwriting_indicator"`
	GracePeriodNumber                  *int                `gorm:"column:grace_period_number"`
	Subvented                          string              `gorm:"column:subvented;size:255"`
	VehicleManufacturerName            string              `gorm:"column:vehicle_manufacturer_name;size:30"`
	VehicleModelName                   string              `gorm:"column:vehicle_model_name;size:30"`
	VehicleNewUsedCode                 string              `gorm:"column:vehicle_new_used_code;size:255"`
	VehicleModelYear                   string              `gorm:"column:vehicle_model_year;size:4"`
	VehicleTypeCode                    string              `gorm:"column:vehicle_type_code;size:255"`
	VehicleValueAmount                 decimal.NullDecimal `gorm:"column:vehicle_value_amount;type:decimal(20,8)"`
	ObligorCreditScore                 string              `gorm:"column:obligor_credit_score;size:20"`
	ObligorIncomeVerificationLevelCode string              `gorm:"column:obligor_income_verification_level_code;size:255"`
	ObligorEmploymentVerificationCode  string              `gorm:"column:obligor_employment_verification_code;size:255"`
	CoObligorIndicator                 *bool               `gorm:"column:co_obligor_indicator"`
	PaymentToIncomePercentage          decimal.NullDecimal `gorm:"column:payment_to_income_percentage;type:decimal(20,8)"`
	ObligorGeographicLocation          string              `gorm:"column:obligor_geographic_location;size:100"`
	ZeroBalanceEffectiveDate           *time.Time          `gorm:"column:zero_balance_effective_date"`
	ZeroBalanceCode                    string              `gorm:"column:zero_balance_code;size:255"`
	Delinquency30Days                  *time.Time          `gorm:"column:delinquency_30_days"`
	Delinquency90Days                  *time.Time          `gorm:"column:delinquency_90_days"`
	RepossessedIndicator               *bool               `gorm:"column:repossessed_indicator"`
	RepossessedDate                    *time.Time          `gorm:"column:repossessed_date"`
	CreatedAt                          time.Time           `gorm:"column:created_at"`
	UpdatedAt                          time.Time           `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (AutoloanFlat) TableName() string {
	return "autoloans_flat"
}
