package assets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/absdata/absidx/internal/database"
)

// Asset rows are wide (~74 bound variables each), and SQLite caps one
// statement at 32766 binds. 100 rows per INSERT stays well under that.
const insertBatchSize = 100

// Store implements the asset record store over GORM. The asset tables may
// live in the same database as the filing index or in a separate one.
type Store struct {
	db database.Database
}

// NewStore creates a new Store.
func NewStore(db database.Database) Store {
	return Store{db: db}
}

// AutoMigrate creates or updates the asset tables.
func AutoMigrate(db database.Database) error {
	if err := db.GORM().AutoMigrate(&Autoloan{}, &Autolease{}, &AssetFiling{}, &AutoloanFlat{}); err != nil {
		return fmt.Errorf("migrate asset tables: %w", err)
	}
	return nil
}

// Reset drops and recreates the asset tables. Used by parse --rebuild only.
func Reset(db database.Database) error {
	if err := db.GORM().Migrator().DropTable(&Autoloan{}, &Autolease{}, &AssetFiling{}, &AutoloanFlat{}); err != nil {
		return fmt.Errorf("drop asset tables: %w", err)
	}
	return AutoMigrate(db)
}

// ResetFlat drops and recreates only the flattened table, keeping the raw
// per-filing rows. Used by flatten --rebuild.
func ResetFlat(db database.Database) error {
	if err := db.GORM().Migrator().DropTable(&AutoloanFlat{}); err != nil {
		return fmt.Errorf("drop flat table: %w", err)
	}
	if err := db.GORM().AutoMigrate(&AutoloanFlat{}); err != nil {
		return fmt.Errorf("migrate flat table: %w", err)
	}
	return nil
}

// InsertAutoloans persists all loan rows extracted from one filing inside the
// given transaction.
func InsertAutoloans(tx *gorm.DB, rows []Autoloan) error {
	if len(rows) == 0 {
		return nil
	}
	if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
		return fmt.Errorf("insert %d autoloan rows: %w", len(rows), err)
	}
	return nil
}

// InsertAutoleases persists all lease rows extracted from one filing inside
// the given transaction.
func InsertAutoleases(tx *gorm.DB, rows []Autolease) error {
	if len(rows) == 0 {
		return nil
	}
	if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
		return fmt.Errorf("insert %d autolease rows: %w", len(rows), err)
	}
	return nil
}

// RegisterFiling records the filing in the asset catalog if unseen.
func RegisterFiling(tx *gorm.DB, f AssetFiling) error {
	var count int64
	if err := tx.Model(&AssetFiling{}).Where("acc_no = ?", f.AccNo).Count(&count).Error; err != nil {
		return fmt.Errorf("look up asset filing %d: %w", f.AccNo, err)
	}
	if count > 0 {
		return nil
	}
	if err := tx.Create(&f).Error; err != nil {
		return fmt.Errorf("register asset filing %d: %w", f.AccNo, err)
	}
	return nil
}

// HasFiling reports whether a filing's records are already present.
func (s Store) HasFiling(ctx context.Context, accNo int64) (bool, error) {
	var count int64
	if err := s.db.Session(ctx).Model(&AssetFiling{}).Where("acc_no = ?", accNo).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check asset filing %d: %w", accNo, err)
	}
	return count > 0, nil
}

// DeleteFilingRecords purges all asset rows and the catalog entry for one
// filing inside the given transaction, so a reparse starts clean.
func DeleteFilingRecords(tx *gorm.DB, accNo int64) error {
	if err := tx.Where("filing_acc_no = ?", accNo).Delete(&Autoloan{}).Error; err != nil {
		return fmt.Errorf("delete autoloan rows of filing %d: %w", accNo, err)
	}
	if err := tx.Where("filing_acc_no = ?", accNo).Delete(&Autolease{}).Error; err != nil {
		return fmt.Errorf("delete autolease rows of filing %d: %w", accNo, err)
	}
	if err := tx.Where("acc_no = ?", accNo).Delete(&AssetFiling{}).Error; err != nil {
		return fmt.Errorf("delete asset filing %d: %w", accNo, err)
	}
	return nil
}

// PurgeFilings removes the extracted rows and catalog entries of every
// catalogued filing matching the filter, leaving other filings' rows in
// place. Returns the number of filings purged.
func (s Store) PurgeFilings(ctx context.Context, assetTypes []string, trustCIKs, accNos []int64) (int, error) {
	q := s.db.Session(ctx).Model(&AssetFiling{})
	if len(assetTypes) > 0 {
		q = q.Where("asset_type IN ?", assetTypes)
	}
	if len(trustCIKs) > 0 {
		q = q.Where("trust_cik IN ?", trustCIKs)
	}
	if len(accNos) > 0 {
		q = q.Where("acc_no IN ?", accNos)
	}

	var catalog []AssetFiling
	if err := q.Find(&catalog).Error; err != nil {
		return 0, fmt.Errorf("list filings to purge: %w", err)
	}
	if len(catalog) == 0 {
		return 0, nil
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		for _, f := range catalog {
			if err := DeleteFilingRecords(tx, f.AccNo); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(catalog), nil
}

// SaveExtraction persists one filing's extraction as a unit: the asset rows
// and the catalog registration commit together or not at all.
func (s Store) SaveExtraction(ctx context.Context, filing AssetFiling, loans []Autoloan, leases []Autolease) error {
	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := DeleteFilingRecords(tx, filing.AccNo); err != nil {
			return err
		}
		if err := InsertAutoloans(tx, loans); err != nil {
			return err
		}
		if err := InsertAutoleases(tx, leases); err != nil {
			return err
		}
		return RegisterFiling(tx, filing)
	})
}

// FlatSourceRow is one loan row joined with its filing's trust identity and
// filing date, in the order the flattening fold consumes them.
type FlatSourceRow struct {
	Autoloan   `gorm:"embedded"`
	TrustCIK   int64     `gorm:"column:trust_cik"`
	DateFiling time.Time `gorm:"column:date_filing"`
}

// FlatFilter narrows the flattening scan. At most one of the identity
// filters is expected to be set.
type FlatFilter struct {
	TrustCIKs []int64
	AccNos    []int64
	Company   string
}

// FlatSourceRows streams all loan rows matching the filter, ordered by
// filing date then accession number so the flattening fold sees each asset's
// history oldest first. Returning an error from fn stops the scan.
func (s Store) FlatSourceRows(ctx context.Context, filter FlatFilter, fn func(row FlatSourceRow) error) error {
	session := s.db.Session(ctx)
	q := session.Model(&Autoloan{}).
		Select("autoloans.*, asset_filings.trust_cik AS trust_cik, asset_filings.date_filing AS date_filing").
		Joins("JOIN asset_filings ON asset_filings.acc_no = autoloans.filing_acc_no").
		Order("asset_filings.date_filing ASC, autoloans.filing_acc_no ASC, autoloans.id ASC")
	if len(filter.TrustCIKs) > 0 {
		q = q.Where("asset_filings.trust_cik IN ?", filter.TrustCIKs)
	}
	if len(filter.AccNos) > 0 {
		q = q.Where("asset_filings.acc_no IN ?", filter.AccNos)
	}
	if filter.Company != "" {
		q = q.Where("asset_filings.trust_name LIKE ?", "%"+filter.Company+"%")
	}

	rows, err := q.Rows()
	if err != nil {
		return fmt.Errorf("scan flat source rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row FlatSourceRow
		if err := session.ScanRows(rows, &row); err != nil {
			return fmt.Errorf("scan flat source row: %w", err)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate flat source rows: %w", err)
	}
	return nil
}

// FlatByKey retrieves a flattened row.
func (s Store) FlatByKey(ctx context.Context, key string) (AutoloanFlat, error) {
	var row AutoloanFlat
	err := s.db.Session(ctx).Where("trust_asset_number = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return AutoloanFlat{}, fmt.Errorf("%w: flat row %s", database.ErrNotFound, key)
	}
	if err != nil {
		return AutoloanFlat{}, fmt.Errorf("get flat row %s: %w", key, err)
	}
	return row, nil
}

// UpsertFlat inserts the row when its key is unseen, otherwise back-fills
// only the fields that are still empty on the stored row. Set fields are
// never overwritten, so repeated flattening runs are idempotent.
func (s Store) UpsertFlat(ctx context.Context, row AutoloanFlat) error {
	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		return upsertFlat(tx, row)
	})
}

// UpsertFlatBatch applies UpsertFlat semantics to a batch of rows in one
// transaction.
func (s Store) UpsertFlatBatch(ctx context.Context, rows []AutoloanFlat) error {
	if len(rows) == 0 {
		return nil
	}
	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		for _, row := range rows {
			if err := upsertFlat(tx, row); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertFlat(tx *gorm.DB, row AutoloanFlat) error {
	var existing AutoloanFlat
	err := tx.Where("trust_asset_number = ?", row.TrustAssetNumber).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if createErr := tx.Create(&row).Error; createErr != nil {
			return fmt.Errorf("create flat row %s: %w", row.TrustAssetNumber, createErr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up flat row %s: %w", row.TrustAssetNumber, err)
	}

	updates := flatBackfill(existing, row)
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	if err := tx.Model(&AutoloanFlat{}).Where("trust_asset_number = ?", row.TrustAssetNumber).Updates(updates).Error; err != nil {
		return fmt.Errorf("backfill flat row %s: %w", row.TrustAssetNumber, err)
	}
	return nil
}

// flatBackfill computes the column updates for fields empty on the stored row
// and set on the incoming one.
func flatBackfill(existing, incoming AutoloanFlat) map[string]any {
	updates := map[string]any{}

	setTime := func(column string, old, new *time.Time) {
		if old == nil && new != nil {
			updates[column] = *new
		}
	}
	setBool := func(column string, old, new *bool) {
		if old == nil && new != nil {
			updates[column] = *new
		}
	}
	setInt := func(column string, old, new *int) {
		if old == nil && new != nil {
			updates[column] = *new
		}
	}
	setString := func(column string, old, new string) {
		if old == "" && new != "" {
			updates[column] = new
		}
	}

	setTime("date_first_filing", existing.DateFirstFiling, incoming.DateFirstFiling)
	setTime("origination_date", existing.OriginationDate, incoming.OriginationDate)
	if !existing.OriginalLoanAmount.Valid && incoming.OriginalLoanAmount.Valid {
		updates["original_loan_amount"] = incoming.OriginalLoanAmount
	}
	setInt("original_loan_term", existing.OriginalLoanTerm, incoming.OriginalLoanTerm)
	setTime("loan_maturity_date", existing.LoanMaturityDate, incoming.LoanMaturityDate)
	if !existing.OriginalInterestRatePercentage.Valid && incoming.OriginalInterestRatePercentage.Valid {
		updates["original_interest_rate_percentage"] = incoming.OriginalInterestRatePercentage
	}
	setBool("underwriting_indicator", existing.UnderwritingIndicator, incoming.UnderwritingIndicator)
	setInt("grace_period_number", existing.GracePeriodNumber, incoming.GracePeriodNumber)
	setString("subvented", existing.Subvented, incoming.Subvented)
	setString("vehicle_manufacturer_name", existing.VehicleManufacturerName, incoming.VehicleManufacturerName)
	setString("vehicle_model_name", existing.VehicleModelName, incoming.VehicleModelName)
	setString("vehicle_new_used_code", existing.VehicleNewUsedCode, incoming.VehicleNewUsedCode)
	setString("vehicle_model_year", existing.VehicleModelYear, incoming.VehicleModelYear)
	setString("vehicle_type_code", existing.VehicleTypeCode, incoming.VehicleTypeCode)
	if !existing.VehicleValueAmount.Valid && incoming.VehicleValueAmount.Valid {
		updates["vehicle_value_amount"] = incoming.VehicleValueAmount
	}
	setString("obligor_credit_score", existing.ObligorCreditScore, incoming.ObligorCreditScore)
	setString("obligor_income_verification_level_code", existing.ObligorIncomeVerificationLevelCode, incoming.ObligorIncomeVerificationLevelCode)
	setString("obligor_employment_verification_code", existing.ObligorEmploymentVerificationCode, incoming.ObligorEmploymentVerificationCode)
	setBool("co_obligor_indicator", existing.CoObligorIndicator, incoming.CoObligorIndicator)
	if !existing.PaymentToIncomePercentage.Valid && incoming.PaymentToIncomePercentage.Valid {
		updates["payment_to_income_percentage"] = incoming.PaymentToIncomePercentage
	}
	setString("obligor_geographic_location", existing.ObligorGeographicLocation, incoming.ObligorGeographicLocation)
	setTime("zero_balance_effective_date", existing.ZeroBalanceEffectiveDate, incoming.ZeroBalanceEffectiveDate)
	setString("zero_balance_code", existing.ZeroBalanceCode, incoming.ZeroBalanceCode)
	setTime("delinquency_30_days", existing.Delinquency30Days, incoming.Delinquency30Days)
	setTime("delinquency_90_days", existing.Delinquency90Days, incoming.Delinquency90Days)
	setBool("repossessed_indicator", existing.RepossessedIndicator, incoming.RepossessedIndicator)
	setTime("repossessed_date", existing.RepossessedDate, incoming.RepossessedDate)

	return updates
}
