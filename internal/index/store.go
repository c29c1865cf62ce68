package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/absdata/absidx/internal/database"
)

// Stage identifies a pipeline stage gated by a filing status flag.
type Stage string

// Pipeline stages.
const (
	StageDownload Stage = "download"
	StageParse    Stage = "parse"
)

func (s Stage) column() (string, error) {
	switch s {
	case StageDownload:
		return "is_downloaded", nil
	case StageParse:
		return "is_parsed", nil
	default:
		return "", fmt.Errorf("unknown stage %q", s)
	}
}

// Filter narrows pending and reset queries.
type Filter struct {
	AssetTypes []string
	TrustCIKs  []int64
	AccNos     []int64
	Limit      int
}

// Store implements the filing index over GORM.
type Store struct {
	db database.Database
}

// NewStore creates a new Store.
func NewStore(db database.Database) Store {
	return Store{db: db}
}

// AutoMigrate creates or updates the index tables.
func AutoMigrate(db database.Database) error {
	if err := db.GORM().AutoMigrate(&Company{}, &Filing{}); err != nil {
		return fmt.Errorf("migrate index tables: %w", err)
	}
	return nil
}

// Reset drops and recreates the index tables. Used by index --rebuild only.
func Reset(db database.Database) error {
	if err := db.GORM().Migrator().DropTable(&Filing{}, &Company{}); err != nil {
		return fmt.Errorf("drop index tables: %w", err)
	}
	return AutoMigrate(db)
}

// upsertCompany inserts a company if its CIK is unseen. Existing rows are
// backfilled only: is_trust is never downgraded, a set asset_type and a
// non-empty name are never overwritten.
func upsertCompany(tx *gorm.DB, c Company) error {
	var existing Company
	err := tx.Where("cik = ?", c.CIK).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if createErr := tx.Create(&c).Error; createErr != nil {
			return fmt.Errorf("create company %d: %w", c.CIK, createErr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up company %d: %w", c.CIK, err)
	}

	updates := map[string]any{}
	if existing.Name == "" && c.Name != "" {
		updates["name"] = c.Name
	}
	if !existing.IsTrust && c.IsTrust {
		updates["is_trust"] = true
	}
	if existing.AssetType == nil && c.AssetType != nil {
		updates["asset_type"] = *c.AssetType
	}
	if len(updates) == 0 {
		return nil
	}
	if err := tx.Model(&Company{}).Where("cik = ?", c.CIK).Updates(updates).Error; err != nil {
		return fmt.Errorf("backfill company %d: %w", c.CIK, err)
	}
	return nil
}

// upsertFiling inserts a filing only if its accession number is unseen.
// Returns true when a row was created.
func upsertFiling(tx *gorm.DB, f Filing) (bool, error) {
	var count int64
	if err := tx.Model(&Filing{}).Where("acc_no = ?", f.AccNo).Count(&count).Error; err != nil {
		return false, fmt.Errorf("look up filing %d: %w", f.AccNo, err)
	}
	if count > 0 {
		return false, nil
	}
	if err := tx.Create(&f).Error; err != nil {
		return false, fmt.Errorf("create filing %d: %w", f.AccNo, err)
	}
	return true, nil
}

// UpsertCompany inserts or backfills a single company.
func (s Store) UpsertCompany(ctx context.Context, c Company) error {
	return upsertCompany(s.db.Session(ctx), c)
}

// UpsertFiling inserts a filing if unseen. Returns true when a row was created.
func (s Store) UpsertFiling(ctx context.Context, f Filing) (bool, error) {
	return upsertFiling(s.db.Session(ctx), f)
}

// SaveEntries persists all entries scraped from one results page in a single
// transaction and returns the number of filings newly created. A crash
// mid-run therefore loses at most the current page.
func (s Store) SaveEntries(ctx context.Context, entries []Entry) (int, error) {
	created := 0
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		for _, e := range entries {
			if err := upsertCompany(tx, e.Trust); err != nil {
				return err
			}
			if e.Filer != nil && e.Filer.CIK != e.Trust.CIK {
				if err := upsertCompany(tx, *e.Filer); err != nil {
					return err
				}
			}
			ok, err := upsertFiling(tx, e.Filing)
			if err != nil {
				return err
			}
			if ok {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// HasCompany reports whether a CIK is already indexed.
func (s Store) HasCompany(ctx context.Context, cik int64) (bool, error) {
	var count int64
	if err := s.db.Session(ctx).Model(&Company{}).Where("cik = ?", cik).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check company %d: %w", cik, err)
	}
	return count > 0, nil
}

// CompanyByCIK retrieves a company.
func (s Store) CompanyByCIK(ctx context.Context, cik int64) (Company, error) {
	var c Company
	err := s.db.Session(ctx).Where("cik = ?", cik).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Company{}, fmt.Errorf("%w: company %d", database.ErrNotFound, cik)
	}
	if err != nil {
		return Company{}, fmt.Errorf("get company %d: %w", cik, err)
	}
	return c, nil
}

// FilingByAccNo retrieves a filing.
func (s Store) FilingByAccNo(ctx context.Context, accNo int64) (Filing, error) {
	var f Filing
	err := s.db.Session(ctx).Where("acc_no = ?", accNo).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Filing{}, fmt.Errorf("%w: filing %d", database.ErrNotFound, accNo)
	}
	if err != nil {
		return Filing{}, fmt.Errorf("get filing %d: %w", accNo, err)
	}
	return f, nil
}

// MostRecentFilingDate returns the maximum filing date across the index,
// or nil when the index is empty. The crawler resumes from the next day.
func (s Store) MostRecentFilingDate(ctx context.Context) (*time.Time, error) {
	var f Filing
	err := s.db.Session(ctx).Order("date_filing DESC").First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query most recent filing date: %w", err)
	}
	d := f.DateFiling
	return &d, nil
}

func (s Store) markFlag(ctx context.Context, accNo int64, column string) error {
	result := s.db.Session(ctx).Model(&Filing{}).
		Where("acc_no = ?", accNo).
		Updates(map[string]any{column: true, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("mark filing %d %s: %w", accNo, column, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: filing %d", database.ErrNotFound, accNo)
	}
	return nil
}

// MarkDownloaded flips the downloaded flag. Idempotent.
func (s Store) MarkDownloaded(ctx context.Context, accNo int64) error {
	return s.markFlag(ctx, accNo, "is_downloaded")
}

// MarkParsed flips the parsed flag. Idempotent.
func (s Store) MarkParsed(ctx context.Context, accNo int64) error {
	return s.markFlag(ctx, accNo, "is_parsed")
}

// MarkSkipped excludes a duplicate or erroneous filing from all downstream stages.
func (s Store) MarkSkipped(ctx context.Context, accNo int64) error {
	return s.markFlag(ctx, accNo, "skip")
}

func applyFilter(q *gorm.DB, filter Filter) *gorm.DB {
	if len(filter.AssetTypes) > 0 {
		q = q.Where("companies.asset_type IN ?", filter.AssetTypes)
	}
	if len(filter.TrustCIKs) > 0 {
		q = q.Where("filings.cik_trust IN ?", filter.TrustCIKs)
	}
	if len(filter.AccNos) > 0 {
		q = q.Where("filings.acc_no IN ?", filter.AccNos)
	}
	return q
}

// Pending returns filings that have not yet reached the given stage, ordered
// by (filing date, accession number) for deterministic resumption.
func (s Store) Pending(ctx context.Context, stage Stage, filter Filter) ([]PendingFiling, error) {
	column, err := stage.column()
	if err != nil {
		return nil, err
	}

	q := s.db.Session(ctx).Model(&Filing{}).
		Select("filings.acc_no, filings.cik_trust, filings.url, filings.date_filing, companies.name AS trust_name, companies.asset_type AS asset_type").
		Joins("JOIN companies ON companies.cik = filings.cik_trust").
		Where("filings.skip = ?", false).
		Where(fmt.Sprintf("filings.%s = ?", column), false)
	if stage == StageParse {
		// A filing cannot be parsed before its document is on disk.
		q = q.Where("filings.is_downloaded = ?", true)
	}
	q = applyFilter(q, filter).
		Order("filings.date_filing ASC, filings.acc_no ASC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var pending []PendingFiling
	if err := q.Scan(&pending).Error; err != nil {
		return nil, fmt.Errorf("query pending %s filings: %w", stage, err)
	}
	return pending, nil
}

// ResetStage bulk-clears a status flag for filings matching the filter.
// Returns the number of affected rows.
func (s Store) ResetStage(ctx context.Context, stage Stage, filter Filter) (int64, error) {
	column, err := stage.column()
	if err != nil {
		return 0, err
	}

	q := s.db.Session(ctx).Model(&Filing{}).Where(fmt.Sprintf("%s = ?", column), true)
	if len(filter.AssetTypes) > 0 {
		q = q.Where("cik_trust IN (?)",
			s.db.Session(ctx).Model(&Company{}).Select("cik").Where("asset_type IN ?", filter.AssetTypes))
	}
	if len(filter.TrustCIKs) > 0 {
		q = q.Where("cik_trust IN ?", filter.TrustCIKs)
	}
	if len(filter.AccNos) > 0 {
		q = q.Where("acc_no IN ?", filter.AccNos)
	}

	result := q.Updates(map[string]any{column: false, "updated_at": time.Now()})
	if result.Error != nil {
		return 0, fmt.Errorf("reset %s stage: %w", stage, result.Error)
	}
	return result.RowsAffected, nil
}

// SameDayDuplicates reports trusts with more than one non-skipped filing on
// a single day, for the operator-facing warn mode.
func (s Store) SameDayDuplicates(ctx context.Context) ([]SameDayGroup, error) {
	var groups []SameDayGroup
	err := s.db.Session(ctx).Model(&Filing{}).
		Select("filings.cik_trust, companies.name AS trust_name, filings.date_filing, COUNT(*) AS count").
		Joins("JOIN companies ON companies.cik = filings.cik_trust").
		Where("filings.skip = ?", false).
		Group("filings.cik_trust, companies.name, filings.date_filing").
		Having("COUNT(*) > 1").
		Order("filings.date_filing ASC, filings.cik_trust ASC").
		Scan(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("query same-day duplicates: %w", err)
	}
	return groups, nil
}

// Counts returns total, downloaded, and parsed filing counts for progress reporting.
func (s Store) Counts(ctx context.Context) (total, downloaded, parsed int64, err error) {
	session := s.db.Session(ctx).Model(&Filing{}).Where("skip = ?", false)
	if err = session.Count(&total).Error; err != nil {
		return 0, 0, 0, fmt.Errorf("count filings: %w", err)
	}
	if err = s.db.Session(ctx).Model(&Filing{}).Where("skip = ? AND is_downloaded = ?", false, true).Count(&downloaded).Error; err != nil {
		return 0, 0, 0, fmt.Errorf("count downloaded filings: %w", err)
	}
	if err = s.db.Session(ctx).Model(&Filing{}).Where("skip = ? AND is_parsed = ?", false, true).Count(&parsed).Error; err != nil {
		return 0, 0, 0, fmt.Errorf("count parsed filings: %w", err)
	}
	return total, downloaded, parsed, nil
}
