package index_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absdata/absidx/internal/database"
	"github.com/absdata/absidx/internal/index"
	"github.com/absdata/absidx/internal/testdb"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func sampleEntries() []index.Entry {
	return []index.Entry{
		{
			Trust: index.Company{CIK: 1700001, Name: "Alpha Receivables Trust", IsTrust: true, AssetType: strPtr("autoloan")},
			Filer: &index.Company{CIK: 1600001, Name: "Alpha Funding LLC"},
			Filing: index.Filing{
				AccNo:      111111111111111101,
				CIKFiler:   1600001,
				CIKTrust:   1700001,
				URL:        "https://www.sec.gov/Archives/edgar/data/1600001/111111111111111101/alpha.xml",
				DateFiling: day(2020, 3, 10),
			},
		},
		{
			Trust: index.Company{CIK: 1700002, Name: "Beta Auto Trust", IsTrust: true, AssetType: strPtr("autolease")},
			Filing: index.Filing{
				AccNo:      111111111111111102,
				CIKFiler:   1700002,
				CIKTrust:   1700002,
				URL:        "https://www.sec.gov/Archives/edgar/data/1700002/111111111111111102/beta.xml",
				DateFiling: day(2020, 3, 12),
			},
		},
	}
}

func TestSaveEntriesIsIdempotent(t *testing.T) {
	db := testdb.New(t)
	store := index.NewStore(db)
	ctx := context.Background()

	created, err := store.SaveEntries(ctx, sampleEntries())
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	// Re-scraping the same page must not change anything.
	created, err = store.SaveEntries(ctx, sampleEntries())
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	total, _, _, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	var companies int64
	require.NoError(t, db.Session(ctx).Model(&index.Company{}).Count(&companies).Error)
	assert.Equal(t, int64(3), companies)
}

func TestUpsertCompanyNeverDowngrades(t *testing.T) {
	db := testdb.New(t)
	store := index.NewStore(db)
	ctx := context.Background()

	require.NoError(t, store.UpsertCompany(ctx, index.Company{
		CIK: 1700001, Name: "Alpha Receivables Trust", IsTrust: true, AssetType: strPtr("autoloan"),
	}))

	// A later sighting as plain filer with no asset type must not erase anything.
	require.NoError(t, store.UpsertCompany(ctx, index.Company{CIK: 1700001, Name: "Alpha Different Name"}))

	got, err := store.CompanyByCIK(ctx, 1700001)
	require.NoError(t, err)
	assert.Equal(t, "Alpha Receivables Trust", got.Name)
	assert.True(t, got.IsTrust)
	require.NotNil(t, got.AssetType)
	assert.Equal(t, "autoloan", *got.AssetType)
}

func TestUpsertCompanyBackfills(t *testing.T) {
	db := testdb.New(t)
	store := index.NewStore(db)
	ctx := context.Background()

	require.NoError(t, store.UpsertCompany(ctx, index.Company{CIK: 1700001, Name: "Alpha Trust"}))
	require.NoError(t, store.UpsertCompany(ctx, index.Company{
		CIK: 1700001, IsTrust: true, AssetType: strPtr("autoloan"),
	}))

	got, err := store.CompanyByCIK(ctx, 1700001)
	require.NoError(t, err)
	assert.Equal(t, "Alpha Trust", got.Name)
	assert.True(t, got.IsTrust)
	require.NotNil(t, got.AssetType)
	assert.Equal(t, "autoloan", *got.AssetType)
}

func TestMostRecentFilingDate(t *testing.T) {
	db := testdb.New(t)
	store := index.NewStore(db)
	ctx := context.Background()

	latest, err := store.MostRecentFilingDate(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = store.SaveEntries(ctx, sampleEntries())
	require.NoError(t, err)

	latest, err = store.MostRecentFilingDate(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, day(2020, 3, 12), latest.UTC())
}

func TestPendingOrderingAndStageGating(t *testing.T) {
	db := testdb.New(t)
	store := index.NewStore(db)
	ctx := context.Background()

	_, err := store.SaveEntries(ctx, sampleEntries())
	require.NoError(t, err)

	pending, err := store.Pending(ctx, index.StageDownload, index.Filter{})
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, int64(111111111111111101), pending[0].AccNo)
	assert.Equal(t, "Alpha Receivables Trust", pending[0].TrustName)
	assert.Equal(t, "autoloan", pending[0].AssetType)

	// Nothing is ready to parse before it is downloaded.
	pending, err = store.Pending(ctx, index.StageParse, index.Filter{})
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, store.MarkDownloaded(ctx, 111111111111111101))

	pending, err = store.Pending(ctx, index.StageParse, index.Filter{})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(111111111111111101), pending[0].AccNo)

	pending, err = store.Pending(ctx, index.StageDownload, index.Filter{})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(111111111111111102), pending[0].AccNo)
}

func TestPendingFilters(t *testing.T) {
	db := testdb.New(t)
	store := index.NewStore(db)
	ctx := context.Background()

	_, err := store.SaveEntries(ctx, sampleEntries())
	require.NoError(t, err)

	pending, err := store.Pending(ctx, index.StageDownload, index.Filter{AssetTypes: []string{"autolease"}})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(111111111111111102), pending[0].AccNo)

	pending, err = store.Pending(ctx, index.StageDownload, index.Filter{TrustCIKs: []int64{1700001}})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(111111111111111101), pending[0].AccNo)

	pending, err = store.Pending(ctx, index.StageDownload, index.Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestMarkSkippedExcludesFromPending(t *testing.T) {
	db := testdb.New(t)
	store := index.NewStore(db)
	ctx := context.Background()

	_, err := store.SaveEntries(ctx, sampleEntries())
	require.NoError(t, err)

	require.NoError(t, store.MarkSkipped(ctx, 111111111111111101))

	pending, err := store.Pending(ctx, index.StageDownload, index.Filter{})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(111111111111111102), pending[0].AccNo)
}

func TestMarkFlagsUnknownFiling(t *testing.T) {
	db := testdb.New(t)
	store := index.NewStore(db)
	ctx := context.Background()

	err := store.MarkDownloaded(ctx, 42)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestResetStage(t *testing.T) {
	db := testdb.New(t)
	store := index.NewStore(db)
	ctx := context.Background()

	_, err := store.SaveEntries(ctx, sampleEntries())
	require.NoError(t, err)
	require.NoError(t, store.MarkDownloaded(ctx, 111111111111111101))
	require.NoError(t, store.MarkDownloaded(ctx, 111111111111111102))

	cleared, err := store.ResetStage(ctx, index.StageDownload, index.Filter{AssetTypes: []string{"autoloan"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	pending, err := store.Pending(ctx, index.StageDownload, index.Filter{})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(111111111111111101), pending[0].AccNo)
}

func TestSameDayDuplicates(t *testing.T) {
	db := testdb.New(t)
	store := index.NewStore(db)
	ctx := context.Background()

	entries := sampleEntries()
	dup := entries[0]
	dup.Filing.AccNo = 111111111111111103
	dup.Filing.URL = "https://www.sec.gov/Archives/edgar/data/1600001/111111111111111103/alpha2.xml"
	entries = append(entries, dup)

	_, err := store.SaveEntries(ctx, entries)
	require.NoError(t, err)

	groups, err := store.SameDayDuplicates(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, int64(1700001), groups[0].CIKTrust)
	assert.Equal(t, 2, groups[0].Count)

	// Skipping one of the pair clears the warning.
	require.NoError(t, store.MarkSkipped(ctx, 111111111111111103))
	groups, err = store.SameDayDuplicates(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}
