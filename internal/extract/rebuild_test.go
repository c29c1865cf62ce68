package extract_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absdata/absidx/internal/assets"
	"github.com/absdata/absidx/internal/config"
	"github.com/absdata/absidx/internal/extract"
	"github.com/absdata/absidx/internal/index"
	"github.com/absdata/absidx/internal/testdb"
)

func TestResetParsedScopedToTrustKeepsOtherFilings(t *testing.T) {
	db := testdb.New(t)
	store := index.NewStore(db)
	cfg := config.NewAppConfig()
	config.WithDataDir(t.TempDir())(&cfg)
	ctx := context.Background()

	seedTrustFiling(t, cfg, store, 1700001, "Alpha Receivables Trust", 111111101, "autoloan", loanDoc)
	seedTrustFiling(t, cfg, store, 1700002, "Beta Auto Trust", 111111102, "autoloan", loanDoc)

	extractor := extract.NewExtractor(&cfg, store, db, nil, discardLogger())
	result, err := extractor.Run(ctx, index.Filter{})
	require.NoError(t, err)
	require.Equal(t, 2, result.Parsed)

	cleared, err := extract.ResetParsed(ctx, store, db, index.Filter{TrustCIKs: []int64{1700001}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	// Only the selected trust's filing comes back pending; the other filing
	// keeps its parsed flag and its rows.
	pending, err := store.Pending(ctx, index.StageParse, index.Filter{})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(111111101), pending[0].AccNo)

	var alphaRows, betaRows int64
	require.NoError(t, db.Session(ctx).Model(&assets.Autoloan{}).Where("filing_acc_no = ?", 111111101).Count(&alphaRows).Error)
	require.NoError(t, db.Session(ctx).Model(&assets.Autoloan{}).Where("filing_acc_no = ?", 111111102).Count(&betaRows).Error)
	assert.Zero(t, alphaRows)
	assert.Equal(t, int64(2), betaRows)

	assetStore := assets.NewStore(db)
	has, err := assetStore.HasFiling(ctx, 111111101)
	require.NoError(t, err)
	assert.False(t, has)
	has, err = assetStore.HasFiling(ctx, 111111102)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestResetParsedScopedToAssetTypeKeepsOtherTypes(t *testing.T) {
	db := testdb.New(t)
	store := index.NewStore(db)
	cfg := config.NewAppConfig()
	config.WithDataDir(t.TempDir())(&cfg)
	ctx := context.Background()

	leaseDoc := `<?xml version="1.0"?>
<assetData xmlns="http://www.sec.gov/edgar/document/absee/autolease/assetdata">
	<assets>
		<assetNumber>LEASE-001</assetNumber>
		<acquisitionCost>31000.00</acquisitionCost>
	</assets>
</assetData>`

	seedTrustFiling(t, cfg, store, 1700001, "Alpha Receivables Trust", 111111101, "autoloan", loanDoc)
	seedTrustFiling(t, cfg, store, 1700002, "Beta Lease Trust", 111111102, "autolease", leaseDoc)

	extractor := extract.NewExtractor(&cfg, store, db, nil, discardLogger())
	result, err := extractor.Run(ctx, index.Filter{})
	require.NoError(t, err)
	require.Equal(t, 2, result.Parsed)

	cleared, err := extract.ResetParsed(ctx, store, db, index.Filter{AssetTypes: []string{"autolease"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	var loans, leases int64
	require.NoError(t, db.Session(ctx).Model(&assets.Autoloan{}).Count(&loans).Error)
	require.NoError(t, db.Session(ctx).Model(&assets.Autolease{}).Count(&leases).Error)
	assert.Equal(t, int64(2), loans)
	assert.Zero(t, leases)

	pending, err := store.Pending(ctx, index.StageParse, index.Filter{})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(111111102), pending[0].AccNo)
}

func TestResetParsedUnrestrictedDropsAssetTables(t *testing.T) {
	db := testdb.New(t)
	store := index.NewStore(db)
	cfg := config.NewAppConfig()
	config.WithDataDir(t.TempDir())(&cfg)
	ctx := context.Background()

	seedTrustFiling(t, cfg, store, 1700001, "Alpha Receivables Trust", 111111101, "autoloan", loanDoc)
	seedTrustFiling(t, cfg, store, 1700002, "Beta Auto Trust", 111111102, "autoloan", loanDoc)

	extractor := extract.NewExtractor(&cfg, store, db, nil, discardLogger())
	_, err := extractor.Run(ctx, index.Filter{})
	require.NoError(t, err)

	// The full parseable asset-type set is no restriction at all.
	cleared, err := extract.ResetParsed(ctx, store, db, index.Filter{AssetTypes: []string{"autoloan", "autolease"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleared)

	var loans, catalog int64
	require.NoError(t, db.Session(ctx).Model(&assets.Autoloan{}).Count(&loans).Error)
	require.NoError(t, db.Session(ctx).Model(&assets.AssetFiling{}).Count(&catalog).Error)
	assert.Zero(t, loans)
	assert.Zero(t, catalog)

	pending, err := store.Pending(ctx, index.StageParse, index.Filter{})
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}
