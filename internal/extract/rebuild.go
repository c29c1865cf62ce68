package extract

import (
	"context"
	"slices"

	"github.com/absdata/absidx/internal/assets"
	"github.com/absdata/absidx/internal/database"
	"github.com/absdata/absidx/internal/index"
)

// ResetParsed prepares a reparse: the parse flags of filings matching the
// filter are cleared, then their extracted rows are removed. An unrestricted
// filter drops and recreates the asset tables wholesale; any narrowing by
// trust, filing, or asset type purges only the matching filings, so the rows
// and parsed flags of everything outside the filter stay consistent. Flags
// clear before rows go, so an interruption in between leaves stale rows on
// pending filings, which the reparse purges anyway.
func ResetParsed(ctx context.Context, indexStore index.Store, assetDB database.Database, filter index.Filter) (int64, error) {
	cleared, err := indexStore.ResetStage(ctx, index.StageParse, filter)
	if err != nil {
		return 0, err
	}

	if rebuildScoped(filter) {
		if _, err := assets.NewStore(assetDB).PurgeFilings(ctx, filter.AssetTypes, filter.TrustCIKs, filter.AccNos); err != nil {
			return 0, err
		}
		return cleared, nil
	}

	if err := assets.Reset(assetDB); err != nil {
		return 0, err
	}
	return cleared, nil
}

// rebuildScoped reports whether the filter narrows the rebuild below the
// full asset tables: any identity filter, or an asset-type selection that
// does not cover every type with a record variant.
func rebuildScoped(filter index.Filter) bool {
	if len(filter.TrustCIKs) > 0 || len(filter.AccNos) > 0 {
		return true
	}
	if len(filter.AssetTypes) == 0 {
		return false
	}
	return !slices.Contains(filter.AssetTypes, assetTypeAutoloan) ||
		!slices.Contains(filter.AssetTypes, assetTypeAutolease)
}
