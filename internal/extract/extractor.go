package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/absdata/absidx/internal/assets"
	"github.com/absdata/absidx/internal/config"
	"github.com/absdata/absidx/internal/database"
	"github.com/absdata/absidx/internal/download"
	"github.com/absdata/absidx/internal/index"
	"github.com/absdata/absidx/internal/storage"
)

// Asset types with a record variant. Filings of other sniffed types stay
// indexed and downloaded but are left unparsed.
const (
	assetTypeAutoloan  = "autoloan"
	assetTypeAutolease = "autolease"
)

// Extractor streams downloaded exhibit documents into asset records.
type Extractor struct {
	cfg        *config.AppConfig
	indexStore index.Store
	assetDB    database.Database
	relay      *storage.Relay // nil when no bucket is configured
	logger     *slog.Logger
}

// NewExtractor creates an Extractor. assetDB may be the same handle as the
// index database. With a relay, documents missing from local disk are
// restored from the bucket before parsing.
func NewExtractor(cfg *config.AppConfig, indexStore index.Store, assetDB database.Database, relay *storage.Relay, logger *slog.Logger) *Extractor {
	return &Extractor{
		cfg:        cfg,
		indexStore: indexStore,
		assetDB:    assetDB,
		relay:      relay,
		logger:     logger,
	}
}

// Result reports what one parse run accomplished.
type Result struct {
	Parsed  int
	Records int
	Failed  int
	Skipped int
}

// Run extracts every downloaded, unparsed filing matching the filter. A
// failure in one file is logged and counted; the run continues with the next
// filing. The parsed flag flips strictly after a filing's records are
// committed, so an interrupted run re-processes the filing cleanly.
func (e *Extractor) Run(ctx context.Context, filter index.Filter) (Result, error) {
	pending, err := e.indexStore.Pending(ctx, index.StageParse, filter)
	if err != nil {
		return Result{}, err
	}
	if len(pending) == 0 {
		e.logger.Info("no filings pending parse")
		return Result{}, nil
	}

	e.logger.Info("starting parse", "pending", len(pending))

	var result Result
	for _, filing := range pending {
		if filing.AssetType != assetTypeAutoloan && filing.AssetType != assetTypeAutolease {
			result.Skipped++
			e.logger.Debug("no record variant for asset type",
				"acc_no", filing.AccNo,
				"asset_type", filing.AssetType,
			)
			continue
		}

		records, err := e.extractOne(ctx, filing)
		if err != nil {
			result.Failed++
			e.logger.Error("parse failed",
				"acc_no", filing.AccNo,
				"error", err,
			)
			continue
		}
		result.Parsed++
		result.Records += records
		e.logger.Info("parsed filing",
			"acc_no", filing.AccNo,
			"records", records,
			"progress", fmt.Sprintf("%d/%d", result.Parsed+result.Failed+result.Skipped, len(pending)),
		)
	}

	e.logger.Info("parse finished",
		"parsed", result.Parsed,
		"records", result.Records,
		"failed", result.Failed,
		"skipped", result.Skipped,
	)
	return result, nil
}

// extractOne streams one filing's document into the asset store. All rows,
// the purge of any prior partial rows, and the catalog registration commit
// in a single transaction; the index flag flips only after that commit.
func (e *Extractor) extractOne(ctx context.Context, filing index.PendingFiling) (int, error) {
	relPath := download.FilingPath(filing)
	path := filepath.Join(e.cfg.FilingsDir(), filepath.FromSlash(relPath))
	file, err := os.Open(path)
	if os.IsNotExist(err) && e.relay != nil {
		if err := e.restoreFromRelay(ctx, relPath, path); err != nil {
			return 0, err
		}
		file, err = os.Open(path)
	}
	if err != nil {
		return 0, fmt.Errorf("open downloaded document: %w", err)
	}
	defer file.Close()

	namespace, err := peekFileNamespace(file)
	if err != nil {
		return 0, err
	}

	records := 0
	err = database.WithTransaction(ctx, e.assetDB, func(tx *gorm.DB) error {
		if err := assets.DeleteFilingRecords(tx, filing.AccNo); err != nil {
			return err
		}

		var loans []assets.Autoloan
		var leases []assets.Autolease
		flush := func() error {
			if err := assets.InsertAutoloans(tx, loans); err != nil {
				return err
			}
			if err := assets.InsertAutoleases(tx, leases); err != nil {
				return err
			}
			loans, leases = loans[:0], leases[:0]
			return nil
		}

		streamErr := StreamAssets(file, namespace, func(fields []Field) error {
			switch filing.AssetType {
			case assetTypeAutoloan:
				loans = append(loans, decodeAutoloan(filing.AccNo, fields, e.logger))
			case assetTypeAutolease:
				leases = append(leases, decodeAutolease(filing.AccNo, fields, e.logger))
			}
			records++
			if len(loans)+len(leases) >= insertFlushSize {
				return flush()
			}
			return nil
		})
		if streamErr != nil {
			return streamErr
		}
		if err := flush(); err != nil {
			return err
		}

		return assets.RegisterFiling(tx, assets.AssetFiling{
			AccNo:      filing.AccNo,
			TrustCIK:   filing.CIKTrust,
			TrustName:  filing.TrustName,
			URL:        filing.URL,
			DateFiling: filing.DateFiling,
			AssetType:  filing.AssetType,
		})
	})
	if err != nil {
		return 0, err
	}

	if err := e.indexStore.MarkParsed(ctx, filing.AccNo); err != nil {
		return 0, err
	}
	return records, nil
}

// Rows are flushed in batches matching the store's insert batch size, so a
// single INSERT never exceeds SQLite's bind-variable limit on the wide asset
// tables.
const insertFlushSize = 100

// restoreFromRelay pulls a document out of the bucket onto local disk, using
// the same temp-file + rename shape as the downloader so a failed restore
// never leaves a truncated document behind.
func (e *Extractor) restoreFromRelay(ctx context.Context, objectKey, localPath string) error {
	e.logger.Info("restoring document from object storage", "key", objectKey)
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("create filing directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(localPath), ".restore-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := e.relay.Fetch(ctx, objectKey, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), localPath); err != nil {
		return fmt.Errorf("move document into place: %w", err)
	}
	return nil
}

// peekFileNamespace reads the document head for the default namespace and
// rewinds the file for the full streaming pass.
func peekFileNamespace(file *os.File) (string, error) {
	head := make([]byte, namespacePeekSize)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read document head: %w", err)
	}
	namespace, err := PeekNamespace(head[:n])
	if err != nil {
		return "", fmt.Errorf("%s: %w", file.Name(), err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind document: %w", err)
	}
	return namespace, nil
}
