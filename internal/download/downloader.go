// Package download fetches indexed exhibit documents to local disk, with an
// optional relay into cold object storage.
package download

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/absdata/absidx/internal/config"
	"github.com/absdata/absidx/internal/fetch"
	"github.com/absdata/absidx/internal/index"
	"github.com/absdata/absidx/internal/storage"
)

// ErrTooManyFailures aborts a run that keeps failing, so a broken remote is
// not hammered for the rest of the queue.
type ErrTooManyFailures struct {
	Failures int
}

func (e *ErrTooManyFailures) Error() string {
	return fmt.Sprintf("aborting after %d download failures", e.Failures)
}

// Downloader drains the pending-download queue.
type Downloader struct {
	cfg     *config.AppConfig
	fetcher *fetch.Fetcher
	store   index.Store
	relay   *storage.Relay // nil when no bucket is configured
	logger  *slog.Logger
}

// NewDownloader creates a Downloader. relay may be nil.
func NewDownloader(cfg *config.AppConfig, fetcher *fetch.Fetcher, store index.Store, relay *storage.Relay, logger *slog.Logger) *Downloader {
	return &Downloader{
		cfg:     cfg,
		fetcher: fetcher,
		store:   store,
		relay:   relay,
		logger:  logger,
	}
}

// Result reports what one download run accomplished.
type Result struct {
	Attempted  int
	Downloaded int
	Failed     int
}

// Run downloads every pending filing matching the filter, in (filing date,
// accession number) order. Individual failures are logged and counted; the
// run aborts once the failure budget is spent. A filing is marked downloaded
// strictly after its document is on disk (and relayed, when a relay is
// configured).
func (d *Downloader) Run(ctx context.Context, filter index.Filter) (Result, error) {
	pending, err := d.store.Pending(ctx, index.StageDownload, filter)
	if err != nil {
		return Result{}, err
	}
	if len(pending) == 0 {
		d.logger.Info("no filings pending download")
		return Result{}, nil
	}
	if err := d.cfg.EnsureFilingsDir(); err != nil {
		return Result{}, err
	}

	d.logger.Info("starting download", "pending", len(pending))

	var result Result
	for _, filing := range pending {
		result.Attempted++
		if err := d.downloadOne(ctx, filing); err != nil {
			result.Failed++
			d.logger.Error("download failed",
				"acc_no", filing.AccNo,
				"url", filing.URL,
				"failures", result.Failed,
				"error", err,
			)
			if result.Failed >= d.cfg.DownloadFailureLimit() {
				return result, &ErrTooManyFailures{Failures: result.Failed}
			}
			continue
		}
		result.Downloaded++
		d.logger.Info("downloaded filing",
			"acc_no", filing.AccNo,
			"progress", fmt.Sprintf("%d/%d", result.Attempted, len(pending)),
		)
	}

	d.logger.Info("download finished",
		"downloaded", result.Downloaded,
		"failed", result.Failed,
	)
	return result, nil
}

func (d *Downloader) downloadOne(ctx context.Context, filing index.PendingFiling) error {
	relPath := FilingPath(filing)
	localPath := filepath.Join(d.cfg.FilingsDir(), filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("create filing directory: %w", err)
	}
	if err := d.save(ctx, filing.URL, localPath); err != nil {
		return err
	}

	if d.relay != nil {
		if err := d.relayFiling(ctx, relPath, localPath); err != nil {
			return err
		}
	}

	return d.store.MarkDownloaded(ctx, filing.AccNo)
}

// save streams the document into a temp file and renames it into place, so a
// crash mid-download never leaves a truncated document at the final path.
func (d *Downloader) save(ctx context.Context, url, localPath string) error {
	tmp, err := os.CreateTemp(filepath.Dir(localPath), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := d.fetcher.Download(ctx, url, tmp); err != nil {
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

// relayFiling mirrors the saved document into the bucket unless an object
// already exists at the key. A failed existence probe fails the filing; it
// counts against the failure budget rather than triggering a blind upload.
func (d *Downloader) relayFiling(ctx context.Context, objectKey, localPath string) error {
	exists, err := d.relay.Exists(ctx, objectKey)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open document for relay: %w", err)
	}
	defer f.Close()
	return d.relay.Upload(ctx, objectKey, f)
}

// FilingPath builds the deterministic storage path of a filing:
// <asset_type>/<trust_name>/<YYYYMMDD>_<acc_no>_<original filename>.
// The same shape serves as the relay object key joined by slashes.
func FilingPath(filing index.PendingFiling) string {
	assetType := filing.AssetType
	if assetType == "" {
		assetType = "other"
	}
	filename := fmt.Sprintf("%s_%d_%s",
		filing.DateFiling.Format("20060102"),
		filing.AccNo,
		path.Base(filing.URL),
	)
	return path.Join(sanitize(assetType), sanitize(filing.TrustName), filename)
}

// sanitize keeps trust names usable as single path segments.
func sanitize(segment string) string {
	segment = strings.ReplaceAll(segment, "/", "-")
	segment = strings.ReplaceAll(segment, string(filepath.Separator), "-")
	return strings.TrimSpace(segment)
}
