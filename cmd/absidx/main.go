// Package main is the entry point for the absidx CLI.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/absdata/absidx/internal/assets"
	"github.com/absdata/absidx/internal/config"
	"github.com/absdata/absidx/internal/database"
	"github.com/absdata/absidx/internal/index"
	"github.com/absdata/absidx/internal/log"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "absidx",
		Short: "ABS-EE filing crawler and asset data extractor",
		Long: `absidx collects ABS-EE securitization filings from the EDGAR full-text
search portal, downloads their asset-data exhibits, and extracts per-asset
records into a queryable database.`,
	}

	cmd.AddCommand(indexCmd())
	cmd.AddCommand(downloadCmd())
	cmd.AddCommand(parseCmd())
	cmd.AddCommand(flattenCmd())
	cmd.AddCommand(warnCmd())
	cmd.AddCommand(skipCmd())
	cmd.AddCommand(statusCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// app bundles the shared runtime of every command: configuration, logger,
// and the open database handles.
type app struct {
	cfg     config.AppConfig
	logger  *slog.Logger
	indexDB database.Database
	assetDB database.Database
}

// newApp loads configuration, opens the databases, and migrates schemas.
// The asset database reuses the index handle unless a separate URL is
// configured.
func newApp(ctx context.Context, envFile string, opts ...config.AppConfigOption) (*app, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	logger := log.Configure(cfg)

	indexDB, err := database.NewDatabase(ctx, cfg.DBURL())
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}

	assetDB := indexDB
	if cfg.AssetDBURL() != cfg.DBURL() {
		assetDB, err = database.NewDatabase(ctx, cfg.AssetDBURL())
		if err != nil {
			indexDB.Close()
			return nil, fmt.Errorf("open asset database: %w", err)
		}
	}

	a := &app{cfg: cfg, logger: logger, indexDB: indexDB, assetDB: assetDB}
	if err := index.AutoMigrate(indexDB); err != nil {
		a.Close()
		return nil, err
	}
	if err := assets.AutoMigrate(assetDB); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the database handles.
func (a *app) Close() {
	if a.assetDB != a.indexDB {
		_ = a.assetDB.Close()
	}
	_ = a.indexDB.Close()
}

// confirm asks the operator a yes/no question; only a literal "yes" proceeds.
// Destructive rebuilds always pass through here.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [yes/No]? ", prompt)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(answer), "yes")
}

// parseInt64List parses colon-separated identifiers like "1234:5678".
func parseInt64List(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ":")
	values := make([]int64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid identifier %q", part)
		}
		values = append(values, v)
	}
	return values, nil
}

// parseAssetTypes parses a colon-separated asset type list and validates each
// against the recognized set.
func parseAssetTypes(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ":")
	types := make([]string, 0, len(parts))
	for _, part := range parts {
		t := strings.ToLower(strings.TrimSpace(part))
		if !config.KnownAssetType(t) {
			return nil, fmt.Errorf("unknown asset type %q (choose from %s)",
				t, strings.Join(config.AssetTypes, ":"))
		}
		types = append(types, t)
	}
	return types, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("absidx %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
