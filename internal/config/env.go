package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
type EnvConfig struct {
	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.absidx
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the filing index database URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/absidx.db
	DBURL string `envconfig:"DB_URL"`

	// AssetDBURL is the asset record database URL.
	// Env: ASSET_DB_URL (default: same as DB_URL)
	AssetDBURL string `envconfig:"ASSET_DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// SearchBaseURL is the base URL of the full-text search portal.
	// Env: SEARCH_BASE_URL
	SearchBaseURL string `envconfig:"SEARCH_BASE_URL"`

	// SECUserAgent is the User-Agent header sent with every request.
	// Env: SEC_USER_AGENT
	SECUserAgent string `envconfig:"SEC_USER_AGENT"`

	// GCSBucket enables object-storage relaying when set.
	// Env: GCS_BUCKET
	GCSBucket string `envconfig:"GCS_BUCKET"`

	// GCSCredentialsJSON holds explicit service account credentials.
	// Env: GCS_CREDENTIALS_JSON (default: application default credentials)
	GCSCredentialsJSON string `envconfig:"GCS_CREDENTIALS_JSON"`

	// CrawlStartDate is the default start of the crawl window, MM/DD/YYYY.
	// Env: CRAWL_START_DATE (default: 01/01/2016)
	CrawlStartDate string `envconfig:"CRAWL_START_DATE"`

	// CrawlEndDate is the horizon of the crawl window, MM/DD/YYYY.
	// Env: CRAWL_END_DATE (default: 12/31/2028)
	CrawlEndDate string `envconfig:"CRAWL_END_DATE"`

	// DownloadFailureLimit aborts a download run after this many failures.
	// Env: DOWNLOAD_FAILURE_LIMIT (default: 5)
	DownloadFailureLimit int `envconfig:"DOWNLOAD_FAILURE_LIMIT" default:"5"`

	// PageSize is the number of results requested per search page.
	// Env: PAGE_SIZE (default: 100)
	PageSize int `envconfig:"PAGE_SIZE" default:"100"`
}

// LoadFromEnv reads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("process environment: %w", err)
	}
	return cfg, nil
}

// ToAppConfig converts the environment view into a validated AppConfig.
func (e EnvConfig) ToAppConfig() (AppConfig, error) {
	cfg := NewAppConfig()

	if e.DataDir != "" {
		WithDataDir(e.DataDir)(&cfg)
	}
	if e.DBURL != "" {
		cfg.dbURL = e.DBURL
	}
	if e.AssetDBURL != "" {
		cfg.assetDBURL = e.AssetDBURL
	}
	if e.LogLevel != "" {
		cfg.logLevel = strings.ToUpper(e.LogLevel)
	}
	if strings.EqualFold(e.LogFormat, string(LogFormatJSON)) {
		cfg.logFormat = LogFormatJSON
	}
	if e.SearchBaseURL != "" {
		cfg.searchBaseURL = e.SearchBaseURL
	}
	if e.SECUserAgent != "" {
		cfg.userAgent = e.SECUserAgent
	}
	cfg.gcsBucket = e.GCSBucket
	cfg.gcsCredentialsJSON = e.GCSCredentialsJSON

	if e.CrawlStartDate != "" {
		start, err := time.Parse("01/02/2006", e.CrawlStartDate)
		if err != nil {
			return AppConfig{}, fmt.Errorf("parse CRAWL_START_DATE: %w", err)
		}
		cfg.crawlStartDate = start
	}
	if e.CrawlEndDate != "" {
		end, err := time.Parse("01/02/2006", e.CrawlEndDate)
		if err != nil {
			return AppConfig{}, fmt.Errorf("parse CRAWL_END_DATE: %w", err)
		}
		cfg.crawlEndDate = end
	}
	if e.DownloadFailureLimit > 0 {
		cfg.downloadFailureLimit = e.DownloadFailureLimit
	}
	if e.PageSize > 0 {
		cfg.pageSize = e.PageSize
	}

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}
