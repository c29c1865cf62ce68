package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/absdata/absidx/internal/config"
	"github.com/absdata/absidx/internal/fetch"
	"github.com/absdata/absidx/internal/index"
)

// searchPath carries the fixed query the portal expects: full-text wildcard,
// reverse date sort, the ABS-EE form type, and the securitization SIC code.
const searchPath = "/EDGARFSClient/jsp/EDGAR_MainAccess.jsp?search_text=*&sort=ReverseDate" +
	"&formType=FormABSEE&isAdv=true&stemming=false&numResults=%d&querySic=6189" +
	"&fromDate=%s&toDate=%s"

var assetTypePattern = regexp.MustCompile(`absee/(\w+)/assetdata`)

// Crawler paginates the search listing and persists discovered filings.
type Crawler struct {
	cfg     *config.AppConfig
	fetcher *fetch.Fetcher
	scraper *Scraper
	store   index.Store
	logger  *slog.Logger
}

// NewCrawler creates a Crawler.
func NewCrawler(cfg *config.AppConfig, fetcher *fetch.Fetcher, store index.Store, logger *slog.Logger) *Crawler {
	return &Crawler{
		cfg:     cfg,
		fetcher: fetcher,
		scraper: NewScraper(fetcher, logger),
		store:   store,
		logger:  logger,
	}
}

// Options controls one crawl run.
type Options struct {
	// Rebuild crawls the full configured date range instead of resuming.
	Rebuild bool
	// Limit stops the crawl once at least this many entries were scraped.
	Limit int
}

// Result reports what one crawl run covered.
type Result struct {
	Pages   int
	Entries int
	Created int
}

// Run paginates search results from the resume point (or the full window on
// rebuild), persisting each page's entries before moving to the next. Any
// listing-page failure aborts the run; everything persisted so far stays.
func (c *Crawler) Run(ctx context.Context, opts Options) (Result, error) {
	start, err := c.startDate(ctx, opts.Rebuild)
	if err != nil {
		return Result{}, err
	}
	end := c.cfg.CrawlEndDate()
	if start.After(end) {
		c.logger.Info("index is already up to date", "through", end.Format("2006-01-02"))
		return Result{}, nil
	}

	url := c.searchURL(start, end)
	c.logger.Info("starting crawl",
		"from", start.Format("2006-01-02"),
		"to", end.Format("2006-01-02"),
		"rebuild", opts.Rebuild,
	)

	var result Result
	for {
		page, err := c.fetcher.Fetch(ctx, url)
		if err != nil {
			return result, fmt.Errorf("fetch results page %d: %w", result.Pages+1, err)
		}

		rows, next, err := c.scraper.ScrapePage(ctx, page)
		if err != nil {
			return result, fmt.Errorf("scrape results page %d: %w", result.Pages+1, err)
		}

		entries, err := c.buildEntries(ctx, rows)
		if err != nil {
			return result, err
		}
		created, err := c.store.SaveEntries(ctx, entries)
		if err != nil {
			return result, fmt.Errorf("persist results page %d: %w", result.Pages+1, err)
		}

		result.Pages++
		result.Entries += len(rows)
		result.Created += created
		c.logger.Info("scraped results page",
			"page", result.Pages,
			"entries", result.Entries,
			"created", result.Created,
		)

		if next == "" {
			break
		}
		if opts.Limit > 0 && result.Entries >= opts.Limit {
			c.logger.Info("entry limit reached", "limit", opts.Limit)
			break
		}
		url = c.cfg.SearchBaseURL() + next
	}

	c.logger.Info("crawl finished",
		"pages", result.Pages,
		"entries", result.Entries,
		"created", result.Created,
	)
	return result, nil
}

// startDate picks where the crawl window opens: the configured start on
// rebuild or an empty index, otherwise the day after the newest indexed
// filing.
func (c *Crawler) startDate(ctx context.Context, rebuild bool) (time.Time, error) {
	if rebuild {
		return c.cfg.CrawlStartDate(), nil
	}
	latest, err := c.store.MostRecentFilingDate(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if latest == nil {
		return c.cfg.CrawlStartDate(), nil
	}
	return latest.AddDate(0, 0, 1), nil
}

func (c *Crawler) searchURL(start, end time.Time) string {
	return c.cfg.SearchBaseURL() + fmt.Sprintf(searchPath,
		c.cfg.PageSize(),
		start.Format("01/02/2006"),
		end.Format("01/02/2006"),
	)
}

// buildEntries converts scraped rows into store entries, sniffing the asset
// type of trusts the index has not seen yet.
func (c *Crawler) buildEntries(ctx context.Context, rows []Row) ([]index.Entry, error) {
	entries := make([]index.Entry, 0, len(rows))
	for _, row := range rows {
		trust := index.Company{
			CIK:     row.TrustCIK,
			Name:    row.TrustName,
			IsTrust: true,
		}

		known, err := c.store.HasCompany(ctx, row.TrustCIK)
		if err != nil {
			return nil, err
		}
		if !known {
			if assetType := c.sniffAssetType(ctx, row.URL); assetType != "" {
				trust.AssetType = &assetType
			}
		}

		entry := index.Entry{
			Trust: trust,
			Filing: index.Filing{
				AccNo:      row.AccNo,
				CIKFiler:   row.FilerCIK,
				CIKTrust:   row.TrustCIK,
				URL:        row.URL,
				DateFiling: row.DateFiling,
			},
		}
		if row.FilerCIK != row.TrustCIK {
			entry.Filer = &index.Company{
				CIK:  row.FilerCIK,
				Name: row.FilerName,
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// sniffAssetType previews the filing document and pattern-matches the asset
// type marker embedded in its leading bytes. Returns "" when the preview
// fails or no marker is present; the type stays unset until a later filing
// resolves it.
func (c *Crawler) sniffAssetType(ctx context.Context, url string) string {
	preview, err := c.fetcher.Preview(ctx, url, fetch.DefaultPreviewChunks, fetch.DefaultPreviewChunkSize)
	if err != nil {
		c.logger.Warn("asset type preview failed", "url", url, "error", err)
		return ""
	}
	match := assetTypePattern.FindStringSubmatch(preview)
	if match == nil {
		return ""
	}
	return strings.ToLower(match[1])
}
