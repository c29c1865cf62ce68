package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absdata/absidx/internal/config"
	"github.com/absdata/absidx/internal/fetch"
	"github.com/absdata/absidx/internal/index"
	"github.com/absdata/absidx/internal/testdb"
)

// portal fakes the search portal and the filing archive on one server.
type portal struct {
	mu       sync.Mutex
	listing  func() []byte
	requests []string
}

func (p *portal) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.requests = append(p.requests, r.URL.String())
		p.mu.Unlock()

		switch {
		case strings.Contains(r.URL.Path, "EDGAR_MainAccess.jsp"):
			w.Write(p.listing())
		case strings.HasSuffix(r.URL.Path, ".xml"):
			fmt.Fprint(w, `<?xml version="1.0"?><assetData xmlns="http://www.sec.gov/edgar/document/absee/autoloan/assetdata">`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (p *portal) listingRequests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var urls []string
	for _, u := range p.requests {
		if strings.Contains(u, "EDGAR_MainAccess.jsp") {
			urls = append(urls, u)
		}
	}
	return urls
}

func twoEntryListing(baseURL string) []byte {
	detail1 := `<span class="normalbold">Alpha Funding LLC (1600001)</span>` +
		`<span class="normalbold">Alpha Receivables Trust (1700001)</span>`
	rows := resultRow(
		"03/10/2020",
		"EX-102"+titleBoilerplate+"Alpha-Funding-LLC",
		baseURL+"/Archives/edgar/data/1600001/111111101/alpha.xml",
		detail1,
		"",
	) + resultRow(
		"03/12/2020",
		"EX-102"+titleBoilerplate+"Beta Auto Trust",
		baseURL+"/Archives/edgar/data/1700002/111111102/beta.xml",
		"",
		"",
	)
	return resultsPage(rows, "")
}

func newTestCrawler(t *testing.T, serverURL string, store index.Store, client *http.Client) *Crawler {
	t.Helper()
	cfg := config.NewAppConfig()
	config.WithSearchBaseURL(serverURL)(&cfg)
	fetcher := fetch.NewFetcherWithClient(client, "test")
	return NewCrawler(&cfg, fetcher, store, discardLogger())
}

func TestCrawlerEndToEnd(t *testing.T) {
	p := &portal{}
	server := httptest.NewServer(p.handler())
	defer server.Close()
	p.listing = func() []byte { return twoEntryListing(server.URL) }

	db := testdb.New(t)
	store := index.NewStore(db)
	ctx := context.Background()

	crawler := newTestCrawler(t, server.URL, store, server.Client())
	result, err := crawler.Run(ctx, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, 2, result.Entries)
	assert.Equal(t, 2, result.Created)
	require.Len(t, p.listingRequests(), 1)

	// Two filings; the first triple carries a distinct filer, the second's
	// filer is its trust.
	var filings int64
	require.NoError(t, db.Session(ctx).Model(&index.Filing{}).Count(&filings).Error)
	assert.Equal(t, int64(2), filings)
	var companies int64
	require.NoError(t, db.Session(ctx).Model(&index.Company{}).Count(&companies).Error)
	assert.Equal(t, int64(3), companies)

	// Asset type was sniffed from the document preview for the new trust.
	trust, err := store.CompanyByCIK(ctx, 1700001)
	require.NoError(t, err)
	assert.True(t, trust.IsTrust)
	require.NotNil(t, trust.AssetType)
	assert.Equal(t, "autoloan", *trust.AssetType)
}

func TestCrawlerResumesAfterMostRecentDate(t *testing.T) {
	p := &portal{}
	server := httptest.NewServer(p.handler())
	defer server.Close()
	p.listing = func() []byte { return twoEntryListing(server.URL) }

	db := testdb.New(t)
	store := index.NewStore(db)
	ctx := context.Background()

	crawler := newTestCrawler(t, server.URL, store, server.Client())
	_, err := crawler.Run(ctx, Options{})
	require.NoError(t, err)

	// The second run must resume strictly after the newest indexed filing
	// (2020-03-12) and create nothing new.
	result, err := crawler.Run(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)

	requests := p.listingRequests()
	require.Len(t, requests, 2)
	assert.Contains(t, requests[1], "fromDate=03/13/2020")
}

func TestCrawlerRebuildUsesFullWindow(t *testing.T) {
	p := &portal{}
	server := httptest.NewServer(p.handler())
	defer server.Close()
	p.listing = func() []byte { return twoEntryListing(server.URL) }

	db := testdb.New(t)
	store := index.NewStore(db)
	ctx := context.Background()

	crawler := newTestCrawler(t, server.URL, store, server.Client())
	_, err := crawler.Run(ctx, Options{})
	require.NoError(t, err)
	_, err = crawler.Run(ctx, Options{Rebuild: true})
	require.NoError(t, err)

	requests := p.listingRequests()
	require.Len(t, requests, 2)
	assert.Contains(t, requests[1], "fromDate="+config.DefaultCrawlStartDate)
}

func TestCrawlerListingFailureIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	db := testdb.New(t)
	store := index.NewStore(db)

	crawler := newTestCrawler(t, server.URL, store, server.Client())
	_, err := crawler.Run(context.Background(), Options{})
	require.Error(t, err)

	var statusErr *fetch.StatusError
	assert.ErrorAs(t, err, &statusErr)
}

func TestCrawlerPagination(t *testing.T) {
	p := &portal{}
	server := httptest.NewServer(p.handler())
	defer server.Close()

	page := 0
	p.listing = func() []byte {
		page++
		if page == 1 {
			rows := resultRow(
				"03/10/2020",
				"EX-102"+titleBoilerplate+"Alpha Funding LLC",
				server.URL+"/Archives/edgar/data/1600001/111111101/alpha.xml",
				"", "",
			)
			return resultsPage(rows, "/EDGARFSClient/jsp/EDGAR_MainAccess.jsp?page=2")
		}
		rows := resultRow(
			"03/12/2020",
			"EX-102"+titleBoilerplate+"Beta Auto Trust",
			server.URL+"/Archives/edgar/data/1700002/111111102/beta.xml",
			"", "",
		)
		return resultsPage(rows, "")
	}

	db := testdb.New(t)
	store := index.NewStore(db)

	crawler := newTestCrawler(t, server.URL, store, server.Client())
	result, err := crawler.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, 2, result.Entries)
}

func TestCrawlerEntryLimit(t *testing.T) {
	p := &portal{}
	server := httptest.NewServer(p.handler())
	defer server.Close()
	p.listing = func() []byte {
		rows := resultRow(
			"03/10/2020",
			"EX-102"+titleBoilerplate+"Alpha Funding LLC",
			server.URL+"/Archives/edgar/data/1600001/111111101/alpha.xml",
			"", "",
		)
		return resultsPage(rows, "/EDGARFSClient/jsp/EDGAR_MainAccess.jsp?page=next")
	}

	db := testdb.New(t)
	store := index.NewStore(db)

	crawler := newTestCrawler(t, server.URL, store, server.Client())
	result, err := crawler.Run(context.Background(), Options{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, 1, result.Entries)
}

func TestCrawlerUpToDateWindowDoesNotFetch(t *testing.T) {
	db := testdb.New(t)
	store := index.NewStore(db)
	ctx := context.Background()

	horizon, err := time.Parse("01/02/2006", config.DefaultCrawlEndDate)
	require.NoError(t, err)
	_, err = store.SaveEntries(ctx, []index.Entry{{
		Trust: index.Company{CIK: 1700001, Name: "Alpha Trust", IsTrust: true},
		Filing: index.Filing{
			AccNo:      111111101,
			CIKFiler:   1700001,
			CIKTrust:   1700001,
			URL:        "https://www.sec.gov/Archives/edgar/data/1700001/111111101/a.xml",
			DateFiling: horizon,
		},
	}})
	require.NoError(t, err)

	crawler := newTestCrawler(t, "http://unreachable.invalid", store, http.DefaultClient)
	result, err := crawler.Run(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Pages)
}
