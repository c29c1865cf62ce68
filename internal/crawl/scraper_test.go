package crawl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absdata/absidx/internal/fetch"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// resultRow renders one search result triple the way the portal does.
func resultRow(date, title, url, detail, footerHref string) string {
	return fmt.Sprintf(`
		<tr>
			<td>%s</td>
			<td><a href="#">%s</a><a href="%s">[text]</a></td>
		</tr>
		<tr class="blue"><td>%s</td></tr>
		<tr class="infoBorder"><td class="footer"><a class="clsBlueBg" href="%s">Parent</a></td></tr>`,
		date, title, url, detail, footerHref)
}

func resultsPage(rows string, next string) []byte {
	nextAnchor := ""
	if next != "" {
		nextAnchor = fmt.Sprintf(`<a title="Next Page" href="%s">Next</a>`, next)
	}
	return []byte(fmt.Sprintf(`<html><body>
		<table xmlns:autn="http://schemas.autonomy.com/aci/">%s</table>
		%s
	</body></html>`, rows, nextAnchor))
}

// Title layout: 6 characters of exhibit code, 15 characters of boilerplate,
// then the company name.
const titleBoilerplate = " for ABS-EE of "

func TestScrapePageResolvesFromDetailRow(t *testing.T) {
	detail := `<span class="normalbold">Alpha Funding LLC (1600001)</span>` +
		`<span class="normalbold">Alpha Receivables Trust (1700001)</span>`
	page := resultsPage(resultRow(
		"03/10/2020",
		"EX-102"+titleBoilerplate+"Alpha-Funding-LLC",
		"https://www.sec.gov/Archives/edgar/data/1600001/111111101/alpha.xml",
		detail,
		"javascript:opennew('https://example.invalid/parent','x')",
	), "")

	scraper := NewScraper(fetch.NewFetcher("test"), discardLogger())
	rows, next, err := scraper.ScrapePage(context.Background(), page)
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, time.Date(2020, 3, 10, 0, 0, 0, 0, time.UTC), row.DateFiling)
	assert.Equal(t, int64(111111101), row.AccNo)
	// The larger identifier wins the trust role.
	assert.Equal(t, int64(1700001), row.TrustCIK)
	assert.Equal(t, "Alpha Receivables Trust", row.TrustName)
	assert.Equal(t, int64(1600001), row.FilerCIK)
	assert.Equal(t, "Alpha Funding LLC", row.FilerName)
}

func TestScrapePageTieBreakLargerWins(t *testing.T) {
	detail := `<span class="normalbold">Big Number Co (7654321)</span>` +
		`<span class="normalbold">Small Number Co (1234567)</span>`
	page := resultsPage(resultRow(
		"03/10/2020",
		"EX-102"+titleBoilerplate+"Big Number Co",
		"https://www.sec.gov/Archives/edgar/data/7654321/111111102/doc.xml",
		detail,
		"",
	), "")

	scraper := NewScraper(fetch.NewFetcher("test"), discardLogger())
	rows, _, err := scraper.ScrapePage(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7654321), rows[0].TrustCIK)
	assert.Equal(t, int64(1234567), rows[0].FilerCIK)
}

func TestScrapePageDiscardsDepositorExhibit(t *testing.T) {
	page := resultsPage(resultRow(
		"03/10/2020",
		"EX-103"+titleBoilerplate+"Alpha Funding LLC",
		"https://www.sec.gov/Archives/edgar/data/1600001/111111103/alpha103.xml",
		"",
		"",
	), "")

	scraper := NewScraper(fetch.NewFetcher("test"), discardLogger())
	rows, _, err := scraper.ScrapePage(context.Background(), page)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestScrapePageSkipsRowsWithoutLinks(t *testing.T) {
	page := resultsPage(`<tr><td>Results 1-100</td><td>header</td></tr>`+resultRow(
		"03/10/2020",
		"EX-102"+titleBoilerplate+"Alpha Funding LLC",
		"https://www.sec.gov/Archives/edgar/data/1600001/111111101/alpha.xml",
		"",
		"",
	), "")

	scraper := NewScraper(fetch.NewFetcher("test"), discardLogger())
	rows, _, err := scraper.ScrapePage(context.Background(), page)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestScrapePageFallsBackToParentFiling(t *testing.T) {
	parent := `<html><body>
		<p>Some header text issuing entity: 0001700009 more text</p>
		<table><tr><td><div>Gamma Auto Owner Trust</div><div>(Exact name of issuing entity)</div></td></tr></table>
	</body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(parent))
	}))
	defer server.Close()

	page := resultsPage(resultRow(
		"03/10/2020",
		"EX-102"+titleBoilerplate+"Gamma Funding LLC",
		"https://www.sec.gov/Archives/edgar/data/1600009/111111109/gamma.xml",
		`<span class="normalbold">Gamma Funding LLC</span>`,
		fmt.Sprintf("javascript:opennew('%s/parent.htm','_blank')", server.URL),
	), "")

	scraper := NewScraper(fetch.NewFetcherWithClient(server.Client(), "test"), discardLogger())
	rows, _, err := scraper.ScrapePage(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1700009), rows[0].TrustCIK)
	assert.Equal(t, "Gamma Auto Owner Trust", rows[0].TrustName)
	assert.Equal(t, int64(1600009), rows[0].FilerCIK)
}

func TestScrapePageParentUnavailableKeepsFilerIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	page := resultsPage(resultRow(
		"03/10/2020",
		"EX-102"+titleBoilerplate+"Delta Funding LLC",
		"https://www.sec.gov/Archives/edgar/data/1600010/111111110/delta.xml",
		"",
		fmt.Sprintf("javascript:opennew('%s/parent.htm','_blank')", server.URL),
	), "")

	scraper := NewScraper(fetch.NewFetcherWithClient(server.Client(), "test"), discardLogger())
	rows, _, err := scraper.ScrapePage(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1600010), rows[0].TrustCIK)
	assert.Equal(t, "Delta Funding LLC", rows[0].TrustName)
}

func TestScrapePageNoResultsTableIsFatal(t *testing.T) {
	scraper := NewScraper(fetch.NewFetcher("test"), discardLogger())
	_, _, err := scraper.ScrapePage(context.Background(), []byte("<html><body><p>error</p></body></html>"))
	assert.ErrorIs(t, err, ErrNoResultsTable)
}

func TestScrapePageNextLink(t *testing.T) {
	page := resultsPage(resultRow(
		"03/10/2020",
		"EX-102"+titleBoilerplate+"Alpha Funding LLC",
		"https://www.sec.gov/Archives/edgar/data/1600001/111111101/alpha.xml",
		"",
		"",
	), "/EDGARFSClient/jsp/EDGAR_MainAccess.jsp?page=2")

	scraper := NewScraper(fetch.NewFetcher("test"), discardLogger())
	_, next, err := scraper.ScrapePage(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, "/EDGARFSClient/jsp/EDGAR_MainAccess.jsp?page=2", next)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Alpha Receivables Trust", normalizeName("Alpha-Receivables-Trust"))
	assert.Equal(t, "Alpha Trust", normalizeName("  Alpha   Trust  "))
}

func TestParseFilingURL(t *testing.T) {
	cik, accNo, ok := parseFilingURL("https://www.sec.gov/Archives/edgar/data/1129987/000112998717000004/doc.xml")
	require.True(t, ok)
	assert.Equal(t, int64(1129987), cik)
	assert.Equal(t, int64(112998717000004), accNo)

	_, _, ok = parseFilingURL("https://www.sec.gov/too/short")
	assert.False(t, ok)
}
