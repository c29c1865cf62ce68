// Package crawl discovers ABS-EE filings by paginating the EDGAR full-text
// search portal and resolving each result row to an issuing trust, a filer,
// and a filing record.
package crawl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/absdata/absidx/internal/fetch"
)

const autnNamespace = "http://schemas.autonomy.com/aci/"

// ErrNoResultsTable indicates a page without the expected results table.
// The page structure changed or the portal served an error document; either
// way the crawl cannot safely continue.
var ErrNoResultsTable = errors.New("no search results table found")

const exhibitAssetData = "EX-102"

var (
	detailCIKPattern = regexp.MustCompile(`\d{6,8}`)
	parentCIKPattern = regexp.MustCompile(`issuing entity: (\d{10})`)
)

// Row is one search result resolved to its trust and filer identities.
type Row struct {
	DateFiling time.Time
	AccNo      int64
	URL        string
	FilerCIK   int64
	FilerName  string
	TrustCIK   int64
	TrustName  string
}

// Scraper parses search result pages. Entity resolution may fetch a parent
// filing page, so the scraper carries the fetcher.
type Scraper struct {
	fetcher *fetch.Fetcher
	logger  *slog.Logger
}

// NewScraper creates a Scraper.
func NewScraper(fetcher *fetch.Fetcher, logger *slog.Logger) *Scraper {
	return &Scraper{fetcher: fetcher, logger: logger}
}

// ScrapePage parses one results page into resolved rows and returns the
// relative URL of the next page, or "" on the last page. A page without the
// results table is fatal.
func (s *Scraper) ScrapePage(ctx context.Context, page []byte) ([]Row, string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, "", fmt.Errorf("parse results page: %w", err)
	}

	table := resultsTable(doc)
	if table == nil {
		return nil, "", ErrNoResultsTable
	}

	var rows []Row
	table.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		// Results come in triples: the primary row, a detail row
		// (class blue), and a footer row (class infoBorder). Only
		// primaries are walked; the other two are consulted during
		// entity resolution.
		if tr.HasClass("blue") || tr.HasClass("infoBorder") {
			return true
		}
		row, ok, rowErr := s.parseResultRow(ctx, tr)
		if rowErr != nil {
			err = rowErr
			return false
		}
		if ok {
			rows = append(rows, row)
		}
		return true
	})
	if err != nil {
		return nil, "", err
	}

	return rows, nextPageHref(doc), nil
}

func resultsTable(doc *goquery.Document) *goquery.Selection {
	var table *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		if ns, ok := t.Attr("xmlns:autn"); ok && ns == autnNamespace {
			table = t
			return false
		}
		return true
	})
	return table
}

// parseResultRow extracts one filing from a primary result row. Returns
// ok=false for rows that are not filing entries (missing links, discarded
// exhibit variants, unparseable identifiers).
func (s *Scraper) parseResultRow(ctx context.Context, tr *goquery.Selection) (Row, bool, error) {
	tds := tr.Find("td")
	if tds.Length() < 2 {
		return Row{}, false, nil
	}

	dateFiling, err := time.Parse("01/02/2006", strings.TrimSpace(tds.Eq(0).Text()))
	if err != nil {
		return Row{}, false, nil
	}

	links := tds.Eq(1).Find("a")
	if links.Length() < 2 {
		// Not a filing entry.
		return Row{}, false, nil
	}

	title := links.Eq(0).Text()
	if len(title) < 21 {
		return Row{}, false, nil
	}
	exhibit := strings.TrimSpace(title[:6])
	if exhibit != exhibitAssetData {
		// EX-103 is the depositor-level variant; it carries no asset data.
		return Row{}, false, nil
	}
	filerName := normalizeName(title[21:])

	url, _ := links.Eq(1).Attr("href")
	url = strings.TrimSpace(url)
	filerCIK, accNo, ok := parseFilingURL(url)
	if !ok {
		s.logger.Warn("skipping row with unparseable filing url", "url", url)
		return Row{}, false, nil
	}

	row := Row{
		DateFiling: dateFiling,
		AccNo:      accNo,
		URL:        url,
		FilerCIK:   filerCIK,
		FilerName:  filerName,
		TrustCIK:   filerCIK,
		TrustName:  filerName,
	}
	if err := s.resolveEntities(ctx, tr, &row); err != nil {
		return Row{}, false, err
	}
	return row, true, nil
}

// parseFilingURL pulls the filer CIK and accession number out of the fixed
// positional path segments of an archive URL:
// https://host/Archives/edgar/data/<cik>/<accno>/<filename>
func parseFilingURL(url string) (cik, accNo int64, ok bool) {
	segments := strings.Split(url, "/")
	if len(segments) < 8 {
		return 0, 0, false
	}
	cik, err := strconv.ParseInt(strings.TrimSpace(segments[6]), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	accNo, err = strconv.ParseInt(strings.TrimSpace(segments[7]), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return cik, accNo, true
}

// resolveEntities decides which company is the issuing trust. Tier one reads
// the two bolded company strings off the detail row and picks the larger
// identifier as the trust. Tier two follows the footer row's parent filing
// link and scans that page for the issuing-entity label. When neither tier
// produces an identity the filer stands in for the trust.
func (s *Scraper) resolveEntities(ctx context.Context, tr *goquery.Selection, row *Row) error {
	detail := tr.NextAll().Filter("tr.blue").First()
	bolded := detail.Find(".normalbold")
	if bolded.Length() >= 2 {
		first, firstOK := companyCandidate(bolded.Eq(0).Text())
		second, secondOK := companyCandidate(bolded.Eq(1).Text())
		if firstOK && secondOK {
			trust, filer := first, second
			if second.cik > first.cik {
				trust, filer = second, first
			}
			row.TrustCIK, row.TrustName = trust.cik, trust.name
			row.FilerCIK, row.FilerName = filer.cik, filer.name
			return nil
		}
	}

	parentURL, ok := parentFilingURL(tr)
	if !ok {
		return nil
	}
	cik, name, err := s.parseParentFiling(ctx, parentURL)
	if err != nil {
		// The parent page is auxiliary; resolution degrades to the
		// filer identity rather than failing the row.
		s.logger.Warn("parent filing page unavailable", "url", parentURL, "error", err)
		return nil
	}
	if cik != 0 {
		row.TrustCIK = cik
	}
	if name != "" {
		row.TrustName = name
	}
	return nil
}

type candidate struct {
	cik  int64
	name string
}

// companyCandidate parses a bolded detail string like
// "ACME Receivables Trust (0001234567) (Issuer)" into a CIK and name.
func companyCandidate(text string) (candidate, bool) {
	match := detailCIKPattern.FindString(text)
	if match == "" {
		return candidate{}, false
	}
	cik, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return candidate{}, false
	}
	name := normalizeName(strings.SplitN(text, "(", 2)[0])
	return candidate{cik: cik, name: name}, true
}

// parentFilingURL extracts the parent filing's address from the footer row's
// javascript link, taking the first quoted argument between the parentheses.
func parentFilingURL(tr *goquery.Selection) (string, bool) {
	footer := tr.NextAll().Filter("tr.infoBorder").First()
	href, ok := footer.Find("td.footer a.clsBlueBg").First().Attr("href")
	if !ok {
		return "", false
	}
	start := strings.Index(href, "(")
	end := strings.Index(href, ")")
	if start < 0 || end < start {
		return "", false
	}
	url := strings.SplitN(href[start+1:end], ",", 2)[0]
	url = strings.Trim(strings.TrimSpace(url), "'\"")
	if url == "" {
		return "", false
	}
	return url, true
}

// parseParentFiling scans the parent ABS-EE page for the issuing entity's
// CIK and name. Either may come back zero-valued when the page lacks the
// expected labels.
func (s *Scraper) parseParentFiling(ctx context.Context, url string) (int64, string, error) {
	page, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return 0, "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return 0, "", fmt.Errorf("parse parent filing page: %w", err)
	}

	segments := textSegments(doc)

	var cik int64
	if m := parentCIKPattern.FindStringSubmatch(strings.Join(segments, " ")); m != nil {
		cik, _ = strconv.ParseInt(m[1], 10, 64)
	}

	var name string
	for i, segment := range segments {
		if i == 0 {
			continue
		}
		if strings.Contains(segment, "(Exact name of issuing") ||
			strings.Contains(segment, "(Exact name of the issuing") {
			name = normalizeName(segments[i-1])
			break
		}
	}
	return cik, name, nil
}

// textSegments flattens a document into its non-empty text nodes in document
// order, so label lookups can address "the text just before this heading".
func textSegments(doc *goquery.Document) []string {
	var segments []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				segments = append(segments, strings.ReplaceAll(text, "\n", " "))
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return segments
}

func nextPageHref(doc *goquery.Document) string {
	href, _ := doc.Find("a[title='Next Page']").First().Attr("href")
	return strings.TrimSpace(href)
}

// normalizeName canonicalizes an entity display name: hyphens become spaces
// so the same trust hyphenated inconsistently across filings maps to one name.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(name, "-", " ")), " ")
}
