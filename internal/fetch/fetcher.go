// Package fetch retrieves documents over HTTP for the crawl and download stages.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

// Preview defaults: enough leading bytes to sniff an asset-type marker
// without downloading the whole exhibit.
const (
	DefaultPreviewChunks    = 5
	DefaultPreviewChunkSize = 1024
)

// StatusError reports a non-200 response. The fetch contract has no retries;
// callers decide whether a failed URL is fatal or countable.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// Fetcher issues browser-identified GET requests against the search portal
// and filing archive.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a Fetcher with the given User-Agent header.
func NewFetcher(userAgent string) *Fetcher {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.Logger = nil
	return &Fetcher{
		client:    rc.StandardClient(),
		userAgent: userAgent,
	}
}

// NewFetcherWithClient creates a Fetcher around an existing http.Client (tests).
func NewFetcherWithClient(client *http.Client, userAgent string) *Fetcher {
	return &Fetcher{client: client, userAgent: userAgent}
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// Fetch retrieves the full body of a URL. Succeeds only on HTTP 200.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	return body, nil
}

// Download streams the body of a URL into w without holding it in memory.
// Returns the number of bytes written.
func (f *Fetcher) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("stream body of %s: %w", url, err)
	}
	return n, nil
}

// Preview reads at most maxChunks*chunkSize leading bytes of a URL's body.
// Used to sniff the asset-type marker embedded early in exhibit documents.
func (f *Fetcher) Preview(ctx context.Context, url string, maxChunks, chunkSize int) (string, error) {
	if maxChunks <= 0 {
		maxChunks = DefaultPreviewChunks
	}
	if chunkSize <= 0 {
		chunkSize = DefaultPreviewChunkSize
	}

	resp, err := f.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var sb strings.Builder
	buf := make([]byte, chunkSize)
	for i := 0; i < maxChunks; i++ {
		n, err := io.ReadFull(resp.Body, buf)
		sb.Write(buf[:n])
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("preview %s: %w", url, err)
		}
	}
	return sb.String(), nil
}
