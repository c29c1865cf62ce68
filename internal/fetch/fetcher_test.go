package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSendsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	f := NewFetcherWithClient(server.Client(), "absidx-test")
	body, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), body)
	assert.Equal(t, "absidx-test", gotUA)
}

func TestFetchNon200IsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := NewFetcherWithClient(server.Client(), "absidx-test")
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}

func TestDownloadStreamsBody(t *testing.T) {
	payload := strings.Repeat("x", 10_000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer server.Close()

	f := NewFetcherWithClient(server.Client(), "absidx-test")
	var buf bytes.Buffer
	n, err := f.Download(context.Background(), server.URL, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, buf.String())
}

func TestPreviewReadsLeadingBytesOnly(t *testing.T) {
	payload := strings.Repeat("a", 10*1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer server.Close()

	f := NewFetcherWithClient(server.Client(), "absidx-test")
	preview, err := f.Preview(context.Background(), server.URL, 2, 1024)
	require.NoError(t, err)
	assert.Len(t, preview, 2*1024)
}

func TestPreviewShortBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("short"))
	}))
	defer server.Close()

	f := NewFetcherWithClient(server.Client(), "absidx-test")
	preview, err := f.Preview(context.Background(), server.URL, DefaultPreviewChunks, DefaultPreviewChunkSize)
	require.NoError(t, err)
	assert.Equal(t, "short", preview)
}
