// Package integration contains tests that verify the interaction between
// multiple platform components: the real-time indexer, the HTTP handler,
// and (when configured) Redis-backed query caching.
//
// Run with:
//
//	go test -v -tags=integration ./test/integration/...
package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shelfdex/shelfdex/internal/analyzer"
	"github.com/shelfdex/shelfdex/internal/api"
	"github.com/shelfdex/shelfdex/internal/realtime"
	"github.com/shelfdex/shelfdex/internal/wal"
	"github.com/shelfdex/shelfdex/pkg/middleware"
)

// newSearchServer wires an in-process real-time indexer to the HTTP
// handler, without a query cache, and returns a test server exposing the
// same routes cmd/searcher registers.
func newSearchServer(t *testing.T) (*httptest.Server, *realtime.Indexer) {
	t.Helper()

	an := analyzer.New(analyzer.Config{Language: analyzer.LanguageNone})
	idx, err := realtime.Open(t.TempDir(), an, wal.Options{}, nil)
	if err != nil {
		t.Fatalf("opening real-time indexer: %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	h := api.New(idx, nil, nil, 10, 100)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("POST /api/v1/documents", h.Ingest)
	mux.HandleFunc("POST /api/v1/flush", h.Flush)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)

	var chain http.Handler = mux
	chain = middleware.RequestID(chain)

	srv := httptest.NewServer(chain)
	t.Cleanup(srv.Close)
	return srv, idx
}

// TestIngestThenSearchFindsDocument verifies a document ingested over HTTP
// is immediately searchable from the RAM index.
func TestIngestThenSearchFindsDocument(t *testing.T) {
	srv, _ := newSearchServer(t)

	payload := map[string]string{
		"book_id": "alpha",
		"content": "the quick brown fox jumps over the lazy dog",
	}
	body, _ := json.Marshal(payload)

	resp, err := http.Post(srv.URL+"/api/v1/documents", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("ingest request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 202, got %d: %s", resp.StatusCode, respBody)
	}

	searchResp, err := http.Get(srv.URL + "/api/v1/search?q=quick+fox")
	if err != nil {
		t.Fatalf("search request failed: %v", err)
	}
	defer searchResp.Body.Close()
	if searchResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", searchResp.StatusCode)
	}

	var result map[string]any
	json.NewDecoder(searchResp.Body).Decode(&result)
	results, _ := result["results"].([]any)
	if len(results) != 1 {
		t.Fatalf("expected exactly 1 result, got %v", result)
	}
}

// TestSearchMissingQueryParamRejected verifies the handler validates its
// required query parameter.
func TestSearchMissingQueryParamRejected(t *testing.T) {
	srv, _ := newSearchServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/search")
	if err != nil {
		t.Fatalf("search request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

// TestFlushSealsDocumentIntoDurableSegment verifies the flush endpoint
// seals RAM-resident documents without losing search visibility.
func TestFlushSealsDocumentIntoDurableSegment(t *testing.T) {
	srv, _ := newSearchServer(t)

	payload := map[string]string{"book_id": "beta", "content": "a document about distributed search systems"}
	body, _ := json.Marshal(payload)
	resp, err := http.Post(srv.URL+"/api/v1/documents", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("ingest request failed: %v", err)
	}
	resp.Body.Close()

	flushResp, err := http.Post(srv.URL+"/api/v1/flush", "application/json", nil)
	if err != nil {
		t.Fatalf("flush request failed: %v", err)
	}
	defer flushResp.Body.Close()
	if flushResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", flushResp.StatusCode)
	}

	searchResp, err := http.Get(srv.URL + "/api/v1/search?q=distributed+search")
	if err != nil {
		t.Fatalf("search request failed: %v", err)
	}
	defer searchResp.Body.Close()

	var result map[string]any
	json.NewDecoder(searchResp.Body).Decode(&result)
	results, _ := result["results"].([]any)
	if len(results) != 1 {
		t.Fatalf("expected the flushed document to remain searchable, got %v", result)
	}
}

// TestCacheStatsDisabledWithoutRedis verifies the handler reports a
// disabled cache rather than failing when no QueryCache is wired in.
func TestCacheStatsDisabledWithoutRedis(t *testing.T) {
	srv, _ := newSearchServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/cache/stats")
	if err != nil {
		t.Fatalf("cache stats request failed: %v", err)
	}
	defer resp.Body.Close()

	var stats map[string]string
	json.NewDecoder(resp.Body).Decode(&stats)
	if stats["status"] != "disabled" {
		t.Errorf("expected disabled cache status, got %v", stats)
	}
}
