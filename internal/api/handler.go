// Package api exposes the real-time indexer's add/search surface over
// HTTP: query execution, cache management, and ingestion of individual
// documents outside the batch pipeline.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shelfdex/shelfdex/internal/realtime"
	apperrors "github.com/shelfdex/shelfdex/pkg/errors"
	"github.com/shelfdex/shelfdex/pkg/logger"
	"github.com/shelfdex/shelfdex/pkg/metrics"
	"github.com/shelfdex/shelfdex/pkg/middleware"
	"github.com/shelfdex/shelfdex/pkg/tracing"
)

// Handler serves the search service's HTTP API.
type Handler struct {
	indexer     *realtime.Indexer
	cache       *realtime.QueryCache
	metrics     *metrics.Metrics
	defaultTopK int
	maxTopK     int
	logger      *slog.Logger
}

// New creates a Handler wired to idx and an optional query cache. If
// queryCache is nil, every search bypasses Redis and calls idx.Search
// directly.
func New(idx *realtime.Indexer, queryCache *realtime.QueryCache, m *metrics.Metrics, defaultTopK, maxTopK int) *Handler {
	return &Handler{
		indexer:     idx,
		cache:       queryCache,
		metrics:     m,
		defaultTopK: defaultTopK,
		maxTopK:     maxTopK,
		logger:      slog.Default().With("component", "search-handler"),
	}
}

// Search handles GET /api/v1/search?q=&top_k=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	requestID := middleware.GetRequestID(ctx)
	ctx, span := tracing.StartSpan(ctx, "search", requestID)
	defer func() {
		span.End()
		span.Log()
	}()

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}

	topK := h.defaultTopK
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "top_k must be a positive integer"))
			return
		}
		if parsed > h.maxTopK {
			parsed = h.maxTopK
		}
		topK = parsed
	}

	var hits []realtime.SearchHit
	var err error
	cacheHit := false

	if h.cache != nil {
		hits, cacheHit, err = h.cache.Search(ctx, h.indexer, query, topK)
	} else {
		hits, err = h.indexer.Search(ctx, query, topK)
	}

	if err != nil {
		log.Error("search execution failed", "query", query, "error", err)
		h.recordSearchMetrics("error", false, 0, time.Since(start))
		h.writeError(w, apperrors.Newf(apperrors.ErrInternal, http.StatusInternalServerError, "search failed: %v", err))
		return
	}

	duration := time.Since(start)
	resultType := "hit"
	if len(hits) == 0 {
		resultType = "zero_result"
	}
	h.recordSearchMetrics(resultType, cacheHit, len(hits), duration)

	span.SetAttr("query", query)
	span.SetAttr("returned", len(hits))
	span.SetAttr("cache_hit", cacheHit)
	span.SetAttr("latency_ms", duration.Milliseconds())

	log.Info("search completed",
		"query", query,
		"returned", len(hits),
		"cache_hit", cacheHit,
		"latency_ms", duration.Milliseconds(),
	)

	h.writeJSON(w, http.StatusOK, map[string]any{
		"query":     query,
		"results":   hits,
		"took_ms":   float64(duration.Milliseconds()),
		"cache_hit": cacheHit,
	})
}

// Ingest handles POST /api/v1/documents, adding a single document to the
// RAM index and WAL without waiting for the next batch pipeline run.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID   string `json:"book_id"`
		Content  string `json:"content"`
		Metadata string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "invalid request body"))
		return
	}
	if req.BookID == "" || req.Content == "" {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "book_id and content are required"))
		return
	}

	docID, err := h.indexer.AddDocument(req.BookID, req.Content, req.Metadata)
	if err != nil {
		h.logger.Error("document ingest failed", "book_id", req.BookID, "error", err)
		h.writeError(w, apperrors.Newf(apperrors.ErrInternal, http.StatusInternalServerError, "ingest failed: %v", err))
		return
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context()); err != nil {
			h.logger.Warn("cache invalidation after ingest failed", "error", err)
		}
	}

	h.writeJSON(w, http.StatusAccepted, map[string]any{"doc_id": docID, "book_id": req.BookID})
}

// Flush handles POST /api/v1/flush, sealing the RAM index into a durable
// segment. The real-time indexer has no size or time threshold of its own
// and never flushes unless asked.
func (h *Handler) Flush(w http.ResponseWriter, r *http.Request) {
	if err := h.indexer.Flush(r.Context()); err != nil {
		h.logger.Error("flush failed", "error", err)
		h.writeError(w, apperrors.Newf(apperrors.ErrInternal, http.StatusInternalServerError, "flush failed: %v", err))
		return
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context()); err != nil {
			h.logger.Warn("cache invalidation after flush failed", "error", err)
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
}

// recordSearchMetrics updates Prometheus counters and histograms for the
// completed search.
func (h *Handler) recordSearchMetrics(resultType string, cacheHit bool, resultCount int, duration time.Duration) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()

	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else {
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(duration.Seconds())
	h.metrics.SearchResultsCount.WithLabelValues().Observe(float64(resultCount))
}

// CacheStats returns current cache hit/miss counts and hit rate.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate flushes all cached search results.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, apperrors.Newf(apperrors.ErrInternal, http.StatusInternalServerError, "cache invalidation failed: %v", err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, apperrors.HTTPStatusCode(err), map[string]string{"error": err.Error()})
}
