// Package server exposes the advisory service over HTTP: analysis runs,
// knowledge-base search with caching, corpus listing, and history.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/narongchai190/soiler/internal/analytics"
	"github.com/narongchai190/soiler/internal/corpus"
	"github.com/narongchai190/soiler/internal/history"
	"github.com/narongchai190/soiler/internal/pipeline"
	"github.com/narongchai190/soiler/internal/retrieval"
	"github.com/narongchai190/soiler/internal/retrieval/citation"
	"github.com/narongchai190/soiler/internal/retrieval/index"
	"github.com/narongchai190/soiler/internal/server/cache"
	"github.com/narongchai190/soiler/pkg/config"
	apperrors "github.com/narongchai190/soiler/pkg/errors"
	"github.com/narongchai190/soiler/pkg/logger"
	"github.com/narongchai190/soiler/pkg/metrics"
)

// SearchResponse is the payload of GET /api/v1/search.
type SearchResponse struct {
	Query   string                  `json:"query"`
	TopK    int                     `json:"top_k"`
	Results []citation.SearchResult `json:"results"`
	Cached  bool                    `json:"cached"`
}

// Handler serves the HTTP API. queryCache, store, and collector may be nil;
// the corresponding features degrade.
type Handler struct {
	runner     *pipeline.Runner
	retriever  *retrieval.Retriever
	queryCache *cache.QueryCache
	store      *history.Store
	collector  *analytics.Collector
	metrics    *metrics.Metrics
	cfg        config.RetrievalConfig
	corpusDir  string
	logger     *slog.Logger
}

func New(
	runner *pipeline.Runner,
	retriever *retrieval.Retriever,
	queryCache *cache.QueryCache,
	store *history.Store,
	collector *analytics.Collector,
	m *metrics.Metrics,
	cfg config.RetrievalConfig,
	corpusDir string,
) *Handler {
	return &Handler{
		runner:     runner,
		retriever:  retriever,
		queryCache: queryCache,
		store:      store,
		collector:  collector,
		metrics:    m,
		cfg:        cfg,
		corpusDir:  corpusDir,
		logger:     slog.Default().With("component", "http-handler"),
	}
}

// Analyze runs the advisory pipeline for one soil sample and persists the
// report when the history store is available.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var input pipeline.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, r, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "decoding request body: %v", err))
		return
	}

	start := time.Now()
	report, err := h.runner.Run(r.Context(), input)
	if err != nil {
		h.metrics.AnalysesTotal.WithLabelValues("error").Inc()
		h.writeError(w, r, err)
		return
	}
	h.metrics.AnalysesTotal.WithLabelValues("ok").Inc()
	h.metrics.AnalysisLatency.Observe(time.Since(start).Seconds())

	var historyID int64
	if h.store != nil {
		data, err := json.Marshal(report)
		if err == nil {
			historyID, err = h.store.Save(r.Context(), history.Record{
				Location:   input.Location,
				Crop:       input.Crop,
				PH:         input.PH,
				Nitrogen:   input.Nitrogen,
				Phosphorus: input.Phosphorus,
				Potassium:  input.Potassium,
				FieldRai:   report.Gap.FieldRai,
				Report:     data,
			})
		}
		if err != nil {
			// History is best-effort; the report still goes out.
			h.metrics.HistorySavesTotal.WithLabelValues("error").Inc()
			logger.FromContext(r.Context()).Error("failed to save analysis history", "error", err)
		} else {
			h.metrics.HistorySavesTotal.WithLabelValues("ok").Inc()
		}
	}

	h.writeJSON(w, http.StatusOK, struct {
		*pipeline.Report
		HistoryID int64 `json:"history_id,omitempty"`
	}{report, historyID})
}

// Search serves a knowledge-base query with citations.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "missing query parameter q"))
		return
	}
	topK := h.cfg.DefaultTopK
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, r, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "invalid limit %q", v))
			return
		}
		if n == 0 {
			// An explicit zero asks for zero results; only an absent
			// limit selects the default.
			h.writeJSON(w, http.StatusOK, SearchResponse{
				Query:   query,
				TopK:    0,
				Results: []citation.SearchResult{},
			})
			return
		}
		topK = n
	}
	if topK > h.cfg.MaxTopK {
		topK = h.cfg.MaxTopK
	}

	start := time.Now()
	var (
		results []citation.SearchResult
		cached  bool
		err     error
	)
	if h.queryCache != nil {
		results, cached, err = h.queryCache.GetOrCompute(r.Context(), query, topK, func() ([]citation.SearchResult, error) {
			return h.retriever.Search(query, topK)
		})
	} else {
		results, err = h.retriever.Search(query, topK)
	}
	if err != nil {
		h.metrics.SearchesTotal.WithLabelValues("error").Inc()
		h.writeError(w, r, err)
		return
	}

	cacheStatus := "miss"
	if cached {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else if h.queryCache != nil {
		h.metrics.CacheMissesTotal.Inc()
	}
	resultType := "hit"
	if len(results) == 0 {
		resultType = "zero_result"
	}
	h.metrics.SearchesTotal.WithLabelValues(resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	h.metrics.SearchResultsCount.Observe(float64(len(results)))

	if h.collector != nil {
		h.collector.Track(analytics.SearchEvent{
			Type:      analytics.EventSearch,
			Query:     query,
			TopK:      topK,
			Returned:  len(results),
			LatencyMs: time.Since(start).Milliseconds(),
			CacheHit:  cached,
			Timestamp: time.Now().UTC(),
			RequestID: logger.RequestIDFromContext(r.Context()),
		})
	}

	h.writeJSON(w, http.StatusOK, SearchResponse{
		Query:   query,
		TopK:    topK,
		Results: results,
		Cached:  cached,
	})
}

// Documents lists the indexed corpus documents (id and source only).
func (h *Handler) Documents(w http.ResponseWriter, r *http.Request) {
	type docInfo struct {
		ID     string `json:"id"`
		Source string `json:"source"`
	}
	idx := h.retriever.Index()
	docs := idx.DocumentList()
	out := make([]docInfo, 0, len(docs))
	for _, d := range docs {
		out = append(out, docInfo{ID: d.ID, Source: d.Source})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"total":     idx.DocCount(),
		"documents": out,
	})
}

// History lists recent analyses.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, r, apperrors.New(apperrors.ErrNotFound, http.StatusNotFound, "history store not configured"))
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	records, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

// HistoryByID returns one stored analysis.
func (h *Handler) HistoryByID(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, r, apperrors.New(apperrors.ErrNotFound, http.StatusNotFound, "history store not configured"))
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, r, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "invalid history id %q", r.PathValue("id")))
		return
	}
	record, err := h.store.ByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

// RebuildIndex reloads the corpus from disk, builds a brand-new index, and
// atomically swaps it in. In-flight searches keep the snapshot they started
// with. The search cache is invalidated afterwards so stale responses do not
// outlive the old index.
func (h *Handler) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	docs, err := corpus.Load(h.corpusDir)
	if err != nil {
		h.metrics.IndexRebuildsTotal.WithLabelValues("error").Inc()
		h.writeError(w, r, err)
		return
	}
	idx, err := index.Build(docs)
	if err != nil {
		h.metrics.IndexRebuildsTotal.WithLabelValues("error").Inc()
		h.writeError(w, r, err)
		return
	}
	h.retriever.Swap(idx)
	h.metrics.IndexRebuildsTotal.WithLabelValues("ok").Inc()
	h.metrics.DocsIndexed.Set(float64(idx.DocCount()))
	h.metrics.IndexTerms.Set(float64(idx.TermCount()))

	if h.queryCache != nil {
		if err := h.queryCache.Invalidate(r.Context()); err != nil {
			logger.FromContext(r.Context()).Error("failed to invalidate cache after rebuild", "error", err)
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"documents": idx.DocCount(),
		"terms":     idx.TermCount(),
	})
}

// CacheStats reports search cache hit/miss counters.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.queryCache == nil {
		h.writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}
	hits, misses := h.queryCache.Stats()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"enabled": true,
		"hits":    hits,
		"misses":  misses,
	})
}

// CacheInvalidate drops all cached search responses.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.queryCache == nil {
		h.writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}
	if err := h.queryCache.Invalidate(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"invalidated": true})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		logger.FromContext(r.Context()).Warn("request rejected", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	msg := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	h.writeJSON(w, status, map[string]string{"error": msg})
}
