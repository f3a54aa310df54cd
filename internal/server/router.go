package server

import (
	"net/http"
	"time"

	"github.com/narongchai190/soiler/internal/analytics"
	"github.com/narongchai190/soiler/pkg/health"
	"github.com/narongchai190/soiler/pkg/metrics"
	"github.com/narongchai190/soiler/pkg/middleware"
)

// NewRouter assembles the API routes and middleware chain. analyticsH may be
// nil when Kafka is not configured.
func NewRouter(h *Handler, analyticsH *analytics.Handler, checker *health.Checker, m *metrics.Metrics, timeout time.Duration) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/analyze", h.Analyze)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/documents", h.Documents)
	mux.HandleFunc("POST /api/v1/index/rebuild", h.RebuildIndex)
	mux.HandleFunc("GET /api/v1/history", h.History)
	mux.HandleFunc("GET /api/v1/history/{id}", h.HistoryByID)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	if analyticsH != nil {
		mux.HandleFunc("GET /api/v1/analytics", analyticsH.Stats)
	}
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(timeout)(chain)
	chain = middleware.RequestID(chain)
	return chain
}
