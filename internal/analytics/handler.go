package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Handler serves the aggregated usage stats to the dashboard.
type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

// statsResponse stamps the snapshot so polling dashboards can tell a fresh
// response from a stale one.
type statsResponse struct {
	AggregatedStats
	GeneratedAt time.Time `json:"generated_at"`
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		AggregatedStats: h.aggregator.Stats(),
		GeneratedAt:     time.Now().UTC(),
	}
	w.Header().Set("Content-Type", "application/json")
	// Counters move on every request, caching a snapshot is never useful.
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
