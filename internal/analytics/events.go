package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventAnalysis   EventType = "analysis"
	EventZeroResult EventType = "zero_result"
)

// SearchEvent records one knowledge-base search served by the API.
type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	TopK      int       `json:"top_k"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// AnalysisEvent records one full advisory pipeline run.
type AnalysisEvent struct {
	Type      EventType `json:"type"`
	Crop      string    `json:"crop"`
	Location  string    `json:"location"`
	PHStatus  string    `json:"ph_status"`
	Issues    int       `json:"issues"`
	Citations int       `json:"citations"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}
