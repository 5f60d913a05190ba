package models

import "time"

// MetricsSnapshot summarises process metrics for the admin summary endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64            `json:"requests_total"`
	AverageRequestDurationMs float64           `json:"average_request_duration_ms"`
	CacheHits                uint64            `json:"cache_hits"`
	CacheMisses              uint64            `json:"cache_misses"`
	CacheHitRatio            float64           `json:"cache_hit_ratio"`
	ToggleOutcomes           map[string]uint64 `json:"toggle_outcomes"`
	Goroutines               int               `json:"goroutines"`
	GeneratedAt              time.Time         `json:"generated_at"`
}
