package models

import "time"

// SystemMetrics is a JSON-friendly snapshot of process counters.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"avg_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"avg_db_query_duration_ms"`
	JobsSucceeded            uint64    `json:"jobs_succeeded"`
	JobsFailed               uint64    `json:"jobs_failed"`
	RemindersSent            uint64    `json:"reminders_sent"`
	ExportsGenerated         uint64    `json:"exports_generated"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
