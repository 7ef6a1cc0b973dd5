package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/jobs"
)

func TestMetricsSnapshotAggregatesCounters(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/dashboard", http.StatusOK, 10*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/dashboard", http.StatusOK, 30*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.ObserveJob("reports", "report", jobs.OutcomeSuccess, time.Second)
	m.ObserveJob("reports", "report", jobs.OutcomeFailed, time.Second)
	m.RecordReminder(models.ReminderTest, "email")

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 20, snap.AverageRequestDurationMs, 0.001)
	assert.InDelta(t, 2.0/3.0, snap.CacheHitRatio, 0.0001)
	assert.Equal(t, uint64(1), snap.JobsSucceeded)
	assert.Equal(t, uint64(1), snap.JobsFailed)
	assert.Equal(t, uint64(1), snap.RemindersSent)
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.RecordExport(models.ReportFormatXLSX)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `attendance_exports_generated_total{format="xlsx"} 1`)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest(http.MethodGet, "/", 200, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.ObserveJob("q", "t", jobs.OutcomeSuccess, time.Millisecond)
	assert.Equal(t, models.SystemMetrics{}, m.Snapshot())
}
