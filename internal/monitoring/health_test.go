package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkHealth(t *testing.T, h *HealthChecker) (int, HealthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var status HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	return rec.Code, status
}

func TestHealthChecker_ReportsLastFill(t *testing.T) {
	h := NewHealthChecker()
	h.RecordFill(101.5)

	code, status := checkHealth(t, h)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, 101.5, status.LastPrice)
	assert.False(t, status.LastFill.IsZero())
}

func TestHealthChecker_DegradedWhenBreakerTripped(t *testing.T) {
	h := NewHealthChecker()
	h.SetBreakerTripped(true)

	code, status := checkHealth(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", status.Status)

	h.SetBreakerTripped(false)
	code, _ = checkHealth(t, h)
	assert.Equal(t, http.StatusOK, code)
}

func TestHealthChecker_UnhealthyWhenStoreUnreachable(t *testing.T) {
	h := NewHealthChecker()
	h.SetStoreReachable(false)
	h.RecordFailure("database is locked")

	code, status := checkHealth(t, h)
	require.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "unhealthy", status.Status)
	assert.Contains(t, status.Errors, "database is locked")
}
