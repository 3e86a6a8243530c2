package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrapeMetrics(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	NewMetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRecordRealizedPnLAcceptsLosses(t *testing.T) {
	// Losing fills report a negative P&L; recording one must not panic the
	// fill path.
	assert.NotPanics(t, func() {
		RecordRealizedPnL("ETHUSDT", 125)
		RecordRealizedPnL("ETHUSDT", -700)
	})

	body := scrapeMetrics(t)
	assert.Contains(t, body, `trading_engine_realized_profit_usd_total{symbol="ETHUSDT"} 125`)
	assert.Contains(t, body, `trading_engine_realized_loss_usd_total{symbol="ETHUSDT"} 700`)
}

func TestRecordErrorCountsByType(t *testing.T) {
	RecordError("EXTERNAL")

	body := scrapeMetrics(t)
	assert.Contains(t, body, `trading_engine_errors_total{type="EXTERNAL"}`)
}
