package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Order flow metrics
	ordersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_engine_orders_submitted_total",
			Help: "Total number of orders submitted",
		},
		[]string{"symbol", "side"},
	)

	ordersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_engine_orders_rejected_total",
			Help: "Total number of orders rejected, by failing risk rule",
		},
		[]string{"rule"},
	)

	fillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_engine_fills_total",
			Help: "Total number of simulated fills executed",
		},
		[]string{"symbol", "side"},
	)

	fillNotional = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trading_engine_fill_notional_usd",
			Help:    "Distribution of fill notional values in USD",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		},
		[]string{"symbol"},
	)

	// Ledger metrics. Profit and loss accumulate separately because a
	// counter must never decrease; net P&L is the difference of the two.
	realizedProfit = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_engine_realized_profit_usd_total",
			Help: "Cumulative realized profit in USD",
		},
		[]string{"symbol"},
	)

	realizedLoss = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_engine_realized_loss_usd_total",
			Help: "Cumulative realized loss in USD, recorded as a positive amount",
		},
		[]string{"symbol"},
	)

	commissionPaid = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trading_engine_commission_usd_total",
			Help: "Cumulative commission charged in USD",
		},
	)

	openPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trading_engine_open_positions",
			Help: "Number of currently open positions",
		},
	)

	// Safety metrics
	breakerTripped = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trading_engine_circuit_breaker_tripped",
			Help: "Whether the daily-loss circuit breaker is tripped (1) or clear (0)",
		},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trading_engine_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type"},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(ordersSubmitted)
	prometheus.MustRegister(ordersRejected)
	prometheus.MustRegister(fillsTotal)
	prometheus.MustRegister(fillNotional)
	prometheus.MustRegister(realizedProfit)
	prometheus.MustRegister(realizedLoss)
	prometheus.MustRegister(commissionPaid)
	prometheus.MustRegister(openPositions)
	prometheus.MustRegister(breakerTripped)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordOrderSubmitted records an order submission.
func RecordOrderSubmitted(symbol, side string) {
	ordersSubmitted.WithLabelValues(symbol, side).Inc()
}

// RecordOrderRejected records a risk rejection by failing rule.
func RecordOrderRejected(rule string) {
	ordersRejected.WithLabelValues(rule).Inc()
}

// RecordFill records an executed fill.
func RecordFill(symbol, side string, notionalUSD, commissionUSD float64) {
	fillsTotal.WithLabelValues(symbol, side).Inc()
	fillNotional.WithLabelValues(symbol).Observe(notionalUSD)
	commissionPaid.Add(commissionUSD)
}

// RecordRealizedPnL accumulates realized profit or loss for a symbol.
// Losses land on their own counter as a positive amount.
func RecordRealizedPnL(symbol string, pnl float64) {
	if pnl >= 0 {
		realizedProfit.WithLabelValues(symbol).Add(pnl)
	} else {
		realizedLoss.WithLabelValues(symbol).Add(-pnl)
	}
}

// SetOpenPositions updates the open-position gauge.
func SetOpenPositions(n int) {
	openPositions.Set(float64(n))
}

// SetBreakerTripped updates the circuit-breaker gauge.
func SetBreakerTripped(tripped bool) {
	if tripped {
		breakerTripped.Set(1)
	} else {
		breakerTripped.Set(0)
	}
}

// RecordError records an error metric
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}
