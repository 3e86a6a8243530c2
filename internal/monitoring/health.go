package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

type HealthChecker struct {
	mu             sync.RWMutex
	lastFill       time.Time
	lastPrice      float64
	storeReachable bool
	breakerTripped bool
	errors         []string
}

type HealthStatus struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	LastFill       time.Time `json:"last_fill"`
	LastPrice      float64   `json:"last_price"`
	StoreReachable bool      `json:"store_reachable"`
	BreakerTripped bool      `json:"breaker_tripped"`
	Uptime         string    `json:"uptime"`
	Errors         []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		storeReachable: true,
		errors:         make([]string, 0),
	}
}

// RecordFill notes a successful fill for health reporting.
func (h *HealthChecker) RecordFill(price float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastFill = time.Now()
	h.lastPrice = price
}

// SetStoreReachable flags whether the persistence layer is responding.
func (h *HealthChecker) SetStoreReachable(ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.storeReachable = ok
}

// SetBreakerTripped mirrors the circuit-breaker state into health output.
func (h *HealthChecker) SetBreakerTripped(tripped bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.breakerTripped = tripped
}

// RecordFailure appends an error to the health report, keeping the most
// recent ten.
func (h *HealthChecker) RecordFailure(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
	if len(h.errors) > 10 {
		h.errors = h.errors[len(h.errors)-10:]
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if !h.storeReachable {
		status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	} else if h.breakerTripped {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	health := HealthStatus{
		Status:         status,
		Timestamp:      time.Now(),
		LastFill:       h.lastFill,
		LastPrice:      h.lastPrice,
		StoreReachable: h.storeReachable,
		BreakerTripped: h.breakerTripped,
		Uptime:         time.Since(startTime).String(),
		Errors:         h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
