package safety

import (
	"sync"
	"time"
)

// BreakerState is a point-in-time view of the circuit breaker, safe to pass
// into pure validation code.
type BreakerState struct {
	Tripped       bool
	TrippedAt     time.Time
	CoolDownUntil time.Time
}

// LossBreaker halts trading when realized losses for the day breach a
// configured fraction of account equity, and keeps it halted for a
// mandatory cool-down window.
type LossBreaker struct {
	mu            sync.RWMutex
	lossPercent   float64
	coolDown      time.Duration
	tripped       bool
	trippedAt     time.Time
	onStateChange func(tripped bool)
}

// NewLossBreaker creates a breaker that trips when the day's realized loss
// reaches lossPercent of equity. A lossPercent of zero disables tripping.
func NewLossBreaker(lossPercent float64, coolDown time.Duration) *LossBreaker {
	return &LossBreaker{
		lossPercent: lossPercent,
		coolDown:    coolDown,
	}
}

// SetStateChangeCallback registers a callback invoked whenever the breaker
// trips or resets. The callback runs on its own goroutine.
func (b *LossBreaker) SetStateChangeCallback(fn func(tripped bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStateChange = fn
}

// Observe records the current day's realized P&L against account equity and
// trips the breaker if the loss threshold is breached. Returns true when
// this observation tripped the breaker.
func (b *LossBreaker) Observe(todayRealizedPnL, equity float64, now time.Time) bool {
	if b.lossPercent <= 0 || equity <= 0 {
		return false
	}
	lossPct := -todayRealizedPnL / equity * 100
	if lossPct < b.lossPercent {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tripped && now.Before(b.trippedAt.Add(b.coolDown)) {
		// Already within the cool-down window.
		return false
	}
	b.tripped = true
	b.trippedAt = now
	if b.onStateChange != nil {
		go b.onStateChange(true)
	}
	return true
}

// Snapshot returns the breaker state as of now. A trip older than the
// cool-down window reads as not tripped.
func (b *LossBreaker) Snapshot(now time.Time) BreakerState {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.tripped {
		return BreakerState{}
	}
	until := b.trippedAt.Add(b.coolDown)
	if !now.Before(until) {
		return BreakerState{}
	}
	return BreakerState{
		Tripped:       true,
		TrippedAt:     b.trippedAt,
		CoolDownUntil: until,
	}
}

// Reset clears a trip manually, before the cool-down window has elapsed.
func (b *LossBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.tripped {
		return
	}
	b.tripped = false
	b.trippedAt = time.Time{}
	if b.onStateChange != nil {
		go b.onStateChange(false)
	}
}
