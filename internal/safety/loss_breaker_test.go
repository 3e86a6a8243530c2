package safety

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLossBreaker_TripsOnThreshold(t *testing.T) {
	b := NewLossBreaker(10, time.Hour)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// 5% loss: below threshold.
	assert.False(t, b.Observe(-500, 10000, now))
	assert.False(t, b.Snapshot(now).Tripped)

	// 10% loss: trips.
	assert.True(t, b.Observe(-1000, 10000, now))
	state := b.Snapshot(now)
	assert.True(t, state.Tripped)
	assert.Equal(t, now.Add(time.Hour), state.CoolDownUntil)
}

func TestLossBreaker_ProfitNeverTrips(t *testing.T) {
	b := NewLossBreaker(10, time.Hour)
	now := time.Now()
	assert.False(t, b.Observe(5000, 10000, now))
	assert.False(t, b.Snapshot(now).Tripped)
}

func TestLossBreaker_CoolDownExpires(t *testing.T) {
	b := NewLossBreaker(10, time.Hour)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.Observe(-2000, 10000, now)

	assert.True(t, b.Snapshot(now.Add(59*time.Minute)).Tripped)
	assert.False(t, b.Snapshot(now.Add(61*time.Minute)).Tripped,
		"trip should clear once the cool-down has elapsed")
}

func TestLossBreaker_ManualReset(t *testing.T) {
	b := NewLossBreaker(10, time.Hour)
	now := time.Now()
	b.Observe(-2000, 10000, now)
	assert.True(t, b.Snapshot(now).Tripped)

	b.Reset()
	assert.False(t, b.Snapshot(now).Tripped)
}

func TestLossBreaker_DisabledThreshold(t *testing.T) {
	b := NewLossBreaker(0, time.Hour)
	assert.False(t, b.Observe(-9999, 10000, time.Now()))
}

func TestLossBreaker_NoDoubleTripsInsideWindow(t *testing.T) {
	b := NewLossBreaker(10, time.Hour)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, b.Observe(-2000, 10000, now))
	assert.False(t, b.Observe(-2500, 10000, now.Add(time.Minute)),
		"a second breach inside the window is not a new trip")

	state := b.Snapshot(now.Add(time.Minute))
	assert.Equal(t, now, state.TrippedAt, "trip time must not move")
}
