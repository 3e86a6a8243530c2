package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enginerr "github.com/takkaros/brave-market-buddy-sub000/internal/errors"
)

func TestStaticSource_LastPrice(t *testing.T) {
	s := NewStaticSource(map[string]float64{"BTCUSDT": 65000})

	price, err := s.LastPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 65000.0, price)
}

func TestStaticSource_MissingSymbolIsHardError(t *testing.T) {
	s := NewStaticSource(nil)

	_, err := s.LastPrice(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.True(t, errors.Is(err, enginerr.ErrPriceUnavailable))
}

func TestStaticSource_ZeroPriceIsHardError(t *testing.T) {
	s := NewStaticSource(map[string]float64{"BTCUSDT": 0})

	_, err := s.LastPrice(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.True(t, errors.Is(err, enginerr.ErrPriceUnavailable))
}

func TestStaticSource_SetAndDelete(t *testing.T) {
	s := NewStaticSource(nil)
	s.Set("ETHUSDT", 3200)

	price, err := s.LastPrice(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, 3200.0, price)

	s.Delete("ETHUSDT")
	_, err = s.LastPrice(context.Background(), "ETHUSDT")
	assert.Error(t, err)
}
