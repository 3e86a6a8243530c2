package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	enginerr "github.com/takkaros/brave-market-buddy-sub000/internal/errors"
)

// RetryConfig controls the backoff applied to Bybit market-data reads.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns the retry policy used when none is supplied.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2.0,
	}
}

// BybitConfig holds the configuration for the Bybit price source.
type BybitConfig struct {
	APIKey    string
	APISecret string
	Testnet   bool
	Category  string // "spot", "linear", "inverse"
	Retry     RetryConfig
}

// BybitSource resolves last prices from the Bybit v5 ticker endpoint.
// Failures after retries surface as ErrPriceUnavailable so the engine
// blocks rather than fabricating a price.
type BybitSource struct {
	client   *bybit_api.Client
	category string
	retry    RetryConfig
}

// NewBybitSource creates a price source backed by the Bybit public API.
func NewBybitSource(cfg BybitConfig) *BybitSource {
	baseURL := bybit_api.MAINNET
	if cfg.Testnet {
		baseURL = bybit_api.TESTNET
	}
	if cfg.Category == "" {
		cfg.Category = "spot"
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	client := bybit_api.NewBybitHttpClient(cfg.APIKey, cfg.APISecret, bybit_api.WithBaseURL(baseURL))
	return &BybitSource{client: client, category: cfg.Category, retry: cfg.Retry}
}

// LastPrice implements Source with exponential-backoff retries.
func (b *BybitSource) LastPrice(ctx context.Context, symbol string) (float64, error) {
	var price float64
	var lastErr error

	for attempt := 0; attempt <= b.retry.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		price, lastErr = b.fetch(ctx, symbol)
		if lastErr == nil {
			return price, nil
		}
		if attempt == b.retry.MaxRetries {
			break
		}

		delay := b.retry.InitialDelay
		if attempt > 0 {
			delay = time.Duration(float64(b.retry.InitialDelay) * math.Pow(b.retry.BackoffFactor, float64(attempt)))
		}
		if delay > b.retry.MaxDelay {
			delay = b.retry.MaxDelay
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(delay):
		}
	}

	return 0, &enginerr.EngineError{
		Category:   enginerr.ErrorCategoryExternal,
		Component:  "pricing",
		Operation:  "last_price",
		Message:    fmt.Sprintf("bybit ticker %s failed after %d attempts: %v", symbol, b.retry.MaxRetries+1, lastErr),
		Underlying: enginerr.ErrPriceUnavailable,
	}
}

func (b *BybitSource) fetch(ctx context.Context, symbol string) (float64, error) {
	params := map[string]interface{}{
		"category": b.category,
		"symbol":   symbol,
	}
	result, err := b.client.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	if err != nil {
		return 0, fmt.Errorf("get market tickers: %w", err)
	}
	return parseTickerPrice(result)
}

func parseTickerPrice(response interface{}) (float64, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return 0, fmt.Errorf("invalid response type")
	}
	if serverResp.RetCode != 0 {
		return 0, fmt.Errorf("API error: %s (code: %d)", serverResp.RetMsg, serverResp.RetCode)
	}

	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal result: %w", err)
	}

	var tickerResult struct {
		Category string `json:"category"`
		List     []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &tickerResult); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ticker result: %w", err)
	}
	if len(tickerResult.List) == 0 {
		return 0, fmt.Errorf("no ticker data for symbol")
	}

	price, err := strconv.ParseFloat(tickerResult.List[0].LastPrice, 64)
	if err != nil || price <= 0 {
		return 0, fmt.Errorf("invalid last price %q", tickerResult.List[0].LastPrice)
	}
	return price, nil
}
