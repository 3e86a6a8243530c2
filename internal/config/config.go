package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Environment string
	LogLevel    string

	Account struct {
		ID             string
		StartingEquity float64
		StartingCash   float64
	}

	Pricing struct {
		Source   string // "bybit" or "static"
		APIKey   string
		Secret   string
		Testnet  bool
		Category string
		Timeout  time.Duration
	}

	Store struct {
		Driver string // "sqlite" or "memory"
		Path   string
	}

	Server struct {
		APIPort        int
		PrometheusPort int
		HealthPort     int
	}

	Engine struct {
		LimitsPath  string
		ExpirySweep time.Duration
	}

	Notifications struct {
		TelegramToken  string
		TelegramChatID string
	}
}

func Load() *Config {
	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	cfg.Account.ID = getEnv("ACCOUNT_ID", "default")
	cfg.Account.StartingEquity = getEnvFloat("ACCOUNT_EQUITY", 10000.0)
	cfg.Account.StartingCash = getEnvFloat("ACCOUNT_CASH", 10000.0)

	cfg.Pricing.Source = getEnv("PRICING_SOURCE", "bybit")
	cfg.Pricing.APIKey = getEnv("BYBIT_API_KEY", "")
	cfg.Pricing.Secret = getEnv("BYBIT_API_SECRET", "")
	cfg.Pricing.Testnet = getEnvBool("BYBIT_TESTNET", true)
	cfg.Pricing.Category = getEnv("BYBIT_CATEGORY", "spot")
	cfg.Pricing.Timeout = getEnvDuration("PRICING_TIMEOUT", 10*time.Second)

	cfg.Store.Driver = getEnv("STORE_DRIVER", "sqlite")
	cfg.Store.Path = getEnv("STORE_PATH", "trading_engine.db")

	cfg.Server.APIPort = getEnvInt("API_PORT", 8080)
	cfg.Server.PrometheusPort = getEnvInt("PROMETHEUS_PORT", 9090)
	cfg.Server.HealthPort = getEnvInt("HEALTH_PORT", 8081)

	cfg.Engine.LimitsPath = getEnv("RISK_LIMITS_PATH", "")
	cfg.Engine.ExpirySweep = getEnvDuration("EXPIRY_SWEEP_INTERVAL", time.Minute)

	cfg.Notifications.TelegramToken = getEnv("TELEGRAM_TOKEN", "")
	cfg.Notifications.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", "")

	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
