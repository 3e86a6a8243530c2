package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/takkaros/brave-market-buddy-sub000/internal/api"
	"github.com/takkaros/brave-market-buddy-sub000/internal/config"
	"github.com/takkaros/brave-market-buddy-sub000/internal/engine"
	"github.com/takkaros/brave-market-buddy-sub000/internal/monitoring"
	"github.com/takkaros/brave-market-buddy-sub000/internal/notifications"
	"github.com/takkaros/brave-market-buddy-sub000/internal/pricing"
	"github.com/takkaros/brave-market-buddy-sub000/internal/store"
	"github.com/takkaros/brave-market-buddy-sub000/pkg/utils"
)

func main() {
	// Load .env if present; real env wins.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg := config.Load()
	utils.SetLevel(cfg.LogLevel)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting trading engine in %s mode", cfg.Environment)

	limits, err := config.LoadRiskLimits(cfg.Engine.LimitsPath)
	if err != nil {
		log.Fatalf("Failed to load risk limits: %v", err)
	}

	st, err := newStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	prices := newPriceSource(cfg)

	var notifier notifications.Notifier = notifications.NoopNotifier{}
	if cfg.Notifications.TelegramToken != "" {
		notifier = notifications.NewTelegramNotifier(cfg.Notifications.TelegramToken, cfg.Notifications.TelegramChatID)
	} else {
		log.Println("Telegram notifications disabled (no token configured)")
	}

	accounts := engine.NewStaticAccounts()
	accounts.Seed(cfg.Account.ID, cfg.Account.StartingEquity, cfg.Account.StartingCash)

	eng := engine.NewEngine(st, prices, accounts, limits, notifier)

	healthChecker := monitoring.NewHealthChecker()
	eng.SetHealthChecker(healthChecker)
	go setupMonitoringServers(cfg, healthChecker)

	// API server
	router := mux.NewRouter()
	api.NewHandler(eng, cfg.Account.ID).SetupRoutes(router)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.APIPort),
		Handler: router,
	}
	go func() {
		log.Printf("Starting API server on port %d", cfg.Server.APIPort)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API server error: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Day-order expiry sweep
	go func() {
		ticker := time.NewTicker(cfg.Engine.ExpirySweep)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				expired, err := eng.ExpireStale(ctx, cfg.Account.ID, now)
				if err != nil {
					log.Printf("Expiry sweep error: %v", err)
					healthChecker.RecordFailure(err.Error())
				} else if len(expired) > 0 {
					log.Printf("Expired %d stale day orders", len(expired))
				}
			}
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during API server shutdown: %v", err)
	}

	log.Println("Trading engine stopped successfully")
}

func newStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return store.NewSQLiteStore(cfg.Store.Path)
	}
}

func newPriceSource(cfg *config.Config) pricing.Source {
	if cfg.Pricing.Source == "static" {
		return pricing.NewStaticSource(nil)
	}
	return pricing.NewBybitSource(pricing.BybitConfig{
		APIKey:    cfg.Pricing.APIKey,
		APISecret: cfg.Pricing.Secret,
		Testnet:   cfg.Pricing.Testnet,
		Category:  cfg.Pricing.Category,
	})
}

func setupMonitoringServers(cfg *config.Config, healthChecker *monitoring.HealthChecker) {
	// Create separate mux for health server
	healthMux := http.NewServeMux()
	healthMux.Handle("/health", healthChecker)

	// Start health server
	go func() {
		log.Printf("Starting health server on port %d", cfg.Server.HealthPort)
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.HealthPort), healthMux); err != nil {
			log.Printf("Health server error: %v", err)
		}
	}()

	// Start Prometheus metrics server
	go func() {
		log.Printf("Starting Prometheus server on port %d", cfg.Server.PrometheusPort)
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.PrometheusPort), monitoring.NewMetricsHandler()); err != nil {
			log.Printf("Prometheus server error: %v", err)
		}
	}()
}
