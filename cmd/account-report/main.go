// Command account-report prints the account's positions, trades, and daily
// summary from the engine's store, optionally exporting an Excel workbook.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/takkaros/brave-market-buddy-sub000/internal/config"
	"github.com/takkaros/brave-market-buddy-sub000/internal/domain"
	"github.com/takkaros/brave-market-buddy-sub000/internal/pricing"
	"github.com/takkaros/brave-market-buddy-sub000/internal/store"
	"github.com/takkaros/brave-market-buddy-sub000/pkg/reporting"
)

func main() {
	xlsxPath := flag.String("xlsx", "", "write an Excel report to this path")
	sinceFlag := flag.String("since", "", "only include trades at or after this RFC3339 time")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}
	cfg := config.Load()

	var since time.Time
	if *sinceFlag != "" {
		parsed, err := time.Parse(time.RFC3339, *sinceFlag)
		if err != nil {
			log.Fatalf("Invalid -since value: %v", err)
		}
		since = parsed
	}

	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	positions, err := st.ListPositions(ctx, cfg.Account.ID)
	if err != nil {
		log.Fatalf("Failed to list positions: %v", err)
	}
	trades, err := st.ListTrades(ctx, cfg.Account.ID, since)
	if err != nil {
		log.Fatalf("Failed to list trades: %v", err)
	}

	prices := resolvePrices(ctx, cfg, positions)

	console := reporting.NewConsoleReporter()
	console.PrintPositions(positions, prices)
	console.PrintTrades(trades)
	console.PrintDailySummary(trades)

	if *xlsxPath != "" {
		if err := reporting.NewExcelReporter().WriteAccountReport(trades, positions, *xlsxPath); err != nil {
			log.Fatalf("Failed to write Excel report: %v", err)
		}
		log.Printf("Excel report written to %s", *xlsxPath)
	}
}

// resolvePrices marks positions to market where a price is available.
// Symbols that cannot be priced are simply absent from the map; the console
// report shows them as n/a instead of a made-up zero.
func resolvePrices(ctx context.Context, cfg *config.Config, positions []domain.Position) map[string]float64 {
	if len(positions) == 0 || cfg.Pricing.Source == "static" {
		return nil
	}

	source := pricing.NewBybitSource(pricing.BybitConfig{
		APIKey:    cfg.Pricing.APIKey,
		APISecret: cfg.Pricing.Secret,
		Testnet:   cfg.Pricing.Testnet,
		Category:  cfg.Pricing.Category,
	})

	prices := make(map[string]float64, len(positions))
	for i := range positions {
		price, err := source.LastPrice(ctx, positions[i].Symbol)
		if err != nil {
			log.Printf("No price for %s: %v", positions[i].Symbol, err)
			continue
		}
		prices[positions[i].Symbol] = price
	}
	return prices
}
