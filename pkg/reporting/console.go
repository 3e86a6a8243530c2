package reporting

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/takkaros/brave-market-buddy-sub000/internal/domain"
)

// ConsoleReporter prints account activity as formatted tables.
type ConsoleReporter struct{}

// NewConsoleReporter creates a new console reporter
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// PrintPositions renders the open positions table with mark-to-market
// figures at the supplied prices. Symbols with no price show n/a rather
// than a zero.
func (r *ConsoleReporter) PrintPositions(positions []domain.Position, prices map[string]float64) {
	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("📊 OPEN POSITIONS")
	fmt.Println(strings.Repeat("=", 50))

	if len(positions) == 0 {
		fmt.Println("No open positions.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Symbol", "Qty", "Avg Entry", "Cost Basis", "Last", "Unrealized P&L"})

	var totalBasis, totalUnrealized float64
	for i := range positions {
		p := positions[i]
		totalBasis += p.TotalCostBasis

		last := "n/a"
		unrealized := "n/a"
		if price, ok := prices[p.Symbol]; ok && price > 0 {
			last = fmt.Sprintf("%.2f", price)
			pnl := p.UnrealizedPnL(price)
			totalUnrealized += pnl
			unrealized = fmt.Sprintf("%+.2f", pnl)
		}

		t.AppendRow(table.Row{
			p.Symbol,
			fmt.Sprintf("%.8g", p.Quantity),
			fmt.Sprintf("%.2f", p.AverageEntryPrice),
			fmt.Sprintf("%.2f", p.TotalCostBasis),
			last,
			unrealized,
		})
	}
	t.AppendFooter(table.Row{"TOTAL", "", "", fmt.Sprintf("%.2f", totalBasis), "", fmt.Sprintf("%+.2f", totalUnrealized)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.SetStyle(table.StyleLight)
	t.Render()
}

// PrintTrades renders the trade history table with realized P&L and
// commission totals.
func (r *ConsoleReporter) PrintTrades(trades []domain.Trade) {
	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("📋 TRADE HISTORY")
	fmt.Println(strings.Repeat("=", 50))

	if len(trades) == 0 {
		fmt.Println("No trades recorded.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Time", "Symbol", "Side", "Qty", "Price", "Total", "Commission", "Realized P&L"})

	var totalCommission, totalRealized float64
	for i := range trades {
		tr := trades[i]
		totalCommission += tr.CommissionUSD
		totalRealized += tr.RealizedPnL

		t.AppendRow(table.Row{
			tr.ExecutedAt.Format("2006-01-02 15:04:05"),
			tr.Symbol,
			strings.ToUpper(string(tr.Side)),
			fmt.Sprintf("%.8g", tr.Quantity),
			fmt.Sprintf("%.2f", tr.Price),
			fmt.Sprintf("%.2f", tr.TotalUSD),
			fmt.Sprintf("%.2f", tr.CommissionUSD),
			fmt.Sprintf("%+.2f", tr.RealizedPnL),
		})
	}
	t.AppendFooter(table.Row{"TOTAL", "", "", "", "", "",
		fmt.Sprintf("%.2f", totalCommission), fmt.Sprintf("%+.2f", totalRealized)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	t.SetStyle(table.StyleLight)
	t.Render()
}

// PrintDailySummary renders the day's realized performance.
func (r *ConsoleReporter) PrintDailySummary(trades []domain.Trade) {
	var realized, commission float64
	wins, losses := 0, 0
	for i := range trades {
		realized += trades[i].RealizedPnL
		commission += trades[i].CommissionUSD
		if trades[i].RealizedPnL > 0 {
			wins++
		} else if trades[i].RealizedPnL < 0 {
			losses++
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("📊 DAILY SUMMARY")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("🔄 Trades:          %d\n", len(trades))
	fmt.Printf("✅ Winning Trades:  %d\n", wins)
	fmt.Printf("❌ Losing Trades:   %d\n", losses)
	fmt.Printf("💰 Realized P&L:    $%+.2f\n", realized)
	fmt.Printf("💸 Commission Paid: $%.2f\n", commission)
	fmt.Printf("💰 Net P&L:         $%+.2f\n", realized-commission)
}
