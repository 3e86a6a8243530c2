package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/takkaros/brave-market-buddy-sub000/internal/domain"
)

// ExcelStyles holds the style ids used across sheets.
type ExcelStyles struct {
	HeaderStyle   int
	CurrencyStyle int
	PercentStyle  int
}

// ExcelReporter writes account activity to an Excel workbook.
type ExcelReporter struct{}

// NewExcelReporter creates a new Excel reporter
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

// WriteAccountReport writes trades and open positions to an Excel file.
func (r *ExcelReporter) WriteAccountReport(trades []domain.Trade, positions []domain.Position, path string) error {
	// Ensure directory exists before creating file
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const tradesSheet = "Trades"
	const positionsSheet = "Positions"

	fx.SetSheetName(fx.GetSheetName(0), tradesSheet)
	fx.NewSheet(positionsSheet)

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeTradesSheet(fx, tradesSheet, trades, styles); err != nil {
		return err
	}
	if err := r.writePositionsSheet(fx, positionsSheet, positions, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	// Header style - Dark blue background with white text
	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	// Currency style (right aligned, $ format)
	styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 7,
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return styles, err
	}

	// Percentage style (right aligned, % format)
	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 9,
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	return styles, err
}

func (r *ExcelReporter) writeTradesSheet(fx *excelize.File, sheet string, trades []domain.Trade, styles ExcelStyles) error {
	headers := []string{"Executed At", "Symbol", "Side", "Quantity", "Price", "Total USD", "Commission USD", "Realized P&L"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, h)
	}
	fx.SetCellStyle(sheet, "A1", columnName(len(headers))+"1", styles.HeaderStyle)

	for row, tr := range trades {
		values := []interface{}{
			tr.ExecutedAt.Format("2006-01-02 15:04:05"),
			tr.Symbol,
			strings.ToUpper(string(tr.Side)),
			tr.Quantity,
			tr.Price,
			tr.TotalUSD,
			tr.CommissionUSD,
			tr.RealizedPnL,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			fx.SetCellValue(sheet, cell, v)
		}
		for _, col := range []int{6, 7, 8} {
			cell, _ := excelize.CoordinatesToCellName(col, row+2)
			fx.SetCellStyle(sheet, cell, cell, styles.CurrencyStyle)
		}
	}

	fx.SetColWidth(sheet, "A", "A", 20)
	fx.SetColWidth(sheet, "B", columnName(len(headers)), 14)
	return nil
}

func (r *ExcelReporter) writePositionsSheet(fx *excelize.File, sheet string, positions []domain.Position, styles ExcelStyles) error {
	headers := []string{"Symbol", "Quantity", "Avg Entry", "Cost Basis", "Stop Loss", "Take Profit", "Opened At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, h)
	}
	fx.SetCellStyle(sheet, "A1", columnName(len(headers))+"1", styles.HeaderStyle)

	for row, p := range positions {
		values := []interface{}{
			p.Symbol,
			p.Quantity,
			p.AverageEntryPrice,
			p.TotalCostBasis,
			p.StopLossPrice,
			p.TakeProfitPrice,
			p.OpenedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			fx.SetCellValue(sheet, cell, v)
		}
		for _, col := range []int{3, 4} {
			cell, _ := excelize.CoordinatesToCellName(col, row+2)
			fx.SetCellStyle(sheet, cell, cell, styles.CurrencyStyle)
		}
	}

	fx.SetColWidth(sheet, "A", columnName(len(headers)), 16)
	return nil
}

func columnName(n int) string {
	name, _ := excelize.ColumnNumberToName(n)
	return name
}
