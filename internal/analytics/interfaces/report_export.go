package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"driver-ledger/internal/analytics/application"
	"driver-ledger/internal/analytics/domain/window"
	ledger "driver-ledger/internal/ledger/domain"
)

// Sheet names of the XLSX report.
const (
	SheetSummary    = "summary"
	SheetDays       = "days"
	SheetCommission = "commission"
)

const utf8Family = "ledger"

// PDFOption configures BuildReportPDF.
type PDFOption func(*pdfConfig)

type pdfConfig struct {
	fontPath string
}

// WithUTF8Font embeds a TrueType font so platform names outside cp1252 (Thai, for one) render.
// Without it the core Arial font is used and such characters are lost.
func WithUTF8Font(path string) PDFOption {
	return func(c *pdfConfig) {
		c.fontPath = path
	}
}

// BuildReportPDF renders a one-page PDF of a window report.
func BuildReportPDF(rep application.FullReport, opts ...PDFOption) ([]byte, error) {
	var cfg pdfConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	s := rep.Summary
	pdf := gofpdf.New("P", "mm", "A4", "")
	family := "Arial"
	text := pdf.UnicodeTranslatorFromDescriptor("")
	if cfg.fontPath != "" {
		pdf.AddUTF8Font(utf8Family, "", cfg.fontPath)
		pdf.AddUTF8Font(utf8Family, "B", cfg.fontPath)
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("pdf font %s: %w", cfg.fontPath, err)
		}
		family = utf8Family
		text = func(s string) string { return s }
	}
	pdf.SetFont(family, "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Driver Ledger Report")
	pdf.Ln(10)
	pdf.SetFont(family, "", 10)
	pdf.Cell(0, 6, text(fmt.Sprintf("Window: %s", windowLabel(rep.Window))))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", rep.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	lines := []struct {
		label string
		value string
	}{
		{"Gross Income", money(s.GrossIncome, rep.Currency)},
		{"Total Expense", money(s.TotalExpense, rep.Currency)},
		{"  of which Top-ups", money(s.TopUpTotal, rep.Currency)},
		{"Net Profit", money(s.NetProfit, rep.Currency)},
		{"Cash on Hand", money(s.CashOnHand, rep.Currency)},
		{"Tips", money(s.TipTotal, rep.Currency)},
		{"Trips", fmt.Sprintf("%d", s.TripCount)},
		{"Distance (km)", fmt.Sprintf("%.1f", s.TotalDistanceKm)},
		{"Hours", fmt.Sprintf("%.2f", s.TotalHours)},
		{"Income per km", money(s.IncomePerKm, rep.Currency)},
		{"Income per hour", money(s.IncomePerHour, rep.Currency)},
		{"Target", money(rep.Target.Window, rep.Currency)},
		{"Target reached (%)", rep.Target.Percent.StringFixed(2)},
	}
	for _, line := range lines {
		pdf.CellFormat(60, 6, text(line.label), "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, text(line.value), "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	// Commission table
	pdf.SetFont(family, "B", 10)
	pdf.CellFormat(40, 6, "Platform", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Gross", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Deduction", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "GP %", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont(family, "", 10)
	for _, p := range rep.Platforms {
		pdf.CellFormat(40, 6, text(p.Platform), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, p.Gross.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, p.Total.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, p.GPPercent.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	// Daily table
	pdf.SetFont(family, "B", 10)
	pdf.CellFormat(30, 6, "Day", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Income", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Expense", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Km", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Hours", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont(family, "", 10)
	for _, day := range s.Days {
		pdf.CellFormat(30, 6, day.Date.Format(ledger.DateLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, day.Income.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, day.Expense.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.1f", day.DistanceKm), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.2f", day.Hours), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReportXLSX renders a window report as a workbook with summary, days and commission sheets.
func BuildReportXLSX(rep application.FullReport) ([]byte, error) {
	s := rep.Summary
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", SheetSummary)
	if _, err := f.NewSheet(SheetDays); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetCommission); err != nil {
		return nil, err
	}

	summaryRows := [][]interface{}{
		{"Driver Ledger Report"},
		{},
		{"Window", windowLabel(rep.Window)},
		{"Days", rep.Window.DaysInWindow},
		{"Currency", rep.Currency},
		{"Gross Income", s.GrossIncome.InexactFloat64()},
		{"Total Expense", s.TotalExpense.InexactFloat64()},
		{"Top-ups", s.TopUpTotal.InexactFloat64()},
		{"Operating Expense", s.OperatingExpense.InexactFloat64()},
		{"Net Profit", s.NetProfit.InexactFloat64()},
		{"Cash on Hand", s.CashOnHand.InexactFloat64()},
		{"Tips", s.TipTotal.InexactFloat64()},
		{"Trips", s.TripCount},
		{"Distance (km)", s.TotalDistanceKm},
		{"Hours", s.TotalHours},
		{"Income per km", s.IncomePerKm.InexactFloat64()},
		{"Income per hour", s.IncomePerHour.InexactFloat64()},
		{"Target", rep.Target.Window.InexactFloat64()},
		{"Target reached (%)", rep.Target.Percent.InexactFloat64()},
	}
	if err := setRows(f, SheetSummary, summaryRows); err != nil {
		return nil, err
	}

	dayRows := [][]interface{}{{"Day", "Income", "Expense", "Distance (km)", "Distance source", "Hours"}}
	for _, day := range s.Days {
		dayRows = append(dayRows, []interface{}{
			day.Date.Format(ledger.DateLayout),
			day.Income.InexactFloat64(),
			day.Expense.InexactFloat64(),
			day.DistanceKm,
			string(day.DistanceSource),
			day.Hours,
		})
	}
	if err := setRows(f, SheetDays, dayRows); err != nil {
		return nil, err
	}

	commissionRows := [][]interface{}{{"Platform", "Gross", "Top-up", "Shortfall", "Total deduction", "GP %"}}
	for _, p := range rep.Platforms {
		commissionRows = append(commissionRows, []interface{}{
			p.Platform,
			p.Gross.InexactFloat64(),
			p.TopUp.InexactFloat64(),
			p.Shortfall.InexactFloat64(),
			p.Total.InexactFloat64(),
			p.GPPercent.InexactFloat64(),
		})
	}
	if err := setRows(f, SheetCommission, commissionRows); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func windowLabel(w window.Window) string {
	if !w.Bounded() {
		return string(w.Kind)
	}
	return fmt.Sprintf("%s (%s to %s)", w.Kind, w.Start.Format(ledger.DateLayout), w.End.Format(ledger.DateLayout))
}

func money(amount decimal.Decimal, currency string) string {
	if currency == "" {
		return amount.StringFixed(2)
	}
	return amount.StringFixed(2) + " " + currency
}
