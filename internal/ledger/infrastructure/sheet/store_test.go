package sheet

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	ledger "driver-ledger/internal/ledger/domain"
)

func sampleRecords() []ledger.Record {
	day := time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC)
	return []ledger.Record{
		{
			ID:             "r-1",
			Date:           day,
			Time:           ledger.TimeOfDay(8*60 + 5),
			Platform:       "Bolt",
			Category:       ledger.CategoryIncome,
			Activity:       ledger.ActivityFare,
			Channel:        ledger.ChannelCard,
			QuotedAmount:   decimal.RequireFromString("500"),
			DeductedAmount: decimal.RequireFromString("49.75"),
			TipAmount:      decimal.Zero,
			NetAmount:      decimal.RequireFromString("450.25"),
			CashDelta:      decimal.Zero,
			Note:           "airport, terminal 2",
		},
		{
			ID:             "r-2",
			Date:           day,
			Time:           ledger.TimeOfDay(12 * 60),
			Platform:       "Maxim",
			Category:       ledger.CategoryExpense,
			Activity:       ledger.ActivityTopUp,
			Channel:        ledger.ChannelCash,
			DeductedAmount: decimal.RequireFromString("100"),
			NetAmount:      decimal.RequireFromString("-100"),
			CashDelta:      decimal.RequireFromString("-100"),
		},
		{
			ID:         "r-3",
			Date:       day,
			Time:       ledger.TimeOfDay(20*60 + 30),
			Platform:   ledger.PlatformSystem,
			Category:   ledger.CategoryShift,
			Activity:   ledger.ActivityShiftEnd,
			Channel:    ledger.ChannelNone,
			Odometer:   15234.6,
			DistanceKm: 12.5,
		},
	}
}

func assertSameRecords(t *testing.T, got, want []ledger.Record) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.ID != w.ID || !g.Date.Equal(w.Date) || g.Time != w.Time || g.Platform != w.Platform ||
			g.Category != w.Category || g.Activity != w.Activity || g.Channel != w.Channel ||
			g.Odometer != w.Odometer || g.DistanceKm != w.DistanceKm || g.Note != w.Note {
			t.Fatalf("record %d mismatch:\n got  %+v\n want %+v", i, g, w)
		}
		amounts := [][2]decimal.Decimal{
			{g.QuotedAmount, w.QuotedAmount},
			{g.DeductedAmount, w.DeductedAmount},
			{g.TipAmount, w.TipAmount},
			{g.NetAmount, w.NetAmount},
			{g.CashDelta, w.CashDelta},
		}
		for j, pair := range amounts {
			if !pair[0].Equal(pair[1]) {
				t.Fatalf("record %d amount %d: got %s want %s", i, j, pair[0], pair[1])
			}
		}
	}
}

func exerciseStore(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()

	empty, err := store.All(ctx)
	if err != nil {
		t.Fatalf("all on missing file: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty ledger, got %d", len(empty))
	}

	records := sampleRecords()
	for _, record := range records {
		if err := store.Append(ctx, record); err != nil {
			t.Fatalf("append %s: %v", record.ID, err)
		}
	}
	got, err := store.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	assertSameRecords(t, got, records)

	if err := store.Append(ctx, records[0]); !errors.Is(err, ledger.ErrDuplicateID) {
		t.Fatalf("expected duplicate id, got %v", err)
	}

	if err := store.Replace(ctx, records[1:]); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err = store.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	assertSameRecords(t, got, records[1:])
}

func TestCSVStore_RoundTrip(t *testing.T) {
	exerciseStore(t, NewCSVStore(filepath.Join(t.TempDir(), "data", "ledger.csv")))
}

func TestXLSXStore_RoundTrip(t *testing.T) {
	exerciseStore(t, NewXLSXStore(filepath.Join(t.TempDir(), "ledger.xlsx"), ""))
}

func TestReadCSV_MissingNumericCellsReadAsZero(t *testing.T) {
	input := "date,category,activity,platform,net_amount,quoted_amount\n" +
		"2026-05-04,income,fare,Grab,120,\n"
	records, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if !records[0].QuotedAmount.IsZero() || !records[0].TipAmount.IsZero() || records[0].Odometer != 0 {
		t.Fatalf("expected zero defaults, got %+v", records[0])
	}
	if records[0].ID == "" {
		t.Fatalf("expected a derived id")
	}

	again, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if again[0].ID != records[0].ID {
		t.Fatalf("derived ids must be stable across reads")
	}
}

func TestReadCSV_FirstGenerationLayout(t *testing.T) {
	input := "Date,Time,Platform,Category,SubCategory,Amount_Gross,Deduction,Tip,Net_Income,Note\n" +
		"2025-12-20,09:15,Grab,Income,Fare,150.0,0,20.0,170.0,\n" +
		"2025-12-20,10:00,Maxim,Expense,Top-up/Commission,0,300.0,0,-300.0,wallet\n" +
		"2025-12-20,11:30,Expense,Expense,Fuel/Energy,0,40.0,0,-40.0,home\n"
	records, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Activity != ledger.ActivityFare || !records[0].TipAmount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected fare %+v", records[0])
	}
	if !records[1].IsTopUp() || !records[1].DeductedAmount.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("unexpected top-up %+v", records[1])
	}
	if records[2].Activity != ledger.ActivityFuelEnergy {
		t.Fatalf("unexpected energy row %+v", records[2])
	}
}

func TestReadCSV_RejectsUnknownCategory(t *testing.T) {
	input := "date,category,activity\n2026-01-01,refund,fare\n"
	if _, err := ReadCSV(strings.NewReader(input)); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}

func TestXLSXStore_ReadsTypedDateAndTimeCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edited.xlsx")
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", DefaultSheetName); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	header := make([]interface{}, len(Header))
	for i, name := range Header {
		header[i] = name
	}
	if err := f.SetSheetRow(DefaultSheetName, "A1", &header); err != nil {
		t.Fatalf("header: %v", err)
	}
	cells := map[string]interface{}{
		"A2": "r-typed",
		"B2": time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC),
		"C2": 0.75,
		"D2": "Grab",
		"E2": "income",
		"F2": "fare",
		"G2": "cash_or_transfer",
		"H2": 150,
		"K2": 150,
		"L2": 150,
		"A3": "r-text",
		"B3": "2026-05-05",
		"C3": "07:15",
		"D3": "Bolt",
		"E3": "income",
		"F3": "fare",
		"G3": "cash_or_transfer",
		"H3": 90,
		"K3": 90,
		"L3": 90,
	}
	for cell, value := range cells {
		if err := f.SetCellValue(DefaultSheetName, cell, value); err != nil {
			t.Fatalf("set %s: %v", cell, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = f.Close()

	records, err := NewXLSXStore(path, "").All(context.Background())
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	typed := records[0]
	if !typed.Date.Equal(time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("typed date: got %s", typed.Date)
	}
	if typed.Time.String() != "18:00" {
		t.Fatalf("typed time: got %s", typed.Time)
	}
	if !typed.NetAmount.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("typed net: got %s", typed.NetAmount)
	}
	if records[1].Date.Format(ledger.DateLayout) != "2026-05-05" || records[1].Time.String() != "07:15" {
		t.Fatalf("text row: got %s %s", records[1].Date, records[1].Time)
	}
}

func TestSerialTimeOfDay(t *testing.T) {
	cases := map[float64]string{
		0:           "00:00",
		0.5:         "12:00",
		46146.3125:  "07:30",
		0.99999:     "00:00",
		0.520833333: "12:30",
	}
	for serial, want := range cases {
		if got := serialTimeOfDay(serial).String(); got != want {
			t.Fatalf("serial %v: got %s want %s", serial, got, want)
		}
	}
}
