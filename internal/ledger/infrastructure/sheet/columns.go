// Package sheet stores the ledger as a flat table (CSV or XLSX), one row per record.
package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledger "driver-ledger/internal/ledger/domain"
)

// Column names of the persisted layout, in write order.
const (
	ColID        = "id"
	ColDate      = "date"
	ColTime      = "time"
	ColPlatform  = "platform"
	ColCategory  = "category"
	ColActivity  = "activity"
	ColChannel   = "payment_channel"
	ColQuoted    = "quoted_amount"
	ColDeducted  = "deducted_amount"
	ColTip       = "tip_amount"
	ColNet       = "net_amount"
	ColCashDelta = "cash_in_hand_delta"
	ColOdometer  = "odometer_reading"
	ColDistance  = "distance_km"
	ColNote      = "note"
)

// Header is the column layout written by every table store.
var Header = []string{
	ColID, ColDate, ColTime, ColPlatform, ColCategory, ColActivity, ColChannel,
	ColQuoted, ColDeducted, ColTip, ColNet, ColCashDelta, ColOdometer, ColDistance, ColNote,
}

// headerAliases maps the column names of the first-generation CSV export.
var headerAliases = map[string]string{
	"subcategory":  ColActivity,
	"amount_gross": ColQuoted,
	"deduction":    ColDeducted,
	"tip":          ColTip,
	"net_income":   ColNet,
}

// activityAliases maps the first-generation sub-category labels.
var activityAliases = map[string]ledger.Activity{
	"fare":              ledger.ActivityFare,
	"top-up/commission": ledger.ActivityTopUp,
	"fuel/energy":       ledger.ActivityFuelEnergy,
	"maintenance/other": ledger.ActivityGeneral,
}

// columnIndex resolves header names (case-insensitive, legacy aliases allowed).
type columnIndex map[string]int

func newColumnIndex(header []string) (columnIndex, error) {
	index := make(columnIndex, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if alias, ok := headerAliases[key]; ok {
			key = alias
		}
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	for _, required := range []string{ColDate, ColCategory} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("sheet: missing column %s", required)
		}
	}
	return index, nil
}

func (c columnIndex) get(row []string, column string) string {
	i, ok := c[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// EncodeRow renders a record in Header order.
func EncodeRow(record ledger.Record) []string {
	return []string{
		record.ID,
		record.Date.Format(ledger.DateLayout),
		record.Time.String(),
		record.Platform,
		string(record.Category),
		string(record.Activity),
		string(record.Channel),
		record.QuotedAmount.String(),
		record.DeductedAmount.String(),
		record.TipAmount.String(),
		record.NetAmount.String(),
		record.CashDelta.String(),
		formatFloat(record.Odometer),
		formatFloat(record.DistanceKm),
		record.Note,
	}
}

// decodeRow parses one data row. Missing numeric cells read as zero. A missing id
// is derived from the row position and content so repeated reads agree.
func decodeRow(index columnIndex, line int, row []string) (ledger.Record, error) {
	var (
		record ledger.Record
		err    error
	)

	record.ID = index.get(row, ColID)
	if record.ID == "" {
		seed := strconv.Itoa(line) + "|" + strings.Join(row, "|")
		record.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
	}
	if record.Date, err = ledger.ParseDate(index.get(row, ColDate)); err != nil {
		return record, err
	}
	if raw := index.get(row, ColTime); raw != "" {
		if record.Time, err = ledger.ParseTimeOfDay(raw); err != nil {
			return record, err
		}
	}
	record.Platform = index.get(row, ColPlatform)

	category, ok := ledger.ParseCategory(index.get(row, ColCategory))
	if !ok {
		return record, fmt.Errorf("sheet: unknown category %q", index.get(row, ColCategory))
	}
	record.Category = category
	record.Activity, err = decodeActivity(index.get(row, ColActivity))
	if err != nil {
		return record, err
	}
	channel, ok := ledger.ParseChannel(index.get(row, ColChannel))
	if !ok {
		return record, fmt.Errorf("sheet: unknown payment channel %q", index.get(row, ColChannel))
	}
	record.Channel = channel

	amounts := []struct {
		column string
		dst    *decimal.Decimal
	}{
		{ColQuoted, &record.QuotedAmount},
		{ColDeducted, &record.DeductedAmount},
		{ColTip, &record.TipAmount},
		{ColNet, &record.NetAmount},
		{ColCashDelta, &record.CashDelta},
	}
	for _, amount := range amounts {
		if *amount.dst, err = parseDecimal(index.get(row, amount.column)); err != nil {
			return record, fmt.Errorf("sheet: column %s: %w", amount.column, err)
		}
	}
	if record.Odometer, err = parseFloat(index.get(row, ColOdometer)); err != nil {
		return record, fmt.Errorf("sheet: column %s: %w", ColOdometer, err)
	}
	if record.DistanceKm, err = parseFloat(index.get(row, ColDistance)); err != nil {
		return record, fmt.Errorf("sheet: column %s: %w", ColDistance, err)
	}
	record.Note = index.get(row, ColNote)
	return record, nil
}

// decodeRows parses a header row plus data rows, skipping blank lines.
func decodeRows(rows [][]string) ([]ledger.Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	index, err := newColumnIndex(rows[0])
	if err != nil {
		return nil, err
	}
	records := make([]ledger.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		record, err := decodeRow(index, i+2, row)
		if err != nil {
			return nil, fmt.Errorf("sheet: row %d: %w", i+2, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func decodeActivity(value string) (ledger.Activity, error) {
	if alias, ok := activityAliases[strings.ToLower(strings.TrimSpace(value))]; ok {
		return alias, nil
	}
	activity, ok := ledger.ParseActivity(value)
	if !ok {
		return "", fmt.Errorf("sheet: unknown activity %q", value)
	}
	return activity, nil
}

func parseDecimal(value string) (decimal.Decimal, error) {
	value = strings.ReplaceAll(value, ",", "")
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}

func parseFloat(value string) (float64, error) {
	value = strings.ReplaceAll(value, ",", "")
	if value == "" {
		return 0, nil
	}
	return strconv.ParseFloat(value, 64)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
