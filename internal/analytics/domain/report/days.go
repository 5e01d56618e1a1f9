package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	ledger "driver-ledger/internal/ledger/domain"
)

// DistanceSource names which rule produced a day's distance.
type DistanceSource string

const (
	DistanceOdometer DistanceSource = "odometer"
	DistanceManual   DistanceSource = "manual"
	DistanceNone     DistanceSource = "none"
)

// DaySummary is one calendar day of the window.
type DaySummary struct {
	Date           time.Time       `json:"date"`
	Income         decimal.Decimal `json:"income"`
	Expense        decimal.Decimal `json:"expense"`
	DistanceKm     float64         `json:"distance_km"`
	DistanceSource DistanceSource  `json:"distance_source"`
	Hours          float64         `json:"hours"`
}

// DayDistance reconstructs the distance of a single day's rows.
// Two or more positive odometer readings win (max - min); otherwise manual
// distance_km entries are summed; otherwise the day has no distance.
func DayDistance(records []ledger.Record) (float64, DistanceSource) {
	var (
		readings int
		low      float64
		high     float64
		manual   float64
	)
	for _, record := range records {
		if record.Odometer > 0 {
			if readings == 0 || record.Odometer < low {
				low = record.Odometer
			}
			if readings == 0 || record.Odometer > high {
				high = record.Odometer
			}
			readings++
		}
		if record.DistanceKm > 0 {
			manual += record.DistanceKm
		}
	}
	switch {
	case readings >= 2:
		return high - low, DistanceOdometer
	case manual > 0:
		return manual, DistanceManual
	default:
		return 0, DistanceNone
	}
}

// ShiftDuration is the time from start to end, wrapping once past midnight.
func ShiftDuration(start, end ledger.TimeOfDay) time.Duration {
	d := end.Sub(start)
	if d < 0 {
		d += 24 * time.Hour
	}
	return d
}

// DayDuration spans the earliest shift start to the latest shift end of one day.
// A day without both markers has no duration.
func DayDuration(records []ledger.Record) time.Duration {
	var (
		start, end       ledger.TimeOfDay
		hasStart, hasEnd bool
	)
	for _, record := range records {
		switch record.Activity {
		case ledger.ActivityShiftStart:
			if !hasStart || record.Time < start {
				start = record.Time
			}
			hasStart = true
		case ledger.ActivityShiftEnd:
			if !hasEnd || record.Time > end {
				end = record.Time
			}
			hasEnd = true
		}
	}
	if !hasStart || !hasEnd {
		return 0
	}
	return ShiftDuration(start, end)
}

// groupByDay buckets records by civil date, ascending.
func groupByDay(records []ledger.Record) ([]time.Time, map[time.Time][]ledger.Record) {
	buckets := make(map[time.Time][]ledger.Record)
	days := make([]time.Time, 0)
	for _, record := range records {
		day := ledger.DateOf(record.Date)
		if _, ok := buckets[day]; !ok {
			days = append(days, day)
		}
		buckets[day] = append(buckets[day], record)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, buckets
}

// Days returns the per-day breakdown of records, ascending by date.
func Days(records []ledger.Record) []DaySummary {
	days, buckets := groupByDay(records)
	result := make([]DaySummary, 0, len(days))
	for _, day := range days {
		rows := buckets[day]
		summary := DaySummary{Date: day, Income: decimal.Zero, Expense: decimal.Zero}
		for _, record := range rows {
			switch record.Category {
			case ledger.CategoryIncome:
				summary.Income = summary.Income.Add(record.NetAmount)
			case ledger.CategoryExpense:
				summary.Expense = summary.Expense.Add(record.DeductedAmount)
			}
		}
		summary.DistanceKm, summary.DistanceSource = DayDistance(rows)
		summary.Hours = DayDuration(rows).Hours()
		result = append(result, summary)
	}
	return result
}
