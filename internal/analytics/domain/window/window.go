// Package window selects a contiguous date range of the ledger.
package window

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	ledger "driver-ledger/internal/ledger/domain"
)

// Kind names a window relative to "now".
type Kind string

const (
	KindToday     Kind = "today"
	KindYesterday Kind = "yesterday"
	KindThisWeek  Kind = "this_week"
	KindThisMonth Kind = "this_month"
	KindLastMonth Kind = "last_month"
	KindThisYear  Kind = "this_year"
	KindAllTime   Kind = "all_time"
	KindCustom    Kind = "custom"
)

var (
	// ErrUnknownWindow is returned for an unsupported window kind.
	ErrUnknownWindow = errors.New("window: unknown window")
	// ErrInvalidRange is returned for a custom range with missing or reversed bounds.
	ErrInvalidRange = errors.New("window: invalid range")
)

// ParseKind normalizes a window name. Empty maps to today.
func ParseKind(value string) (Kind, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return KindToday, nil
	}
	k := Kind(value)
	switch k {
	case KindToday, KindYesterday, KindThisWeek, KindThisMonth, KindLastMonth, KindThisYear, KindAllTime, KindCustom:
		return k, nil
	default:
		return "", ErrUnknownWindow
	}
}

// Window is an inclusive civil-date range.
// For KindAllTime, Start and End stay zero until Cover is applied.
type Window struct {
	Kind         Kind      `json:"kind"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	DaysInWindow int       `json:"days_in_window"`
}

// Resolve builds the window of kind as seen at now. start and end are used by KindCustom only.
func Resolve(kind Kind, now, start, end time.Time) (Window, error) {
	today := ledger.DateOf(now)
	switch kind {
	case KindToday:
		return span(kind, today, today), nil
	case KindYesterday:
		day := today.AddDate(0, 0, -1)
		return span(kind, day, day), nil
	case KindThisWeek:
		offset := (int(today.Weekday()) + 6) % 7
		monday := today.AddDate(0, 0, -offset)
		return span(kind, monday, monday.AddDate(0, 0, 6)), nil
	case KindThisMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return span(kind, first, first.AddDate(0, 1, -1)), nil
	case KindLastMonth:
		first := time.Date(today.Year(), today.Month()-1, 1, 0, 0, 0, 0, time.UTC)
		return span(kind, first, first.AddDate(0, 1, -1)), nil
	case KindThisYear:
		first := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return span(kind, first, first.AddDate(1, 0, -1)), nil
	case KindAllTime:
		return Window{Kind: kind}, nil
	case KindCustom:
		if start.IsZero() || end.IsZero() {
			return Window{}, ErrInvalidRange
		}
		from, to := ledger.DateOf(start), ledger.DateOf(end)
		if to.Before(from) {
			return Window{}, ErrInvalidRange
		}
		return span(kind, from, to), nil
	default:
		return Window{}, ErrUnknownWindow
	}
}

func span(kind Kind, start, end time.Time) Window {
	return Window{Kind: kind, Start: start, End: end, DaysInWindow: daysBetween(start, end)}
}

// daysBetween counts calendar days in [start, end].
func daysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

// Bounded reports whether the window has concrete dates.
func (w Window) Bounded() bool {
	return !w.Start.IsZero() && !w.End.IsZero()
}

// Contains reports whether the civil date of d falls in the window.
func (w Window) Contains(d time.Time) bool {
	if w.Kind == KindAllTime && !w.Bounded() {
		return true
	}
	day := ledger.DateOf(d)
	return !day.Before(w.Start) && !day.After(w.End)
}

// Filter returns the records whose date falls in the window, in storage order.
func (w Window) Filter(records []ledger.Record) []ledger.Record {
	result := make([]ledger.Record, 0, len(records))
	for _, record := range records {
		if w.Contains(record.Date) {
			result = append(result, record)
		}
	}
	return result
}

// Cover pins an all-time window to the date span of records. Other windows are returned unchanged.
func (w Window) Cover(records []ledger.Record) Window {
	if w.Kind != KindAllTime || len(records) == 0 {
		return w
	}
	first, last := records[0].Date, records[0].Date
	for _, record := range records[1:] {
		if record.Date.Before(first) {
			first = record.Date
		}
		if record.Date.After(last) {
			last = record.Date
		}
	}
	return span(w.Kind, ledger.DateOf(first), ledger.DateOf(last))
}

// TargetForWindow scales a per-day income target to the window.
func (w Window) TargetForWindow(dailyTarget decimal.Decimal) decimal.Decimal {
	return dailyTarget.Mul(decimal.NewFromInt(int64(w.DaysInWindow)))
}
