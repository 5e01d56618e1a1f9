package window

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	ledger "driver-ledger/internal/ledger/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolve_ThisWeekStartsMonday(t *testing.T) {
	// 2026-10-15 is a Thursday.
	now := time.Date(2026, time.October, 15, 18, 30, 0, 0, time.UTC)
	w, err := Resolve(KindThisWeek, now, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !w.Start.Equal(date(2026, time.October, 12)) || !w.End.Equal(date(2026, time.October, 18)) {
		t.Fatalf("unexpected week %s..%s", w.Start, w.End)
	}
	if w.DaysInWindow != 7 {
		t.Fatalf("expected 7 days, got %d", w.DaysInWindow)
	}

	sunday := time.Date(2026, time.October, 18, 23, 0, 0, 0, time.UTC)
	w, _ = Resolve(KindThisWeek, sunday, time.Time{}, time.Time{})
	if !w.Start.Equal(date(2026, time.October, 12)) {
		t.Fatalf("sunday belongs to the week starting monday, got %s", w.Start)
	}
}

func TestResolve_MonthTargetScaling(t *testing.T) {
	daily := decimal.NewFromInt(2000)

	september, err := Resolve(KindThisMonth, time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if september.DaysInWindow != 30 {
		t.Fatalf("expected 30 days, got %d", september.DaysInWindow)
	}
	if got := september.TargetForWindow(daily); !got.Equal(decimal.NewFromInt(60000)) {
		t.Fatalf("expected 60000, got %s", got)
	}

	october, _ := Resolve(KindThisMonth, time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC), time.Time{}, time.Time{})
	if got := october.TargetForWindow(daily); !got.Equal(decimal.NewFromInt(62000)) {
		t.Fatalf("expected 62000, got %s", got)
	}
}

func TestResolve_LastMonthAcrossYear(t *testing.T) {
	w, err := Resolve(KindLastMonth, time.Date(2027, time.January, 5, 0, 0, 0, 0, time.UTC), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !w.Start.Equal(date(2026, time.December, 1)) || !w.End.Equal(date(2026, time.December, 31)) || w.DaysInWindow != 31 {
		t.Fatalf("unexpected last month %+v", w)
	}

	feb, _ := Resolve(KindLastMonth, time.Date(2028, time.March, 31, 0, 0, 0, 0, time.UTC), time.Time{}, time.Time{})
	if feb.DaysInWindow != 29 {
		t.Fatalf("expected leap february, got %d days", feb.DaysInWindow)
	}
}

func TestResolve_DayAndYearWindows(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 30, 0, 0, time.UTC)

	yesterday, _ := Resolve(KindYesterday, now, time.Time{}, time.Time{})
	if !yesterday.Start.Equal(date(2026, time.February, 28)) || yesterday.DaysInWindow != 1 {
		t.Fatalf("unexpected yesterday %+v", yesterday)
	}
	year, _ := Resolve(KindThisYear, now, time.Time{}, time.Time{})
	if year.DaysInWindow != 365 {
		t.Fatalf("expected 365 days, got %d", year.DaysInWindow)
	}
}

func TestResolve_Custom(t *testing.T) {
	w, err := Resolve(KindCustom, time.Time{}, date(2026, time.May, 1), date(2026, time.May, 10))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if w.DaysInWindow != 10 {
		t.Fatalf("expected 10 days, got %d", w.DaysInWindow)
	}
	if _, err := Resolve(KindCustom, time.Time{}, date(2026, time.May, 10), date(2026, time.May, 1)); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
	if _, err := Resolve(KindCustom, time.Time{}, time.Time{}, date(2026, time.May, 1)); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
	if _, err := Resolve(Kind("fortnight"), time.Now(), time.Time{}, time.Time{}); !errors.Is(err, ErrUnknownWindow) {
		t.Fatalf("expected unknown window, got %v", err)
	}
}

func TestFilter_InclusiveBounds(t *testing.T) {
	records := []ledger.Record{
		{ID: "before", Date: date(2026, time.April, 30)},
		{ID: "first", Date: date(2026, time.May, 1)},
		{ID: "last", Date: date(2026, time.May, 10)},
		{ID: "after", Date: date(2026, time.May, 11)},
	}
	w, _ := Resolve(KindCustom, time.Time{}, date(2026, time.May, 1), date(2026, time.May, 10))
	got := w.Filter(records)
	if len(got) != 2 || got[0].ID != "first" || got[1].ID != "last" {
		t.Fatalf("unexpected filter result %+v", got)
	}

	empty, _ := Resolve(KindCustom, time.Time{}, date(2027, time.January, 1), date(2027, time.January, 2))
	if got := empty.Filter(records); len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
}

func TestAllTime_Cover(t *testing.T) {
	records := []ledger.Record{
		{Date: date(2026, time.May, 3)},
		{Date: date(2026, time.April, 28)},
		{Date: date(2026, time.May, 1)},
	}
	w, _ := Resolve(KindAllTime, time.Now(), time.Time{}, time.Time{})
	if got := w.Filter(records); len(got) != 3 {
		t.Fatalf("all time keeps everything, got %d", len(got))
	}
	covered := w.Cover(records)
	if !covered.Start.Equal(date(2026, time.April, 28)) || !covered.End.Equal(date(2026, time.May, 3)) || covered.DaysInWindow != 6 {
		t.Fatalf("unexpected cover %+v", covered)
	}
	if w.Cover(nil).DaysInWindow != 0 {
		t.Fatalf("empty ledger has no days")
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(""); err != nil || k != KindToday {
		t.Fatalf("expected today default, got %q %v", k, err)
	}
	if k, err := ParseKind(" This_Month "); err != nil || k != KindThisMonth {
		t.Fatalf("expected this_month, got %q %v", k, err)
	}
	if _, err := ParseKind("decade"); !errors.Is(err, ErrUnknownWindow) {
		t.Fatalf("expected unknown window, got %v", err)
	}
}
