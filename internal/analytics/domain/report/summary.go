// Package report computes read-time analytics over a slice of ledger rows.
// Every function here is pure: inputs are never modified.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	ledger "driver-ledger/internal/ledger/domain"
)

// RatePlaces is the rounding applied to derived rates.
const RatePlaces = 2

// PlatformIncome is the income earned on one platform.
type PlatformIncome struct {
	Platform string          `json:"platform"`
	Income   decimal.Decimal `json:"income"`
	Trips    int             `json:"trips"`
}

// Summary is the aggregate of one window.
type Summary struct {
	GrossIncome      decimal.Decimal     `json:"gross_income"`
	TotalExpense     decimal.Decimal     `json:"total_expense"`
	NetProfit        decimal.Decimal     `json:"net_profit"`
	CashOnHand       decimal.Decimal     `json:"cash_on_hand"`
	TotalDistanceKm  float64             `json:"total_distance_km"`
	TotalHours       float64             `json:"total_hours"`
	IncomePerKm      decimal.Decimal     `json:"income_per_km"`
	IncomePerHour    decimal.Decimal     `json:"income_per_hour"`
	TopUpTotal       decimal.Decimal     `json:"top_up_total"`
	OperatingExpense decimal.Decimal     `json:"operating_expense"`
	TipTotal         decimal.Decimal     `json:"tip_total"`
	TripCount        int                 `json:"trip_count"`
	Platforms        []PlatformIncome    `json:"platforms"`
	IncomeByHour     [24]decimal.Decimal `json:"income_by_hour"`
	Days             []DaySummary        `json:"days"`
}

// Summarize aggregates records. An empty slice yields an all-zero summary.
func Summarize(records []ledger.Record) Summary {
	s := Summary{
		GrossIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		CashOnHand:   decimal.Zero,
		TopUpTotal:   decimal.Zero,
		TipTotal:     decimal.Zero,
		Platforms:    []PlatformIncome{},
	}
	for i := range s.IncomeByHour {
		s.IncomeByHour[i] = decimal.Zero
	}

	platforms := make(map[string]*PlatformIncome)
	for _, record := range records {
		s.CashOnHand = s.CashOnHand.Add(record.CashDelta)
		switch record.Category {
		case ledger.CategoryIncome:
			s.GrossIncome = s.GrossIncome.Add(record.NetAmount)
			s.TipTotal = s.TipTotal.Add(record.TipAmount)
			s.TripCount++
			hour := record.Time.Hour()
			if hour >= 0 && hour < len(s.IncomeByHour) {
				s.IncomeByHour[hour] = s.IncomeByHour[hour].Add(record.NetAmount)
			}
			p, ok := platforms[record.Platform]
			if !ok {
				p = &PlatformIncome{Platform: record.Platform, Income: decimal.Zero}
				platforms[record.Platform] = p
			}
			p.Income = p.Income.Add(record.NetAmount)
			p.Trips++
		case ledger.CategoryExpense:
			s.TotalExpense = s.TotalExpense.Add(record.DeductedAmount)
			if record.IsTopUp() {
				s.TopUpTotal = s.TopUpTotal.Add(record.DeductedAmount)
			}
		}
	}
	s.NetProfit = s.GrossIncome.Sub(s.TotalExpense)
	s.OperatingExpense = s.TotalExpense.Sub(s.TopUpTotal)

	s.Days = Days(records)
	for _, day := range s.Days {
		s.TotalDistanceKm += day.DistanceKm
		s.TotalHours += day.Hours
	}
	s.IncomePerKm = rate(s.GrossIncome, s.TotalDistanceKm)
	s.IncomePerHour = rate(s.NetProfit, s.TotalHours)

	for _, p := range platforms {
		s.Platforms = append(s.Platforms, *p)
	}
	sort.Slice(s.Platforms, func(i, j int) bool { return s.Platforms[i].Platform < s.Platforms[j].Platform })
	return s
}

// rate divides amount by a float denominator, yielding zero when it is not positive.
func rate(amount decimal.Decimal, denominator float64) decimal.Decimal {
	if denominator <= 0 {
		return decimal.Zero
	}
	return amount.Div(decimal.NewFromFloat(denominator)).Round(RatePlaces)
}
