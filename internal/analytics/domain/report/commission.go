package report

import (
	"sort"

	"github.com/shopspring/decimal"

	ledger "driver-ledger/internal/ledger/domain"
)

// PlatformCommission is the commission burden (GP) of one platform.
type PlatformCommission struct {
	Platform  string          `json:"platform"`
	Gross     decimal.Decimal `json:"gross"`
	TopUp     decimal.Decimal `json:"top_up"`
	Shortfall decimal.Decimal `json:"shortfall"`
	Total     decimal.Decimal `json:"total_deduction"`
	GPPercent decimal.Decimal `json:"gp_percent"`
}

var hundred = decimal.NewFromInt(100)

// AnalyzeCommission computes GP per platform, ascending by GP then platform name.
// Platforms without quoted income are left out.
func AnalyzeCommission(records []ledger.Record) []PlatformCommission {
	byPlatform := make(map[string]*PlatformCommission)
	entry := func(platform string) *PlatformCommission {
		c, ok := byPlatform[platform]
		if !ok {
			c = &PlatformCommission{
				Platform:  platform,
				Gross:     decimal.Zero,
				TopUp:     decimal.Zero,
				Shortfall: decimal.Zero,
			}
			byPlatform[platform] = c
		}
		return c
	}

	for _, record := range records {
		switch {
		case record.IsIncome():
			c := entry(record.Platform)
			c.Gross = c.Gross.Add(record.QuotedAmount)
			c.Shortfall = c.Shortfall.Add(shortfall(record))
		case record.IsTopUp():
			c := entry(record.Platform)
			c.TopUp = c.TopUp.Add(record.DeductedAmount)
		}
	}

	result := make([]PlatformCommission, 0, len(byPlatform))
	for _, c := range byPlatform {
		if !c.Gross.IsPositive() {
			continue
		}
		c.Total = c.TopUp.Add(c.Shortfall)
		c.GPPercent = c.Total.Mul(hundred).Div(c.Gross).Round(RatePlaces)
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool {
		if cmp := result[i].GPPercent.Cmp(result[j].GPPercent); cmp != 0 {
			return cmp < 0
		}
		return result[i].Platform < result[j].Platform
	})
	return result
}

// shortfall is the commission withheld on one income row. The recorded
// deduction is authoritative; card rows without one fall back to quoted - net.
func shortfall(record ledger.Record) decimal.Decimal {
	if record.DeductedAmount.IsPositive() {
		return record.DeductedAmount
	}
	if record.Channel != ledger.ChannelCard {
		return decimal.Zero
	}
	diff := record.QuotedAmount.Sub(record.NetAmount)
	if diff.IsNegative() {
		return decimal.Zero
	}
	return diff
}
