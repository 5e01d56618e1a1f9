package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// IncomeInput is a submitted ride-earning form. Absent amounts are zero.
type IncomeInput struct {
	Platform string
	Channel  PaymentChannel
	Quoted   decimal.Decimal
	Received decimal.Decimal
	Note     string
}

// ExpenseInput is a submitted spend form.
type ExpenseInput struct {
	Activity Activity
	Amount   decimal.Decimal
	// Platform is the wallet owner for top-ups; ignored otherwise.
	Platform string
	// Source labels fuel/energy spend; ignored for other activities.
	Source EnergySource
	Note   string
}

// ShiftInput is a submitted shift marker.
type ShiftInput struct {
	Activity   Activity
	Odometer   float64
	DistanceKm float64
	Note       string
}

// NewIncome derives a fare row. A card/wallet shortfall is recorded as the
// withheld commission and suppresses the tip.
func NewIncome(in IncomeInput, at time.Time) (Record, error) {
	platform := strings.TrimSpace(in.Platform)
	if platform == "" {
		return Record{}, ErrPlatformRequired
	}
	if !in.Channel.IsValid() || in.Channel == ChannelNone {
		return Record{}, ErrInvalidChannel
	}
	if in.Quoted.IsNegative() || in.Received.IsNegative() {
		return Record{}, ErrNegativeAmount
	}
	if !in.Quoted.IsPositive() && !in.Received.IsPositive() {
		return Record{}, ErrAmountRequired
	}

	quoted := in.Quoted
	received := in.Received
	if received.IsZero() {
		received = quoted
	}

	tip := decimal.Max(decimal.Zero, received.Sub(quoted))
	deducted := decimal.Zero
	if in.Channel == ChannelCard && quoted.GreaterThan(received) {
		deducted = quoted.Sub(received)
		tip = decimal.Zero
	}
	cash := decimal.Zero
	if in.Channel == ChannelCash {
		cash = received
	}

	return Record{
		Date:           DateOf(at),
		Time:           TimeOfDayOf(at),
		Platform:       platform,
		Category:       CategoryIncome,
		Activity:       ActivityFare,
		Channel:        in.Channel,
		QuotedAmount:   quoted,
		DeductedAmount: deducted,
		TipAmount:      tip,
		NetAmount:      received,
		CashDelta:      cash,
		Note:           strings.TrimSpace(in.Note),
	}, nil
}

// NewExpense derives a spend row: net and cash move by -amount, deducted by +amount.
func NewExpense(in ExpenseInput, at time.Time) (Record, error) {
	category, ok := in.Activity.Category()
	if !ok || category != CategoryExpense {
		return Record{}, ErrInvalidActivity
	}
	if in.Amount.IsNegative() {
		return Record{}, ErrNegativeAmount
	}
	if !in.Amount.IsPositive() {
		return Record{}, ErrAmountRequired
	}

	platform := PlatformExpense
	if in.Activity == ActivityTopUp {
		platform = strings.TrimSpace(in.Platform)
		if platform == "" {
			return Record{}, ErrPlatformRequired
		}
	}

	note := strings.TrimSpace(in.Note)
	if in.Activity == ActivityFuelEnergy && in.Source != "" {
		if !in.Source.IsValid() {
			return Record{}, ErrInvalidActivity
		}
		if note == "" {
			note = string(in.Source)
		} else {
			note = string(in.Source) + " - " + note
		}
	}

	return Record{
		Date:           DateOf(at),
		Time:           TimeOfDayOf(at),
		Platform:       platform,
		Category:       CategoryExpense,
		Activity:       in.Activity,
		Channel:        ChannelCash,
		QuotedAmount:   decimal.Zero,
		DeductedAmount: in.Amount,
		TipAmount:      decimal.Zero,
		NetAmount:      in.Amount.Neg(),
		CashDelta:      in.Amount.Neg(),
		Note:           note,
	}, nil
}

// NewShift derives a shift marker. lastOdometer is the most recent reading
// already in the ledger (0 when none); a lower reading is rejected.
func NewShift(in ShiftInput, at time.Time, lastOdometer float64) (Record, error) {
	category, ok := in.Activity.Category()
	if !ok || category != CategoryShift {
		return Record{}, ErrInvalidActivity
	}
	if in.Odometer <= 0 {
		return Record{}, ErrInvalidOdometer
	}
	if in.DistanceKm < 0 {
		return Record{}, ErrNegativeAmount
	}
	if in.Odometer < lastOdometer {
		return Record{}, ErrOdometerRegression
	}

	return Record{
		Date:           DateOf(at),
		Time:           TimeOfDayOf(at),
		Platform:       PlatformSystem,
		Category:       CategoryShift,
		Activity:       in.Activity,
		Channel:        ChannelNone,
		QuotedAmount:   decimal.Zero,
		DeductedAmount: decimal.Zero,
		TipAmount:      decimal.Zero,
		NetAmount:      decimal.Zero,
		CashDelta:      decimal.Zero,
		Odometer:       in.Odometer,
		DistanceKm:     in.DistanceKm,
		Note:           strings.TrimSpace(in.Note),
	}, nil
}

// LastOdometer returns the chronologically latest positive odometer reading.
// Rows with equal date and time resolve to the later one in storage order.
func LastOdometer(records []Record) float64 {
	var (
		last  float64
		found bool
		date  time.Time
		clock TimeOfDay
	)
	for _, record := range records {
		if record.Odometer <= 0 {
			continue
		}
		if found && (record.Date.Before(date) || (record.Date.Equal(date) && record.Time < clock)) {
			continue
		}
		last = record.Odometer
		date = record.Date
		clock = record.Time
		found = true
	}
	return last
}
