package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one row of the ledger.
// Invariants:
// 1) Category and Activity agree (Activity.Category() == Category).
// 2) Income rows: NetAmount is the received amount, TipAmount = max(0, received - quoted).
// 3) Cash rows move the full net amount into CashDelta; card/wallet rows move none.
// 4) Shift rows carry no money and a positive Odometer.
type Record struct {
	ID             string          `json:"id"`
	Date           time.Time       `json:"date"`
	Time           TimeOfDay       `json:"time"`
	Platform       string          `json:"platform"`
	Category       Category        `json:"category"`
	Activity       Activity        `json:"activity"`
	Channel        PaymentChannel  `json:"payment_channel"`
	QuotedAmount   decimal.Decimal `json:"quoted_amount"`
	DeductedAmount decimal.Decimal `json:"deducted_amount"`
	TipAmount      decimal.Decimal `json:"tip_amount"`
	NetAmount      decimal.Decimal `json:"net_amount"`
	CashDelta      decimal.Decimal `json:"cash_in_hand_delta"`
	Odometer       float64         `json:"odometer_reading"`
	DistanceKm     float64         `json:"distance_km"`
	Note           string          `json:"note"`
}

// Validate checks the structural invariants shared by every row.
func (r Record) Validate() error {
	if r.Date.IsZero() {
		return ErrInvalidDate
	}
	if !r.Category.IsValid() {
		return ErrInvalidActivity
	}
	category, ok := r.Activity.Category()
	if !ok || category != r.Category {
		return ErrInvalidActivity
	}
	if !r.Channel.IsValid() {
		return ErrInvalidChannel
	}
	if r.DeductedAmount.IsNegative() || r.TipAmount.IsNegative() || r.QuotedAmount.IsNegative() {
		return ErrNegativeAmount
	}
	if r.Odometer < 0 || r.DistanceKm < 0 {
		return ErrNegativeAmount
	}
	if r.Category == CategoryShift && r.Odometer <= 0 {
		return ErrInvalidOdometer
	}
	return nil
}

// IsIncome reports whether the row is an income row.
func (r Record) IsIncome() bool { return r.Category == CategoryIncome }

// IsExpense reports whether the row is an expense row.
func (r Record) IsExpense() bool { return r.Category == CategoryExpense }

// IsTopUp reports whether the row is a wallet top-up expense.
func (r Record) IsTopUp() bool {
	return r.Category == CategoryExpense && r.Activity == ActivityTopUp
}

// Store is the ledger collaborator: an append-only log that the table editor may rewrite.
type Store interface {
	Append(ctx context.Context, record Record) error
	All(ctx context.Context) ([]Record, error)
	Replace(ctx context.Context, records []Record) error
}

// CheckUniqueIDs returns ErrDuplicateID when two records share a non-empty id.
func CheckUniqueIDs(records []Record) error {
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		if record.ID == "" {
			continue
		}
		if _, ok := seen[record.ID]; ok {
			return ErrDuplicateID
		}
		seen[record.ID] = struct{}{}
	}
	return nil
}
