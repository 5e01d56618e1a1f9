package ledger

import "strings"

// Category is the top-level kind of a ledger row.
type Category string

const (
	CategoryIncome  Category = "income"
	CategoryExpense Category = "expense"
	CategoryShift   Category = "shift"
)

// IsValid checks if the category is one of the supported values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryIncome, CategoryExpense, CategoryShift:
		return true
	default:
		return false
	}
}

// Activity is the sub-kind of a ledger row, constrained per category.
type Activity string

const (
	ActivityFare       Activity = "fare"
	ActivityFuelEnergy Activity = "fuel_energy"
	ActivityTopUp      Activity = "top_up"
	ActivityGeneral    Activity = "general"
	ActivityShiftStart Activity = "shift_start"
	ActivityShiftEnd   Activity = "shift_end"
)

// Category returns the only category the activity may appear under.
func (a Activity) Category() (Category, bool) {
	switch a {
	case ActivityFare:
		return CategoryIncome, true
	case ActivityFuelEnergy, ActivityTopUp, ActivityGeneral:
		return CategoryExpense, true
	case ActivityShiftStart, ActivityShiftEnd:
		return CategoryShift, true
	default:
		return "", false
	}
}

// IsValid checks if the activity is known.
func (a Activity) IsValid() bool {
	_, ok := a.Category()
	return ok
}

// PaymentChannel is how money moved for a row.
type PaymentChannel string

const (
	ChannelCash PaymentChannel = "cash_or_transfer"
	ChannelCard PaymentChannel = "card_or_wallet"
	// ChannelNone marks non-monetary rows such as shift markers.
	ChannelNone PaymentChannel = "none"
)

// IsValid checks if the channel is known.
func (c PaymentChannel) IsValid() bool {
	switch c {
	case ChannelCash, ChannelCard, ChannelNone:
		return true
	default:
		return false
	}
}

// EnergySource describes where a fuel/energy expense was spent.
type EnergySource string

const (
	EnergyFuel          EnergySource = "fuel"
	EnergyHomeCharge    EnergySource = "home_charge"
	EnergyStationCharge EnergySource = "station_charge"
)

// IsValid checks if the energy source is known.
func (s EnergySource) IsValid() bool {
	switch s {
	case EnergyFuel, EnergyHomeCharge, EnergyStationCharge:
		return true
	default:
		return false
	}
}

// Sentinel platform labels for rows that do not belong to a ride-hailing app.
const (
	PlatformExpense = "expense"
	PlatformSystem  = "system"
)

// ParseCategory normalizes a stored category label.
func ParseCategory(value string) (Category, bool) {
	c := Category(normalizeLabel(value))
	return c, c.IsValid()
}

// ParseActivity normalizes a stored activity label.
func ParseActivity(value string) (Activity, bool) {
	a := Activity(normalizeLabel(value))
	return a, a.IsValid()
}

// ParseChannel normalizes a stored payment channel label. Empty maps to ChannelNone.
func ParseChannel(value string) (PaymentChannel, bool) {
	label := normalizeLabel(value)
	if label == "" {
		return ChannelNone, true
	}
	c := PaymentChannel(label)
	return c, c.IsValid()
}

func normalizeLabel(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	return strings.NewReplacer("-", "_", " ", "_").Replace(value)
}
