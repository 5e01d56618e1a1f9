package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation groups recorder input errors; the record is not created.
	ErrValidation = errors.New("ledger: validation failed")
	// ErrOrderingViolation groups odometer ordering errors; the record is not created.
	ErrOrderingViolation = errors.New("ledger: ordering violation")

	// ErrAmountRequired is returned when no positive amount was supplied.
	ErrAmountRequired = fmt.Errorf("%w: amount required", ErrValidation)
	// ErrNegativeAmount is returned when an amount is below zero.
	ErrNegativeAmount = fmt.Errorf("%w: negative amount", ErrValidation)
	// ErrPlatformRequired is returned when a fare or top-up has no platform.
	ErrPlatformRequired = fmt.Errorf("%w: platform required", ErrValidation)
	// ErrInvalidActivity is returned when an activity does not fit the category or recorder.
	ErrInvalidActivity = fmt.Errorf("%w: invalid activity", ErrValidation)
	// ErrInvalidChannel is returned for an unknown payment channel.
	ErrInvalidChannel = fmt.Errorf("%w: invalid payment channel", ErrValidation)
	// ErrInvalidOdometer is returned when a shift marker has no odometer reading.
	ErrInvalidOdometer = fmt.Errorf("%w: odometer reading required", ErrValidation)
	// ErrInvalidTimeOfDay is returned when a time-of-day is not HH:MM.
	ErrInvalidTimeOfDay = fmt.Errorf("%w: invalid time of day", ErrValidation)
	// ErrInvalidDate is returned when a record has no date.
	ErrInvalidDate = fmt.Errorf("%w: invalid date", ErrValidation)

	// ErrOdometerRegression is returned when a reading is lower than the last known reading.
	ErrOdometerRegression = fmt.Errorf("%w: odometer reading below last known reading", ErrOrderingViolation)

	// ErrRecordNotFound is returned when a record id is unknown to the store.
	ErrRecordNotFound = errors.New("ledger: record not found")
	// ErrDuplicateID is returned when two records share an id.
	ErrDuplicateID = errors.New("ledger: duplicate record id")
)
