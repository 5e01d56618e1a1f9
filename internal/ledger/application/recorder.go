package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	ledger "driver-ledger/internal/ledger/domain"
	"driver-ledger/internal/observability/metrics"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

// Now returns current time.
func (SystemClock) Now() time.Time { return time.Now() }

// IDFactory mints record ids.
type IDFactory func() string

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the submission clock.
func WithClock(clock Clock) Option {
	return func(r *Recorder) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithLocation sets the driver's time zone; dates and times are stamped in it.
func WithLocation(loc *time.Location) Option {
	return func(r *Recorder) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithHomeChargeRate sets the flat cost used for a home charge submitted without an amount.
func WithHomeChargeRate(rate decimal.Decimal) Option {
	return func(r *Recorder) {
		r.homeChargeRate = rate
	}
}

// WithIDFactory overrides record id generation.
func WithIDFactory(factory IDFactory) Option {
	return func(r *Recorder) {
		if factory != nil {
			r.newID = factory
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Recorder) {
		r.log = log
	}
}

// Recorder turns submitted forms into ledger rows and appends them to the store.
type Recorder struct {
	store          ledger.Store
	clock          Clock
	loc            *time.Location
	homeChargeRate decimal.Decimal
	newID          IDFactory
	log            zerolog.Logger

	// shiftMu holds the odometer check and the append together.
	shiftMu sync.Mutex
}

// NewRecorder constructs a Recorder.
func NewRecorder(store ledger.Store, opts ...Option) (*Recorder, error) {
	if store == nil {
		return nil, errors.New("recorder: nil store")
	}
	r := &Recorder{
		store: store,
		clock: SystemClock{},
		loc:   time.Local,
		newID: uuid.NewString,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RecordIncome derives and stores a fare row.
func (r *Recorder) RecordIncome(ctx context.Context, in ledger.IncomeInput) (ledger.Record, error) {
	start := time.Now()
	record, err := ledger.NewIncome(in, r.now())
	return r.commit(ctx, ledger.ActivityFare, record, err, start)
}

// RecordExpense derives and stores a spend row.
func (r *Recorder) RecordExpense(ctx context.Context, in ledger.ExpenseInput) (ledger.Record, error) {
	start := time.Now()
	if in.Activity == ledger.ActivityFuelEnergy && in.Source == ledger.EnergyHomeCharge && in.Amount.IsZero() {
		in.Amount = r.homeChargeRate
	}
	record, err := ledger.NewExpense(in, r.now())
	return r.commit(ctx, in.Activity, record, err, start)
}

// RecordShift derives and stores a shift marker, checking the odometer against the ledger.
func (r *Recorder) RecordShift(ctx context.Context, in ledger.ShiftInput) (ledger.Record, error) {
	start := time.Now()
	r.shiftMu.Lock()
	defer r.shiftMu.Unlock()

	existing, err := r.store.All(ctx)
	if err != nil {
		metrics.ObserveRecordWrite(string(in.Activity), metrics.ResultError, time.Since(start))
		return ledger.Record{}, err
	}
	last := ledger.LastOdometer(existing)
	record, err := ledger.NewShift(in, r.now(), last)
	if errors.Is(err, ledger.ErrOdometerRegression) {
		r.log.Warn().
			Float64("odometer", in.Odometer).
			Float64("last_odometer", last).
			Msg("shift rejected: odometer below last reading")
	}
	return r.commit(ctx, in.Activity, record, err, start)
}

func (r *Recorder) commit(ctx context.Context, activity ledger.Activity, record ledger.Record, deriveErr error, start time.Time) (ledger.Record, error) {
	if deriveErr != nil {
		metrics.ObserveRecordWrite(string(activity), metrics.ResultRejected, time.Since(start))
		r.log.Info().Err(deriveErr).Str("activity", string(activity)).Msg("record rejected")
		return ledger.Record{}, deriveErr
	}

	record.ID = r.newID()
	if err := r.store.Append(ctx, record); err != nil {
		metrics.ObserveRecordWrite(string(activity), metrics.ResultError, time.Since(start))
		r.log.Error().Err(err).Str("activity", string(activity)).Msg("record append failed")
		return ledger.Record{}, err
	}

	metrics.ObserveRecordWrite(string(activity), metrics.ResultSuccess, time.Since(start))
	r.log.Info().
		Str("id", record.ID).
		Str("activity", string(record.Activity)).
		Str("platform", record.Platform).
		Str("net", record.NetAmount.String()).
		Msg("record created")
	return record, nil
}

func (r *Recorder) now() time.Time {
	return r.clock.Now().In(r.loc)
}
