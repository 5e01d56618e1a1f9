package application

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"driver-ledger/internal/analytics/domain/report"
	"driver-ledger/internal/analytics/domain/window"
	ledger "driver-ledger/internal/ledger/domain"
	"driver-ledger/internal/observability/metrics"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

// Now returns current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Query selects the window of a report.
type Query struct {
	Window window.Kind
	Start  time.Time
	End    time.Time
}

// Target is the income goal of a window and progress against it.
type Target struct {
	Daily     decimal.Decimal `json:"daily"`
	Window    decimal.Decimal `json:"window"`
	Remaining decimal.Decimal `json:"remaining"`
	Percent   decimal.Decimal `json:"percent"`
}

// SummaryReport is the dashboard of one window.
type SummaryReport struct {
	Window  window.Window  `json:"window"`
	Summary report.Summary `json:"summary"`
	Target  Target         `json:"target"`
}

// CommissionReport lists GP per platform for one window.
type CommissionReport struct {
	Window    window.Window               `json:"window"`
	Platforms []report.PlatformCommission `json:"platforms"`
}

// FullReport combines the summary and commission of one window, as exported.
type FullReport struct {
	SummaryReport
	Platforms   []report.PlatformCommission `json:"platforms"`
	Currency    string                      `json:"currency"`
	GeneratedAt time.Time                   `json:"generated_at"`
}

// Option configures a ReportService.
type Option func(*ReportService)

// WithClock overrides the clock that anchors relative windows.
func WithClock(clock Clock) Option {
	return func(s *ReportService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLocation sets the time zone in which "today" is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(s *ReportService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithDailyTarget sets the per-day income target.
func WithDailyTarget(target decimal.Decimal) Option {
	return func(s *ReportService) {
		s.dailyTarget = target
	}
}

// WithCurrency sets the currency label used by exports.
func WithCurrency(currency string) Option {
	return func(s *ReportService) {
		s.currency = currency
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *ReportService) {
		s.log = log
	}
}

// ReportService answers read-time questions over the ledger.
type ReportService struct {
	store       ledger.Store
	clock       Clock
	loc         *time.Location
	dailyTarget decimal.Decimal
	currency    string
	log         zerolog.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(store ledger.Store, opts ...Option) (*ReportService, error) {
	if store == nil {
		return nil, errors.New("analytics: nil ledger store")
	}
	s := &ReportService{
		store:       store,
		clock:       SystemClock{},
		loc:         time.Local,
		dailyTarget: decimal.Zero,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Records returns the rows of the window in storage order.
func (s *ReportService) Records(ctx context.Context, q Query) ([]ledger.Record, window.Window, error) {
	w, err := window.Resolve(q.Window, s.clock.Now().In(s.loc), q.Start, q.End)
	if err != nil {
		return nil, window.Window{}, err
	}
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, window.Window{}, err
	}
	rows := w.Filter(all)
	return rows, w.Cover(rows), nil
}

// Summary aggregates the window and measures it against the daily target.
func (s *ReportService) Summary(ctx context.Context, q Query) (SummaryReport, error) {
	start := time.Now()
	rows, w, err := s.Records(ctx, q)
	if err != nil {
		s.observe("summary", q.Window, err, start)
		return SummaryReport{}, err
	}
	summary := report.Summarize(rows)
	result := SummaryReport{
		Window:  w,
		Summary: summary,
		Target:  s.target(w, summary.GrossIncome),
	}
	s.observe("summary", q.Window, nil, start)
	return result, nil
}

// Commission computes GP per platform for the window.
func (s *ReportService) Commission(ctx context.Context, q Query) (CommissionReport, error) {
	start := time.Now()
	rows, w, err := s.Records(ctx, q)
	if err != nil {
		s.observe("commission", q.Window, err, start)
		return CommissionReport{}, err
	}
	result := CommissionReport{Window: w, Platforms: report.AnalyzeCommission(rows)}
	s.observe("commission", q.Window, nil, start)
	return result, nil
}

// Report builds the combined report used by the PDF and XLSX exports.
func (s *ReportService) Report(ctx context.Context, q Query) (FullReport, error) {
	start := time.Now()
	rows, w, err := s.Records(ctx, q)
	if err != nil {
		s.observe("full", q.Window, err, start)
		return FullReport{}, err
	}
	summary := report.Summarize(rows)
	result := FullReport{
		SummaryReport: SummaryReport{
			Window:  w,
			Summary: summary,
			Target:  s.target(w, summary.GrossIncome),
		},
		Platforms:   report.AnalyzeCommission(rows),
		Currency:    s.currency,
		GeneratedAt: s.clock.Now().In(s.loc),
	}
	s.observe("full", q.Window, nil, start)
	return result, nil
}

func (s *ReportService) target(w window.Window, gross decimal.Decimal) Target {
	goal := w.TargetForWindow(s.dailyTarget)
	t := Target{
		Daily:     s.dailyTarget,
		Window:    goal,
		Remaining: decimal.Max(decimal.Zero, goal.Sub(gross)),
		Percent:   decimal.Zero,
	}
	if goal.IsPositive() {
		t.Percent = gross.Mul(decimal.NewFromInt(100)).Div(goal).Round(report.RatePlaces)
	}
	return t
}

func (s *ReportService) observe(name string, kind window.Kind, err error, start time.Time) {
	result := metrics.ResultSuccess
	switch {
	case errors.Is(err, window.ErrInvalidRange), errors.Is(err, window.ErrUnknownWindow):
		result = metrics.ResultRejected
	case err != nil:
		result = metrics.ResultError
		s.log.Error().Err(err).Str("report", name).Str("window", string(kind)).Msg("report failed")
	}
	metrics.ObserveReport(name, string(kind), result, time.Since(start))
}
