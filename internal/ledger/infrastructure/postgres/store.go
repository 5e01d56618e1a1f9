package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	ledger "driver-ledger/internal/ledger/domain"
	"driver-ledger/internal/observability/metrics"
)

const driverName = "postgres"

// Store persists the ledger in the ledger_records table (see migrations/001_ledger.sql).
type Store struct {
	db *sql.DB
}

// NewStore constructs a store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts one record.
func (s *Store) Append(ctx context.Context, record ledger.Record) (err error) {
	defer func() { observe("append", err) }()
	if s == nil || s.db == nil {
		return errors.New("ledger store: nil db")
	}
	if err := record.Validate(); err != nil {
		return err
	}
	return insertRecord(ctx, s.db, record)
}

// All returns every record in insertion order.
func (s *Store) All(ctx context.Context) (records []ledger.Record, err error) {
	defer func() { observe("all", err) }()
	if s == nil || s.db == nil {
		return nil, errors.New("ledger store: nil db")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, record_date, time_of_day, platform, category, activity, payment_channel,
	quoted_amount, deducted_amount, tip_amount, net_amount, cash_in_hand_delta,
	odometer_reading, distance_km, note
FROM ledger_records
ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("ledger store: nil db")
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_records`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Replace swaps the whole table in one transaction.
func (s *Store) Replace(ctx context.Context, records []ledger.Record) (err error) {
	defer func() { observe("replace", err) }()
	if s == nil || s.db == nil {
		return errors.New("ledger store: nil db")
	}
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return err
		}
	}
	if err := ledger.CheckUniqueIDs(records); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_records`); err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, record := range records {
		if err := insertRecord(ctx, tx, record); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRecord(ctx context.Context, db execer, record ledger.Record) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO ledger_records (
	id, record_date, time_of_day, platform, category, activity, payment_channel,
	quoted_amount, deducted_amount, tip_amount, net_amount, cash_in_hand_delta,
	odometer_reading, distance_km, note
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		record.ID, record.Date, record.Time.String(), record.Platform,
		string(record.Category), string(record.Activity), string(record.Channel),
		record.QuotedAmount, record.DeductedAmount, record.TipAmount, record.NetAmount, record.CashDelta,
		record.Odometer, record.DistanceKm, record.Note,
	)
	if err != nil && isUniqueViolation(err) {
		return ledger.ErrDuplicateID
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (ledger.Record, error) {
	var (
		record   ledger.Record
		clock    string
		category string
		activity string
		channel  string
	)
	if err := row.Scan(
		&record.ID, &record.Date, &clock, &record.Platform, &category, &activity, &channel,
		&record.QuotedAmount, &record.DeductedAmount, &record.TipAmount, &record.NetAmount, &record.CashDelta,
		&record.Odometer, &record.DistanceKm, &record.Note,
	); err != nil {
		return record, err
	}

	var err error
	if record.Time, err = ledger.ParseTimeOfDay(clock); err != nil {
		return record, err
	}
	record.Date = ledger.DateOf(record.Date)
	var ok bool
	if record.Category, ok = ledger.ParseCategory(category); !ok {
		return record, fmt.Errorf("ledger store: unknown category %q", category)
	}
	if record.Activity, ok = ledger.ParseActivity(activity); !ok {
		return record, fmt.Errorf("ledger store: unknown activity %q", activity)
	}
	if record.Channel, ok = ledger.ParseChannel(channel); !ok {
		return record, fmt.Errorf("ledger store: unknown payment channel %q", channel)
	}
	return record, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func observe(operation string, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.IncStoreOperation(driverName, operation, result)
}
