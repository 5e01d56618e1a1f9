package audit

import (
	"context"
	"database/sql"
	"errors"
)

// Repository writes audit logs.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs an audit repository.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		return nil
	}
	return &Repository{db: db}
}

// Log writes an audit entry.
func (r *Repository) Log(ctx context.Context, entry Entry) error {
	if r == nil || r.db == nil {
		return errors.New("audit repo: nil db")
	}
	entry = Prepare(entry, nil)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO ledger_audit_logs (
	id, action, rows_before, rows_after, payload_digest, ip, user_agent, created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8
)`, entry.ID, entry.Action, entry.RowsBefore, entry.RowsAfter, entry.PayloadDigest, entry.IP, entry.UserAgent, entry.CreatedAt)
	return err
}
