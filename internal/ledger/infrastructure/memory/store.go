package memory

import (
	"context"
	"sync"

	ledger "driver-ledger/internal/ledger/domain"
)

// Store is an in-memory ledger for demo/testing.
type Store struct {
	mu      sync.RWMutex
	records []ledger.Record
}

// NewStore constructs a store seeded with records.
func NewStore(records ...ledger.Record) *Store {
	return &Store{records: append([]ledger.Record(nil), records...)}
}

// Append adds a record at the end of the log.
func (s *Store) Append(ctx context.Context, record ledger.Record) error {
	_ = ctx
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.records {
		if record.ID != "" && existing.ID == record.ID {
			return ledger.ErrDuplicateID
		}
	}
	s.records = append(s.records, record)
	return nil
}

// All returns a copy of the log in storage order.
func (s *Store) All(ctx context.Context) ([]ledger.Record, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ledger.Record(nil), s.records...), nil
}

// Replace swaps the whole log, as the table editor does.
func (s *Store) Replace(ctx context.Context, records []ledger.Record) error {
	_ = ctx
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return err
		}
	}
	if err := ledger.CheckUniqueIDs(records); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]ledger.Record(nil), records...)
	return nil
}
