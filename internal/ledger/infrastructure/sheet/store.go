package sheet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	ledger "driver-ledger/internal/ledger/domain"
	"driver-ledger/internal/observability/metrics"
)

// tableFile reads and writes the whole table at once.
type tableFile interface {
	driver() string
	read(path string) ([][]string, error)
	write(path string, rows [][]string) error
}

// Store is a file-backed ledger. Every call is a full read or a full rewrite of the table.
type Store struct {
	mu     sync.Mutex
	path   string
	format tableFile
}

// NewCSVStore constructs a CSV-backed store.
func NewCSVStore(path string) *Store {
	return &Store{path: path, format: csvFile{}}
}

// NewXLSXStore constructs an XLSX-backed store using the given sheet name.
func NewXLSXStore(path, sheetName string) *Store {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	return &Store{path: path, format: xlsxFile{sheet: sheetName}}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Append adds one record and rewrites the table.
func (s *Store) Append(ctx context.Context, record ledger.Record) (err error) {
	defer func() { s.observe("append", err) }()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return err
	}
	records = append(records, record)
	if err := ledger.CheckUniqueIDs(records); err != nil {
		return err
	}
	return s.save(records)
}

// All loads the whole table.
func (s *Store) All(ctx context.Context) (records []ledger.Record, err error) {
	defer func() { s.observe("all", err) }()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Replace rewrites the table with records.
func (s *Store) Replace(ctx context.Context, records []ledger.Record) (err error) {
	defer func() { s.observe("replace", err) }()
	if err := ctx.Err(); err != nil {
		return err
	}
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
	return s.save(records)
}

func (s *Store) load() ([]ledger.Record, error) {
	rows, err := s.format.read(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sheet: read %s: %w", s.path, err)
	}
	return decodeRows(rows)
}

func (s *Store) save(records []ledger.Record) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, Header)
	for _, record := range records {
		rows = append(rows, EncodeRow(record))
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := s.format.write(s.path, rows); err != nil {
		return fmt.Errorf("sheet: write %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) observe(operation string, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.IncStoreOperation(s.format.driver(), operation, result)
}
