package sheet

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	ledger "driver-ledger/internal/ledger/domain"
)

type csvFile struct{}

func (csvFile) driver() string { return "csv" }

func (csvFile) read(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

// write replaces the file through a temp file so a failed write keeps the old table.
func (csvFile) write(path string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ledger-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// WriteCSV renders records as a CSV table in the persisted layout.
func WriteCSV(w io.Writer, records []ledger.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, record := range records {
		if err := writer.Write(EncodeRow(record)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCSV parses a CSV table in the persisted (or first-generation) layout.
func ReadCSV(r io.Reader) ([]ledger.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}
