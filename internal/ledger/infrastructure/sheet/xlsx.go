package sheet

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	ledger "driver-ledger/internal/ledger/domain"
)

// DefaultSheetName is the worksheet holding the ledger table.
const DefaultSheetName = "ledger"

// numericColumns are written as number cells so the sheet stays usable in a spreadsheet app.
var numericColumns = map[string]bool{
	ColQuoted:    true,
	ColDeducted:  true,
	ColTip:       true,
	ColNet:       true,
	ColCashDelta: true,
	ColOdometer:  true,
	ColDistance:  true,
}

type xlsxFile struct {
	sheet string
}

func (xlsxFile) driver() string { return "xlsx" }

func (x xlsxFile) read(path string) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	index, err := f.GetSheetIndex(x.sheet)
	if err != nil {
		return nil, err
	}
	if index < 0 {
		return nil, nil
	}
	rows, err := f.GetRows(x.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	props, err := f.GetWorkbookProps()
	if err != nil {
		return nil, err
	}
	date1904 := props.Date1904 != nil && *props.Date1904
	if err := normalizeSerialCells(rows, date1904); err != nil {
		return nil, err
	}
	return rows, nil
}

// normalizeSerialCells rewrites typed date and time cells, which read back as
// Excel serial numbers, into the text layout the decoder expects.
func normalizeSerialCells(rows [][]string, date1904 bool) error {
	if len(rows) == 0 {
		return nil
	}
	dateCol, timeCol := -1, -1
	for i, name := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case ColDate:
			dateCol = i
		case ColTime:
			timeCol = i
		}
	}
	for line, row := range rows[1:] {
		for _, col := range []int{dateCol, timeCol} {
			if col < 0 || col >= len(row) {
				continue
			}
			serial, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
			if err != nil || serial < 0 {
				continue
			}
			if col == timeCol {
				row[col] = serialTimeOfDay(serial).String()
				continue
			}
			t, err := excelize.ExcelDateToTime(math.Floor(serial), date1904)
			if err != nil {
				return fmt.Errorf("sheet: row %d: %w", line+2, err)
			}
			row[col] = t.Format(ledger.DateLayout)
		}
	}
	return nil
}

// serialTimeOfDay takes the fraction of a day from a serial, rounded to the minute.
func serialTimeOfDay(serial float64) ledger.TimeOfDay {
	_, frac := math.Modf(serial)
	minutes := int(math.Round(frac*24*60)) % (24 * 60)
	return ledger.TimeOfDay(minutes)
}

func (x xlsxFile) write(path string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", x.sheet); err != nil {
		return err
	}
	if err := writeTable(f, x.sheet, rows); err != nil {
		return err
	}
	return f.SaveAs(path)
}

// writeTable writes a header row plus data rows, keeping numeric columns numeric.
func writeTable(f *excelize.File, sheet string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	header := rows[0]
	for i, row := range rows {
		values := make([]interface{}, len(row))
		for col, cell := range row {
			values[col] = cell
			if i == 0 || col >= len(header) || !numericColumns[header[col]] || cell == "" {
				continue
			}
			if number, err := strconv.ParseFloat(cell, 64); err == nil {
				values[col] = number
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return nil
}
