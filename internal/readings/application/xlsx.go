package application

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	readings "meterdata-cloud/internal/readings/domain"
)

// timestampLayouts are the formats interval exports arrive in. Vendors are
// inconsistent; date-only rows are rejected because a slot needs a time of day.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006 15:04",
}

// ParseIntervalWorkbook reads an interval-data workbook into readings. The
// first sheet must carry a header row of Meter, Timestamp, Value and an
// optional Unit column. Blank rows are skipped; malformed rows are an error.
func ParseIntervalWorkbook(r io.Reader, kind readings.Kind) ([]readings.Reading, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("interval workbook: open: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("interval workbook: no sheets")
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("interval workbook: read %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("interval workbook: sheet %s has no data rows", sheets[0])
	}

	var out []readings.Reading
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("interval workbook: row %d: want meter, timestamp, value", i+2)
		}
		ts, err := parseWorkbookTime(row[1])
		if err != nil {
			return nil, fmt.Errorf("interval workbook: row %d: %w", i+2, err)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("interval workbook: row %d: bad value %q", i+2, row[2])
		}
		reading := readings.Reading{
			MeterNumber: strings.TrimSpace(row[0]),
			Kind:        kind,
			TS:          ts,
			Value:       value,
		}
		if len(row) > 3 {
			reading.Unit = strings.TrimSpace(row[3])
		}
		if !reading.Valid() {
			return nil, fmt.Errorf("interval workbook: row %d: missing meter number", i+2)
		}
		out = append(out, reading)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("interval workbook: sheet %s has no data rows", sheets[0])
	}
	return out, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseWorkbookTime(cell string) (time.Time, error) {
	raw := strings.TrimSpace(cell)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad timestamp %q", raw)
}
