package application

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	readings "meterdata-cloud/internal/readings/domain"
)

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	book := excelize.NewFile()
	sheet := book.GetSheetList()[0]
	for i, row := range rows {
		for j, cell := range row {
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, book.SetCellValue(sheet, name, cell))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, book.Write(&buf))
	return &buf
}

func TestParseIntervalWorkbook(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"Meter", "Timestamp", "Value", "Unit"},
		{"M-1", "2019-08-01 00:00:00", 1.25, "kWh"},
		{"M-1", "2019-08-01 00:15:00", 1.50, "kWh"},
		{"", "", "", ""},
		{"M-2", "2019-08-01 00:00:00", 0.75, "kWh"},
	})

	batch, err := ParseIntervalWorkbook(buf, readings.KindUse)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	assert.Equal(t, "M-1", batch[0].MeterNumber)
	assert.Equal(t, readings.KindUse, batch[0].Kind)
	assert.True(t, batch[0].TS.Equal(time.Date(2019, 8, 1, 0, 0, 0, 0, time.UTC)))
	assert.InDelta(t, 1.25, batch[0].Value, 1e-9)
	assert.Equal(t, "kWh", batch[0].Unit)
	assert.Equal(t, "M-2", batch[2].MeterNumber)
}

func TestParseIntervalWorkbookSlashDates(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"Meter", "Timestamp", "Value"},
		{"M-1", "08/01/2019 00:15", 2.0},
	})

	batch, err := ParseIntervalWorkbook(buf, readings.KindDemand)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.True(t, batch[0].TS.Equal(time.Date(2019, 8, 1, 0, 15, 0, 0, time.UTC)))
	assert.Equal(t, readings.KindDemand, batch[0].Kind)
}

func TestParseIntervalWorkbookRejectsBadRows(t *testing.T) {
	cases := []struct {
		name string
		rows [][]any
	}{
		{"bad timestamp", [][]any{
			{"Meter", "Timestamp", "Value"},
			{"M-1", "yesterday", 1.0},
		}},
		{"bad value", [][]any{
			{"Meter", "Timestamp", "Value"},
			{"M-1", "2019-08-01 00:00:00", "lots"},
		}},
		{"missing meter", [][]any{
			{"Meter", "Timestamp", "Value"},
			{"", "2019-08-01 00:00:00", 1.0},
		}},
		{"header only", [][]any{
			{"Meter", "Timestamp", "Value"},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseIntervalWorkbook(buildWorkbook(t, tc.rows), readings.KindUse)
			require.Error(t, err)
		})
	}
}

func TestParseIntervalWorkbookNotAWorkbook(t *testing.T) {
	_, err := ParseIntervalWorkbook(bytes.NewBufferString("meter,ts,value\n"), readings.KindUse)
	require.Error(t, err)
}

func TestParseIntervalWorkbookLargeSheet(t *testing.T) {
	rows := [][]any{{"Meter", "Timestamp", "Value"}}
	base := time.Date(2019, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 96; i++ {
		rows = append(rows, []any{
			"M-1",
			base.Add(time.Duration(i) * 15 * time.Minute).Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.2f", float64(i)/4),
		})
	}
	batch, err := ParseIntervalWorkbook(buildWorkbook(t, rows), readings.KindUse)
	require.NoError(t, err)
	assert.Len(t, batch, 96)
}
