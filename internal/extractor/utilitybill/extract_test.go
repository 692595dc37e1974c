package utilitybill

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleRows = []string{
	"City Power & Light",
	"Account Number: 1001-4452",
	"Statement Date: 02/05/2019",
	"Service Period 01/05/2019 - 02/04/2019",
	"Energy Charge $89.12",
	"Distribution Charge $22.40",
	"Environmental Credit ($3.50)",
	"Total Usage: 1,245 kWh",
	"Total Amount Due: $108.02",
	"Thank you for your business",
}

func TestParseBill(t *testing.T) {
	bill, err := Parse(sampleRows)
	require.NoError(t, err)

	assert.Equal(t, "1001-4452", bill.AccountNumber)
	assert.True(t, bill.Datum.Start.Equal(time.Date(2019, 1, 5, 0, 0, 0, 0, time.UTC)))
	assert.True(t, bill.Datum.End.Equal(time.Date(2019, 2, 4, 0, 0, 0, 0, time.UTC)))
	assert.True(t, bill.Datum.Statement.Equal(time.Date(2019, 2, 5, 0, 0, 0, 0, time.UTC)))
	assert.True(t, bill.Datum.Cost.Equal(decimal.RequireFromString("108.02")), "cost %s", bill.Datum.Cost)
	require.NotNil(t, bill.Datum.Used)
	assert.InDelta(t, 1245, *bill.Datum.Used, 1e-9)

	require.Len(t, bill.Datum.Items, 3)
	assert.Equal(t, "Energy Charge", bill.Datum.Items[0].Description)
	assert.True(t, bill.Datum.Items[2].Total.Equal(decimal.RequireFromString("-3.50")))
}

func TestParseBillDefaultsStatementToPeriodEnd(t *testing.T) {
	rows := []string{
		"Service Period 01/05/2019 - 02/04/2019",
		"Total Amount Due: $50.00",
	}
	bill, err := Parse(rows)
	require.NoError(t, err)
	assert.True(t, bill.Datum.Statement.Equal(bill.Datum.End))
}

func TestParseBillMissingMandatoryFields(t *testing.T) {
	_, err := Parse([]string{"Total Amount Due: $50.00"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service period")

	_, err = Parse([]string{"Service Period 01/05/2019 - 02/04/2019"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total")
}
