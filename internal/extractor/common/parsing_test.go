package common

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"$1,234.56", "1234.56"},
		{"1234.56", "1234.56"},
		{"  $99.00 ", "99"},
		{"-$12.50", "-12.5"},
		{"($45.00)", "-45"},
		{"", "0"},
		{"N/A", "0"},
	}
	for _, tc := range cases {
		got, err := CleanDecimal(tc.in)
		require.NoError(t, err, tc.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "%q -> %s want %s", tc.in, got, tc.want)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2019, 2, 5, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"02/05/2019", "2019-02-05", "Feb 5, 2019", "February 5, 2019"} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(want), in)
	}

	_, err := ParseDate("the fifth of February")
	require.Error(t, err)
}

func TestParseDateRange(t *testing.T) {
	start, end, err := ParseDateRange("Service Period 01/05/2019 - 02/04/2019")
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2019, 1, 5, 0, 0, 0, 0, time.UTC)))
	assert.True(t, end.Equal(time.Date(2019, 2, 4, 0, 0, 0, 0, time.UTC)))

	start, end, err = ParseDateRange("Billing period: Jan 5, 2019 to Feb 4, 2019")
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2019, 1, 5, 0, 0, 0, 0, time.UTC)))
	assert.True(t, end.Equal(time.Date(2019, 2, 4, 0, 0, 0, 0, time.UTC)))

	_, _, err = ParseDateRange("no dates here")
	require.Error(t, err)

	_, _, err = ParseDateRange("02/04/2019 - 01/05/2019")
	require.Error(t, err)
}
