package common

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var nonNumericRegex = regexp.MustCompile(`[^0-9.\-]`)

// CleanDecimal parses a money string, stripping currency symbols, thousands
// separators and whitespace. Amounts in accounting parentheses are negative.
func CleanDecimal(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	negative := false
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		negative = true
		text = text[1 : len(text)-1]
	}
	cleaned := nonNumericRegex.ReplaceAllString(text, "")
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// dateLayouts are the formats utility bills print dates in.
var dateLayouts = []string{
	"01/02/2006",
	"01/02/06",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate tries the known bill date formats.
func ParseDate(value string) (time.Time, error) {
	raw := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date: unrecognized %q", value)
}

var dateRangePattern = regexp.MustCompile(
	`(\d{1,2}/\d{1,2}/\d{2,4}|\w{3,9} \d{1,2}, \d{4})\s*(?:-|to|through)\s*(\d{1,2}/\d{1,2}/\d{2,4}|\w{3,9} \d{1,2}, \d{4})`)

// ParseDateRange extracts a "start - end" service period from a text row.
func ParseDateRange(text string) (time.Time, time.Time, error) {
	match := dateRangePattern.FindStringSubmatch(text)
	if match == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date range: no range in %q", text)
	}
	start, err := ParseDate(match[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseDate(match[2])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date range: inverted range in %q", text)
	}
	return start, end, nil
}
