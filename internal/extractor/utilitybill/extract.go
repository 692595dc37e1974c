// Package utilitybill extracts billing data from the text layer of utility
// bill PDFs, for accounts with no statement-warehouse coverage.
package utilitybill

import (
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	billing "meterdata-cloud/internal/billing/domain"
	"meterdata-cloud/internal/extractor/common"
)

var (
	accountPattern = regexp.MustCompile(`(?i)account\s*(?:number|#|no\.?)[:\s]+([0-9][0-9-]*)`)
	statementLine  = regexp.MustCompile(`(?i)(?:statement|bill|issue)\s+date[:\s]+(.+)`)
	serviceLine    = regexp.MustCompile(`(?i)(?:service|billing)\s+period`)
	totalLine      = regexp.MustCompile(`(?i)total\s+(?:amount\s+due|new\s+charges|charges)[:\s]+(.+)`)
	usageLine      = regexp.MustCompile(`(?i)total\s+(?:usage|consumption)[:\s]+([0-9,.]+)\s*([A-Za-z]+)`)
	chargeLine     = regexp.MustCompile(`^(.{3,60}?)\s+(\(?-?\$[0-9,]+\.\d{2}\)?)$`)
)

// Bill is the data recoverable from one bill document.
type Bill struct {
	AccountNumber string
	Datum         billing.Datum
}

// Extract reads a bill PDF and parses its labeled fields. The service period
// and total charges are mandatory; everything else is best effort.
func Extract(r io.Reader) (*Bill, error) {
	rows, err := common.ExtractRowsFromPDFReader(r)
	if err != nil {
		return nil, err
	}
	return Parse(rows)
}

// Parse extracts a bill from pre-split text rows.
func Parse(rows []string) (*Bill, error) {
	bill := &Bill{}
	var havePeriod, haveTotal bool
	var items []billing.LineItem

	for _, row := range rows {
		row = strings.TrimSpace(row)
		if row == "" {
			continue
		}

		if match := accountPattern.FindStringSubmatch(row); match != nil && bill.AccountNumber == "" {
			bill.AccountNumber = match[1]
			continue
		}
		if match := statementLine.FindStringSubmatch(row); match != nil && bill.Datum.Statement.IsZero() {
			if ts, err := common.ParseDate(strings.TrimSpace(match[1])); err == nil {
				bill.Datum.Statement = ts
			}
			continue
		}
		if serviceLine.MatchString(row) && !havePeriod {
			start, end, err := common.ParseDateRange(row)
			if err == nil {
				bill.Datum.Start = start
				bill.Datum.End = end
				havePeriod = true
			}
			continue
		}
		if match := totalLine.FindStringSubmatch(row); match != nil && !haveTotal {
			amount, err := common.CleanDecimal(match[1])
			if err == nil {
				bill.Datum.Cost = amount
				haveTotal = true
			}
			continue
		}
		if match := usageLine.FindStringSubmatch(row); match != nil && bill.Datum.Used == nil {
			if used, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64); err == nil {
				bill.Datum.Used = &used
			}
			continue
		}
		if match := chargeLine.FindStringSubmatch(row); match != nil {
			amount, err := common.CleanDecimal(match[2])
			if err != nil || amount.Equal(decimal.Zero) {
				continue
			}
			items = append(items, billing.LineItem{
				Description: strings.TrimSpace(match[1]),
				Total:       amount,
				Kind:        billing.LineItemOther,
			})
		}
	}

	if !havePeriod {
		return nil, errors.New("utility bill: no service period found")
	}
	if !haveTotal {
		return nil, errors.New("utility bill: no total charges found")
	}
	if bill.Datum.Statement.IsZero() {
		bill.Datum.Statement = bill.Datum.End
	}
	bill.Datum.Items = items
	return bill, nil
}
