// Package billing holds the canonical reconciled billing-period records and
// the pure algorithms that keep a billing history chronologically ordered,
// gap-tolerant and overlap-free, regardless of the source that produced it.
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItemKind classifies a billed line item.
type LineItemKind string

const (
	LineItemUse    LineItemKind = "use"
	LineItemDemand LineItemKind = "demand"
	LineItemOther  LineItemKind = "other"
)

// LineItem is one billed charge inside a period.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    float64         `json:"quantity"`
	Rate        float64         `json:"rate"`
	Total       decimal.Decimal `json:"total"`
	Kind        LineItemKind    `json:"kind"`
	Unit        string          `json:"unit"`
}

// Attachment is a reference to a source bill document.
type Attachment struct {
	Key           string    `json:"key"`
	Format        string    `json:"format"`
	Kind          string    `json:"kind"`
	Source        string    `json:"source"`
	StatementDate time.Time `json:"statement_date"`
	Utility       string    `json:"utility"`
	AccountNumber string    `json:"account_number"`
}

// Datum is one reconciled billing period. Start and End are inclusive
// calendar dates; Statement is the issue date of the underlying bill and
// defaults to End when unknown. Within a reconciled sequence no two records'
// [Start, End] ranges overlap.
type Datum struct {
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	Statement   time.Time       `json:"statement"`
	Cost        decimal.Decimal `json:"cost"`
	Used        *float64        `json:"used,omitempty"`
	Peak        *float64        `json:"peak,omitempty"`
	Items       []LineItem      `json:"items,omitempty"`
	Attachments []Attachment    `json:"attachments,omitempty"`
	SourceLinks []string        `json:"source_links,omitempty"`
}

// NewDatum constructs a validated billing period. A zero statement date is
// defaulted to the period end.
func NewDatum(start, end time.Time, statement time.Time, cost decimal.Decimal) (Datum, error) {
	start, end = day(start), day(end)
	if end.Before(start) {
		return Datum{}, ErrInvalidPeriod
	}
	if statement.IsZero() {
		statement = end
	}
	return Datum{Start: start, End: end, Statement: day(statement), Cost: cost}, nil
}

// Overlaps reports whether two periods claim any common day. Both ranges are
// inclusive of their endpoints.
func (d Datum) Overlaps(other Datum) bool {
	return !d.Start.After(other.End) && !other.Start.After(d.End)
}

// Days returns the period length in days, endpoints inclusive.
func (d Datum) Days() int {
	return int(d.End.Sub(d.Start).Hours()/24) + 1
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
