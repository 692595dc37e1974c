// Package urjanet models the raw statement trees ingested from the Urjanet
// warehouse. The reconciliation engine only ever reads these records; they
// are created by warehouse ingestion and never mutated here.
package urjanet

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementType distinguishes an original bill from a correction.
type StatementType string

const (
	StatementBill       StatementType = "BILL"
	StatementAdjustment StatementType = "ADJUSTMENT"
)

// Account is a single point-in-time bill document. Statements for the same
// real-world billing period recur when the utility issues corrections; the
// engine's job is to pick the right representative and merge its data.
type Account struct {
	PK                 int64
	UtilityProvider    string
	AccountNumber      string
	RawAccountNumber   string
	SourceLink         string
	StatementType      StatementType
	StatementDate      time.Time
	IntervalStart      time.Time
	IntervalEnd        time.Time
	TotalBillAmount    decimal.Decimal
	AmountDue          decimal.Decimal
	NewCharges         decimal.Decimal
	OutstandingBalance decimal.Decimal
	PreviousBalance    decimal.Decimal
	Meters             []Meter
	// FloatingCharges are charges attached to the statement but not to any
	// specific meter.
	FloatingCharges []Charge
}

// Meter is one metered service point on a statement.
type Meter struct {
	PK            int64
	ServiceType   string
	PODid         string
	MeterNumber   string
	IntervalStart time.Time
	IntervalEnd   time.Time
	Charges       []Charge
	Usages        []Usage
}

// Charge is one line item on a statement.
type Charge struct {
	PK                 int64
	ChargeActualName   string
	ChargeAmount       decimal.Decimal
	UsageUnit          string
	ChargeUnitsUsed    *float64
	ChargeRatePerUnit  *float64
	ThirdParty         bool
	IsAdjustmentCharge bool
	IntervalStart      time.Time
	IntervalEnd        time.Time
}

// Usage is one named meter reading on a statement. RateComponent tags the
// canonical rollup reading as "[total]".
type Usage struct {
	PK              int64
	UsageActualName string
	UsageAmount     float64
	RateComponent   string
	EnergyUnit      string
	IntervalStart   time.Time
	IntervalEnd     time.Time
}

// RateComponentTotal marks the canonical total-consumption reading.
const RateComponentTotal = "[total]"

// HasStatementDate reports whether the statement carries a usable issue date.
func (a Account) HasStatementDate() bool { return !a.StatementDate.IsZero() }

// HasInterval reports whether the statement carries a usable coverage range.
func (a Account) HasInterval() bool {
	return !a.IntervalStart.IsZero() && !a.IntervalEnd.IsZero() && a.IntervalStart.Before(a.IntervalEnd)
}
