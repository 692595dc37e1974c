// Package readings models raw interval meter readings, the per-slot values
// that back a meter's usage timeline.
package readings

import (
	"context"
	"time"
)

// Kind distinguishes what a reading measures.
type Kind string

const (
	KindUse    Kind = "use"
	KindDemand Kind = "demand"
)

// Reading is one interval value for one meter.
type Reading struct {
	MeterNumber string
	Kind        Kind
	TS          time.Time
	Value       float64
	Unit        string
}

// Valid reports whether the reading carries enough to be stored.
func (r Reading) Valid() bool {
	if r.MeterNumber == "" || r.TS.IsZero() {
		return false
	}
	switch r.Kind {
	case KindUse, KindDemand:
		return true
	default:
		return false
	}
}

// Repository persists interval readings.
type Repository interface {
	InsertReadings(ctx context.Context, readings []Reading) error
	QueryRange(ctx context.Context, meterNumber string, kind Kind, start, end time.Time) ([]Reading, error)
}
