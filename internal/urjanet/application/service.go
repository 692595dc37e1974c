package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	billing "meterdata-cloud/internal/billing/domain"
	"meterdata-cloud/internal/observability/metrics"
	urjanet "meterdata-cloud/internal/urjanet/domain"
)

// Warehouse loads statement trees for one account from the normalized
// warehouse. The reconciliation core never touches the database itself.
type Warehouse interface {
	LoadStatements(ctx context.Context, utility, accountNumber string) ([]urjanet.Account, error)
}

// ReconcileService runs the reconciliation engine against the warehouse for
// one account/meter at a time.
type ReconcileService struct {
	warehouse Warehouse
	profiles  *Profiles
	sink      urjanet.DiagnosticSink
}

// NewReconcileService constructs a service.
func NewReconcileService(warehouse Warehouse, profiles *Profiles, sink urjanet.DiagnosticSink) (*ReconcileService, error) {
	if warehouse == nil {
		return nil, errors.New("reconcile service: nil warehouse")
	}
	if profiles == nil {
		return nil, errors.New("reconcile service: nil profiles")
	}
	return &ReconcileService{warehouse: warehouse, profiles: profiles, sink: sink}, nil
}

// Reconcile loads an account's statement history and emits its reconciled
// billing sequence. An account with no statements yields an empty sequence.
func (s *ReconcileService) Reconcile(ctx context.Context, utility, accountNumber, meterNumber string) ([]billing.Datum, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	var periods int
	defer func() {
		metrics.ObserveReconcile(utility, result, periods, time.Since(start))
	}()

	statements, err := s.warehouse.LoadStatements(ctx, utility, accountNumber)
	if err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("reconcile service: load statements: %w", err)
	}

	profile := s.profiles.Resolve(utility)
	engine, err := NewEngine(profile, countingSink{next: s.sink})
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	bills, err := engine.Reconcile(statements, meterNumber)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if err := billing.AssertWithoutOverlaps(bills); err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("reconcile service: %s account %s: %w", utility, accountNumber, err)
	}
	periods = len(bills)
	return bills, nil
}

// ReconcileGeneration runs the generation-only variant against pre-existing
// T&D billing periods.
func (s *ReconcileService) ReconcileGeneration(ctx context.Context, utility, accountNumber, meterNumber string, tdPeriods []billing.Datum) ([]billing.Datum, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	var periods int
	defer func() {
		metrics.ObserveReconcile(utility, result, periods, time.Since(start))
	}()

	statements, err := s.warehouse.LoadStatements(ctx, utility, accountNumber)
	if err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("reconcile service: load statements: %w", err)
	}
	engine, err := NewGenerationEngine(s.profiles.Resolve(utility), countingSink{next: s.sink})
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	bills, err := engine.Reconcile(statements, tdPeriods, meterNumber)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	periods = len(bills)
	return bills, nil
}

// countingSink forwards diagnostics and counts dropped data points.
type countingSink struct {
	next urjanet.DiagnosticSink
}

func (c countingSink) Record(d urjanet.Diagnostic) {
	switch d.Kind {
	case urjanet.DiagnosticChargeDropped, urjanet.DiagnosticUsageDropped:
		metrics.IncReconcileDropped(string(d.Kind))
	}
	if c.next != nil {
		c.next.Record(d)
	}
}
