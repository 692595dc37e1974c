package urjanet

import (
	"fmt"
	"log"
)

// DiagnosticKind labels a reconciliation decision worth surfacing.
type DiagnosticKind string

const (
	DiagnosticPeriodSkipped  DiagnosticKind = "period_skipped"
	DiagnosticChargeDropped  DiagnosticKind = "charge_dropped"
	DiagnosticUsageDropped   DiagnosticKind = "usage_dropped"
	DiagnosticChargeExcluded DiagnosticKind = "charge_excluded"
)

// Diagnostic is one reconciliation decision: a skipped statement, a dropped
// charge, an excluded line item. The engine favors omission over incorrect
// attribution, so dropped data is always recorded here rather than guessed at.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
}

// DiagnosticSink receives reconciliation decisions. The engine performs no
// logging of its own; callers inject whichever sink suits them.
type DiagnosticSink interface {
	Record(d Diagnostic)
}

// LogSink writes diagnostics to a standard logger.
type LogSink struct {
	Logger *log.Logger
}

// Record logs the diagnostic as a key=value line.
func (s LogSink) Record(d Diagnostic) {
	if s.Logger == nil {
		return
	}
	s.Logger.Printf("reconcile diagnostic kind=%s %s", d.Kind, d.Message)
}

// CaptureSink collects diagnostics in memory so tests can assert on them.
type CaptureSink struct {
	Events []Diagnostic
}

// Record appends the diagnostic.
func (s *CaptureSink) Record(d Diagnostic) {
	s.Events = append(s.Events, d)
}

// ByKind returns the captured diagnostics of one kind.
func (s *CaptureSink) ByKind(kind DiagnosticKind) []Diagnostic {
	var out []Diagnostic
	for _, d := range s.Events {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Diagf records a formatted diagnostic on a possibly-nil sink.
func Diagf(sink DiagnosticSink, kind DiagnosticKind, format string, args ...any) {
	if sink == nil {
		return
	}
	sink.Record(Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)})
}
