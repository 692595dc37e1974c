package application

import (
	"time"

	billing "meterdata-cloud/internal/billing/domain"
	"meterdata-cloud/internal/interval"
	urjanet "meterdata-cloud/internal/urjanet/domain"
)

// GenerationEngine reconciles generation-provider (third-party supplier)
// statements. Such statements carry no authoritative period boundaries of
// their own, so charges and usages are fitted against billing periods derived
// from the companion transmission-and-distribution stream.
type GenerationEngine struct {
	profile Profile
	sink    urjanet.DiagnosticSink
}

// NewGenerationEngine constructs a generation-only engine.
func NewGenerationEngine(profile Profile, sink urjanet.DiagnosticSink) (*GenerationEngine, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &GenerationEngine{profile: profile, sink: sink}, nil
}

// Reconcile files every charge and usage from the statement history into the
// T&D-derived periods and emits one billing record per period that received
// data. tdPeriods are reconciled periods with inclusive end dates.
func (g *GenerationEngine) Reconcile(statements []urjanet.Account, tdPeriods []billing.Datum, meterNumber string) ([]billing.Datum, error) {
	engine := &Engine{profile: g.profile, sink: g.sink}
	tree := interval.NewTree()
	for _, td := range tdPeriods {
		// Inclusive end becomes half-open for the tree.
		tree.Add(td.Start, td.End.AddDate(0, 0, 1), &period{})
	}

	ordered := engine.orderStatements(statements)
	for _, stmt := range ordered {
		for _, meter := range stmt.Meters {
			if meterNumber != "" && meter.MeterNumber != meterNumber {
				continue
			}
			for _, charge := range meter.Charges {
				g.fileCharge(tree, stmt, charge, engine)
			}
			for _, usage := range meter.Usages {
				g.fileUsage(tree, stmt, usage, engine)
			}
		}
		for _, charge := range stmt.FloatingCharges {
			floating := charge
			if floating.IntervalStart.IsZero() || floating.IntervalEnd.IsZero() {
				floating.IntervalStart = stmt.IntervalStart
				floating.IntervalEnd = stmt.IntervalEnd
			}
			g.fileCharge(tree, stmt, floating, engine)
		}
	}

	var out []billing.Datum
	for _, iv := range tree.Intervals() {
		acc := iv.Payload.(*period)
		if len(acc.utilityCharges) == 0 && len(acc.thirdPartyCharges) == 0 && len(acc.usages) == 0 {
			continue
		}
		datum := billing.Datum{
			Start:       iv.Begin,
			End:         iv.End.AddDate(0, 0, -1),
			Statement:   acc.statementDate,
			Cost:        engine.totalCost(acc),
			Used:        g.totalUsage(acc),
			Peak:        engine.peakDemand(acc),
			Items:       engine.lineItems(acc),
			SourceLinks: acc.sourceLinks,
		}
		if datum.Statement.IsZero() {
			datum.Statement = datum.End
		}
		out = append(out, datum)
	}
	return out, nil
}

func (g *GenerationEngine) fileCharge(tree *interval.Tree, stmt urjanet.Account, charge urjanet.Charge, engine *Engine) {
	if engine.isExcludedCharge(charge) {
		urjanet.Diagf(g.sink, urjanet.DiagnosticChargeExcluded,
			"statement=%d charge %q re-states another period", stmt.PK, charge.ChargeActualName)
		return
	}
	acc, ok := g.bestFit(tree, charge.IntervalStart, charge.IntervalEnd)
	if !ok {
		urjanet.Diagf(g.sink, urjanet.DiagnosticChargeDropped,
			"statement=%d charge %q fits no T&D period", stmt.PK, charge.ChargeActualName)
		return
	}
	if acc.chargeSource != 0 && acc.chargeSource != stmt.PK {
		return
	}
	acc.chargeSource = stmt.PK
	if charge.ThirdParty {
		acc.thirdPartyCharges = append(acc.thirdPartyCharges, charge)
	} else {
		acc.utilityCharges = append(acc.utilityCharges, charge)
	}
	engine.attachStatement(acc, stmt)
}

func (g *GenerationEngine) fileUsage(tree *interval.Tree, stmt urjanet.Account, usage urjanet.Usage, engine *Engine) {
	acc, ok := g.bestFit(tree, usage.IntervalStart, usage.IntervalEnd)
	if !ok {
		urjanet.Diagf(g.sink, urjanet.DiagnosticUsageDropped,
			"statement=%d usage %q fits no T&D period", stmt.PK, usage.UsageActualName)
		return
	}
	if acc.usageSource != 0 && acc.usageSource != stmt.PK {
		return
	}
	acc.usageSource = stmt.PK
	acc.usages = append(acc.usages, usage)
	engine.attachStatement(acc, stmt)
}

// bestFit widens the search beyond the generic engine's: the query start is
// shifted back one day and the query end forward one day, independently,
// before giving up. Ties between candidate periods are broken by maximum
// day-overlap, not first match, because generation statements routinely
// straddle a T&D boundary by a day or two.
func (g *GenerationEngine) bestFit(tree *interval.Tree, start, end time.Time) (*period, bool) {
	if start.IsZero() || end.IsZero() {
		return nil, false
	}
	queries := []struct{ ds, de int }{{0, 0}, {-1, 0}, {0, 1}, {-1, 1}}
	for _, q := range queries {
		s := start.AddDate(0, 0, q.ds)
		t := end.AddDate(0, 0, q.de)
		candidates := tree.RangeQuery(s, t)
		var best *interval.Interval
		bestOverlap := 0
		for i := range candidates {
			overlap := candidates[i].OverlapDays(interval.Day(s), interval.Day(t))
			if overlap > bestOverlap {
				bestOverlap = overlap
				best = &candidates[i]
			}
		}
		if best != nil {
			return best.Payload.(*period), true
		}
	}
	return nil, false
}

// totalUsage prefers the canonical "[total]" rollup but falls back to summing
// peak-tagged readings: generation feeds often omit the rollup entirely.
func (g *GenerationEngine) totalUsage(acc *period) *float64 {
	var total float64
	found := false
	for _, usage := range acc.usages {
		if usage.RateComponent == urjanet.RateComponentTotal {
			total += convertUsage(usage.EnergyUnit, usage.UsageAmount)
			found = true
		}
	}
	if found {
		return &total
	}
	for _, usage := range acc.usages {
		if g.profile.isPeakUnit(usage.EnergyUnit) {
			total += usage.UsageAmount
			found = true
		}
	}
	if !found {
		return nil
	}
	return &total
}
