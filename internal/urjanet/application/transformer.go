package application

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	billing "meterdata-cloud/internal/billing/domain"
	"meterdata-cloud/internal/interval"
	urjanet "meterdata-cloud/internal/urjanet/domain"
)

// correctionPattern matches line items that embed a prior date range in their
// name ("Adjustment for 01/05/2019 - 02/04/2019"). Such charges re-state
// another period's figures and never count toward this period's totals.
var correctionPattern = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}\s*(?:-|to)\s*\d{1,2}/\d{1,2}/\d{2,4}`)

// period is the accumulator attached to each tree interval during
// reconciliation.
type period struct {
	utilityCharges    []urjanet.Charge
	thirdPartyCharges []urjanet.Charge
	usages            []urjanet.Usage
	sourceLinks       []string
	statementDate     time.Time

	// chargeSource/usageSource pin each bucket to the first statement that
	// supplied data of that kind. Corrections sort first, so they win.
	chargeSource int64
	usageSource  int64
}

// Engine turns one meter's statement history into an ordered, overlap-free
// billing-period sequence. All behavior differences between utilities live in
// the injected Profile; the two-pass structure (skeleton, then merge) is
// deliberately preserved because the two precedence rules it encodes operate
// at different granularities.
type Engine struct {
	profile Profile
	sink    urjanet.DiagnosticSink
}

// NewEngine constructs an engine for one utility profile.
func NewEngine(profile Profile, sink urjanet.DiagnosticSink) (*Engine, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &Engine{profile: profile, sink: sink}, nil
}

// Reconcile processes a statement history for one meter. meterNumber narrows
// which meter records on each statement contribute; empty means all meters.
// A history with no usable statements yields an empty sequence, not an error.
func (e *Engine) Reconcile(statements []urjanet.Account, meterNumber string) ([]billing.Datum, error) {
	ordered := e.orderStatements(statements)
	tree := e.buildSkeleton(ordered, meterNumber)
	e.mergeStatements(tree, ordered, meterNumber)
	shifted := e.profile.Shift.Apply(tree)
	return e.emit(shifted), nil
}

// orderStatements filters out statements lacking the profile's date marker
// and sorts the rest descending, most recent first. Ordering matters: the
// skeleton and merge passes are both first-wins.
func (e *Engine) orderStatements(statements []urjanet.Account) []urjanet.Account {
	var usable []urjanet.Account
	for _, stmt := range statements {
		if e.profile.wantsStatement(stmt) {
			usable = append(usable, stmt)
		}
	}
	key := func(a urjanet.Account) time.Time {
		if e.profile.OrderBy == DateFieldInterval {
			return a.IntervalStart
		}
		return a.StatementDate
	}
	sort.SliceStable(usable, func(i, j int) bool {
		return key(usable[i]).After(key(usable[j]))
	})
	return usable
}

// buildSkeleton adds one empty accumulator per distinct candidate period.
// A candidate overlapping anything already present is skipped: the first
// (most recent) statement claiming a period is its sole representative.
func (e *Engine) buildSkeleton(ordered []urjanet.Account, meterNumber string) *interval.Tree {
	tree := interval.NewTree()
	for _, stmt := range ordered {
		start, end, ok := e.derivePeriod(stmt, meterNumber)
		if !ok {
			urjanet.Diagf(e.sink, urjanet.DiagnosticPeriodSkipped,
				"statement=%d no derivable period", stmt.PK)
			continue
		}
		if tree.Overlaps(start, end, e.profile.StrictOverlap) {
			urjanet.Diagf(e.sink, urjanet.DiagnosticPeriodSkipped,
				"statement=%d period=%s..%s overlaps an existing period",
				stmt.PK, start.Format("2006-01-02"), end.Format("2006-01-02"))
			continue
		}
		tree.Add(start, end, &period{})
	}
	return tree
}

func (e *Engine) derivePeriod(stmt urjanet.Account, meterNumber string) (time.Time, time.Time, bool) {
	switch e.profile.PeriodSource {
	case PeriodFromUsage:
		return unionRange(stmt, meterNumber, func(m urjanet.Meter) []dateRange {
			var ranges []dateRange
			for _, u := range m.Usages {
				ranges = append(ranges, dateRange{u.IntervalStart, u.IntervalEnd})
			}
			return ranges
		})
	case PeriodFromMeter:
		return unionRange(stmt, meterNumber, func(m urjanet.Meter) []dateRange {
			return []dateRange{{m.IntervalStart, m.IntervalEnd}}
		})
	default:
		if !stmt.HasInterval() {
			return time.Time{}, time.Time{}, false
		}
		return stmt.IntervalStart, stmt.IntervalEnd, true
	}
}

type dateRange struct {
	start, end time.Time
}

func unionRange(stmt urjanet.Account, meterNumber string, extract func(urjanet.Meter) []dateRange) (time.Time, time.Time, bool) {
	var start, end time.Time
	for _, meter := range stmt.Meters {
		if meterNumber != "" && meter.MeterNumber != meterNumber {
			continue
		}
		for _, r := range extract(meter) {
			if r.start.IsZero() || r.end.IsZero() || !r.start.Before(r.end) {
				continue
			}
			if start.IsZero() || r.start.Before(start) {
				start = r.start
			}
			if end.IsZero() || r.end.After(end) {
				end = r.end
			}
		}
	}
	if start.IsZero() || end.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// mergeStatements walks the history again and files every charge and usage
// into the period it fits. A data point fitting zero or several periods even
// after the tolerance nudges is dropped with a diagnostic, never guessed at.
func (e *Engine) mergeStatements(tree *interval.Tree, ordered []urjanet.Account, meterNumber string) {
	for _, stmt := range ordered {
		for _, meter := range stmt.Meters {
			if meterNumber != "" && meter.MeterNumber != meterNumber {
				continue
			}
			for _, charge := range meter.Charges {
				e.fileCharge(tree, stmt, charge)
			}
			for _, usage := range meter.Usages {
				e.fileUsage(tree, stmt, usage)
			}
		}
		for _, charge := range stmt.FloatingCharges {
			if e.profile.IncludeFloatingCharge != nil && !e.profile.IncludeFloatingCharge(charge) {
				urjanet.Diagf(e.sink, urjanet.DiagnosticChargeExcluded,
					"statement=%d floating charge %q excluded by profile", stmt.PK, charge.ChargeActualName)
				continue
			}
			floating := charge
			if floating.IntervalStart.IsZero() || floating.IntervalEnd.IsZero() {
				floating.IntervalStart = stmt.IntervalStart
				floating.IntervalEnd = stmt.IntervalEnd
			}
			e.fileCharge(tree, stmt, floating)
		}
	}
}

func (e *Engine) fileCharge(tree *interval.Tree, stmt urjanet.Account, charge urjanet.Charge) {
	if e.isExcludedCharge(charge) {
		urjanet.Diagf(e.sink, urjanet.DiagnosticChargeExcluded,
			"statement=%d charge %q re-states another period", stmt.PK, charge.ChargeActualName)
		return
	}
	acc, ok := e.bestFit(tree, charge.IntervalStart, charge.IntervalEnd)
	if !ok {
		urjanet.Diagf(e.sink, urjanet.DiagnosticChargeDropped,
			"statement=%d charge %q interval=%s..%s matches no single period",
			stmt.PK, charge.ChargeActualName,
			charge.IntervalStart.Format("2006-01-02"), charge.IntervalEnd.Format("2006-01-02"))
		return
	}
	if acc.chargeSource != 0 && acc.chargeSource != stmt.PK {
		// An earlier-processed (more recent) statement already supplied
		// charges for this period.
		return
	}
	acc.chargeSource = stmt.PK
	if charge.ThirdParty {
		acc.thirdPartyCharges = append(acc.thirdPartyCharges, charge)
	} else {
		acc.utilityCharges = append(acc.utilityCharges, charge)
	}
	e.attachStatement(acc, stmt)
}

func (e *Engine) fileUsage(tree *interval.Tree, stmt urjanet.Account, usage urjanet.Usage) {
	acc, ok := e.bestFit(tree, usage.IntervalStart, usage.IntervalEnd)
	if !ok {
		urjanet.Diagf(e.sink, urjanet.DiagnosticUsageDropped,
			"statement=%d usage %q interval=%s..%s matches no single period",
			stmt.PK, usage.UsageActualName,
			usage.IntervalStart.Format("2006-01-02"), usage.IntervalEnd.Format("2006-01-02"))
		return
	}
	if acc.usageSource != 0 && acc.usageSource != stmt.PK {
		return
	}
	acc.usageSource = stmt.PK
	acc.usages = append(acc.usages, usage)
	e.attachStatement(acc, stmt)
}

func (e *Engine) attachStatement(acc *period, stmt urjanet.Account) {
	if stmt.SourceLink != "" {
		for _, link := range acc.sourceLinks {
			if link == stmt.SourceLink {
				return
			}
		}
		acc.sourceLinks = append(acc.sourceLinks, stmt.SourceLink)
	}
	if stmt.StatementDate.After(acc.statementDate) {
		acc.statementDate = stmt.StatementDate
	}
}

// bestFit finds the single period containing [start, end). Exact containment
// is tried first; failing that, the start and end are nudged by up to the
// profile tolerance, one endpoint at a time, and the search retried. This
// absorbs the off-by-one differences between billing-period conventions.
func (e *Engine) bestFit(tree *interval.Tree, start, end time.Time) (*period, bool) {
	if start.IsZero() || end.IsZero() {
		return nil, false
	}
	nudges := []struct{ ds, de int }{{0, 0}}
	for d := 1; d <= e.profile.ToleranceDays; d++ {
		nudges = append(nudges,
			struct{ ds, de int }{d, 0}, struct{ ds, de int }{-d, 0},
			struct{ ds, de int }{0, d}, struct{ ds, de int }{0, -d})
	}
	for _, n := range nudges {
		s := start.AddDate(0, 0, n.ds)
		t := end.AddDate(0, 0, n.de)
		if !s.Before(t) {
			continue
		}
		if acc, ok := containingPeriod(tree, s, t); ok {
			return acc, true
		}
	}
	return nil, false
}

func containingPeriod(tree *interval.Tree, start, end time.Time) (*period, bool) {
	var found *period
	for _, iv := range tree.RangeQuery(start, end) {
		if !iv.Begin.After(start) && !iv.End.Before(end) {
			if found != nil {
				// Ambiguous containment; caller will drop the data point.
				return nil, false
			}
			found = iv.Payload.(*period)
		}
	}
	return found, found != nil
}

func (e *Engine) isExcludedCharge(charge urjanet.Charge) bool {
	name := strings.TrimSpace(charge.ChargeActualName)
	return charge.IsAdjustmentCharge ||
		e.profile.excludesCharge(name) ||
		correctionPattern.MatchString(name)
}

// emit turns the shifted tree into the canonical ordered billing sequence.
func (e *Engine) emit(tree *interval.Tree) []billing.Datum {
	var out []billing.Datum
	for _, iv := range tree.Intervals() {
		acc := iv.Payload.(*period)
		// Emitted dates are inclusive; End is the last billed day. A day
		// vacated by an endpoint shift belongs to no period afterward and is
		// left unattributed, not reassigned to a neighbor.
		datum := billing.Datum{
			Start:       iv.Begin,
			End:         iv.End.AddDate(0, 0, -1),
			Statement:   acc.statementDate,
			Cost:        e.totalCost(acc),
			Used:        e.totalUsage(acc),
			Peak:        e.peakDemand(acc),
			Items:       e.lineItems(acc),
			SourceLinks: acc.sourceLinks,
		}
		if datum.Statement.IsZero() {
			datum.Statement = datum.End
		}
		out = append(out, datum)
	}
	return out
}

// totalCost is utility charges plus third-party charges; keeping the buckets
// separate upstream prevents double counting when a provider re-lists the
// other party's charges.
func (e *Engine) totalCost(acc *period) decimal.Decimal {
	total := decimal.Zero
	for _, charge := range acc.utilityCharges {
		total = total.Add(charge.ChargeAmount)
	}
	for _, charge := range acc.thirdPartyCharges {
		total = total.Add(charge.ChargeAmount)
	}
	return total
}

func (e *Engine) totalUsage(acc *period) *float64 {
	var total float64
	found := false
	for _, usage := range acc.usages {
		if e.profile.UsageFromUsage != nil {
			if amount, ok := e.profile.UsageFromUsage(usage); ok {
				total += amount
				found = true
			}
			continue
		}
		if usage.RateComponent == urjanet.RateComponentTotal {
			total += convertUsage(usage.EnergyUnit, usage.UsageAmount)
			found = true
		}
	}
	if !found {
		return nil
	}
	return &total
}

func (e *Engine) peakDemand(acc *period) *float64 {
	var peak float64
	found := false
	consider := func(amount float64) {
		if !found || amount > peak {
			peak = amount
		}
		found = true
	}
	for _, usage := range acc.usages {
		if e.profile.PeakFromUsage != nil {
			if amount, ok := e.profile.PeakFromUsage(usage); ok {
				consider(amount)
			}
			continue
		}
		if e.profile.isPeakUnit(usage.EnergyUnit) {
			consider(usage.UsageAmount)
		}
	}
	for _, charge := range acc.utilityCharges {
		if charge.ChargeUnitsUsed != nil && e.profile.isPeakUnit(charge.UsageUnit) {
			consider(*charge.ChargeUnitsUsed)
		}
	}
	if !found {
		return nil
	}
	return &peak
}

func (e *Engine) lineItems(acc *period) []billing.LineItem {
	charges := make([]urjanet.Charge, 0, len(acc.utilityCharges)+len(acc.thirdPartyCharges))
	charges = append(charges, acc.utilityCharges...)
	charges = append(charges, acc.thirdPartyCharges...)
	if len(charges) == 0 {
		return nil
	}
	items := make([]billing.LineItem, 0, len(charges))
	for _, charge := range charges {
		item := billing.LineItem{
			Description: charge.ChargeActualName,
			Total:       charge.ChargeAmount,
			Kind:        classifyCharge(charge.UsageUnit),
			Unit:        charge.UsageUnit,
		}
		if charge.ChargeUnitsUsed != nil {
			item.Quantity = *charge.ChargeUnitsUsed
		}
		if charge.ChargeRatePerUnit != nil {
			item.Rate = *charge.ChargeRatePerUnit
		}
		items = append(items, item)
	}
	return items
}

func classifyCharge(unit string) billing.LineItemKind {
	switch strings.ToUpper(strings.TrimSpace(unit)) {
	case "KW", "KVA":
		return billing.LineItemDemand
	case "KWH", "THERMS", "CCF", "HCF", "GAL", "GALLONS", "TGAL", "KGAL":
		return billing.LineItemUse
	default:
		return billing.LineItemOther
	}
}
