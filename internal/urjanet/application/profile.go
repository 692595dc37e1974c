package application

import (
	"errors"
	"fmt"

	"meterdata-cloud/internal/interval"
	urjanet "meterdata-cloud/internal/urjanet/domain"
)

// DateField names the statement field a profile keys filtering/ordering on.
// Not all utilities populate the same fields, so this is per-utility policy.
type DateField string

const (
	DateFieldStatement DateField = "statement-date"
	DateFieldInterval  DateField = "interval"
)

// PeriodSource names where a statement's candidate billing period comes from.
// Statement-level dates are unreliable for some utilities (summer/winter rate
// splits, placeholder ranges), which instead derive the period from usage or
// meter records.
type PeriodSource string

const (
	PeriodFromStatement PeriodSource = "statement"
	PeriodFromUsage     PeriodSource = "usage-union"
	PeriodFromMeter     PeriodSource = "meter"
)

// Profile is one utility's observed reconciliation conventions, injected into
// the generic engine. Each shipped profile is an opaque, empirically
// reverse-engineered fixture; do not infer policy from one utility to another.
type Profile struct {
	Name string `yaml:"name"`

	// RequireField drops statements lacking the named date marker.
	RequireField DateField `yaml:"require_field"`
	// OrderBy picks the descending sort key (most recent statement first).
	OrderBy DateField `yaml:"order_by"`
	// PeriodSource picks how a statement's candidate period is derived.
	PeriodSource PeriodSource `yaml:"period_source"`
	// Shift selects the endpoint repair applied after the merge pass.
	Shift interval.ShiftStrategy `yaml:"shift"`
	// StrictOverlap controls whether a one-day touch counts as an overlap
	// when deciding to skip a candidate period.
	StrictOverlap bool `yaml:"strict_overlap"`
	// ToleranceDays is the endpoint nudge tried when a charge or usage does
	// not sit exactly inside a known period.
	ToleranceDays int `yaml:"tolerance_days"`
	// ExcludedChargeNames are credit-reversal charges (net-metering true-ups
	// and the like) excluded from cost and usage aggregation by name.
	ExcludedChargeNames []string `yaml:"excluded_charge_names"`
	// PeakUnits are the usage units whose readings compete for peak demand.
	PeakUnits []string `yaml:"peak_units"`

	// FilterStatement, when set, replaces the RequireField check entirely.
	FilterStatement func(urjanet.Account) bool `yaml:"-"`
	// PeakFromUsage, when set, replaces the default peak extraction.
	PeakFromUsage func(urjanet.Usage) (float64, bool) `yaml:"-"`
	// UsageFromUsage, when set, replaces the default total-usage extraction.
	UsageFromUsage func(urjanet.Usage) (float64, bool) `yaml:"-"`
	// IncludeFloatingCharge, when set, limits which statement-level charges
	// without a meter are counted.
	IncludeFloatingCharge func(urjanet.Charge) bool `yaml:"-"`
}

// DefaultProfile is the behavior most utilities get: statement-date keyed,
// statement-interval periods, one day of tolerance, earlier-end repair.
func DefaultProfile() Profile {
	return Profile{
		Name:          "default",
		RequireField:  DateFieldStatement,
		OrderBy:       DateFieldStatement,
		PeriodSource:  PeriodFromStatement,
		Shift:         interval.StrategyShiftEndpoints,
		StrictOverlap: true,
		ToleranceDays: 1,
		PeakUnits:     []string{"kW", "kVA"},
	}
}

// Validate checks the declarative knobs.
func (p Profile) Validate() error {
	if p.Name == "" {
		return errors.New("profile: empty name")
	}
	switch p.RequireField {
	case DateFieldStatement, DateFieldInterval:
	default:
		return fmt.Errorf("profile %s: unknown require_field %q", p.Name, p.RequireField)
	}
	switch p.OrderBy {
	case DateFieldStatement, DateFieldInterval:
	default:
		return fmt.Errorf("profile %s: unknown order_by %q", p.Name, p.OrderBy)
	}
	switch p.PeriodSource {
	case PeriodFromStatement, PeriodFromUsage, PeriodFromMeter:
	default:
		return fmt.Errorf("profile %s: unknown period_source %q", p.Name, p.PeriodSource)
	}
	if !p.Shift.Valid() {
		return fmt.Errorf("profile %s: unknown shift strategy %q", p.Name, p.Shift)
	}
	if p.ToleranceDays < 0 {
		return fmt.Errorf("profile %s: negative tolerance", p.Name)
	}
	return nil
}

func (p Profile) wantsStatement(account urjanet.Account) bool {
	if p.FilterStatement != nil {
		return p.FilterStatement(account)
	}
	if p.RequireField == DateFieldInterval {
		return account.HasInterval()
	}
	return account.HasStatementDate()
}

func (p Profile) excludesCharge(name string) bool {
	for _, excluded := range p.ExcludedChargeNames {
		if name == excluded {
			return true
		}
	}
	return false
}

func (p Profile) isPeakUnit(unit string) bool {
	for _, u := range p.PeakUnits {
		if u == unit {
			return true
		}
	}
	return false
}
