package application

import (
	"strings"

	"meterdata-cloud/internal/interval"
	urjanet "meterdata-cloud/internal/urjanet/domain"
)

// Built-in utility profiles. Each encodes an observed billing convention,
// reverse-engineered from that utility's bill format; treat every entry as a
// tested fixture, not a rule to generalize from.
func builtinProfiles() map[string]Profile {
	profiles := map[string]Profile{}

	add := func(p Profile) { profiles[p.Name] = p }

	add(DefaultProfile())

	// Statement-level dates include summer/winter rate-split artifacts, so
	// periods come from the union of usage intervals. Adjacent periods touch;
	// the later period's start moves.
	austin := DefaultProfile()
	austin.Name = "austin-energy"
	austin.PeriodSource = PeriodFromUsage
	austin.Shift = interval.StrategyShiftStart
	add(austin)

	// Meter intervals are authoritative; statements only carry a mailing
	// date. End-date correction is this utility's convention.
	ladwp := DefaultProfile()
	ladwp.Name = "ladwp"
	ladwp.RequireField = DateFieldInterval
	ladwp.OrderBy = DateFieldInterval
	ladwp.PeriodSource = PeriodFromMeter
	ladwp.Shift = interval.StrategyShiftEnd
	add(ladwp)

	// Water utility billing in thousand-gallon units. Inclusive end dates
	// double as the next period's start; stored half-open the periods merely
	// touch, so the strict skeleton check keeps them all and the endpoint
	// shift settles the shared boundary day. Water meters report no demand.
	sfpuc := DefaultProfile()
	sfpuc.Name = "sfpuc-water"
	sfpuc.PeakUnits = nil
	add(sfpuc)

	// Net-metering true-ups arrive as named credit reversals that re-state
	// prior-year generation; they never count toward a period.
	pse := DefaultProfile()
	pse.Name = "pse"
	pse.ExcludedChargeNames = []string{
		"Net Metering Credit Reversal",
		"Annual Net Metering True-Up",
	}
	pse.IncludeFloatingCharge = func(charge urjanet.Charge) bool {
		// Statement-level late fees and deposits are balance activity, not
		// period charges.
		name := strings.ToLower(charge.ChargeActualName)
		return !strings.Contains(name, "late payment") && !strings.Contains(name, "deposit")
	}
	add(pse)

	return profiles
}
