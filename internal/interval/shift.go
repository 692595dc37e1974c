package interval

// ShiftStrategy selects how one-day boundary collisions between adjacent
// billing periods are repaired. Which strategy a utility needs is an observed,
// bill-format-specific convention, not a derivable rule.
type ShiftStrategy string

const (
	// StrategyShiftEndpoints pulls the earlier period's end back one day.
	StrategyShiftEndpoints ShiftStrategy = "shift-endpoints"
	// StrategyShiftStart pushes the later period's start forward one day.
	StrategyShiftStart ShiftStrategy = "shift-start"
	// StrategyShiftEnd walks periods latest-first, decrementing ends until
	// they clear the following period's start.
	StrategyShiftEnd ShiftStrategy = "shift-end"
)

// Valid reports whether the strategy is one of the supported values.
func (s ShiftStrategy) Valid() bool {
	switch s {
	case StrategyShiftEndpoints, StrategyShiftStart, StrategyShiftEnd:
		return true
	}
	return false
}

// Apply runs the selected strategy over a tree, returning a corrected copy.
func (s ShiftStrategy) Apply(t *Tree) *Tree {
	switch s {
	case StrategyShiftStart:
		return ShiftEndpointsStart(t)
	case StrategyShiftEnd:
		return ShiftEndpointsEnd(t)
	default:
		return ShiftEndpoints(t)
	}
}

// ShiftEndpoints returns a copy of the tree where, scanning ascending,
// any interval whose end exactly equals the next interval's begin has its end
// pulled back one day. Non-touching intervals are unaffected.
func ShiftEndpoints(t *Tree) *Tree {
	ivs := t.Intervals()
	out := NewTree()
	for i, iv := range ivs {
		if i+1 < len(ivs) && iv.End.Equal(ivs[i+1].Begin) {
			iv.End = iv.End.AddDate(0, 0, -1)
		}
		out.Add(iv.Begin, iv.End, iv.Payload)
	}
	return out
}

// ShiftEndpointsStart is the symmetric repair: scanning descending, any
// interval whose begin exactly equals the previous interval's end has its
// begin pushed forward one day.
func ShiftEndpointsStart(t *Tree) *Tree {
	ivs := t.Intervals()
	out := NewTree()
	for i := len(ivs) - 1; i >= 0; i-- {
		iv := ivs[i]
		if i > 0 && iv.Begin.Equal(ivs[i-1].End) {
			iv.Begin = iv.Begin.AddDate(0, 0, 1)
		}
		out.Add(iv.Begin, iv.End, iv.Payload)
	}
	return out
}

// ShiftEndpointsEnd scans descending and repeatedly decrements an interval's
// end while it reaches into the previously processed (later) interval's
// begin. If decrementing collapses the interval to zero length, its begin is
// decremented as well, keeping at least one day of coverage. Used where
// end-date correction, not start-date, is the utility's convention.
func ShiftEndpointsEnd(t *Tree) *Tree {
	ivs := t.Intervals()
	out := NewTree()
	var laterBegin *Interval
	for i := len(ivs) - 1; i >= 0; i-- {
		iv := ivs[i]
		if laterBegin != nil {
			for !iv.End.Before(laterBegin.Begin) {
				iv.End = iv.End.AddDate(0, 0, -1)
				if !iv.End.After(iv.Begin) {
					iv.Begin = iv.Begin.AddDate(0, 0, -1)
				}
			}
		}
		out.Add(iv.Begin, iv.End, iv.Payload)
		shifted := iv
		laterBegin = &shifted
	}
	return out
}
