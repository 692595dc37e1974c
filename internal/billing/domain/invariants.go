package billing

import "sort"

// IsContiguous reports whether, sorted by start date, each period starts
// exactly one day after the previous period ends: no gaps, no overlaps.
func IsContiguous(bills []Datum) bool {
	sorted := sortedByStart(bills)
	for i := 1; i < len(sorted); i++ {
		if !sorted[i].Start.Equal(sorted[i-1].End.AddDate(0, 0, 1)) {
			return false
		}
	}
	return true
}

// IsWithoutOverlaps is the relaxed invariant: gaps are permitted, but no two
// periods may claim the same day.
func IsWithoutOverlaps(bills []Datum) bool {
	sorted := sortedByStart(bills)
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start.After(sorted[i-1].End) {
			continue
		}
		return false
	}
	return true
}

// AssertContiguous returns ErrNonContiguousBillingRange unless the history
// chains with zero-day gaps.
func AssertContiguous(bills []Datum) error {
	if !IsContiguous(bills) {
		return ErrNonContiguousBillingRange
	}
	return nil
}

// AssertWithoutOverlaps returns ErrOverlappedBillingRange if any two periods
// overlap. Callers that tolerate gaps but never overlaps use this alone.
func AssertWithoutOverlaps(bills []Datum) error {
	if !IsWithoutOverlaps(bills) {
		return ErrOverlappedBillingRange
	}
	return nil
}

func sortedByStart(bills []Datum) []Datum {
	sorted := make([]Datum, len(bills))
	copy(sorted, bills)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	return sorted
}
