package billing

// AdjustBillDates nudges overlapping or abutting periods' start dates forward
// until no two periods in the result overlap. Periods are processed sorted by
// start ascending; whenever one overlaps or abuts (start == other end) an
// already-accepted period, its start moves to the day after that period's
// end. Original end dates are always preserved.
//
// This is the standalone equivalent of the reconciliation engine's endpoint
// shift, for scrapers that assemble billing records directly and need the
// same non-overlap guarantee.
func AdjustBillDates(bills []Datum) []Datum {
	sorted := sortedByStart(bills)
	adjusted := make([]Datum, 0, len(sorted))
	for _, bill := range sorted {
		for _, accepted := range adjusted {
			if bill.Overlaps(accepted) || bill.Start.Equal(accepted.End) {
				next := accepted.End.AddDate(0, 0, 1)
				if next.After(bill.Start) {
					bill.Start = next
				}
			}
		}
		adjusted = append(adjusted, bill)
	}
	return adjusted
}
