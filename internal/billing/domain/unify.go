package billing

import (
	"sort"
	"time"
)

// Bill is a billing record as published by one independently time-stamped
// feed. The same real-world period can arrive from several feeds; Published
// decides which version wins.
type Bill struct {
	Published time.Time
	Datum     Datum
}

// UnifyBills merges bill record sets from independent sources into a single
// overlap-free history. Records are ranked by (Published, Start) descending;
// a record is kept only if its period does not overlap any already-kept,
// higher-precedence record. The most recently published version of an
// overlapping period wins. The result is in chronological order by Start.
func UnifyBills(records []Bill) []Bill {
	ranked := make([]Bill, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		if !ranked[i].Published.Equal(ranked[j].Published) {
			return ranked[i].Published.After(ranked[j].Published)
		}
		return ranked[i].Datum.Start.After(ranked[j].Datum.Start)
	})

	var kept []Bill
	for _, record := range ranked {
		conflict := false
		for _, winner := range kept {
			if record.Datum.Overlaps(winner.Datum) {
				conflict = true
				break
			}
		}
		if !conflict {
			kept = append(kept, record)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Datum.Start.Before(kept[j].Datum.Start)
	})
	return kept
}
