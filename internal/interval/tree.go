// Package interval indexes half-open calendar-date ranges and provides the
// endpoint-shifting transformations used to remove one-day boundary overlaps
// introduced by inclusive-date billing conventions.
package interval

import (
	"sort"
	"time"
)

// Interval is a half-open [Begin, End) date range with an opaque payload.
type Interval struct {
	Begin   time.Time
	End     time.Time
	Payload any
}

// Days returns the interval length in whole days.
func (iv Interval) Days() int {
	return int(iv.End.Sub(iv.Begin).Hours() / 24)
}

// Contains reports whether the interval contains the date.
func (iv Interval) Contains(date time.Time) bool {
	date = Day(date)
	return !date.Before(iv.Begin) && date.Before(iv.End)
}

// Intersects reports whether the interval intersects [begin, end).
func (iv Interval) Intersects(begin, end time.Time) bool {
	return iv.Begin.Before(end) && begin.Before(iv.End)
}

// OverlapDays returns the number of days shared with [begin, end).
func (iv Interval) OverlapDays(begin, end time.Time) int {
	lo := iv.Begin
	if begin.After(lo) {
		lo = begin
	}
	hi := iv.End
	if end.Before(hi) {
		hi = end
	}
	if !lo.Before(hi) {
		return 0
	}
	return int(hi.Sub(lo).Hours() / 24)
}

// Tree is an interval index over calendar dates. Dates are normalized to UTC
// midnight on insertion; queries are O(n) over a sorted slice, which is ample
// for the dozens of billing periods a meter accumulates.
type Tree struct {
	intervals []Interval
}

// NewTree constructs an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

// Day normalizes a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Add inserts [begin, end) with an attached payload. Zero-length and inverted
// ranges are stored as given; callers validate their own inputs.
func (t *Tree) Add(begin, end time.Time, payload any) {
	iv := Interval{Begin: Day(begin), End: Day(end), Payload: payload}
	idx := sort.Search(len(t.intervals), func(i int) bool {
		if t.intervals[i].Begin.Equal(iv.Begin) {
			return !t.intervals[i].End.Before(iv.End)
		}
		return t.intervals[i].Begin.After(iv.Begin)
	})
	t.intervals = append(t.intervals, Interval{})
	copy(t.intervals[idx+1:], t.intervals[idx:])
	t.intervals[idx] = iv
}

// Len returns the number of stored intervals.
func (t *Tree) Len() int { return len(t.intervals) }

// Intervals returns the stored intervals sorted ascending by begin date.
func (t *Tree) Intervals() []Interval {
	out := make([]Interval, len(t.intervals))
	copy(out, t.intervals)
	return out
}

// Overlaps reports whether any stored interval intersects [begin, end).
// When strict is false a single-day touch counts as an overlap too: the query
// end is extended by one day, matching utilities whose inclusive end date
// doubles as the next period's start.
func (t *Tree) Overlaps(begin, end time.Time, strict bool) bool {
	begin, end = Day(begin), Day(end)
	if !strict {
		end = end.AddDate(0, 0, 1)
	}
	for _, iv := range t.intervals {
		if iv.Intersects(begin, end) {
			return true
		}
	}
	return false
}

// PointQuery returns every interval containing the date. More than one match
// is possible mid-reconciliation, before overlaps are resolved.
func (t *Tree) PointQuery(date time.Time) []Interval {
	var out []Interval
	for _, iv := range t.intervals {
		if iv.Contains(date) {
			out = append(out, iv)
		}
	}
	return out
}

// RangeQuery returns every interval intersecting [begin, end).
func (t *Tree) RangeQuery(begin, end time.Time) []Interval {
	begin, end = Day(begin), Day(end)
	var out []Interval
	for _, iv := range t.intervals {
		if iv.Intersects(begin, end) {
			out = append(out, iv)
		}
	}
	return out
}

// MergeOverlaps coalesces overlapping intervals, combining payloads through
// reducer. When strict is false, intervals that merely touch are merged too.
func (t *Tree) MergeOverlaps(reducer func(a, b any) any, strict bool) {
	if len(t.intervals) < 2 {
		return
	}
	merged := []Interval{t.intervals[0]}
	for _, iv := range t.intervals[1:] {
		last := &merged[len(merged)-1]
		boundary := last.End
		if !strict {
			boundary = boundary.AddDate(0, 0, 1)
		}
		if iv.Begin.Before(boundary) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			last.Payload = reducer(last.Payload, iv.Payload)
			continue
		}
		merged = append(merged, iv)
	}
	t.intervals = merged
}
