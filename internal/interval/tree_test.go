package interval

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddKeepsIntervalsSorted(t *testing.T) {
	tree := NewTree()
	tree.Add(date(2019, 3, 1), date(2019, 4, 1), "b")
	tree.Add(date(2019, 1, 1), date(2019, 2, 1), "a")
	tree.Add(date(2019, 5, 1), date(2019, 6, 1), "c")

	ivs := tree.Intervals()
	if len(ivs) != 3 {
		t.Fatalf("got %d intervals, want 3", len(ivs))
	}
	want := []string{"a", "b", "c"}
	for i, iv := range ivs {
		if iv.Payload.(string) != want[i] {
			t.Fatalf("interval %d: got payload %v, want %s", i, iv.Payload, want[i])
		}
	}
}

func TestOverlaps(t *testing.T) {
	tree := NewTree()
	tree.Add(date(2019, 1, 1), date(2019, 2, 1), nil)

	tests := []struct {
		begin, end time.Time
		strict     bool
		want       bool
	}{
		{date(2019, 1, 15), date(2019, 1, 20), true, true},
		{date(2018, 12, 1), date(2019, 1, 2), true, true},
		{date(2019, 2, 1), date(2019, 3, 1), true, false},
		{date(2019, 2, 2), date(2019, 3, 1), true, false},
		// Non-strict extends the query end by one day, so a query ending the
		// day before the stored begin now touches it.
		{date(2018, 12, 1), date(2019, 1, 1), false, true},
		{date(2018, 12, 1), date(2019, 1, 1), true, false},
		{date(2018, 12, 1), date(2018, 12, 30), false, false},
	}
	for i, tc := range tests {
		if got := tree.Overlaps(tc.begin, tc.end, tc.strict); got != tc.want {
			t.Fatalf("case %d: overlaps(%s, %s, strict=%v) = %v, want %v",
				i, tc.begin.Format("2006-01-02"), tc.end.Format("2006-01-02"), tc.strict, got, tc.want)
		}
	}
}

func TestPointQuery(t *testing.T) {
	tree := NewTree()
	tree.Add(date(2019, 1, 1), date(2019, 2, 1), "jan")
	tree.Add(date(2019, 1, 20), date(2019, 2, 20), "overlap")

	hits := tree.PointQuery(date(2019, 1, 25))
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	hits = tree.PointQuery(date(2019, 2, 1))
	if len(hits) != 1 || hits[0].Payload.(string) != "overlap" {
		t.Fatalf("end date is exclusive: got %v", hits)
	}
	if hits := tree.PointQuery(date(2019, 3, 1)); hits != nil {
		t.Fatalf("expected no hits, got %v", hits)
	}
}

func TestRangeQuery(t *testing.T) {
	tree := NewTree()
	tree.Add(date(2019, 1, 1), date(2019, 2, 1), "jan")
	tree.Add(date(2019, 2, 1), date(2019, 3, 1), "feb")
	tree.Add(date(2019, 3, 1), date(2019, 4, 1), "mar")

	hits := tree.RangeQuery(date(2019, 1, 15), date(2019, 2, 15))
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Payload.(string) != "jan" || hits[1].Payload.(string) != "feb" {
		t.Fatalf("unexpected payloads: %v, %v", hits[0].Payload, hits[1].Payload)
	}
}

func TestMergeOverlaps(t *testing.T) {
	concat := func(a, b any) any { return a.(string) + b.(string) }

	tree := NewTree()
	tree.Add(date(2019, 1, 1), date(2019, 1, 10), "a")
	tree.Add(date(2019, 1, 5), date(2019, 1, 20), "b")
	tree.Add(date(2019, 2, 1), date(2019, 2, 10), "c")
	tree.MergeOverlaps(concat, true)

	ivs := tree.Intervals()
	if len(ivs) != 2 {
		t.Fatalf("got %d intervals, want 2", len(ivs))
	}
	if ivs[0].Payload.(string) != "ab" || !ivs[0].End.Equal(date(2019, 1, 20)) {
		t.Fatalf("bad merged interval: %+v", ivs[0])
	}
}

func TestMergeOverlapsNonStrictMergesTouching(t *testing.T) {
	concat := func(a, b any) any { return a.(string) + b.(string) }

	tree := NewTree()
	tree.Add(date(2019, 1, 1), date(2019, 1, 10), "a")
	tree.Add(date(2019, 1, 10), date(2019, 1, 20), "b")

	strict := NewTree()
	strict.Add(date(2019, 1, 1), date(2019, 1, 10), "a")
	strict.Add(date(2019, 1, 10), date(2019, 1, 20), "b")
	strict.MergeOverlaps(concat, true)
	if strict.Len() != 2 {
		t.Fatalf("strict merge coalesced touching intervals: %d", strict.Len())
	}

	tree.MergeOverlaps(concat, false)
	if tree.Len() != 1 {
		t.Fatalf("non-strict merge kept %d intervals, want 1", tree.Len())
	}
}

func TestShiftEndpoints(t *testing.T) {
	tree := NewTree()
	tree.Add(date(2019, 1, 1), date(2019, 2, 1), "a")
	tree.Add(date(2019, 2, 1), date(2019, 3, 1), "b")
	tree.Add(date(2019, 4, 1), date(2019, 5, 1), "c")

	shifted := ShiftEndpoints(tree)
	ivs := shifted.Intervals()
	if !ivs[0].End.Equal(date(2019, 1, 31)) {
		t.Fatalf("touching interval end not pulled back: %s", ivs[0].End)
	}
	if !ivs[1].Begin.Equal(date(2019, 2, 1)) || !ivs[1].End.Equal(date(2019, 3, 1)) {
		t.Fatalf("second interval changed: %+v", ivs[1])
	}
	if !ivs[2].Begin.Equal(date(2019, 4, 1)) || !ivs[2].End.Equal(date(2019, 5, 1)) {
		t.Fatalf("non-touching interval changed: %+v", ivs[2])
	}
	// Input untouched.
	if !tree.Intervals()[0].End.Equal(date(2019, 2, 1)) {
		t.Fatal("input tree mutated")
	}
}

func TestShiftEndpointsStart(t *testing.T) {
	tree := NewTree()
	tree.Add(date(2019, 1, 1), date(2019, 2, 1), "a")
	tree.Add(date(2019, 2, 1), date(2019, 3, 1), "b")

	shifted := ShiftEndpointsStart(tree)
	ivs := shifted.Intervals()
	if !ivs[0].Begin.Equal(date(2019, 1, 1)) || !ivs[0].End.Equal(date(2019, 2, 1)) {
		t.Fatalf("first interval changed: %+v", ivs[0])
	}
	if !ivs[1].Begin.Equal(date(2019, 2, 2)) {
		t.Fatalf("touching interval begin not pushed forward: %s", ivs[1].Begin)
	}
}

func TestShiftEndpointsEnd(t *testing.T) {
	tree := NewTree()
	tree.Add(date(2019, 1, 1), date(2019, 2, 2), "a")
	tree.Add(date(2019, 2, 1), date(2019, 3, 1), "b")

	shifted := ShiftEndpointsEnd(tree)
	ivs := shifted.Intervals()
	if !ivs[1].Begin.Equal(date(2019, 2, 1)) || !ivs[1].End.Equal(date(2019, 3, 1)) {
		t.Fatalf("later interval changed: %+v", ivs[1])
	}
	if !ivs[0].End.Equal(date(2019, 1, 31)) {
		t.Fatalf("earlier end not decremented clear of later begin: %s", ivs[0].End)
	}
}

func TestShiftEndpointsEndCollapsedIntervalKeepsOneDay(t *testing.T) {
	tree := NewTree()
	tree.Add(date(2019, 1, 31), date(2019, 2, 1), "a")
	tree.Add(date(2019, 1, 31), date(2019, 3, 1), "b")

	shifted := ShiftEndpointsEnd(tree)
	for _, iv := range shifted.Intervals() {
		if !iv.Begin.Before(iv.End) {
			t.Fatalf("interval collapsed to zero length: %+v", iv)
		}
	}
}

func TestOverlapDays(t *testing.T) {
	iv := Interval{Begin: date(2019, 1, 10), End: date(2019, 1, 20)}
	if got := iv.OverlapDays(date(2019, 1, 15), date(2019, 1, 25)); got != 5 {
		t.Fatalf("got %d overlap days, want 5", got)
	}
	if got := iv.OverlapDays(date(2019, 1, 20), date(2019, 1, 25)); got != 0 {
		t.Fatalf("got %d overlap days, want 0", got)
	}
}
