package timeline

import (
	"sort"
	"time"
)

const minutesPerDay = 24 * 60

const dayLayout = "2006-01-02"

// Timeline accumulates sparse interval readings into a gap-filled,
// fixed-cadence per-day series. Every day between the start and end dates
// (inclusive) holds exactly 1440/intervalMinutes slots, pre-populated empty.
//
// Inserts outside the configured range are silently ignored; widening the
// range is an explicit, separate operation (Extend) that never loses data.
type Timeline struct {
	start    time.Time
	end      time.Time
	interval int
	days     map[string]map[int]*float64
}

// New constructs a Timeline covering [start, end] inclusive, rounded to whole
// days, with every slot empty. intervalMinutes must evenly divide 1440.
func New(start, end time.Time, intervalMinutes int) (*Timeline, error) {
	if intervalMinutes <= 0 || minutesPerDay%intervalMinutes != 0 {
		return nil, ErrInvalidInterval
	}
	start = truncateDay(start)
	end = truncateDay(end)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}
	tl := &Timeline{
		start:    start,
		end:      end,
		interval: intervalMinutes,
		days:     make(map[string]map[int]*float64),
	}
	tl.populate(start, end)
	return tl, nil
}

// Start returns the first covered day.
func (tl *Timeline) Start() time.Time { return tl.start }

// End returns the last covered day.
func (tl *Timeline) End() time.Time { return tl.end }

// IntervalMinutes returns the slot duration.
func (tl *Timeline) IntervalMinutes() int { return tl.interval }

// SlotsPerDay returns the expected slot count per day.
func (tl *Timeline) SlotsPerDay() int { return minutesPerDay / tl.interval }

// Insert records a value at the slot containing t. Timestamps whose date falls
// outside the configured range are ignored; callers may feed readings from
// wider source ranges without pre-filtering.
func (tl *Timeline) Insert(t time.Time, value float64) {
	day := truncateDay(t)
	if day.Before(tl.start) || day.After(tl.end) {
		return
	}
	slots := tl.days[day.Format(dayLayout)]
	if slots == nil {
		return
	}
	slots[tl.slotIndex(t)] = &value
}

// Lookup returns the value at the slot containing t, or nil both when t is
// outside the configured range and when the slot is unset.
func (tl *Timeline) Lookup(t time.Time) *float64 {
	day := truncateDay(t)
	if day.Before(tl.start) || day.After(tl.end) {
		return nil
	}
	slots := tl.days[day.Format(dayLayout)]
	if slots == nil {
		return nil
	}
	return slots[tl.slotIndex(t)]
}

// Extend widens the covered range. New days are pre-populated empty; days
// already covered are untouched, so widening never loses data. The range
// never shrinks.
func (tl *Timeline) Extend(newStart, newEnd time.Time) {
	newStart = truncateDay(newStart)
	newEnd = truncateDay(newEnd)
	if newStart.Before(tl.start) {
		tl.populate(newStart, tl.start.AddDate(0, 0, -1))
		tl.start = newStart
	}
	if newEnd.After(tl.end) {
		tl.populate(tl.end.AddDate(0, 0, 1), newEnd)
		tl.end = newEnd
	}
}

// Serialize emits the series as a "YYYY-MM-DD" → slot-value mapping, each day
// an ordered list of 1440/intervalMinutes values with nil for empty slots.
// ISO date keys sort chronologically, so JSON encoding preserves day order.
// When includeEmpty is false, days with no set slot are omitted.
//
// A day whose slot population does not match the expected count yields a
// *SerializationError; inconsistent state is never silently coerced into
// malformed output.
func (tl *Timeline) Serialize(includeEmpty bool) (map[string][]*float64, error) {
	expected := tl.SlotsPerDay()
	out := make(map[string][]*float64, len(tl.days))
	for _, key := range tl.sortedDays() {
		slots := tl.days[key]
		if len(slots) != expected {
			return nil, &SerializationError{Day: key, Expected: expected, Actual: len(slots)}
		}
		values := make([]*float64, expected)
		populated := false
		for i := 0; i < expected; i++ {
			if v := slots[i]; v != nil {
				value := *v
				values[i] = &value
				populated = true
			}
		}
		if populated || includeEmpty {
			out[key] = values
		}
	}
	return out, nil
}

// RemoveSlot deletes a single slot entry outright, breaking the per-day
// population invariant. It exists for tests exercising the serialization
// consistency check.
func (tl *Timeline) RemoveSlot(day time.Time, slot int) {
	key := truncateDay(day).Format(dayLayout)
	if slots, ok := tl.days[key]; ok {
		delete(slots, slot)
	}
}

func (tl *Timeline) populate(from, to time.Time) {
	slotsPerDay := tl.SlotsPerDay()
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format(dayLayout)
		if _, ok := tl.days[key]; ok {
			continue
		}
		slots := make(map[int]*float64, slotsPerDay)
		for i := 0; i < slotsPerDay; i++ {
			slots[i] = nil
		}
		tl.days[key] = slots
	}
}

func (tl *Timeline) slotIndex(t time.Time) int {
	return (t.Hour()*60 + t.Minute()) / tl.interval
}

func (tl *Timeline) sortedDays() []string {
	keys := make([]string, 0, len(tl.days))
	for key := range tl.days {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
