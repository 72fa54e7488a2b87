package availability

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// AvailableSlots returns the starts in [windowStart, windowEnd), stepping by
// step, for which a booking of length duration fits before windowEnd and
// stays at least buffer away from every busy interval. Starts before earliest
// are skipped. All times must share one location.
func AvailableSlots(windowStart, windowEnd time.Time, duration, step, buffer time.Duration, busy []Interval, earliest time.Time) []time.Time {
	if duration <= 0 || step <= 0 || buffer < 0 {
		return nil
	}
	if windowStart.Add(duration).After(windowEnd) {
		return nil
	}

	blocked := widenAndMerge(busy, buffer)
	var slots []time.Time
	next := 0
	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(step) {
		// blocked is sorted and disjoint, so anything ending by t is behind us.
		for next < len(blocked) && !blocked[next].End.After(t) {
			next++
		}
		if t.Before(earliest) {
			continue
		}
		if next < len(blocked) && blocked[next].Start.Before(t.Add(duration)) {
			continue
		}
		slots = append(slots, t)
	}
	return slots
}

// widenAndMerge grows each interval by buffer on both sides and coalesces the
// ones that touch or overlap, returning them sorted by start.
func widenAndMerge(busy []Interval, buffer time.Duration) []Interval {
	out := make([]Interval, 0, len(busy))
	for _, b := range busy {
		out = append(out, Interval{Start: b.Start.Add(-buffer), End: b.End.Add(buffer)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })

	merged := out[:0]
	for _, b := range out {
		if n := len(merged); n > 0 && !b.Start.After(merged[n-1].End) {
			if b.End.After(merged[n-1].End) {
				merged[n-1].End = b.End
			}
			continue
		}
		merged = append(merged, b)
	}
	return merged
}
