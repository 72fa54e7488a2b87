package availability

import (
	"testing"
	"time"
)

func TestAvailableSlots_Basic(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, loc)
	windowStart := time.Date(2026, 1, 28, 9, 0, 0, 0, loc)
	windowEnd := time.Date(2026, 1, 28, 10, 0, 0, 0, loc)

	busy := []Interval{
		{Start: day.Add(9*time.Hour + 15*time.Minute), End: day.Add(9*time.Hour + 45*time.Minute)},
	}

	slots := AvailableSlots(windowStart, windowEnd, 15*time.Minute, 15*time.Minute, 0, busy, day)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !slots[0].Equal(day.Add(9 * time.Hour)) {
		t.Fatalf("expected first slot 09:00, got %s", slots[0].Format(time.RFC3339))
	}
	if !slots[1].Equal(day.Add(9*time.Hour + 45*time.Minute)) {
		t.Fatalf("expected second slot 09:45, got %s", slots[1].Format(time.RFC3339))
	}
}

func TestAvailableSlots_BufferWidensBusy(t *testing.T) {
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	busy := []Interval{{Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)}}

	slots := AvailableSlots(day.Add(9*time.Hour), day.Add(12*time.Hour), 30*time.Minute, 30*time.Minute, 15*time.Minute, busy, day)
	// 09:00 ends 09:30 (+15 = 09:45) is clear; 09:30 ends 10:00 and its buffer reaches 10:15.
	// 11:00 starts inside the trailing buffer; 11:30 is clear.
	want := []time.Duration{9 * time.Hour, 11*time.Hour + 30*time.Minute}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %v", len(want), slots)
	}
	for i, w := range want {
		if !slots[i].Equal(day.Add(w)) {
			t.Fatalf("slot %d: expected %s, got %s", i, day.Add(w), slots[i])
		}
	}
}

func TestAvailableSlots_SkipsPast(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, loc)
	windowStart := day.Add(9 * time.Hour)
	windowEnd := day.Add(10 * time.Hour)

	now := day.Add(9*time.Hour + 31*time.Minute)
	slots := AvailableSlots(windowStart, windowEnd, 15*time.Minute, 15*time.Minute, 0, nil, now)
	// 09:00, 09:15, 09:30 are in the past (start < now). 09:45 is future.
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if !slots[0].Equal(day.Add(9*time.Hour + 45*time.Minute)) {
		t.Fatalf("expected slot 09:45, got %s", slots[0].Format(time.RFC3339))
	}
}

func TestAvailableSlots_MustFinishByClose(t *testing.T) {
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	slots := AvailableSlots(day.Add(16*time.Hour), day.Add(17*time.Hour), 90*time.Minute, 30*time.Minute, 0, nil, day)
	if len(slots) != 0 {
		t.Fatalf("expected no slots for a duration longer than the window, got %v", slots)
	}
}

func TestAvailableSlots_UnsortedOverlappingBusy(t *testing.T) {
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	busy := []Interval{
		{Start: day.Add(13 * time.Hour), End: day.Add(14 * time.Hour)},
		{Start: day.Add(9*time.Hour + 30*time.Minute), End: day.Add(10*time.Hour + 30*time.Minute)},
		{Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)},
	}
	slots := AvailableSlots(day.Add(9*time.Hour), day.Add(15*time.Hour), time.Hour, 30*time.Minute, 0, busy, day)
	want := []time.Duration{11 * time.Hour, 11*time.Hour + 30*time.Minute, 12 * time.Hour, 14 * time.Hour}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %v", len(want), slots)
	}
	for i, w := range want {
		if !slots[i].Equal(day.Add(w)) {
			t.Fatalf("slot %d: expected %s, got %s", i, day.Add(w), slots[i])
		}
	}
}

func TestWidenAndMergeCoalescesTouching(t *testing.T) {
	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	got := widenAndMerge([]Interval{
		{Start: day.Add(11 * time.Hour), End: day.Add(12 * time.Hour)},
		{Start: day.Add(9 * time.Hour), End: day.Add(10*time.Hour + 30*time.Minute)},
	}, 15*time.Minute)
	if len(got) != 1 || !got[0].Start.Equal(day.Add(8*time.Hour+45*time.Minute)) || !got[0].End.Equal(day.Add(12*time.Hour+15*time.Minute)) {
		t.Fatalf("unexpected merge %v", got)
	}
}
