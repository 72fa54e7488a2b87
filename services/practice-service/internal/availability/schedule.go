// Package availability computes bookable start times. It is pure: callers
// load the practice's hours, blocked dates and settings into a Schedule and
// pass in the appointments already on the calendar.
package availability

import (
	"time"

	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
)

type Schedule struct {
	Hours    map[time.Weekday]model.BusinessHours
	Blocked  map[string]model.BlockedDate // keyed by YYYY-MM-DD
	Settings *model.BookingSettings
}

func NewSchedule(hours []model.BusinessHours, blocked []model.BlockedDate, settings *model.BookingSettings) Schedule {
	s := Schedule{
		Hours:    make(map[time.Weekday]model.BusinessHours, len(hours)),
		Blocked:  make(map[string]model.BlockedDate, len(blocked)),
		Settings: settings,
	}
	for _, h := range hours {
		s.Hours[h.DayOfWeek] = h
	}
	for _, b := range blocked {
		s.Blocked[model.FormatDate(b.Date)] = b
	}
	return s
}

type Slot struct {
	Start           time.Time
	DurationMinutes int
}

func (s Slot) End() time.Time { return s.Start.Add(time.Duration(s.DurationMinutes) * time.Minute) }

// Offers returns the bookable slots on day, in chronological order. It fails
// with ErrConfigurationUnavailable when the settings or the hours for the
// day's weekday are missing or unusable.
func Offers(s Schedule, day time.Time, durationMinutes int, booked []model.Appointment, now time.Time) ([]Slot, error) {
	day = model.DateOf(day)
	if s.Settings == nil {
		return nil, apperr.Unavailable("booking settings not loaded", nil)
	}
	if err := s.Settings.Validate(); err != nil {
		return nil, apperr.Unavailable("booking settings invalid", err)
	}
	hours, ok := s.Hours[day.Weekday()]
	if !ok {
		return nil, apperr.Unavailable("business hours not configured for "+day.Weekday().String(), nil)
	}
	if err := hours.Validate(); err != nil {
		return nil, apperr.Unavailable("business hours invalid", err)
	}
	if durationMinutes <= 0 {
		return nil, nil
	}

	loc, _ := s.Settings.Location()
	local := model.WallClock(now, loc)
	today := model.DateOf(local)
	if day.Before(today) {
		return nil, nil
	}
	if s.Settings.MaxAdvanceDays > 0 && day.After(today.AddDate(0, 0, s.Settings.MaxAdvanceDays)) {
		return nil, nil
	}
	if _, blocked := s.Blocked[model.FormatDate(day)]; blocked {
		return nil, nil
	}
	if !hours.IsOpen {
		return nil, nil
	}

	next := day.AddDate(0, 0, 1)
	busy := make([]Interval, 0, len(booked))
	for _, a := range booked {
		if !a.Blocks() || !a.StartsAt.Before(next) || !a.EndsAt().After(day) {
			continue
		}
		busy = append(busy, Interval{Start: a.StartsAt, End: a.EndsAt()})
	}

	starts := AvailableSlots(
		model.At(day, hours.OpenMinute),
		model.At(day, hours.CloseMinute),
		time.Duration(durationMinutes)*time.Minute,
		time.Duration(s.Settings.SlotGranularityMinutes)*time.Minute,
		time.Duration(s.Settings.BufferMinutes)*time.Minute,
		busy,
		local.Add(time.Duration(s.Settings.MinLeadTimeMinutes)*time.Minute),
	)
	slots := make([]Slot, 0, len(starts))
	for _, st := range starts {
		slots = append(slots, Slot{Start: st, DurationMinutes: durationMinutes})
	}
	return slots, nil
}

// Offered reports whether start is one of the slots Offers would return.
func Offered(slots []Slot, start time.Time) bool {
	for _, s := range slots {
		if s.Start.Equal(start) {
			return true
		}
	}
	return false
}
