package model

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata" // Location must resolve zones in images without zoneinfo
)

type BusinessHours struct {
	DayOfWeek   time.Weekday
	IsOpen      bool
	OpenMinute  int
	CloseMinute int
}

func (h BusinessHours) Validate() error {
	if h.DayOfWeek < time.Sunday || h.DayOfWeek > time.Saturday {
		return fmt.Errorf("day_of_week must be 0..6")
	}
	if h.OpenMinute < 0 || h.OpenMinute >= MinutesPerDay || h.CloseMinute < 0 || h.CloseMinute > MinutesPerDay {
		return errors.New("open and close must be within the day")
	}
	if h.IsOpen && h.OpenMinute >= h.CloseMinute {
		return errors.New("open time must be before close time")
	}
	return nil
}

// DefaultBusinessHours is Monday to Friday 09:00-17:00, closed weekends.
func DefaultBusinessHours() []BusinessHours {
	out := make([]BusinessHours, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		open := d != time.Sunday && d != time.Saturday
		out = append(out, BusinessHours{DayOfWeek: d, IsOpen: open, OpenMinute: 9 * 60, CloseMinute: 17 * 60})
	}
	return out
}

type BlockedDate struct {
	ID        string
	Date      time.Time
	Reason    string
	CreatedBy string
	CreatedAt time.Time
}

// BookingSettings is stored as JSON under the "booking" settings key.
type BookingSettings struct {
	SlotGranularityMinutes int    `json:"slot_granularity_minutes"`
	MinLeadTimeMinutes     int    `json:"min_lead_time_minutes"`
	BufferMinutes          int    `json:"buffer_minutes"`
	MaxAdvanceDays         int    `json:"max_advance_days"`
	Timezone               string `json:"timezone"`
}

func DefaultBookingSettings() BookingSettings {
	return BookingSettings{
		SlotGranularityMinutes: 30,
		MinLeadTimeMinutes:     120,
		BufferMinutes:          15,
		MaxAdvanceDays:         60,
		Timezone:               "America/New_York",
	}
}

func (s BookingSettings) Validate() error {
	switch {
	case s.SlotGranularityMinutes < 5 || s.SlotGranularityMinutes > 240:
		return errors.New("slot_granularity_minutes must be between 5 and 240")
	case s.MinLeadTimeMinutes < 0:
		return errors.New("min_lead_time_minutes must not be negative")
	case s.BufferMinutes < 0 || s.BufferMinutes > 240:
		return errors.New("buffer_minutes must be between 0 and 240")
	case s.MaxAdvanceDays < 0:
		return errors.New("max_advance_days must not be negative")
	}
	if _, err := s.Location(); err != nil {
		return err
	}
	return nil
}

func (s BookingSettings) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return nil, errors.New("timezone is required")
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q", s.Timezone)
	}
	return loc, nil
}
