package availability

import (
	"errors"
	"testing"
	"time"

	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
)

func utcSettings() *model.BookingSettings {
	s := model.DefaultBookingSettings()
	s.Timezone = "UTC"
	return &s
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

// 2026-03-01 is a Sunday.
var sundayMorning = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func TestOffers(t *testing.T) {
	monday := mustDate(t, "2026-03-02")
	hours := model.DefaultBusinessHours()

	cases := []struct {
		name    string
		day     time.Time
		blocked []model.BlockedDate
		booked  []model.Appointment
		now     time.Time
		first   string
		count   int
	}{
		{name: "open day", day: monday, now: sundayMorning, first: "09:00", count: 15},
		{name: "blocked date", day: monday, blocked: []model.BlockedDate{{ID: "b1", Date: monday}}, now: sundayMorning},
		{name: "closed weekday", day: mustDate(t, "2026-03-08"), now: sundayMorning},
		{name: "past date", day: mustDate(t, "2026-02-27"), now: sundayMorning},
		{name: "beyond max advance", day: mustDate(t, "2026-05-04"), now: sundayMorning},
		{
			name:   "existing appointment with buffer",
			day:    monday,
			booked: []model.Appointment{{StartsAt: model.At(monday, 10*60), DurationMinutes: 60, Status: model.StatusScheduled}},
			now:    sundayMorning,
			first:  "11:30",
			count:  10,
		},
		{
			name:   "cancelled appointment ignored",
			day:    monday,
			booked: []model.Appointment{{StartsAt: model.At(monday, 10*60), DurationMinutes: 60, Status: model.StatusCancelled}},
			now:    sundayMorning,
			first:  "09:00",
			count:  15,
		},
		{
			name:  "lead time today",
			day:   monday,
			now:   time.Date(2026, 3, 2, 10, 10, 0, 0, time.UTC),
			first: "12:30",
			count: 8,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSchedule(hours, tc.blocked, utcSettings())
			slots, err := Offers(s, tc.day, 60, tc.booked, tc.now)
			if err != nil {
				t.Fatalf("Offers: %v", err)
			}
			if len(slots) != tc.count {
				t.Fatalf("expected %d slots, got %d", tc.count, len(slots))
			}
			if tc.count > 0 && model.FormatClock(model.MinuteOfDay(slots[0].Start)) != tc.first {
				t.Fatalf("expected first slot %s, got %s", tc.first, slots[0].Start)
			}
			for i := 1; i < len(slots); i++ {
				if !slots[i-1].Start.Before(slots[i].Start) {
					t.Fatal("slots must be chronological")
				}
			}
		})
	}
}

func TestOffersFailsClosed(t *testing.T) {
	monday := mustDate(t, "2026-03-02")

	_, err := Offers(NewSchedule(model.DefaultBusinessHours(), nil, nil), monday, 60, nil, sundayMorning)
	if !errors.Is(err, apperr.ErrConfigurationUnavailable) {
		t.Fatalf("expected ErrConfigurationUnavailable without settings, got %v", err)
	}

	_, err = Offers(NewSchedule(nil, nil, utcSettings()), monday, 60, nil, sundayMorning)
	if !errors.Is(err, apperr.ErrConfigurationUnavailable) {
		t.Fatalf("expected ErrConfigurationUnavailable without hours, got %v", err)
	}

	broken := utcSettings()
	broken.SlotGranularityMinutes = 0
	_, err = Offers(NewSchedule(model.DefaultBusinessHours(), nil, broken), monday, 60, nil, sundayMorning)
	if !errors.Is(err, apperr.ErrConfigurationUnavailable) {
		t.Fatalf("expected ErrConfigurationUnavailable for invalid settings, got %v", err)
	}
}

func TestOffersUnlimitedAdvance(t *testing.T) {
	settings := utcSettings()
	settings.MaxAdvanceDays = 0
	far := mustDate(t, "2027-03-01") // Monday
	slots, err := Offers(NewSchedule(model.DefaultBusinessHours(), nil, settings), far, 60, nil, sundayMorning)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) == 0 {
		t.Fatal("expected slots with unlimited advance window")
	}
}
