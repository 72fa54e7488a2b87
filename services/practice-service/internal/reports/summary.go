// Package reports aggregates appointments for the admin summary screen.
package reports

import (
	"context"
	"time"

	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
)

const maxRangeDays = 366

type Summary struct {
	From             time.Time
	To               time.Time
	Total            int
	ByStatus         map[model.AppointmentStatus]int
	CompletionRate   float64
	NoShowRate       float64
	CancellationRate float64
	Revenue          float64 // completed appointments only
	BookedMinutes    int
	OpenMinutes      int
	Utilization      float64
}

// Summarize aggregates appts whose date falls in [from, to]. Rates are
// fractions of all appointments in range; utilization is booked minutes of
// non-cancelled appointments over open minutes of non-blocked days.
func Summarize(appts []model.Appointment, hours []model.BusinessHours, blocked []model.BlockedDate, from, to time.Time) Summary {
	from, to = model.DateOf(from), model.DateOf(to)
	sum := Summary{From: from, To: to, ByStatus: make(map[model.AppointmentStatus]int, len(model.AllStatuses))}
	for _, st := range model.AllStatuses {
		sum.ByStatus[st] = 0
	}

	for _, a := range appts {
		day := model.DateOf(a.StartsAt)
		if day.Before(from) || day.After(to) {
			continue
		}
		sum.Total++
		sum.ByStatus[a.Status]++
		if a.Status == model.StatusCompleted {
			sum.Revenue += a.Total()
		}
		if a.Blocks() {
			sum.BookedMinutes += a.DurationMinutes
		}
	}
	sum.Revenue = model.RoundCents(sum.Revenue)

	byDay := make(map[time.Weekday]model.BusinessHours, len(hours))
	for _, h := range hours {
		byDay[h.DayOfWeek] = h
	}
	skip := make(map[string]bool, len(blocked))
	for _, b := range blocked {
		skip[model.FormatDate(b.Date)] = true
	}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		h, ok := byDay[d.Weekday()]
		if !ok || !h.IsOpen || skip[model.FormatDate(d)] {
			continue
		}
		sum.OpenMinutes += h.CloseMinute - h.OpenMinute
	}

	if sum.Total > 0 {
		sum.CompletionRate = ratio(sum.ByStatus[model.StatusCompleted], sum.Total)
		sum.NoShowRate = ratio(sum.ByStatus[model.StatusNoShow], sum.Total)
		sum.CancellationRate = ratio(sum.ByStatus[model.StatusCancelled], sum.Total)
	}
	if sum.OpenMinutes > 0 {
		sum.Utilization = ratio(sum.BookedMinutes, sum.OpenMinutes)
	}
	return sum
}

func ratio(n, d int) float64 {
	return float64(int(float64(n)/float64(d)*10000+0.5)) / 10000
}

type AppointmentLister interface {
	ListAppointments(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error)
}

type ScheduleSource interface {
	BusinessHours(ctx context.Context) ([]model.BusinessHours, error)
	ListBlockedDates(ctx context.Context, from time.Time) ([]model.BlockedDate, error)
}

type Service struct {
	appts    AppointmentLister
	schedule ScheduleSource
}

func NewService(appts AppointmentLister, schedule ScheduleSource) *Service {
	return &Service{appts: appts, schedule: schedule}
}

func (s *Service) AppointmentSummary(ctx context.Context, from, to time.Time) (Summary, error) {
	if from.IsZero() || to.IsZero() {
		return Summary{}, apperr.Invalid("from", "from and to are required")
	}
	if to.Before(from) {
		return Summary{}, apperr.Invalid("to", "must not be before from")
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		return Summary{}, apperr.Invalid("to", "range must be at most %d days", maxRangeDays)
	}
	appts, err := s.appts.ListAppointments(ctx, model.AppointmentFilter{From: from, To: to})
	if err != nil {
		return Summary{}, err
	}
	hours, err := s.schedule.BusinessHours(ctx)
	if err != nil {
		return Summary{}, err
	}
	blocked, err := s.schedule.ListBlockedDates(ctx, from)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(appts, hours, blocked, from, to), nil
}
