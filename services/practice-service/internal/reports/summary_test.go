package reports

import (
	"testing"

	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
)

func TestSummarize(t *testing.T) {
	mon, _ := model.ParseDate("2026-03-02")
	tue := mon.AddDate(0, 0, 1)
	sun := mon.AddDate(0, 0, 6)

	appts := []model.Appointment{
		{StartsAt: model.At(mon, 600), DurationMinutes: 60, Status: model.StatusCompleted, ServicePrice: 90, AddonsTotal: 10},
		{StartsAt: model.At(mon, 720), DurationMinutes: 90, Status: model.StatusCompleted, ServicePrice: 120},
		{StartsAt: model.At(tue, 600), DurationMinutes: 60, Status: model.StatusNoShow, ServicePrice: 90},
		{StartsAt: model.At(tue, 720), DurationMinutes: 60, Status: model.StatusCancelled, ServicePrice: 90},
		{StartsAt: model.At(sun.AddDate(0, 0, 1), 600), DurationMinutes: 60, Status: model.StatusCompleted, ServicePrice: 500},
	}
	blocked := []model.BlockedDate{{Date: mon.AddDate(0, 0, 2)}} // Wednesday

	s := Summarize(appts, model.DefaultBusinessHours(), blocked, mon, sun)

	if s.Total != 4 {
		t.Fatalf("expected 4 appointments in range, got %d", s.Total)
	}
	if s.ByStatus[model.StatusCompleted] != 2 || s.ByStatus[model.StatusConfirmed] != 0 {
		t.Fatalf("unexpected status counts %+v", s.ByStatus)
	}
	if s.Revenue != 220 {
		t.Fatalf("expected revenue 220, got %v", s.Revenue)
	}
	if s.CompletionRate != 0.5 || s.NoShowRate != 0.25 || s.CancellationRate != 0.25 {
		t.Fatalf("unexpected rates %v %v %v", s.CompletionRate, s.NoShowRate, s.CancellationRate)
	}
	// Mon, Tue, Thu, Fri open 8h each; Wednesday blocked; weekend closed.
	if s.OpenMinutes != 4*480 {
		t.Fatalf("expected %d open minutes, got %d", 4*480, s.OpenMinutes)
	}
	if s.BookedMinutes != 210 {
		t.Fatalf("expected 210 booked minutes, got %d", s.BookedMinutes)
	}
	if s.Utilization != 0.1094 {
		t.Fatalf("expected utilization 0.1094, got %v", s.Utilization)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	day, _ := model.ParseDate("2026-03-07") // Saturday
	s := Summarize(nil, model.DefaultBusinessHours(), nil, day, day)
	if s.Total != 0 || s.Utilization != 0 || s.CompletionRate != 0 {
		t.Fatalf("expected zero summary, got %+v", s)
	}
}
