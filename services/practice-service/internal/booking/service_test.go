package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/services/practice-service/internal/catalog"
	"github.com/stillwater-massage/practice/services/practice-service/internal/customers"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
	"github.com/stillwater-massage/practice/services/practice-service/internal/outbox"
	"github.com/stillwater-massage/practice/services/practice-service/internal/settings"
	"github.com/stillwater-massage/practice/services/practice-service/internal/storage/memory"
)

type fixture struct {
	store    *memory.Store
	svc      *Service
	catalog  *catalog.Service
	settings *settings.Service
	pkg      model.Offering
	addon    model.Offering
}

// Sunday 2026-03-01 08:00 UTC; the practice runs on UTC in tests.
var testNow = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewSeeded()
	set := settings.NewService(store)
	tz, buffer := "UTC", 30
	if _, err := set.UpdateBookingSettings(ctx, settings.BookingSettingsPatch{Timezone: &tz, BufferMinutes: &buffer}); err != nil {
		t.Fatal(err)
	}
	cat := catalog.NewService(store)
	pkg, err := cat.Create(ctx, catalog.OfferingInput{Kind: model.KindPackage, Name: "Swedish 60", DurationMinutes: 60, BasePrice: 100, DiscountPercentage: 20, IsActive: true})
	if err != nil {
		t.Fatal(err)
	}
	addon, err := cat.Create(ctx, catalog.OfferingInput{Kind: model.KindAddon, Name: "Hot Stones", DurationMinutes: 15, BasePrice: 25, IsActive: true})
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(store, set, cat, customers.NewService(store), logger).WithClock(func() time.Time { return testNow })
	return &fixture{store: store, svc: svc, catalog: cat, settings: set, pkg: pkg, addon: addon}
}

func (f *fixture) input(date, clock string) CreateAppointmentInput {
	return CreateAppointmentInput{
		CustomerName:  "Grace Hopper",
		CustomerEmail: "grace@example.com",
		ServiceID:     f.pkg.ID,
		Date:          date,
		Time:          clock,
		CreatedBy:     model.ActorAdmin,
	}
}

func TestCreateAppointmentSnapshotsCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := f.input("2026-03-02", "10:00")
	in.AddonIDs = []string{f.addon.ID, f.addon.ID}
	appt, err := f.svc.CreateAppointment(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if appt.ServicePrice != 80 || appt.AddonsTotal != 25 || appt.DurationMinutes != 75 {
		t.Fatalf("unexpected snapshot %+v", appt)
	}
	if len(appt.AddonIDs) != 1 {
		t.Fatalf("duplicate add-ons must collapse, got %v", appt.AddonIDs)
	}

	newName := "Swedish Deluxe"
	newPrice := 200.0
	if _, err := f.catalog.Update(ctx, f.pkg.ID, catalog.OfferingPatch{Name: &newName, BasePrice: &newPrice}); err != nil {
		t.Fatal(err)
	}
	if err := f.catalog.Delete(ctx, f.addon.ID); err != nil {
		t.Fatal(err)
	}
	got, err := f.svc.GetAppointment(ctx, appt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ServiceName != "Swedish 60" || got.ServicePrice != 80 || got.AddonsTotal != 25 {
		t.Fatalf("catalog change leaked into appointment: %+v", got)
	}

	events := f.store.Events()
	if len(events) != 1 || events[0].EventType != outbox.AppointmentBooked {
		t.Fatalf("expected one booked event, got %+v", events)
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		mod   func(*CreateAppointmentInput)
		field string
	}{
		{"missing name", func(in *CreateAppointmentInput) { in.CustomerName = "" }, "customer_name"},
		{"no contact", func(in *CreateAppointmentInput) { in.CustomerEmail = "" }, "customer_email"},
		{"bad email", func(in *CreateAppointmentInput) { in.CustomerEmail = "not-an-email" }, "customer_email"},
		{"unknown service", func(in *CreateAppointmentInput) { in.ServiceID = "nope" }, "service_id"},
		{"bad date", func(in *CreateAppointmentInput) { in.Date = "03/02/2026" }, "date"},
		{"bad time", func(in *CreateAppointmentInput) { in.Time = "10am" }, "time"},
		{"too short", func(in *CreateAppointmentInput) { in.DurationMinutes = 10 }, "duration_minutes"},
		{"too long", func(in *CreateAppointmentInput) { in.DurationMinutes = 481 }, "duration_minutes"},
		{"addon as service", func(in *CreateAppointmentInput) { in.ServiceID = f.addon.ID }, "service_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := f.input("2026-03-02", "10:00")
			tc.mod(&in)
			_, err := f.svc.CreateAppointment(ctx, in)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := apperr.FieldOf(err); got != tc.field {
				t.Fatalf("expected field %s, got %s", tc.field, got)
			}
		})
	}
}

func TestCreateInsideExistingConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.CreateAppointment(ctx, f.input("2026-03-02", "10:00")); err != nil {
		t.Fatal(err)
	}
	_, err := f.svc.CreateAppointment(ctx, f.input("2026-03-02", "10:30"))
	if !errors.Is(err, apperr.ErrSlotConflict) {
		t.Fatalf("expected slot conflict, got %v", err)
	}
	if _, err := f.svc.CreateAppointment(ctx, f.input("2026-03-02", "11:00")); err != nil {
		t.Fatalf("back-to-back booking must succeed: %v", err)
	}
}

func TestConcurrentCreateExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateAppointment(ctx, f.input("2026-03-03", "14:00"))
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperr.ErrSlotConflict):
			conflict++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 || conflict != 1 {
		t.Fatalf("expected one success and one conflict, got %d/%d", ok, conflict)
	}
}

func TestUpdateAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, _ := f.svc.CreateAppointment(ctx, f.input("2026-03-02", "10:00"))
	b, _ := f.svc.CreateAppointment(ctx, f.input("2026-03-02", "12:00"))

	clash := "10:30"
	if _, err := f.svc.UpdateAppointment(ctx, b.ID, AppointmentPatch{Time: &clash}); !errors.Is(err, apperr.ErrSlotConflict) {
		t.Fatalf("expected conflict moving onto another appointment, got %v", err)
	}

	longer := 90
	moved, err := f.svc.UpdateAppointment(ctx, a.ID, AppointmentPatch{DurationMinutes: &longer})
	if err != nil || moved.DurationMinutes != 90 {
		t.Fatalf("extending in place must not conflict with itself: %v", err)
	}

	confirmed := model.StatusConfirmed
	if _, err := f.svc.UpdateAppointment(ctx, a.ID, AppointmentPatch{Status: &confirmed}); err != nil {
		t.Fatal(err)
	}
	cancelled := model.StatusCancelled
	if _, err := f.svc.UpdateAppointment(ctx, a.ID, AppointmentPatch{Status: &cancelled}); err != nil {
		t.Fatal(err)
	}
	scheduled := model.StatusScheduled
	if _, err := f.svc.UpdateAppointment(ctx, a.ID, AppointmentPatch{Status: &scheduled}); apperr.FieldOf(err) != "status" {
		t.Fatalf("cancelled is terminal, got %v", err)
	}

	if _, err := f.svc.UpdateAppointment(ctx, b.ID, AppointmentPatch{Time: &clash}); err != nil {
		t.Fatalf("slot of a cancelled appointment must be free: %v", err)
	}

	events := f.store.Events()
	var cancelledEvents int
	for _, e := range events {
		if e.EventType == outbox.AppointmentCancelled {
			cancelledEvents++
		}
	}
	if cancelledEvents != 1 {
		t.Fatalf("expected one cancelled event, got %d", cancelledEvents)
	}

	if _, err := f.svc.UpdateAppointment(ctx, "missing", AppointmentPatch{Notes: &clash}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, c := range []string{"09:00", "13:00", "11:00"} {
		if _, err := f.svc.CreateAppointment(ctx, f.input("2026-03-02", c)); err != nil {
			t.Fatal(err)
		}
	}
	other, _ := f.svc.CreateAppointment(ctx, f.input("2026-03-03", "09:00"))

	day, _ := model.ParseDate("2026-03-02")
	list, err := f.svc.ListAppointments(ctx, model.AppointmentFilter{Date: day})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 appointments on the date, got %d", len(list))
	}
	want := []string{"13:00", "11:00", "09:00"}
	for i, a := range list {
		if a.Date() != "2026-03-02" || a.Time() != want[i] {
			t.Fatalf("position %d: expected %s on 2026-03-02, got %s %s", i, want[i], a.Date(), a.Time())
		}
	}

	if err := f.svc.DeleteAppointment(ctx, other.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.DeleteAppointment(ctx, other.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestAvailabilityFailsClosedWithoutSettings(t *testing.T) {
	store := memory.New()
	set := settings.NewService(store)
	cat := catalog.NewService(store)
	svc := NewService(store, set, cat, customers.NewService(store), slog.New(slog.NewTextHandler(io.Discard, nil)))

	day, _ := model.ParseDate("2026-03-02")
	if _, err := svc.Availability(context.Background(), day, 60); !errors.Is(err, apperr.ErrConfigurationUnavailable) {
		t.Fatalf("expected configuration unavailable, got %v", err)
	}
}
