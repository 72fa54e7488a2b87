// Package booking owns the appointment rules: who can be booked when, what
// a booking costs, and how an appointment moves through its lifecycle.
package booking

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/services/practice-service/internal/availability"
	"github.com/stillwater-massage/practice/services/practice-service/internal/metrics"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
)

const (
	MinDurationMinutes = 15
	MaxDurationMinutes = 480
)

type Service struct {
	store     Store
	schedule  ScheduleLoader
	catalog   Catalog
	customers Customers
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(store Store, schedule ScheduleLoader, catalog Catalog, customers Customers, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		schedule:  schedule,
		catalog:   catalog,
		customers: customers,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Availability returns the slots offered on date for an appointment of the
// given length.
func (s *Service) Availability(ctx context.Context, date time.Time, durationMinutes int) ([]availability.Slot, error) {
	if err := validateDuration(durationMinutes); err != nil {
		return nil, err
	}
	sched, err := s.loadSchedule(ctx)
	if err != nil {
		metrics.AvailabilityRequests.WithLabelValues("unavailable").Inc()
		return nil, err
	}
	day := model.DateOf(date)
	booked, err := s.store.ListBlocking(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	slots, err := availability.Offers(sched, day, durationMinutes, booked, s.now())
	if err != nil {
		metrics.AvailabilityRequests.WithLabelValues("unavailable").Inc()
		return nil, err
	}
	metrics.AvailabilityRequests.WithLabelValues("ok").Inc()
	metrics.AvailabilitySlots.Observe(float64(len(slots)))
	return slots, nil
}

func (s *Service) loadSchedule(ctx context.Context) (availability.Schedule, error) {
	sched, err := s.schedule.LoadSchedule(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrConfigurationUnavailable) {
			return availability.Schedule{}, err
		}
		return availability.Schedule{}, apperr.Unavailable("schedule could not be loaded", err)
	}
	return sched, nil
}

type CreateAppointmentInput struct {
	CustomerID    string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	ServiceID     string
	AddonIDs      []string
	// PriceOverride replaces the catalog price snapshot when set.
	PriceOverride   *float64
	Date            string
	Time            string
	DurationMinutes int // zero means package plus add-on minutes
	Status          model.AppointmentStatus
	Notes           string
	CreatedBy       model.Actor
}

// CreateAppointment records an appointment on behalf of an admin or the
// booking flow. It does not consult availability; the store only rejects
// overlaps.
func (s *Service) CreateAppointment(ctx context.Context, in CreateAppointmentInput) (model.Appointment, error) {
	if in.CreatedBy == "" {
		in.CreatedBy = model.ActorAdmin
	}
	if !in.CreatedBy.Valid() {
		return model.Appointment{}, apperr.Invalid("created_by", "must be customer or admin")
	}
	if in.Status == "" {
		in.Status = model.StatusScheduled
	}
	if !in.Status.Valid() {
		return model.Appointment{}, apperr.Invalid("status", "unknown status %q", in.Status)
	}

	appt := model.Appointment{
		CustomerID:    strings.TrimSpace(in.CustomerID),
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerEmail: strings.TrimSpace(in.CustomerEmail),
		CustomerPhone: strings.TrimSpace(in.CustomerPhone),
		Status:        in.Status,
		Notes:         strings.TrimSpace(in.Notes),
		CreatedBy:     in.CreatedBy,
	}
	if appt.CustomerID != "" {
		c, err := s.customers.Get(ctx, appt.CustomerID)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return model.Appointment{}, apperr.Invalid("customer_id", "customer %s does not exist", appt.CustomerID)
			}
			return model.Appointment{}, err
		}
		appt.CustomerName = firstNonEmpty(appt.CustomerName, c.Name)
		appt.CustomerEmail = firstNonEmpty(appt.CustomerEmail, c.Email)
		appt.CustomerPhone = firstNonEmpty(appt.CustomerPhone, c.Phone)
	}
	if err := validateContact(appt.CustomerName, appt.CustomerEmail, appt.CustomerPhone); err != nil {
		return model.Appointment{}, err
	}

	sel, err := s.resolve(ctx, in.ServiceID, in.AddonIDs, in.CreatedBy == model.ActorCustomer)
	if err != nil {
		return model.Appointment{}, err
	}
	sel.apply(&appt)
	if in.PriceOverride != nil {
		if *in.PriceOverride < 0 {
			return model.Appointment{}, apperr.Invalid("service_price", "must not be negative")
		}
		appt.ServicePrice = model.RoundCents(*in.PriceOverride)
	}

	start, err := parseStart(in.Date, in.Time)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.StartsAt = start
	appt.DurationMinutes = in.DurationMinutes
	if appt.DurationMinutes == 0 {
		appt.DurationMinutes = sel.minutes
	}
	if err := validateDuration(appt.DurationMinutes); err != nil {
		return model.Appointment{}, err
	}

	created, err := s.store.CreateAppointment(ctx, appt)
	if err != nil {
		if errors.Is(err, apperr.ErrSlotConflict) {
			metrics.SlotConflicts.WithLabelValues("create").Inc()
		}
		return model.Appointment{}, err
	}
	metrics.BookingsCreated.WithLabelValues(string(created.CreatedBy)).Inc()
	s.logger.Info("appointment created",
		"appointment_id", created.ID,
		"date", created.Date(),
		"time", created.Time(),
		"duration_minutes", created.DurationMinutes,
		"created_by", created.CreatedBy,
	)
	return created, nil
}

// AppointmentPatch lists the editable fields. Nil fields are left unchanged.
// Prices and the selected services are fixed at booking time.
type AppointmentPatch struct {
	CustomerName    *string
	CustomerEmail   *string
	CustomerPhone   *string
	Date            *string
	Time            *string
	DurationMinutes *int
	Status          *model.AppointmentStatus
	Notes           *string
}

func (s *Service) UpdateAppointment(ctx context.Context, id string, patch AppointmentPatch) (model.Appointment, error) {
	if patch.DurationMinutes != nil {
		if err := validateDuration(*patch.DurationMinutes); err != nil {
			return model.Appointment{}, err
		}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return model.Appointment{}, apperr.Invalid("status", "unknown status %q", *patch.Status)
	}

	updated, err := s.store.UpdateAppointment(ctx, id, func(a *model.Appointment) error {
		if patch.CustomerName != nil {
			a.CustomerName = strings.TrimSpace(*patch.CustomerName)
		}
		if patch.CustomerEmail != nil {
			a.CustomerEmail = strings.TrimSpace(*patch.CustomerEmail)
		}
		if patch.CustomerPhone != nil {
			a.CustomerPhone = strings.TrimSpace(*patch.CustomerPhone)
		}
		if err := validateContact(a.CustomerName, a.CustomerEmail, a.CustomerPhone); err != nil {
			return err
		}

		if patch.Date != nil || patch.Time != nil {
			date, clock := a.Date(), a.Time()
			if patch.Date != nil {
				date = *patch.Date
			}
			if patch.Time != nil {
				clock = *patch.Time
			}
			start, err := parseStart(date, clock)
			if err != nil {
				return err
			}
			a.StartsAt = start
		}
		if patch.DurationMinutes != nil {
			a.DurationMinutes = *patch.DurationMinutes
		}
		if patch.Status != nil {
			if !a.Status.CanTransition(*patch.Status) {
				return apperr.Invalid("status", "cannot change status from %s to %s", a.Status, *patch.Status)
			}
			a.Status = *patch.Status
		}
		if patch.Notes != nil {
			a.Notes = strings.TrimSpace(*patch.Notes)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrSlotConflict) {
			metrics.SlotConflicts.WithLabelValues("update").Inc()
		}
		return model.Appointment{}, err
	}
	s.logger.Info("appointment updated", "appointment_id", updated.ID, "status", updated.Status)
	return updated, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id string) error {
	if err := s.store.DeleteAppointment(ctx, id); err != nil {
		return err
	}
	s.logger.Info("appointment deleted", "appointment_id", id)
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	return s.store.GetAppointment(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Invalid("status", "unknown status %q", f.Status)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, apperr.Invalid("to", "must not be before from")
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 500
	}
	return s.store.ListAppointments(ctx, f)
}

type selection struct {
	pkg     model.Offering
	addons  []model.Offering
	minutes int
}

func (sel selection) apply(a *model.Appointment) {
	a.ServiceID = sel.pkg.ID
	a.ServiceName = sel.pkg.Name
	a.ServicePrice = sel.pkg.CurrentPrice
	a.AddonIDs = make([]string, 0, len(sel.addons))
	var total float64
	for _, ad := range sel.addons {
		a.AddonIDs = append(a.AddonIDs, ad.ID)
		total += ad.CurrentPrice
	}
	a.AddonsTotal = model.RoundCents(total)
}

// resolve loads the package and add-ons from the catalog. Duplicate add-on
// ids collapse to the first occurrence.
func (s *Service) resolve(ctx context.Context, packageID string, addonIDs []string, activeOnly bool) (selection, error) {
	packageID = strings.TrimSpace(packageID)
	if packageID == "" {
		return selection{}, apperr.Invalid("service_id", "is required")
	}
	pkg, err := s.offering(ctx, "service_id", packageID, activeOnly)
	if err != nil {
		return selection{}, err
	}
	if pkg.Kind != model.KindPackage {
		return selection{}, apperr.Invalid("service_id", "%s is not a package", packageID)
	}
	sel := selection{pkg: pkg, minutes: pkg.DurationMinutes}

	seen := make(map[string]bool, len(addonIDs))
	for _, id := range addonIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ad, err := s.offering(ctx, "addon_ids", id, activeOnly)
		if err != nil {
			return selection{}, err
		}
		if ad.Kind != model.KindAddon {
			return selection{}, apperr.Invalid("addon_ids", "%s is not an add-on", id)
		}
		sel.addons = append(sel.addons, ad)
		sel.minutes += ad.DurationMinutes
	}
	return sel, nil
}

func (s *Service) offering(ctx context.Context, field, id string, activeOnly bool) (model.Offering, error) {
	o, err := s.catalog.Get(ctx, id)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return model.Offering{}, apperr.Invalid(field, "%s does not exist", id)
		}
		return model.Offering{}, err
	}
	if activeOnly && !o.IsActive {
		return model.Offering{}, apperr.Invalid(field, "%s is not available", id)
	}
	return o, nil
}

func parseStart(date, clock string) (time.Time, error) {
	d, err := model.ParseDate(strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, apperr.Invalid("date", "%v", err)
	}
	m, err := model.ParseClock(strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, apperr.Invalid("time", "%v", err)
	}
	return model.At(d, m), nil
}

func validateDuration(minutes int) error {
	if minutes < MinDurationMinutes || minutes > MaxDurationMinutes {
		return apperr.Invalid("duration_minutes", "must be between %d and %d", MinDurationMinutes, MaxDurationMinutes)
	}
	return nil
}

func validateContact(name, email, phone string) error {
	if name == "" {
		return apperr.Invalid("customer_name", "is required")
	}
	if email == "" && phone == "" {
		return apperr.Invalid("customer_email", "an email or phone number is required")
	}
	if email != "" {
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			return apperr.Invalid("customer_email", "is not a valid email address")
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
