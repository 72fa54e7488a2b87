package booking

import (
	"context"
	"strings"
	"time"

	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/services/practice-service/internal/availability"
	"github.com/stillwater-massage/practice/services/practice-service/internal/metrics"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
)

// ErrSlotUnavailable is returned when the requested start is not among the
// slots currently offered. It matches apperr.ErrSlotConflict.
var ErrSlotUnavailable = apperr.Conflict("requested time is not available", nil)

type BookingRequest struct {
	PackageID     string
	AddonIDs      []string
	Date          string
	Time          string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Notes         string
}

// Book is the customer-facing flow: the selection must be active, the slot
// must be offered right now, and the store has the final say on overlaps.
func (s *Service) Book(ctx context.Context, req BookingRequest) (model.Appointment, error) {
	name := strings.TrimSpace(req.CustomerName)
	email := strings.ToLower(strings.TrimSpace(req.CustomerEmail))
	phone := strings.TrimSpace(req.CustomerPhone)
	if err := validateContact(name, email, phone); err != nil {
		return model.Appointment{}, err
	}

	sel, err := s.resolve(ctx, req.PackageID, req.AddonIDs, true)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := validateDuration(sel.minutes); err != nil {
		return model.Appointment{}, err
	}
	start, err := parseStart(req.Date, req.Time)
	if err != nil {
		return model.Appointment{}, err
	}

	slots, err := s.Availability(ctx, start, sel.minutes)
	if err != nil {
		return model.Appointment{}, err
	}
	if !availability.Offered(slots, start) {
		metrics.SlotConflicts.WithLabelValues("book").Inc()
		return model.Appointment{}, ErrSlotUnavailable
	}

	customer, err := s.customers.FindOrCreate(ctx, name, email, phone)
	if err != nil {
		return model.Appointment{}, err
	}

	addonIDs := make([]string, 0, len(sel.addons))
	for _, ad := range sel.addons {
		addonIDs = append(addonIDs, ad.ID)
	}
	return s.CreateAppointment(ctx, CreateAppointmentInput{
		CustomerID:      customer.ID,
		CustomerName:    name,
		CustomerEmail:   email,
		CustomerPhone:   phone,
		ServiceID:       sel.pkg.ID,
		AddonIDs:        addonIDs,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: sel.minutes,
		Status:          model.StatusScheduled,
		Notes:           req.Notes,
		CreatedBy:       model.ActorCustomer,
	})
}

// PackageAvailability resolves the active package and add-ons to a duration
// and returns the slots offered for it on date.
func (s *Service) PackageAvailability(ctx context.Context, date time.Time, packageID string, addonIDs []string) ([]availability.Slot, int, error) {
	sel, err := s.resolve(ctx, packageID, addonIDs, true)
	if err != nil {
		return nil, 0, err
	}
	slots, err := s.Availability(ctx, date, sel.minutes)
	if err != nil {
		return nil, 0, err
	}
	return slots, sel.minutes, nil
}
