// Package settings is the practice's configuration: business hours, blocked
// dates and a key/value store holding booking settings, the tax rate and
// any other admin-defined values.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/services/practice-service/internal/availability"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
)

const (
	KeyBooking = "booking"
	KeyTaxRate = "tax_rate"
)

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{0,63}$`)

type Store interface {
	ListBusinessHours(ctx context.Context) ([]model.BusinessHours, error)
	UpsertBusinessHours(ctx context.Context, h model.BusinessHours) error
	// GetValue returns an apperr not-found error for unknown keys.
	GetValue(ctx context.Context, key string) (json.RawMessage, error)
	SetValue(ctx context.Context, key string, value json.RawMessage) error
	ListValues(ctx context.Context) (map[string]json.RawMessage, error)
	// CreateBlockedDate rejects a second row for the same date with ErrDateAlreadyBlocked.
	CreateBlockedDate(ctx context.Context, b model.BlockedDate) (model.BlockedDate, error)
	DeleteBlockedDate(ctx context.Context, id string) error
	// ListBlockedDates returns dates on or after from in ascending order; a zero from lists all.
	ListBlockedDates(ctx context.Context, from time.Time) ([]model.BlockedDate, error)
}

var ErrDateAlreadyBlocked = apperr.Invalid("date", "date is already blocked")

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) BusinessHours(ctx context.Context) ([]model.BusinessHours, error) {
	return s.store.ListBusinessHours(ctx)
}

type HoursPatch struct {
	IsOpen *bool
	Open   *string // HH:MM
	Close  *string // HH:MM
}

func (s *Service) UpdateBusinessHours(ctx context.Context, day time.Weekday, patch HoursPatch) (model.BusinessHours, error) {
	if day < time.Sunday || day > time.Saturday {
		return model.BusinessHours{}, apperr.Invalid("day_of_week", "must be 0 (Sunday) to 6 (Saturday)")
	}
	all, err := s.store.ListBusinessHours(ctx)
	if err != nil {
		return model.BusinessHours{}, err
	}
	h := model.BusinessHours{DayOfWeek: day, OpenMinute: 9 * 60, CloseMinute: 17 * 60}
	for _, existing := range all {
		if existing.DayOfWeek == day {
			h = existing
		}
	}

	if patch.IsOpen != nil {
		h.IsOpen = *patch.IsOpen
	}
	if patch.Open != nil {
		m, err := model.ParseClock(*patch.Open)
		if err != nil {
			return model.BusinessHours{}, apperr.Invalid("open_time", "%v", err)
		}
		h.OpenMinute = m
	}
	if patch.Close != nil {
		m, err := parseClose(*patch.Close)
		if err != nil {
			return model.BusinessHours{}, apperr.Invalid("close_time", "%v", err)
		}
		h.CloseMinute = m
	}
	if err := h.Validate(); err != nil {
		return model.BusinessHours{}, apperr.Invalid("close_time", "%v", err)
	}
	if err := s.store.UpsertBusinessHours(ctx, h); err != nil {
		return model.BusinessHours{}, err
	}
	return h, nil
}

// parseClose accepts "24:00" as end of day.
func parseClose(s string) (int, error) {
	if strings.TrimSpace(s) == "24:00" {
		return model.MinutesPerDay, nil
	}
	return model.ParseClock(s)
}

// BookingSettings fails with ErrConfigurationUnavailable when the settings
// were never stored or cannot be decoded.
func (s *Service) BookingSettings(ctx context.Context) (model.BookingSettings, error) {
	raw, err := s.store.GetValue(ctx, KeyBooking)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return model.BookingSettings{}, apperr.Unavailable("booking settings are not configured", nil)
		}
		return model.BookingSettings{}, err
	}
	var bs model.BookingSettings
	if err := json.Unmarshal(raw, &bs); err != nil {
		return model.BookingSettings{}, apperr.Unavailable("booking settings are unreadable", err)
	}
	return bs, nil
}

type BookingSettingsPatch struct {
	SlotGranularityMinutes *int
	MinLeadTimeMinutes     *int
	BufferMinutes          *int
	MaxAdvanceDays         *int
	Timezone               *string
}

// UpdateBookingSettings applies patch over the stored settings, or over the
// defaults when none are stored yet.
func (s *Service) UpdateBookingSettings(ctx context.Context, patch BookingSettingsPatch) (model.BookingSettings, error) {
	bs, err := s.BookingSettings(ctx)
	if err != nil {
		if !errors.Is(err, apperr.ErrConfigurationUnavailable) {
			return model.BookingSettings{}, err
		}
		bs = model.DefaultBookingSettings()
	}
	if patch.SlotGranularityMinutes != nil {
		bs.SlotGranularityMinutes = *patch.SlotGranularityMinutes
	}
	if patch.MinLeadTimeMinutes != nil {
		bs.MinLeadTimeMinutes = *patch.MinLeadTimeMinutes
	}
	if patch.BufferMinutes != nil {
		bs.BufferMinutes = *patch.BufferMinutes
	}
	if patch.MaxAdvanceDays != nil {
		bs.MaxAdvanceDays = *patch.MaxAdvanceDays
	}
	if patch.Timezone != nil {
		bs.Timezone = strings.TrimSpace(*patch.Timezone)
	}
	if err := bs.Validate(); err != nil {
		return model.BookingSettings{}, apperr.Invalid("booking", "%v", err)
	}
	raw, err := json.Marshal(bs)
	if err != nil {
		return model.BookingSettings{}, err
	}
	if err := s.store.SetValue(ctx, KeyBooking, raw); err != nil {
		return model.BookingSettings{}, err
	}
	return bs, nil
}

// TaxRate is a percentage; an unset rate is zero.
func (s *Service) TaxRate(ctx context.Context) (float64, error) {
	raw, err := s.store.GetValue(ctx, KeyTaxRate)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return 0, nil
		}
		return 0, err
	}
	return parseTaxRate(raw)
}

func (s *Service) SetTaxRate(ctx context.Context, rate float64) error {
	if rate < 0 || rate > 100 {
		return apperr.Invalid("tax_rate", "must be between 0 and 100")
	}
	return s.store.SetValue(ctx, KeyTaxRate, json.RawMessage(strconv.FormatFloat(rate, 'f', -1, 64)))
}

func parseTaxRate(raw json.RawMessage) (float64, error) {
	var rate float64
	if err := json.Unmarshal(raw, &rate); err != nil {
		// A quoted number is accepted too.
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, apperr.Invalid("tax_rate", "stored value is not a number")
		}
		if rate, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, apperr.Invalid("tax_rate", "stored value is not a number")
		}
	}
	return rate, nil
}

func (s *Service) Value(ctx context.Context, key string) (json.RawMessage, error) {
	if !keyPattern.MatchString(key) {
		return nil, apperr.Invalid("key", "invalid settings key")
	}
	raw, err := s.store.GetValue(ctx, key)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// SetValue stores any JSON value. The typed keys are validated like their
// dedicated setters.
func (s *Service) SetValue(ctx context.Context, key string, value json.RawMessage) error {
	if !keyPattern.MatchString(key) {
		return apperr.Invalid("key", "keys are lowercase letters, digits, '_', '.' or '-' (max 64)")
	}
	if !json.Valid(value) {
		return apperr.Invalid("value", "must be valid JSON")
	}
	switch key {
	case KeyBooking:
		var bs model.BookingSettings
		dec := json.NewDecoder(strings.NewReader(string(value)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&bs); err != nil {
			return apperr.Invalid("value", "invalid booking settings: %v", err)
		}
		if err := bs.Validate(); err != nil {
			return apperr.Invalid("value", "%v", err)
		}
	case KeyTaxRate:
		rate, err := parseTaxRate(value)
		if err != nil {
			return err
		}
		return s.SetTaxRate(ctx, rate)
	}
	return s.store.SetValue(ctx, key, value)
}

func (s *Service) Values(ctx context.Context) (map[string]json.RawMessage, error) {
	return s.store.ListValues(ctx)
}

func (s *Service) AddBlockedDate(ctx context.Context, date time.Time, reason, createdBy string) (model.BlockedDate, error) {
	if date.IsZero() {
		return model.BlockedDate{}, apperr.Invalid("date", "is required")
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > 500 {
		return model.BlockedDate{}, apperr.Invalid("reason", "must be at most 500 characters")
	}
	return s.store.CreateBlockedDate(ctx, model.BlockedDate{
		Date:      model.DateOf(date),
		Reason:    reason,
		CreatedBy: strings.TrimSpace(createdBy),
	})
}

func (s *Service) RemoveBlockedDate(ctx context.Context, id string) error {
	return s.store.DeleteBlockedDate(ctx, id)
}

func (s *Service) ListBlockedDates(ctx context.Context, from time.Time) ([]model.BlockedDate, error) {
	return s.store.ListBlockedDates(ctx, from)
}

// LoadSchedule gathers everything the availability engine needs. Missing
// booking settings leave Schedule.Settings nil so the engine fails closed.
func (s *Service) LoadSchedule(ctx context.Context) (availability.Schedule, error) {
	hours, err := s.store.ListBusinessHours(ctx)
	if err != nil {
		return availability.Schedule{}, apperr.Unavailable("business hours could not be loaded", err)
	}
	blocked, err := s.store.ListBlockedDates(ctx, time.Time{})
	if err != nil {
		return availability.Schedule{}, apperr.Unavailable("blocked dates could not be loaded", err)
	}
	var settings *model.BookingSettings
	bs, err := s.BookingSettings(ctx)
	switch {
	case err == nil:
		settings = &bs
	case errors.Is(err, apperr.ErrConfigurationUnavailable):
	default:
		return availability.Schedule{}, apperr.Unavailable("booking settings could not be loaded", err)
	}
	return availability.NewSchedule(hours, blocked, settings), nil
}
