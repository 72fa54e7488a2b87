// Package memory is a process-local implementation of every practice store.
// One mutex serializes all access, which makes the overlap check and the
// insert a single atomic step.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/services/practice-service/internal/customers"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
	"github.com/stillwater-massage/practice/services/practice-service/internal/outbox"
	"github.com/stillwater-massage/practice/services/practice-service/internal/settings"
)

type idempotencyRecord struct {
	status  int
	payload []byte
}

type Store struct {
	mu  sync.Mutex
	now func() time.Time

	appointments map[string]model.Appointment
	offerings    map[string]model.Offering
	customers    map[string]model.Customer
	hours        map[time.Weekday]model.BusinessHours
	blocked      map[string]model.BlockedDate
	values       map[string]json.RawMessage
	idempotency  map[string]idempotencyRecord
	events       []outbox.Event
}

// New returns an empty store: no hours, settings or catalog.
func New() *Store {
	return &Store{
		now:          time.Now,
		appointments: map[string]model.Appointment{},
		offerings:    map[string]model.Offering{},
		customers:    map[string]model.Customer{},
		hours:        map[time.Weekday]model.BusinessHours{},
		blocked:      map[string]model.BlockedDate{},
		values:       map[string]json.RawMessage{},
		idempotency:  map[string]idempotencyRecord{},
	}
}

// NewSeeded returns a store holding the same defaults the Postgres
// migrations seed: weekday hours, booking settings and a zero tax rate.
func NewSeeded() *Store {
	s := New()
	for _, h := range model.DefaultBusinessHours() {
		s.hours[h.DayOfWeek] = h
	}
	raw, _ := json.Marshal(model.DefaultBookingSettings())
	s.values[settings.KeyBooking] = raw
	s.values[settings.KeyTaxRate] = json.RawMessage("0")
	return s
}

// Events returns a copy of the outbox events recorded so far.
func (s *Store) Events() []outbox.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]outbox.Event(nil), s.events...)
}

func (s *Store) record(eventType string, a model.Appointment) error {
	evt, err := outbox.NewAppointmentEvent(eventType, a, s.now())
	if err != nil {
		return err
	}
	s.events = append(s.events, evt)
	return nil
}

// Appointments

func (s *Store) overlapsLocked(a model.Appointment) bool {
	if !a.Blocks() {
		return false
	}
	for id, other := range s.appointments {
		if id == a.ID || !other.Blocks() {
			continue
		}
		if a.Overlaps(other) {
			return true
		}
	}
	return false
}

func (s *Store) CreateAppointment(ctx context.Context, a model.Appointment) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = uuid.NewString()
	if s.overlapsLocked(a) {
		return model.Appointment{}, apperr.ErrSlotConflict
	}
	now := s.now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	a.AddonIDs = append([]string(nil), a.AddonIDs...)
	if err := s.record(outbox.AppointmentBooked, a); err != nil {
		return model.Appointment{}, err
	}
	s.appointments[a.ID] = a
	return a, nil
}

func (s *Store) UpdateAppointment(ctx context.Context, id string, mutate func(*model.Appointment) error) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before, ok := s.appointments[id]
	if !ok {
		return model.Appointment{}, apperr.NotFound("appointment")
	}
	after := before
	after.AddonIDs = append([]string(nil), before.AddonIDs...)
	if err := mutate(&after); err != nil {
		return model.Appointment{}, err
	}
	after.ID = before.ID
	if s.overlapsLocked(after) {
		return model.Appointment{}, apperr.ErrSlotConflict
	}
	after.UpdatedAt = s.now().UTC()
	if err := s.record(outbox.UpdateEventType(before, after), after); err != nil {
		return model.Appointment{}, err
	}
	s.appointments[id] = after
	return after, nil
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok {
		return apperr.NotFound("appointment")
	}
	if err := s.record(outbox.AppointmentDeleted, a); err != nil {
		return err
	}
	delete(s.appointments, id)
	return nil
}

func (s *Store) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok {
		return model.Appointment{}, apperr.NotFound("appointment")
	}
	return a, nil
}

func (s *Store) ListAppointments(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Appointment
	for _, a := range s.appointments {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.After(out[j].StartsAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) ListBlocking(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Appointment
	for _, a := range s.appointments {
		if a.Blocks() && a.StartsAt.Before(to) && a.EndsAt().After(from) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

// Idempotency

func (s *Store) LookupIdempotency(ctx context.Context, key string) (int, []byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.idempotency[key]
	return rec.status, rec.payload, ok, nil
}

// SaveIdempotency keeps the first response stored for a key.
func (s *Store) SaveIdempotency(ctx context.Context, key string, status int, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.idempotency[key]; !ok {
		s.idempotency[key] = idempotencyRecord{status: status, payload: append([]byte(nil), payload...)}
	}
	return nil
}

// Catalog

func (s *Store) ListOfferings(ctx context.Context, kind model.OfferingKind, activeOnly bool) ([]model.Offering, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Offering
	for _, o := range s.offerings {
		if kind != "" && o.Kind != kind {
			continue
		}
		if activeOnly && !o.IsActive {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) GetOffering(ctx context.Context, id string) (model.Offering, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.offerings[id]
	if !ok {
		return model.Offering{}, apperr.NotFound("catalog item")
	}
	return o, nil
}

func (s *Store) CreateOffering(ctx context.Context, o model.Offering) (model.Offering, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o.ID = uuid.NewString()
	now := s.now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	o.Reprice()
	s.offerings[o.ID] = o
	return o, nil
}

func (s *Store) UpdateOffering(ctx context.Context, id string, mutate func(*model.Offering) error) (model.Offering, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.offerings[id]
	if !ok {
		return model.Offering{}, apperr.NotFound("catalog item")
	}
	if err := mutate(&o); err != nil {
		return model.Offering{}, err
	}
	o.ID = id
	o.Reprice()
	o.UpdatedAt = s.now().UTC()
	s.offerings[id] = o
	return o, nil
}

func (s *Store) DeleteOffering(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.offerings[id]; !ok {
		return apperr.NotFound("catalog item")
	}
	delete(s.offerings, id)
	return nil
}

// Customers

func (s *Store) ListCustomers(ctx context.Context, query string, limit int) ([]model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(query)
	var out []model.Customer
	for _, c := range s.customers {
		if q != "" && !strings.Contains(strings.ToLower(c.Name), q) &&
			!strings.Contains(c.Email, q) && !strings.Contains(c.Phone, q) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok {
		return model.Customer{}, apperr.NotFound("customer")
	}
	return c, nil
}

func (s *Store) FindCustomerByEmail(ctx context.Context, email string) (model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(email)
	for _, c := range s.customers {
		if c.Email != "" && strings.ToLower(c.Email) == email {
			return c, nil
		}
	}
	return model.Customer{}, apperr.NotFound("customer")
}

func (s *Store) emailTakenLocked(email, exceptID string) bool {
	if email == "" {
		return false
	}
	for id, c := range s.customers {
		if id != exceptID && strings.EqualFold(c.Email, email) {
			return true
		}
	}
	return false
}

func (s *Store) CreateCustomer(ctx context.Context, c model.Customer) (model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTakenLocked(c.Email, "") {
		return model.Customer{}, customers.ErrDuplicateEmail
	}
	c.ID = uuid.NewString()
	now := s.now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	s.customers[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, id string, mutate func(*model.Customer) error) (model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok {
		return model.Customer{}, apperr.NotFound("customer")
	}
	if err := mutate(&c); err != nil {
		return model.Customer{}, err
	}
	c.ID = id
	if s.emailTakenLocked(c.Email, id) {
		return model.Customer{}, customers.ErrDuplicateEmail
	}
	c.UpdatedAt = s.now().UTC()
	s.customers[id] = c
	return c, nil
}

// DeleteCustomer detaches the customer's appointments, like ON DELETE SET NULL.
func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[id]; !ok {
		return apperr.NotFound("customer")
	}
	delete(s.customers, id)
	for apptID, a := range s.appointments {
		if a.CustomerID == id {
			a.CustomerID = ""
			s.appointments[apptID] = a
		}
	}
	return nil
}

// Settings

func (s *Store) ListBusinessHours(ctx context.Context) ([]model.BusinessHours, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.BusinessHours, 0, len(s.hours))
	for _, h := range s.hours {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOfWeek < out[j].DayOfWeek })
	return out, nil
}

func (s *Store) UpsertBusinessHours(ctx context.Context, h model.BusinessHours) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hours[h.DayOfWeek] = h
	return nil
}

func (s *Store) GetValue(ctx context.Context, key string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	if !ok {
		return nil, apperr.NotFound("setting " + key)
	}
	return append(json.RawMessage(nil), v...), nil
}

func (s *Store) SetValue(ctx context.Context, key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append(json.RawMessage(nil), value...)
	return nil
}

func (s *Store) ListValues(ctx context.Context) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]json.RawMessage, len(s.values))
	for k, v := range s.values {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out, nil
}

func (s *Store) CreateBlockedDate(ctx context.Context, b model.BlockedDate) (model.BlockedDate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.FormatDate(b.Date)
	if _, ok := s.blocked[key]; ok {
		return model.BlockedDate{}, settings.ErrDateAlreadyBlocked
	}
	b.ID = uuid.NewString()
	b.CreatedAt = s.now().UTC()
	s.blocked[key] = b
	return b, nil
}

func (s *Store) DeleteBlockedDate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, b := range s.blocked {
		if b.ID == id {
			delete(s.blocked, key)
			return nil
		}
	}
	return apperr.NotFound("blocked date")
}

func (s *Store) ListBlockedDates(ctx context.Context, from time.Time) ([]model.BlockedDate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.BlockedDate
	for _, b := range s.blocked {
		if !from.IsZero() && b.Date.Before(model.DateOf(from)) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
