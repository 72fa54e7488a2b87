// Package model holds the practice's domain types. Appointment times are
// wall clock times in the practice's timezone carried in a UTC-located
// time.Time, so a date plus minutes-since-midnight converts without any
// offset arithmetic.
package model

import (
	"fmt"
	"time"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no-show"
)

var AllStatuses = []AppointmentStatus{StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow}

func ParseStatus(s string) (AppointmentStatus, error) {
	st := AppointmentStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// CanTransition reports whether s may move to next. Staying put is allowed.
func (s AppointmentStatus) CanTransition(next AppointmentStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	switch s {
	case StatusScheduled:
		return true
	case StatusConfirmed:
		return next != StatusScheduled
	default:
		return false
	}
}

type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorAdmin    Actor = "admin"
)

func (a Actor) Valid() bool { return a == ActorCustomer || a == ActorAdmin }

type Appointment struct {
	ID            string
	CustomerID    string // empty for walk-ins
	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	ServiceID    string
	ServiceName  string
	ServicePrice float64
	AddonIDs     []string
	AddonsTotal  float64

	StartsAt        time.Time
	DurationMinutes int
	Status          AppointmentStatus
	Notes           string
	CreatedBy       Actor
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (a Appointment) EndsAt() time.Time {
	return a.StartsAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Blocks reports whether the appointment occupies its interval on the calendar.
func (a Appointment) Blocks() bool { return a.Status != StatusCancelled }

// Overlaps compares half-open intervals: [s1,e1) and [s2,e2) overlap iff s1 < e2 && s2 < e1.
func (a Appointment) Overlaps(b Appointment) bool {
	return a.StartsAt.Before(b.EndsAt()) && b.StartsAt.Before(a.EndsAt())
}

func (a Appointment) Date() string { return FormatDate(a.StartsAt) }

func (a Appointment) Time() string { return FormatClock(MinuteOfDay(a.StartsAt)) }

func (a Appointment) Total() float64 { return RoundCents(a.ServicePrice + a.AddonsTotal) }

// AppointmentFilter narrows a listing. Zero values mean no constraint.
type AppointmentFilter struct {
	CustomerID string
	Date       time.Time
	From       time.Time // inclusive date
	To         time.Time // inclusive date
	Status     AppointmentStatus
	Limit      int
}

// Match applies the filter in memory.
func (f AppointmentFilter) Match(a Appointment) bool {
	if f.CustomerID != "" && a.CustomerID != f.CustomerID {
		return false
	}
	day := DateOf(a.StartsAt)
	if !f.Date.IsZero() && !day.Equal(f.Date) {
		return false
	}
	if !f.From.IsZero() && day.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && day.After(f.To) {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return true
}
