package notify

import (
	"fmt"
	"strings"
	"time"
)

const (
	EventBooked    = "appointment.booked.v1"
	EventUpdated   = "appointment.updated.v1"
	EventCancelled = "appointment.cancelled.v1"
	EventDeleted   = "appointment.deleted.v1"
)

// Topics is every appointment topic the service subscribes to.
var Topics = []string{EventBooked, EventUpdated, EventCancelled, EventDeleted}

// Appointment is the payload of an appointment event.
type Appointment struct {
	EventID         string  `json:"event_id"`
	AppointmentID   string  `json:"appointment_id"`
	CustomerName    string  `json:"customer_name"`
	CustomerEmail   string  `json:"customer_email"`
	CustomerPhone   string  `json:"customer_phone"`
	ServiceName     string  `json:"service_name"`
	Date            string  `json:"date"`
	Time            string  `json:"time"`
	DurationMinutes int     `json:"duration_minutes"`
	Status          string  `json:"status"`
	Total           float64 `json:"total"`
}

// Content is the rendered text of one notice.
type Content struct {
	Subject string
	Email   string
	SMS     string
}

// Render builds the notice for eventType. It reports false for events that
// carry no customer notice.
func Render(practice, eventType string, a Appointment) (Content, bool) {
	when := formatWhen(a.Date, a.Time)
	name := firstName(a.CustomerName)
	service := a.ServiceName
	if service == "" {
		service = "massage"
	}

	var c Content
	switch eventType {
	case EventBooked:
		c.Subject = fmt.Sprintf("Your appointment at %s is confirmed", practice)
		c.Email = fmt.Sprintf("Hi %s,\n\nYour %s appointment on %s (%d minutes) is booked.\nTotal: %s\n\nSee you soon,\n%s\n",
			name, service, when, a.DurationMinutes, formatMoney(a.Total), practice)
		c.SMS = fmt.Sprintf("%s: your %s appointment on %s is booked.", practice, service, when)
	case EventUpdated:
		c.Subject = fmt.Sprintf("Your appointment at %s has changed", practice)
		c.Email = fmt.Sprintf("Hi %s,\n\nYour %s appointment is now on %s (%d minutes). Status: %s.\nTotal: %s\n\n%s\n",
			name, service, when, a.DurationMinutes, a.Status, formatMoney(a.Total), practice)
		c.SMS = fmt.Sprintf("%s: your %s appointment is now on %s.", practice, service, when)
	case EventCancelled:
		c.Subject = fmt.Sprintf("Your appointment at %s has been cancelled", practice)
		c.Email = fmt.Sprintf("Hi %s,\n\nYour %s appointment on %s has been cancelled.\nReply to this email if you would like to rebook.\n\n%s\n",
			name, service, when, practice)
		c.SMS = fmt.Sprintf("%s: your %s appointment on %s has been cancelled.", practice, service, when)
	default:
		return Content{}, false
	}
	return c, true
}

func formatWhen(date, clock string) string {
	t, err := time.Parse("2006-01-02 15:04", date+" "+clock)
	if err != nil {
		return strings.TrimSpace(date + " " + clock)
	}
	return t.Format("Monday, January 2 at 3:04 PM")
}

func formatMoney(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}
