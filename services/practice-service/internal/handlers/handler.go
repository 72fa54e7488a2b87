// Package handlers exposes the practice services over HTTP/JSON. Routes are
// registered on a Go 1.22 pattern mux; admin routes trust the identity
// headers set by the gateway.
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/libs/httpx"
	"github.com/stillwater-massage/practice/services/practice-service/internal/booking"
	"github.com/stillwater-massage/practice/services/practice-service/internal/catalog"
	"github.com/stillwater-massage/practice/services/practice-service/internal/customers"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
	"github.com/stillwater-massage/practice/services/practice-service/internal/reports"
	"github.com/stillwater-massage/practice/services/practice-service/internal/settings"
)

type Services struct {
	Booking   *booking.Service
	Catalog   *catalog.Service
	Customers *customers.Service
	Settings  *settings.Service
	Reports   *reports.Service
}

type Handler struct {
	booking     *booking.Service
	catalog     *catalog.Service
	customers   *customers.Service
	settings    *settings.Service
	reports     *reports.Service
	idempotency booking.IdempotencyStore
	logger      *slog.Logger
}

func New(svc Services, idempotency booking.IdempotencyStore, logger *slog.Logger) *Handler {
	return &Handler{
		booking:     svc.Booking,
		catalog:     svc.Catalog,
		customers:   svc.Customers,
		settings:    svc.Settings,
		reports:     svc.Reports,
		idempotency: idempotency,
		logger:      logger,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/public/catalog", h.PublicCatalog)
	mux.HandleFunc("GET /api/v1/public/availability", h.PublicAvailability)
	mux.HandleFunc("POST /api/v1/public/book", h.Book)

	mux.HandleFunc("GET /api/v1/admin/appointments", h.ListAppointments)
	mux.HandleFunc("POST /api/v1/admin/appointments", h.CreateAppointment)
	mux.HandleFunc("GET /api/v1/admin/appointments/{id}", h.GetAppointment)
	mux.HandleFunc("PATCH /api/v1/admin/appointments/{id}", h.UpdateAppointment)
	mux.HandleFunc("DELETE /api/v1/admin/appointments/{id}", h.DeleteAppointment)

	mux.HandleFunc("GET /api/v1/admin/blocked-dates", h.ListBlockedDates)
	mux.HandleFunc("POST /api/v1/admin/blocked-dates", h.AddBlockedDate)
	mux.HandleFunc("DELETE /api/v1/admin/blocked-dates/{id}", h.RemoveBlockedDate)

	mux.HandleFunc("GET /api/v1/admin/business-hours", h.ListBusinessHours)
	mux.HandleFunc("PATCH /api/v1/admin/business-hours/{day}", h.UpdateBusinessHours)

	mux.HandleFunc("GET /api/v1/admin/settings", h.ListSettings)
	mux.HandleFunc("GET /api/v1/admin/settings/booking", h.GetBookingSettings)
	mux.HandleFunc("PATCH /api/v1/admin/settings/booking", h.UpdateBookingSettings)
	mux.HandleFunc("GET /api/v1/admin/settings/{key}", h.GetSetting)
	mux.HandleFunc("PUT /api/v1/admin/settings/{key}", h.PutSetting)

	mux.HandleFunc("GET /api/v1/admin/catalog", h.ListOfferings)
	mux.HandleFunc("POST /api/v1/admin/catalog", h.CreateOffering)
	mux.HandleFunc("GET /api/v1/admin/catalog/{id}", h.GetOffering)
	mux.HandleFunc("PATCH /api/v1/admin/catalog/{id}", h.UpdateOffering)
	mux.HandleFunc("DELETE /api/v1/admin/catalog/{id}", h.DeleteOffering)

	mux.HandleFunc("GET /api/v1/admin/customers", h.ListCustomers)
	mux.HandleFunc("POST /api/v1/admin/customers", h.CreateCustomer)
	mux.HandleFunc("GET /api/v1/admin/customers/{id}", h.GetCustomer)
	mux.HandleFunc("PATCH /api/v1/admin/customers/{id}", h.UpdateCustomer)
	mux.HandleFunc("DELETE /api/v1/admin/customers/{id}", h.DeleteCustomer)

	mux.HandleFunc("GET /api/v1/admin/reports/appointments", h.AppointmentReport)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpx.WriteError(w, r, h.logger, err)
}

// actor is the gateway-verified user id, empty outside the gateway.
func actor(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(httpx.UserIDHeader))
}

func queryDate(r *http.Request, key string, required bool) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		if required {
			return time.Time{}, apperr.Invalid(key, "is required")
		}
		return time.Time{}, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperr.Invalid(key, "must be YYYY-MM-DD")
	}
	return d, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Invalid(key, "must be a non-negative integer")
	}
	return n, nil
}
