package handlers

import (
	"net/http"
	"strings"

	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/libs/httpx"
	"github.com/stillwater-massage/practice/services/practice-service/internal/booking"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
)

func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	filter, err := appointmentFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.booking.ListAppointments(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"appointments": toAppointmentDTOs(list)})
}

func appointmentFilter(r *http.Request) (model.AppointmentFilter, error) {
	var (
		f   model.AppointmentFilter
		err error
	)
	q := r.URL.Query()
	f.CustomerID = strings.TrimSpace(q.Get("customer_id"))
	if f.Date, err = queryDate(r, "date", false); err != nil {
		return f, err
	}
	if f.From, err = queryDate(r, "from", false); err != nil {
		return f, err
	}
	if f.To, err = queryDate(r, "to", false); err != nil {
		return f, err
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		if f.Status, err = model.ParseStatus(raw); err != nil {
			return f, apperr.Invalid("status", "%v", err)
		}
	}
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		return f, err
	}
	return f, nil
}

type createAppointmentRequest struct {
	CustomerID      string   `json:"customer_id"`
	CustomerName    string   `json:"customer_name"`
	CustomerEmail   string   `json:"customer_email"`
	CustomerPhone   string   `json:"customer_phone"`
	ServiceID       string   `json:"service_id"`
	AddonIDs        []string `json:"addon_ids"`
	ServicePrice    *float64 `json:"service_price"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	DurationMinutes int      `json:"duration_minutes"`
	Status          string   `json:"status"`
	Notes           string   `json:"notes"`
}

func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	appt, err := h.booking.CreateAppointment(r.Context(), booking.CreateAppointmentInput{
		CustomerID:      req.CustomerID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ServiceID:       req.ServiceID,
		AddonIDs:        req.AddonIDs,
		PriceOverride:   req.ServicePrice,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		Status:          model.AppointmentStatus(strings.TrimSpace(req.Status)),
		Notes:           req.Notes,
		CreatedBy:       model.ActorAdmin,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("admin created appointment", "appointment_id", appt.ID, "actor", actor(r))
	httpx.WriteJSON(w, http.StatusCreated, toAppointmentDTO(appt))
}

func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := h.booking.GetAppointment(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointmentDTO(appt))
}

type patchAppointmentRequest struct {
	CustomerName    *string `json:"customer_name"`
	CustomerEmail   *string `json:"customer_email"`
	CustomerPhone   *string `json:"customer_phone"`
	Date            *string `json:"date"`
	Time            *string `json:"time"`
	DurationMinutes *int    `json:"duration_minutes"`
	Status          *string `json:"status"`
	Notes           *string `json:"notes"`
}

func (h *Handler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	var req patchAppointmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	patch := booking.AppointmentPatch{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	}
	if req.Status != nil {
		st, err := model.ParseStatus(strings.TrimSpace(*req.Status))
		if err != nil {
			h.fail(w, r, apperr.Invalid("status", "%v", err))
			return
		}
		patch.Status = &st
	}
	appt, err := h.booking.UpdateAppointment(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointmentDTO(appt))
}

func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.booking.DeleteAppointment(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("admin deleted appointment", "appointment_id", id, "actor", actor(r))
	w.WriteHeader(http.StatusNoContent)
}
