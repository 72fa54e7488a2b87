package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/libs/config"
	"github.com/stillwater-massage/practice/libs/httpx"
	"github.com/stillwater-massage/practice/services/practice-service/internal/availability"
	"github.com/stillwater-massage/practice/services/practice-service/internal/booking"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	maxIdempotencyKey = 200
)

type publicCatalogResponse struct {
	Packages []offeringDTO `json:"packages"`
	Addons   []offeringDTO `json:"addons"`
	TaxRate  float64       `json:"tax_rate"`
}

func (h *Handler) PublicCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	packages, err := h.catalog.ListActive(ctx, model.KindPackage)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	addons, err := h.catalog.ListActive(ctx, model.KindAddon)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rate, err := h.settings.TaxRate(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, publicCatalogResponse{
		Packages: toOfferingDTOs(packages),
		Addons:   toOfferingDTOs(addons),
		TaxRate:  rate,
	})
}

type availabilityResponse struct {
	Date            string    `json:"date"`
	DurationMinutes int       `json:"duration_minutes"`
	Slots           []slotDTO `json:"slots"`
}

// PublicAvailability takes either duration_minutes or package_id with
// optional comma separated addon_ids.
func (h *Handler) PublicAvailability(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date", true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	packageID := strings.TrimSpace(q.Get("package_id"))

	var (
		slots    []availability.Slot
		duration int
	)
	if packageID != "" {
		slots, duration, err = h.booking.PackageAvailability(r.Context(), date, packageID, config.SplitList(q.Get("addon_ids")))
	} else {
		duration, err = queryInt(r, "duration_minutes")
		if err == nil && duration == 0 {
			err = apperr.Invalid("duration_minutes", "duration_minutes or package_id is required")
		}
		if err == nil {
			slots, err = h.booking.Availability(r.Context(), date, duration)
		}
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, availabilityResponse{
		Date:            model.FormatDate(date),
		DurationMinutes: duration,
		Slots:           toSlotDTOs(slots),
	})
}

type bookRequest struct {
	PackageID     string   `json:"package_id"`
	AddonIDs      []string `json:"addon_ids"`
	Date          string   `json:"date"`
	Time          string   `json:"time"`
	CustomerName  string   `json:"customer_name"`
	CustomerEmail string   `json:"customer_email"`
	CustomerPhone string   `json:"customer_phone"`
	Notes         string   `json:"notes"`
}

// Book creates an appointment from the public booking form. With an
// Idempotency-Key header the first successful response is stored and
// replayed for later requests carrying the same key.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if len(key) > maxIdempotencyKey {
		h.fail(w, r, apperr.Invalid(idempotencyHeader, "must be at most %d characters", maxIdempotencyKey))
		return
	}
	if key != "" && h.idempotency != nil {
		status, payload, found, err := h.idempotency.LookupIdempotency(ctx, key)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if found {
			w.Header().Set(replayedHeader, "true")
			writeRaw(w, status, payload)
			return
		}
	}

	var req bookRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	appt, err := h.booking.Book(ctx, booking.BookingRequest{
		PackageID:     req.PackageID,
		AddonIDs:      req.AddonIDs,
		Date:          req.Date,
		Time:          req.Time,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	body, err := json.Marshal(toAppointmentDTO(appt))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.SaveIdempotency(ctx, key, http.StatusCreated, body); err != nil {
			// The booking exists; a retry with this key will conflict on the slot.
			h.logger.Warn("failed to store idempotency key", "appointment_id", appt.ID, "err", err)
		}
	}
	writeRaw(w, http.StatusCreated, body)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
