package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/stillwater-massage/practice/libs/apperr"
	"github.com/stillwater-massage/practice/libs/httpx"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
	"github.com/stillwater-massage/practice/services/practice-service/internal/settings"
)

// Blocked dates

func (h *Handler) ListBlockedDates(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from", false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.settings.ListBlockedDates(r.Context(), from)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]blockedDateDTO, 0, len(list))
	for _, b := range list {
		out = append(out, toBlockedDateDTO(b))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"blocked_dates": out})
}

type blockDateRequest struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

func (h *Handler) AddBlockedDate(w http.ResponseWriter, r *http.Request) {
	var req blockDateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		h.fail(w, r, apperr.Invalid("date", "must be YYYY-MM-DD"))
		return
	}
	b, err := h.settings.AddBlockedDate(r.Context(), date, req.Reason, actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toBlockedDateDTO(b))
}

func (h *Handler) RemoveBlockedDate(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.RemoveBlockedDate(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Business hours

func (h *Handler) ListBusinessHours(w http.ResponseWriter, r *http.Request) {
	list, err := h.settings.BusinessHours(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]businessHoursDTO, 0, len(list))
	for _, bh := range list {
		out = append(out, toBusinessHoursDTO(bh))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"business_hours": out})
}

type businessHoursPatchRequest struct {
	IsOpen    *bool   `json:"is_open"`
	OpenTime  *string `json:"open_time"`
	CloseTime *string `json:"close_time"`
}

func (h *Handler) UpdateBusinessHours(w http.ResponseWriter, r *http.Request) {
	day, err := strconv.Atoi(r.PathValue("day"))
	if err != nil {
		h.fail(w, r, apperr.Invalid("day_of_week", "must be 0 (Sunday) to 6 (Saturday)"))
		return
	}
	var req businessHoursPatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	bh, err := h.settings.UpdateBusinessHours(r.Context(), time.Weekday(day), settings.HoursPatch{
		IsOpen: req.IsOpen,
		Open:   req.OpenTime,
		Close:  req.CloseTime,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toBusinessHoursDTO(bh))
}

// Settings

func (h *Handler) GetBookingSettings(w http.ResponseWriter, r *http.Request) {
	bs, err := h.settings.BookingSettings(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, bs)
}

type bookingSettingsPatchRequest struct {
	SlotGranularityMinutes *int    `json:"slot_granularity_minutes"`
	MinLeadTimeMinutes     *int    `json:"min_lead_time_minutes"`
	BufferMinutes          *int    `json:"buffer_minutes"`
	MaxAdvanceDays         *int    `json:"max_advance_days"`
	Timezone               *string `json:"timezone"`
}

func (h *Handler) UpdateBookingSettings(w http.ResponseWriter, r *http.Request) {
	var req bookingSettingsPatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	bs, err := h.settings.UpdateBookingSettings(r.Context(), settings.BookingSettingsPatch{
		SlotGranularityMinutes: req.SlotGranularityMinutes,
		MinLeadTimeMinutes:     req.MinLeadTimeMinutes,
		BufferMinutes:          req.BufferMinutes,
		MaxAdvanceDays:         req.MaxAdvanceDays,
		Timezone:               req.Timezone,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("booking settings updated", "actor", actor(r))
	httpx.WriteJSON(w, http.StatusOK, bs)
}

func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	values, err := h.settings.Values(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"settings": values})
}

type settingDTO struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	value, err := h.settings.Value(r.Context(), key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, settingDTO{Key: key, Value: value})
}

// PutSetting stores the request body, any JSON value, under key.
func (h *Handler) PutSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var value json.RawMessage
	if err := httpx.DecodeJSON(r, &value); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.settings.SetValue(r.Context(), key, value); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("setting updated", "key", key, "actor", actor(r))
	httpx.WriteJSON(w, http.StatusOK, settingDTO{Key: key, Value: value})
}
