package handlers

import (
	"net/http"
	"strings"

	"github.com/stillwater-massage/practice/libs/httpx"
	"github.com/stillwater-massage/practice/services/practice-service/internal/catalog"
	"github.com/stillwater-massage/practice/services/practice-service/internal/model"
)

func (h *Handler) ListOfferings(w http.ResponseWriter, r *http.Request) {
	kind := model.OfferingKind(strings.TrimSpace(r.URL.Query().Get("kind")))
	list, err := h.catalog.List(r.Context(), kind)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": toOfferingDTOs(list)})
}

type offeringRequest struct {
	Kind               string  `json:"kind"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	DurationMinutes    int     `json:"duration_minutes"`
	BasePrice          float64 `json:"base_price"`
	DiscountPercentage float64 `json:"discount_percentage"`
	IsActive           *bool   `json:"is_active"`
	SortOrder          int     `json:"sort_order"`
}

func (h *Handler) CreateOffering(w http.ResponseWriter, r *http.Request) {
	var req offeringRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	o, err := h.catalog.Create(r.Context(), catalog.OfferingInput{
		Kind:               model.OfferingKind(strings.TrimSpace(req.Kind)),
		Name:               req.Name,
		Description:        req.Description,
		DurationMinutes:    req.DurationMinutes,
		BasePrice:          req.BasePrice,
		DiscountPercentage: req.DiscountPercentage,
		IsActive:           active,
		SortOrder:          req.SortOrder,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toOfferingDTO(o))
}

func (h *Handler) GetOffering(w http.ResponseWriter, r *http.Request) {
	o, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toOfferingDTO(o))
}

type offeringPatchRequest struct {
	Name               *string  `json:"name"`
	Description        *string  `json:"description"`
	DurationMinutes    *int     `json:"duration_minutes"`
	BasePrice          *float64 `json:"base_price"`
	DiscountPercentage *float64 `json:"discount_percentage"`
	IsActive           *bool    `json:"is_active"`
	SortOrder          *int     `json:"sort_order"`
}

func (h *Handler) UpdateOffering(w http.ResponseWriter, r *http.Request) {
	var req offeringPatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	o, err := h.catalog.Update(r.Context(), r.PathValue("id"), catalog.OfferingPatch{
		Name:               req.Name,
		Description:        req.Description,
		DurationMinutes:    req.DurationMinutes,
		BasePrice:          req.BasePrice,
		DiscountPercentage: req.DiscountPercentage,
		IsActive:           req.IsActive,
		SortOrder:          req.SortOrder,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toOfferingDTO(o))
}

func (h *Handler) DeleteOffering(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
