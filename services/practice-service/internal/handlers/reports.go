package handlers

import (
	"net/http"

	"github.com/stillwater-massage/practice/libs/httpx"
)

func (h *Handler) AppointmentReport(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from", true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	to, err := queryDate(r, "to", true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	summary, err := h.reports.AppointmentSummary(r.Context(), from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSummaryDTO(summary))
}
