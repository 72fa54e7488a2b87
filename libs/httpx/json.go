package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/stillwater-massage/practice/libs/apperr"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// DecodeJSON decodes a single JSON object into v. Unknown fields are rejected
// so misspelled patch keys surface as validation errors instead of no-ops.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperr.Invalid("body", "request body too large")
		case errors.Is(err, io.EOF):
			return apperr.Invalid("body", "request body is empty")
		default:
			return apperr.Invalid("body", "invalid json body: %v", err)
		}
	}
	if dec.More() {
		return apperr.Invalid("body", "unexpected data after json object")
	}
	return nil
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as a JSON error body. Internal errors are logged and
// replaced by a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := StatusFor(err)
	kind := apperr.KindOf(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed",
				"request_id", RequestIDFromContext(r.Context()),
				"path", r.URL.Path,
				"kind", kind.String(),
				"err", err,
			)
		}
		if kind == apperr.KindInternal {
			msg = "internal error"
		} else {
			msg = publicMessage(err)
		}
	}
	WriteJSON(w, status, errorBody{Error: msg, Kind: kind.String(), Field: apperr.FieldOf(err)})
}

// publicMessage drops wrapped causes, which may carry driver details.
func publicMessage(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return http.StatusText(StatusFor(err))
}
