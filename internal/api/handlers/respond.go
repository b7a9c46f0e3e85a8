package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mnemoslab/mnemos/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service sentinels onto HTTP statuses. Unknown
// errors stay opaque to the client.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrAlreadySuperseded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrConfidenceOutOfRange),
		errors.Is(err, service.ErrPriorityOutOfRange),
		errors.Is(err, service.ErrValenceOutOfRange),
		errors.Is(err, service.ErrArousalOutOfRange),
		errors.Is(err, service.ErrImportanceOutOfRange),
		errors.Is(err, service.ErrSignificanceOutOfRange),
		errors.Is(err, service.ErrQualityOutOfRange),
		errors.Is(err, service.ErrContentEmpty),
		errors.Is(err, service.ErrSubjectEmpty),
		errors.Is(err, service.ErrUnknownSourceTable),
		errors.Is(err, service.ErrUnknownDisposition):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrChainTooDeep):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// queryFloat parses an optional float query parameter.
func queryFloat(r *http.Request, name string, def float64) float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return f
}

// queryBool treats "true" and "1" as set.
func queryBool(r *http.Request, name string) bool {
	raw := r.URL.Query().Get(name)
	return raw == "true" || raw == "1"
}
