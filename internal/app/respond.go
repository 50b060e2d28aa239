package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Spok95/hallboard/internal/backend"
	"github.com/Spok95/hallboard/internal/ctxutil"
	"github.com/Spok95/hallboard/internal/forms"
	"github.com/Spok95/hallboard/internal/metrics"
	"github.com/Spok95/hallboard/internal/session"
	"github.com/Spok95/hallboard/internal/students"
	"github.com/Spok95/hallboard/internal/tg"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

type errorBody struct {
	Error  string       `json:"error"`
	Fields forms.Errors `json:"fields,omitempty"`
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorBody{Error: msg})
}

// fail maps err onto a status. Anything unrecognised is an upstream failure and
// answers 502 with msg.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if fe, ok := forms.Fields(err); ok {
		respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "validation failed", Fields: fe})
		return
	}
	var le *session.LoginError
	switch {
	case errors.As(err, &le):
		respondError(w, http.StatusUnauthorized, le.Message)
	case errors.Is(err, students.ErrNotFound):
		respondError(w, http.StatusNotFound, "Student not found")
	case errors.Is(err, students.ErrNoEntry):
		respondError(w, http.StatusConflict, "No fee entry for the selected month")
	case errors.Is(err, tg.ErrDisabled):
		respondError(w, http.StatusServiceUnavailable, "Telegram delivery is not configured")
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads this
		w.WriteHeader(http.StatusServiceUnavailable)
	case backend.IsStatus(err, http.StatusNotFound):
		respondError(w, http.StatusNotFound, msg)
	case backend.IsStatus(err, http.StatusUnauthorized):
		respondError(w, http.StatusUnauthorized, "Session expired, log in again")
	default:
		metrics.HandlerErrors.Inc()
		h.log.Warn("upstream failure", append(ctxutil.Fields(r.Context()), zap.String("path", r.URL.Path), zap.Error(err))...)
		respondError(w, http.StatusBadGateway, msg)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}
