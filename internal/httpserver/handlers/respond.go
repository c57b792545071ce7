package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/cuemark/internal/domain"
	"github.com/MrSnakeDoc/cuemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cuemark/internal/library"
	"github.com/MrSnakeDoc/cuemark/internal/logger"
	"github.com/MrSnakeDoc/cuemark/internal/session"
)

type errorResponse struct {
	Error string `json:"error"`
}

type effectResponse struct {
	Message string `json:"message,omitempty"`
	Warning string `json:"warning,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps failure classes onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoMedia), errors.Is(err, session.ErrOtherFile),
		errors.Is(err, library.ErrConflict), errors.Is(err, domain.ErrCanceled):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// dispatch runs ev on the control loop and writes the outcome.
func dispatch(w http.ResponseWriter, r *http.Request, d deps.Deps, ev session.Event, okStatus int) {
	var eff session.Effect
	if err := d.Loop.Do(r.Context(), func() { eff = d.Player.Handle(ev) }); err != nil {
		d.Logger.Warn("control loop unavailable", logger.Error(err))
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if eff.Err != nil {
		writeError(w, statusFor(eff.Err), eff.Err)
		return
	}

	resp := effectResponse{Message: eff.Message}
	if eff.Warning != nil {
		resp.Warning = eff.Warning.Error()
	}
	writeJSON(w, okStatus, resp)
}
