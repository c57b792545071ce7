package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/cuemark/internal/domain"
	"github.com/MrSnakeDoc/cuemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cuemark/internal/session"
)

// Status returns the transport snapshot.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var st session.Status
		if err := d.Loop.Do(r.Context(), func() { st = d.Player.Status() }); err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, st)
	}
}

// Seek requests a slider position given by ?pos=0..1000. The request is
// throttled like a slider drag.
func Seek(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pos, err := strconv.Atoi(r.URL.Query().Get("pos"))
		if err != nil || pos < 0 || pos > 1000 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: pos must be an integer in [0, 1000]", domain.ErrValidation))
			return
		}
		dispatch(w, r, d, session.SeekTo{Position: pos}, http.StatusAccepted)
	}
}

// Toggle plays or pauses.
func Toggle(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dispatch(w, r, d, session.TogglePlay{}, http.StatusOK)
	}
}
