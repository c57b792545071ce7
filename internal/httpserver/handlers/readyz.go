package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/cuemark/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Bookmarks  *int   `json:"bookmarks,omitempty"`
	LastReload string `json:"last_reload,omitempty"`
	Mode       string `json:"mode,omitempty"`
	InSync     *bool  `json:"in_sync,omitempty"`
	Error      string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz reports ready once the control loop answers. The Redis mirror is
// informational: it never makes the process unready.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()

		loop := componentStatus{OK: true}
		if err := d.Loop.Do(ctx, func() {}); err != nil {
			loop = componentStatus{OK: false, Error: err.Error()}
		}

		count := d.Index.Count()
		lastReload := "never"
		if t := d.Index.LastReload(); !t.IsZero() {
			lastReload = t.Format("2006-01-02 15:04:05")
		}

		resp := readyzResponse{
			Ready: loop.OK,
			Components: map[string]componentStatus{
				"control_loop": loop,
				"bookmarks":    {OK: true, Bookmarks: &count, LastReload: lastReload},
				"redis":        checkRedis(ctx, d, count),
			},
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

// checkRedis compares the mirrored count with the published view. A mirror
// that lags behind is reported, not failed: the syncer catches up on the
// next snapshot.
func checkRedis(ctx context.Context, d deps.Deps, indexed int) componentStatus {
	if d.Mirror == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}
	if err := d.Mirror.Ping(ctx); err != nil {
		return componentStatus{OK: false, Mode: "mirror", Error: err.Error()}
	}
	mirrored, err := d.Mirror.MirroredCount(ctx)
	if err != nil {
		return componentStatus{OK: false, Mode: "mirror", Error: err.Error()}
	}
	inSync := mirrored == indexed
	return componentStatus{OK: true, Mode: "mirror", Bookmarks: &mirrored, InSync: &inSync}
}
