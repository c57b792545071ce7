package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/cuemark/internal/httpserver/deps"
)

type buildInfo struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

type healthzResponse struct {
	Status        string    `json:"status"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	ControlLoop   string    `json:"control_loop"`
	Bookmarks     int       `json:"bookmarks"`
	Build         buildInfo `json:"build"`
}

// loopProbeTimeout keeps liveness answers fast when the loop is busy.
const loopProbeTimeout = 200 * time.Millisecond

// Healthz always answers 200 while the process serves HTTP. It reports
// whether the control loop still takes work and how many bookmarks the
// published view holds.
func Healthz(d deps.Deps) http.HandlerFunc {
	build := buildInfo{
		Version:   d.Version,
		Commit:    d.Commit,
		BuildDate: d.BuildDate,
		GoVersion: d.GoVersion,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), loopProbeTimeout)
		defer cancel()

		loop := "running"
		if err := d.Loop.Do(ctx, func() {}); err != nil {
			loop = "unresponsive"
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			UptimeSeconds: time.Since(d.StartTime).Seconds(),
			ControlLoop:   loop,
			Bookmarks:     d.Index.Count(),
			Build:         build,
		})
	}
}
