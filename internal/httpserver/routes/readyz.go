package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/cuemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cuemark/internal/httpserver/handlers"
)

func init() {
	Register("", registerHealth)
	Register("", registerReady, allowedPeers)
}

func registerHealth(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
}

func registerReady(r chi.Router, d deps.Deps) {
	r.Get("/readyz", handlers.Readyz(d))
}
