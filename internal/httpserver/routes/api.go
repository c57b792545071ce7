package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/cuemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cuemark/internal/httpserver/handlers"
)

func init() {
	Register("/api", registerReads, allowedPeers, allowedHosts)
	Register("/api", registerWrites, allowedPeers, allowedHosts, writeLimit)
}

func registerReads(r chi.Router, d deps.Deps) {
	r.Get("/bookmarks", handlers.ListBookmarks(d))
	r.Get("/status", handlers.Status(d))
}

func registerWrites(r chi.Router, d deps.Deps) {
	r.Post("/bookmarks", handlers.AddBookmark(d))
	r.Delete("/bookmarks/{n}", handlers.DeleteBookmark(d))
	r.Delete("/bookmarks/id/{id}", handlers.DeleteBookmarkByID(d))
	r.Post("/seek", handlers.Seek(d))
	r.Post("/toggle", handlers.Toggle(d))
}
