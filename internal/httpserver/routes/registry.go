package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/cuemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cuemark/internal/httpserver/mw"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
	// Guard builds a middleware once the dependencies are known.
	Guard func(d deps.Deps) Middleware
)

type entry struct {
	reg    Registrar
	guards []Guard
}

var (
	prefixes []string
	registry = map[string][]entry{}
)

// Register adds a registrar under prefix ("" for the root). Every registrar
// gets its own group so guards never leak between them.
func Register(prefix string, reg Registrar, guards ...Guard) {
	if _, ok := registry[prefix]; !ok {
		prefixes = append(prefixes, prefix)
	}
	registry[prefix] = append(registry[prefix], entry{reg: reg, guards: guards})
}

// RegisterAll mounts each prefix once. Called from NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, prefix := range prefixes {
		entries := registry[prefix]
		mount := func(sub chi.Router) {
			for _, e := range entries {
				sub.Group(func(g chi.Router) {
					for _, guard := range e.guards {
						g.Use(guard(d))
					}
					e.reg(g, d)
				})
			}
		}
		if prefix == "" {
			mount(r)
			continue
		}
		r.Route(prefix, mount)
	}
}

func allowedPeers(d deps.Deps) Middleware { return mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.Logger) }

func allowedHosts(d deps.Deps) Middleware { return mw.EnforceHost(d.AllowedHosts, d.Logger) }

// writeLimit bounds mutating calls; each accepted one rewrites the bookmark file.
func writeLimit(d deps.Deps) Middleware {
	return mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.WriteBurst,
		RefillPerIPPerMin: d.WritePerMinute,
		MaxEntries:        256,
	})
}
