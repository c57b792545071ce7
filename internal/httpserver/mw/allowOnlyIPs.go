package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/cuemark/internal/logger"
	"github.com/MrSnakeDoc/cuemark/internal/utils"
)

// AllowOnlyCIDRS admits only peers inside the allowed addresses or prefixes.
// An empty list admits everyone.
func AllowOnlyCIDRS(allowed []string, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		log.Debug("AllowOnlyCIDRS: empty matcher, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r)
			if !m.Allow(ip) {
				log.Warn("api request rejected by address filter",
					logger.String("remote_ip", ip),
					logger.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
