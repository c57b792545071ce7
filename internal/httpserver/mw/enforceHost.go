package mw

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/cuemark/internal/logger"
	"github.com/MrSnakeDoc/cuemark/internal/utils"
)

// loopbackHosts are always accepted; a browser page on another origin
// cannot forge them through DNS rebinding.
var loopbackHosts = []string{"localhost", "127.0.0.1", "::1"}

// EnforceHost rejects requests whose Host header, port ignored, is neither a
// loopback name nor one of allowedHosts. Patterns like "*.lan" match any
// subdomain.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	patterns := make([]string, 0, len(allowedHosts)+len(loopbackHosts))
	patterns = append(patterns, loopbackHosts...)
	for _, h := range allowedHosts {
		patterns = append(patterns, strings.ToLower(utils.ParseHostNoPort(h)))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := strings.ToLower(strings.Trim(utils.ParseHostNoPort(r.Host), "[]"))
			for _, pattern := range patterns {
				if matchHost(host, pattern) {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Warn("api request rejected by host filter", logger.String("host", r.Host))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// matchHost checks if host matches pattern (supports wildcard *.example.com)
func matchHost(host, pattern string) bool {
	if host == pattern {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(host, pattern[1:])
	}
	return false
}
