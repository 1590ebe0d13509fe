package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"renthub/pkg/logger"
)

const (
	adminSecretHeader = "X-Admin-Secret"
	cronSecretParam   = "secret"
)

// SharedSecret gates admin and cron routes. Admin callers send the secret in
// a header; the cron sweep trigger is invoked by dumb schedulers that can
// only hit a URL, so it may carry the secret as a query parameter instead.
func SharedSecret(secret string, pathPrefixes []string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !matchesPrefix(r.URL.Path, pathPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get(adminSecretHeader)
			if provided == "" {
				provided = r.URL.Query().Get(cronSecretParam)
			}

			if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				log.Warn("Admin route rejected",
					"request_id", requestIDFrom(r),
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func matchesPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
