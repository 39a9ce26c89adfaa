package middleware

import (
	"crypto/subtle"
	"net/http"

	"buckety-go/pkg/logger"
)

// CronSecret only lets requests through that carry
// "Authorization: Bearer <secret>". An unset secret rejects everything.
func CronSecret(secret string, log logger.Logger) func(http.Handler) http.Handler {
	log = log.Named("cron")
	expected := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(expected) == 0 {
				log.Warn("cron: CRON_SECRET is not set, rejecting trigger")
				writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
				return
			}
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok || subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
				log.Warn("cron: rejected trigger", "remote_addr", r.RemoteAddr)
				writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
