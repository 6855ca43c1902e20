package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds the whole request, including backing store queries, so a
// slow store fails the request with a timeout instead of hanging it.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
