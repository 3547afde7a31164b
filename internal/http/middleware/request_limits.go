package middleware

import (
	"net/http"

	"github.com/tendant/simple-idm-console/internal/httputil"
)

// RequestSizeLimit rejects requests whose declared body exceeds maxBytes
// with 413 and caps reads of the remaining ones. A non-positive maxBytes
// disables the limit.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httputil.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
