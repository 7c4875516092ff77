package middleware

import "net/http"

// MaxBodySize caps request bodies at n bytes. Requests that declare a larger
// Content-Length are rejected with 413; others are cut off by
// http.MaxBytesReader while the handler reads.
func MaxBodySize(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > n {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "request_too_large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
