package middleware

import (
	"net/http"

	"github.com/cloo-solutions/notesqa/internal/api"
)

// MaxBodyBytes caps the body of PUT, POST and PATCH requests. A declared
// Content-Length over the cap is refused up front; chunked bodies fail on read.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || !carriesBody(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > limit {
				api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

func carriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
