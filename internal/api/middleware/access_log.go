package middleware

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/notesqa/internal/api"
)

type accessLogEntry struct {
	Timestamp     string `json:"ts"`
	Method        string `json:"method"`
	Path          string `json:"path"`
	Route         string `json:"route,omitempty"`
	Status        int    `json:"status"`
	Bytes         int    `json:"bytes"`
	DurationMS    int64  `json:"duration_ms"`
	RequestID     string `json:"request_id,omitempty"`
	AnswerOutcome string `json:"answer_outcome,omitempty"`
	RemoteAddr    string `json:"remote_addr,omitempty"`
	UserAgent     string `json:"user_agent,omitempty"`
}

// AccessLog writes one JSON line per request through the standard logger.
// Ask responses also record whether the answer came from the model or from
// the excerpt fallback.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		line, err := json.Marshal(accessLogEntry{
			Timestamp:     start.UTC().Format(time.RFC3339Nano),
			Method:        r.Method,
			Path:          r.URL.Path,
			Route:         routePattern(r),
			Status:        rec.Status(),
			Bytes:         rec.bytes,
			DurationMS:    time.Since(start).Milliseconds(),
			RequestID:     GetRequestID(r.Context()),
			AnswerOutcome: w.Header().Get(api.HeaderAnswerOutcome),
			RemoteAddr:    clientIP(r),
			UserAgent:     r.UserAgent(),
		})
		if err != nil {
			log.Printf("access log: %v", err)
			return
		}
		log.Println(string(line))
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// routePattern returns the matched chi pattern, e.g. /documents/{id}, so log
// lines group by endpoint rather than by document.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
