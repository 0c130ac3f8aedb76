package middleware

import (
	"net/http"

	"github.com/getsentry/sentry-go"

	"github.com/cloo-solutions/notesqa/internal/api"
)

// SentryMiddleware opens a transaction per request on a cloned hub so service
// spans nest under it. Panics are reported and re-raised. Without a Sentry
// client every call below is a no-op.
func SentryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := sentry.GetHubFromContext(r.Context())
		if hub == nil {
			hub = sentry.CurrentHub().Clone()
		}

		options := []sentry.SpanOption{
			sentry.WithOpName("http.server"),
			sentry.WithTransactionSource(sentry.SourceURL),
		}
		if trace := r.Header.Get("sentry-trace"); trace != "" {
			options = append(options, sentry.ContinueFromHeaders(trace, r.Header.Get("baggage")))
		}

		tx := sentry.StartTransaction(r.Context(), r.Method+" "+r.URL.Path, options...)
		defer tx.Finish()

		r = r.WithContext(sentry.SetHubOnContext(tx.Context(), hub))

		scope := hub.Scope()
		scope.SetRequest(r)
		if requestID := GetRequestID(r.Context()); requestID != "" {
			scope.SetTag("request_id", requestID)
			tx.SetTag("request_id", requestID)
		}

		defer func() {
			if err := recover(); err != nil {
				tx.Status = sentry.SpanStatusInternalError
				hub.RecoverWithContext(r.Context(), err)
				panic(err)
			}
		}()

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.Status()
		tx.Status = spanStatus(status)
		tx.SetData("http.response.status_code", status)
		if outcome := w.Header().Get(api.HeaderAnswerOutcome); outcome != "" {
			tx.SetTag("answer.outcome", outcome)
		}
		if pattern := routePattern(r); pattern != "" {
			tx.Name = r.Method + " " + pattern
			tx.Source = sentry.SourceRoute
		}
	})
}

// spanStatus maps the status codes this API produces onto span statuses.
func spanStatus(status int) sentry.SpanStatus {
	switch {
	case status < 400:
		return sentry.SpanStatusOK
	case status == http.StatusNotFound:
		return sentry.SpanStatusNotFound
	case status == http.StatusConflict:
		return sentry.SpanStatusAlreadyExists
	case status < 500:
		return sentry.SpanStatusInvalidArgument
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable:
		return sentry.SpanStatusUnavailable
	case status == http.StatusGatewayTimeout:
		return sentry.SpanStatusDeadlineExceeded
	default:
		return sentry.SpanStatusInternalError
	}
}
