// Package telemetry wraps Sentry tracing for the indexing and question
// answering paths. Every helper is a no-op when Sentry is not initialized.
package telemetry

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	serviceName  = "notesqa"
	flushTimeout = 5 * time.Second
)

// Config holds the configuration for Sentry initialization.
type Config struct {
	DSN              string
	Environment      string
	TracesSampleRate float64
	Debug            bool
}

// Init initializes Sentry with tracing enabled and returns a function that
// flushes pending events. An empty DSN or a failed init yields a no-op.
func Init(cfg Config) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.TracesSampleRate == 0 {
		cfg.TracesSampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		EnableTracing:    true,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		ServerName:       serviceName,
		TracesSampler:    sampler(cfg.TracesSampleRate),
	})
	if err != nil {
		log.Printf("sentry: failed to initialize (continuing without tracing): %v", err)
		return func() {}, nil
	}

	log.Printf("sentry: tracing initialized (environment: %s, sample_rate: %.2f)", cfg.Environment, cfg.TracesSampleRate)
	return func() { sentry.Flush(flushTimeout) }, nil
}

// sampler drops health probes and keeps child spans with their parent.
func sampler(rate float64) sentry.TracesSampler {
	return func(ctx sentry.SamplingContext) float64 {
		if ctx.Span == nil {
			return rate
		}
		if ctx.Span.Name == "GET /health" {
			return 0.0
		}

		var root sentry.SpanID
		if ctx.Span.ParentSpanID != root {
			if ctx.Span.Sampled.Bool() {
				return 1.0
			}
			return 0.0
		}
		return rate
	}
}

// SpanAttributes contains common attributes for service spans.
type SpanAttributes struct {
	DocumentID string
	JobID      string
	Operation  string
}

// Span wraps sentry.Span so callers need not nil-check.
type Span struct {
	inner *sentry.Span
}

// End finishes the span.
func (s *Span) End() {
	if s.inner != nil {
		s.inner.Finish()
	}
}

// SetTag records a searchable value such as the retrieval tier or answer outcome
func (s *Span) SetTag(key, value string) {
	if s.inner != nil {
		s.inner.SetTag(key, value)
	}
}

// SetError marks the span as errored and captures the exception.
func (s *Span) SetError(err error) {
	if s.inner == nil {
		return
	}
	s.inner.Status = sentry.SpanStatusInternalError
	if hub := sentry.GetHubFromContext(s.inner.Context()); hub != nil {
		hub.CaptureException(err)
	}
}

func setAttributes(span *sentry.Span, attrs SpanAttributes) {
	if attrs.DocumentID != "" {
		span.SetTag("document_id", attrs.DocumentID)
	}
	if attrs.JobID != "" {
		span.SetTag("index_job_id", attrs.JobID)
	}
	if attrs.Operation != "" {
		span.SetData("operation", attrs.Operation)
	}
}

// StartSpan starts a child of the span in ctx, or a new transaction when
// there is none.
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(name)
	} else {
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}

	setAttributes(span, attrs)
	return span.Context(), &Span{inner: span}
}

// CaptureError reports err on the request's hub when there is one.
func CaptureError(ctx context.Context, err error) {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}

// AddBreadcrumb adds a breadcrumb to the current scope.
func AddBreadcrumb(ctx context.Context, category, message string) {
	AddBreadcrumbWithData(ctx, category, message, nil)
}

// AddBreadcrumbWithData adds a breadcrumb carrying structured data, such as the
// threshold tier a retrieval ran at.
func AddBreadcrumbWithData(ctx context.Context, category, message string, data map[string]interface{}) {
	breadcrumb := &sentry.Breadcrumb{
		Type:      "default",
		Category:  category,
		Message:   message,
		Data:      data,
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.AddBreadcrumb(breadcrumb, nil)
		return
	}
	sentry.AddBreadcrumb(breadcrumb)
}
