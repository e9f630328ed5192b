package observe

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/ecaspace/slice"
)

// QueryFunc is the signature of an instrumented query. Results travel
// through the closure; only the outcome passes the middleware.
type QueryFunc func(ctx context.Context, meta QueryMeta) error

// Middleware wraps queries with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe QueryFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from the wrapped function are recorded and propagated unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
// Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	if logger == nil {
		logger = &noopLogger{}
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap wraps a QueryFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn QueryFunc) QueryFunc {
	return func(ctx context.Context, meta QueryMeta) error {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		err := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordQuery(ctx, meta, duration, err)

		logger := m.logger.WithQuery(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000},
		}
		switch {
		case err == nil:
			logger.Debug(ctx, "query completed", fields...)
		case errors.Is(err, slice.ErrCancelled):
			logger.Debug(ctx, "query out of budget", fields...)
		default:
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Error(ctx, "query failed", fields...)
		}

		return err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
