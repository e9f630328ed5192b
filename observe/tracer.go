package observe

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/ecaspace/slice"
)

// QueryMeta describes one space-time query for telemetry purposes.
type QueryMeta struct {
	Op   string // query kind: slice, cell, row, block, decode, raster, transitions (required)
	Rule int    // Wolfram rule number

	// Optional coordinates; HasPos reports whether X and T are set.
	X, T      int64
	HasPos    bool
	BlockSize int
}

// SpanName returns the deterministic span name for this query.
// Format: eca.<op>
func (m QueryMeta) SpanName() string {
	return "eca." + m.Op
}

// Validate reports whether the metadata is usable.
func (m QueryMeta) Validate() error {
	if m.Op == "" {
		return ErrMissingOp
	}
	return nil
}

func (m QueryMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("eca.op", m.Op),
		attribute.Int("eca.rule", m.Rule),
	}
	if m.HasPos {
		attrs = append(attrs, attribute.Int64("eca.x", m.X), attribute.Int64("eca.t", m.T))
	}
	if m.BlockSize > 0 {
		attrs = append(attrs, attribute.Int("eca.block_size", m.BlockSize))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with query span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a query.
	StartSpan(ctx context.Context, meta QueryMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error. A cancelled query is not
	// an error: the span is marked eca.cancelled and keeps an Unset status.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta QueryMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("eca.error", false))
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, slice.ErrCancelled):
		span.SetAttributes(attribute.Bool("eca.cancelled", true))
	default:
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("eca.error", true))
		span.RecordError(err)
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta QueryMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
