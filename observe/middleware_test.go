package observe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/ecaspace/slice"
)

type fixture struct {
	mw     *Middleware
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	logs   *bytes.Buffer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	var logs bytes.Buffer

	obs := NewObserverFromProviders("test", tp, mp, NewLoggerWithWriter("debug", &logs))
	mw, err := MiddlewareFromObserver(obs)
	if err != nil {
		t.Fatalf("MiddlewareFromObserver failed: %v", err)
	}
	return fixture{mw: mw, spans: rec, reader: reader, logs: &logs}
}

func TestMiddleware_SuccessPath(t *testing.T) {
	f := newFixture(t)
	meta := QueryMeta{Op: "cell", Rule: 110}

	var got bool
	err := f.mw.Wrap(func(ctx context.Context, _ QueryMeta) error {
		got = true
		return nil
	})(context.Background(), meta)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !got {
		t.Error("wrapped query did not run")
	}

	spans := f.spans.Ended()
	if len(spans) != 1 || spans[0].Name() != "eca.cell" {
		t.Fatalf("expected one eca.cell span, got %d", len(spans))
	}
	if v := sumValue(t, collect(t, f.reader), "eca.query.total"); v != 1 {
		t.Errorf("eca.query.total = %d, want 1", v)
	}
	e := decodeLines(t, f.logs)[0]
	if e["msg"] != "query completed" || e["level"] != "debug" {
		t.Errorf("unexpected log entry: %v", e)
	}
	if _, ok := e["duration_ms"]; !ok {
		t.Error("log entry missing duration_ms")
	}
}

func TestMiddleware_ErrorPath(t *testing.T) {
	f := newFixture(t)
	testErr := errors.New("bad query")

	err := f.mw.Wrap(func(context.Context, QueryMeta) error { return testErr })(
		context.Background(), QueryMeta{Op: "row"})
	if err != testErr {
		t.Errorf("expected error %v, got %v", testErr, err)
	}

	if v := sumValue(t, collect(t, f.reader), "eca.query.errors"); v != 1 {
		t.Errorf("eca.query.errors = %d, want 1", v)
	}
	e := decodeLines(t, f.logs)[0]
	if e["level"] != "error" || e["error"] != "bad query" {
		t.Errorf("unexpected log entry: %v", e)
	}
}

func TestMiddleware_CancelledPath(t *testing.T) {
	f := newFixture(t)
	cancelled := fmt.Errorf("%w: %w", slice.ErrCancelled, context.DeadlineExceeded)

	err := f.mw.Wrap(func(context.Context, QueryMeta) error { return cancelled })(
		context.Background(), QueryMeta{Op: "slice"})
	if !errors.Is(err, slice.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}

	rm := collect(t, f.reader)
	if v := sumValue(t, rm, "eca.query.cancelled"); v != 1 {
		t.Errorf("eca.query.cancelled = %d, want 1", v)
	}
	if v := sumValue(t, rm, "eca.query.errors"); v != 0 {
		t.Errorf("eca.query.errors = %d, want 0", v)
	}
	if e := decodeLines(t, f.logs)[0]; e["msg"] != "query out of budget" {
		t.Errorf("unexpected log entry: %v", e)
	}
}

func TestMiddleware_PropagatesContext(t *testing.T) {
	f := newFixture(t)
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	err := f.mw.Wrap(func(ctx context.Context, _ QueryMeta) error {
		if ctx.Value(key{}) != "v" {
			t.Error("context value lost")
		}
		if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
			t.Error("query context carries no span")
		}
		return nil
	})(ctx, QueryMeta{Op: "decode"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMiddleware_NilComponentsNoop(t *testing.T) {
	mw := NewMiddleware(nil, nil, nil)
	called := false
	err := mw.Wrap(func(context.Context, QueryMeta) error {
		called = true
		return nil
	})(context.Background(), QueryMeta{Op: "cell"})
	if err != nil || !called {
		t.Errorf("noop middleware: called=%v err=%v", called, err)
	}
}

func TestMiddlewareFromObserver_Nil(t *testing.T) {
	if _, err := MiddlewareFromObserver(nil); !errors.Is(err, ErrNilObserver) {
		t.Errorf("expected ErrNilObserver, got %v", err)
	}
}
