package observe

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/ecaspace/slice"
)

// Metrics records query metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordQuery records one query with its duration and outcome.
	RecordQuery(ctx context.Context, meta QueryMeta, duration time.Duration, err error)
}

type metricsImpl struct {
	totalCount     metric.Int64Counter
	errorCount     metric.Int64Counter
	cancelledCount metric.Int64Counter
	durationHist   metric.Float64Histogram
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"eca.query.total",
		metric.WithDescription("Total number of space-time queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"eca.query.errors",
		metric.WithDescription("Queries that failed for a reason other than budget"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	cancelledCount, err := meter.Int64Counter(
		"eca.query.cancelled",
		metric.WithDescription("Queries that ran out of budget"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"eca.query.duration_ms",
		metric.WithDescription("Query duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:     totalCount,
		errorCount:     errorCount,
		cancelledCount: cancelledCount,
		durationHist:   durationHist,
	}, nil
}

func (m *metricsImpl) RecordQuery(ctx context.Context, meta QueryMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(
		attribute.String("eca.op", meta.Op),
		attribute.Int("eca.rule", meta.Rule),
	)

	m.totalCount.Add(ctx, 1, opt)
	switch {
	case err == nil:
	case errors.Is(err, slice.ErrCancelled):
		m.cancelledCount.Add(ctx, 1, opt)
	default:
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

// Snapshot is a point-in-time view of table sizes reported as gauges.
type Snapshot struct {
	Slices          int64
	Nexts           int64
	ResolverEntries int64
	RasterEntries   int64
}

// RegisterGauges exposes the values returned by fn as observable gauges
// eca.store.slices, eca.store.nexts, eca.resolver.entries and
// eca.raster.entries. fn is called once per collection.
func RegisterGauges(meter metric.Meter, fn func() Snapshot) (metric.Registration, error) {
	slices, err := meter.Int64ObservableGauge("eca.store.slices",
		metric.WithDescription("Canonical slices issued"), metric.WithUnit("{slice}"))
	if err != nil {
		return nil, err
	}
	nexts, err := meter.Int64ObservableGauge("eca.store.nexts",
		metric.WithDescription("Memoized quarter-step results"), metric.WithUnit("{slice}"))
	if err != nil {
		return nil, err
	}
	resolver, err := meter.Int64ObservableGauge("eca.resolver.entries",
		metric.WithDescription("Memoized (x, t, bs) windows"), metric.WithUnit("{entry}"))
	if err != nil {
		return nil, err
	}
	raster, err := meter.Int64ObservableGauge("eca.raster.entries",
		metric.WithDescription("Cached block grids"), metric.WithUnit("{entry}"))
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := fn()
		o.ObserveInt64(slices, s.Slices)
		o.ObserveInt64(nexts, s.Nexts)
		o.ObserveInt64(resolver, s.ResolverEntries)
		o.ObserveInt64(raster, s.RasterEntries)
		return nil
	}, slices, nexts, resolver, raster)
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordQuery(ctx context.Context, meta QueryMeta, duration time.Duration, err error) {
}
