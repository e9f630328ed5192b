package session

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jonwraymond/ecaspace/health"
	"github.com/jonwraymond/ecaspace/naive"
	"github.com/jonwraymond/ecaspace/observe"
	"github.com/jonwraymond/ecaspace/slice"
	"github.com/jonwraymond/ecaspace/spacetime"
	"github.com/jonwraymond/ecaspace/transition"
)

var single = spacetime.Initial{Center: []bool{true}}

func newSession(t *testing.T, cfg Config, opts ...Option) *Session {
	t.Helper()
	s, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "zero value", cfg: Config{}},
		{name: "rule 255", cfg: Config{Rule: 255}},
		{name: "rule too large", cfg: Config{Rule: 256}, wantErr: true},
		{name: "negative rule", cfg: Config{Rule: -1}, wantErr: true},
		{name: "negative cache", cfg: Config{CacheCapacity: -1}, wantErr: true},
		{name: "max slices one", cfg: Config{MaxSlices: 1}, wantErr: true},
		{name: "max slices above ceiling", cfg: Config{MaxSlices: slice.MaxSlices + 1}, wantErr: true},
		{name: "max slices at ceiling", cfg: Config{MaxSlices: slice.MaxSlices}},
		{name: "min cached level too large", cfg: Config{MinCachedLevel: 13}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(Config{Rule: 300}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("New() = %v, want ErrInvalidConfig", err)
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	s := newSession(t, Config{Rule: 90, Initial: single})
	cfg := s.Config()
	if cfg.CacheCapacity != DefaultCacheCapacity {
		t.Errorf("CacheCapacity = %d, want %d", cfg.CacheCapacity, DefaultCacheCapacity)
	}
	if cfg.MaxSlices != slice.MaxSlices {
		t.Errorf("MaxSlices = %d, want %d", cfg.MaxSlices, slice.MaxSlices)
	}
	if s.Rule().Number() != 90 {
		t.Errorf("Rule = %d, want 90", s.Rule().Number())
	}
	if got := s.Initial(); len(got.LeftCycle) != 1 || len(got.RightCycle) != 1 {
		t.Errorf("Initial cycles not normalized: %+v", got)
	}
}

func TestSession_RowMatchesNaive(t *testing.T) {
	init := spacetime.Initial{
		Center:     []bool{true, true, false, true},
		LeftCycle:  []bool{false, true},
		RightCycle: []bool{true, false, false},
	}
	for _, rule := range []int{30, 54, 110} {
		s := newSession(t, Config{Rule: rule, Initial: init})
		ctx := context.Background()
		for _, q := range []struct {
			x, t  int64
			width int
		}{
			{-20, 0, 40}, {-7, 13, 25}, {3, 64, 17},
		} {
			got, err := s.Row(ctx, q.x, q.t, q.width)
			if err != nil {
				t.Fatalf("rule %d: Row failed: %v", rule, err)
			}
			want := naive.Window(s.Rule(), s.Initial().CellAt, q.x, q.t, q.width)
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("rule %d row (%d,%d): cell %d = %v, want %v", rule, q.x, q.t, i, got[i], want[i])
				}
			}
		}
	}
}

func TestSession_RasterMatchesBlock(t *testing.T) {
	s := newSession(t, Config{Rule: 30, Initial: single})
	ctx := context.Background()

	g, err := s.Raster(ctx, -16, 0, 5)
	if err != nil {
		t.Fatalf("Raster failed: %v", err)
	}
	want := naive.Region(s.Rule(), s.Initial().CellAt, -16, 0, g.Width, g.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.At(x, y) != want[y][x] {
				t.Fatalf("cell (%d,%d) = %v, want %v", x, y, g.At(x, y), want[y][x])
			}
		}
	}

	b, err := s.BlockAt(ctx, -16, 0, 5)
	if err != nil {
		t.Fatalf("BlockAt failed: %v", err)
	}
	decoded, err := s.Decode(ctx, b.ID)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.ID != b.ID {
		t.Errorf("Decode id = %d, want %d", decoded.ID, b.ID)
	}
}

func TestSession_SliceAtIsCanonical(t *testing.T) {
	// Rule 0 maps every row after t = 0 to all-false cells.
	s := newSession(t, Config{Rule: 0, Initial: single})
	ctx := context.Background()

	a, err := s.SliceAt(ctx, 0, 5, 3)
	if err != nil {
		t.Fatalf("SliceAt failed: %v", err)
	}
	b, err := s.SliceAt(ctx, 800, 9, 3)
	if err != nil {
		t.Fatalf("SliceAt failed: %v", err)
	}
	if a != b {
		t.Errorf("equal windows got distinct ids %d and %d", a, b)
	}
}

func TestSession_CapacityLatches(t *testing.T) {
	var logs bytes.Buffer
	obs := observe.NewObserverFromProviders("test",
		sdktrace.NewTracerProvider(), sdkmetric.NewMeterProvider(),
		observe.NewLoggerWithWriter("error", &logs))
	s := newSession(t, Config{Rule: 30, Initial: single, MaxSlices: 16}, WithObserver(obs))
	ctx := context.Background()

	_, err := s.Cell(ctx, 0, 500)
	if !errors.Is(err, ErrSessionFailed) || !errors.Is(err, slice.ErrCapacityExceeded) {
		t.Fatalf("Cell() = %v, want ErrSessionFailed wrapping ErrCapacityExceeded", err)
	}
	if s.Failed() == nil {
		t.Fatal("session not latched")
	}
	if !s.Stats().Failed {
		t.Error("Stats().Failed = false")
	}

	// Even a trivial query is refused once latched.
	if _, err := s.Cell(ctx, 0, 0); !errors.Is(err, ErrSessionFailed) {
		t.Errorf("Cell() after latch = %v, want ErrSessionFailed", err)
	}
	if n := strings.Count(logs.String(), `"session failed"`); n != 1 {
		t.Errorf("logged %d session failures, want 1", n)
	}

	res := health.NewCapacityChecker(s, health.CapacityCheckerConfig{}).Check(ctx)
	if res.Status != health.StatusUnhealthy {
		t.Errorf("capacity check = %v, want unhealthy", res.Status)
	}
}

func TestSession_CancelledDoesNotLatch(t *testing.T) {
	s := newSession(t, Config{Rule: 110, Initial: single})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Cell(ctx, 0, 1000); !errors.Is(err, slice.ErrCancelled) {
		t.Fatalf("Cell() = %v, want ErrCancelled", err)
	}
	if s.Failed() != nil {
		t.Fatal("cancellation latched the session")
	}
	if _, err := s.Cell(context.Background(), 0, 1000); err != nil {
		t.Fatalf("Cell() after cancel = %v", err)
	}
}

func TestSession_PositionOutOfRange(t *testing.T) {
	s := newSession(t, Config{Rule: 110, Initial: single})
	ctx := context.Background()

	if _, err := s.Cell(ctx, math.MaxInt64, 3); !errors.Is(err, spacetime.ErrInvalidPosition) {
		t.Errorf("Cell() = %v, want ErrInvalidPosition", err)
	}
	if _, err := s.Raster(ctx, math.MinInt64, 0, 4); !errors.Is(err, spacetime.ErrInvalidPosition) {
		t.Errorf("Raster() = %v, want ErrInvalidPosition", err)
	}
	if s.Failed() != nil {
		t.Fatal("rejected position latched the session")
	}
}

func TestSession_Transitions(t *testing.T) {
	s := newSession(t, Config{Rule: 110, Initial: single})
	g, err := s.Transitions(context.Background(), 2)
	if err != nil {
		t.Fatalf("Transitions failed: %v", err)
	}
	if eden := g.GardenOfEden(); len(eden) != 2 || transition.Format(2, eden[0]) != "01" || transition.Format(2, eden[1]) != "10" {
		t.Errorf("GardenOfEden = %v, want [01 10]", eden)
	}
	if _, err := s.Transitions(context.Background(), transition.MaxWidth+1); !errors.Is(err, transition.ErrInvalidWidth) {
		t.Errorf("Transitions() = %v, want ErrInvalidWidth", err)
	}
}

func TestSession_Instrumented(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	obs := observe.NewObserverFromProviders("test", tp, mp, nil)

	s := newSession(t, Config{Rule: 110, Initial: single}, WithObserver(obs))
	ctx := context.Background()
	if _, err := s.Cell(ctx, 0, 10); err != nil {
		t.Fatalf("Cell failed: %v", err)
	}
	if _, err := s.Row(ctx, -4, 10, 8); err != nil {
		t.Fatalf("Row failed: %v", err)
	}

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Name() != "eca.cell" || spans[1].Name() != "eca.row" {
		t.Errorf("span names = %q, %q", spans[0].Name(), spans[1].Name())
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	gauges := map[string]int64{}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					gauges[m.Name] = dp.Value
				}
			case metricdata.Sum[int64]:
				if m.Name == "eca.query.total" {
					for _, dp := range data.DataPoints {
						total += dp.Value
					}
				}
			}
		}
	}
	if total != 2 {
		t.Errorf("eca.query.total = %d, want 2", total)
	}
	st := s.Stats()
	if gauges["eca.store.slices"] != int64(st.Store.Slices) {
		t.Errorf("eca.store.slices = %d, want %d", gauges["eca.store.slices"], st.Store.Slices)
	}
	if gauges["eca.resolver.entries"] != int64(st.ResolverEntries) {
		t.Errorf("eca.resolver.entries = %d, want %d", gauges["eca.resolver.entries"], st.ResolverEntries)
	}
}

func TestSession_ConcurrentQueries(t *testing.T) {
	s := newSession(t, Config{Rule: 30, Initial: single})
	ctx := context.Background()
	want := naive.Window(s.Rule(), s.Initial().CellAt, -32, 60, 64)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			row, err := s.Row(ctx, -32, 60, 64)
			if err != nil {
				errs <- err
				return
			}
			for i := range want {
				if row[i] != want[i] {
					errs <- errors.New("row mismatch")
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
