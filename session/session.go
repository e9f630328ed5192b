package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/ecaspace/block"
	"github.com/jonwraymond/ecaspace/cache"
	"github.com/jonwraymond/ecaspace/health"
	"github.com/jonwraymond/ecaspace/observe"
	"github.com/jonwraymond/ecaspace/raster"
	"github.com/jonwraymond/ecaspace/slice"
	"github.com/jonwraymond/ecaspace/spacetime"
	"github.com/jonwraymond/ecaspace/transition"
)

// Option configures a Session.
type Option func(*options)

type options struct {
	observer observe.Observer
}

// WithObserver instruments every query with obs.
func WithObserver(obs observe.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// Stats aggregates table sizes across a session.
type Stats struct {
	Store           slice.Stats
	ResolverEntries int
	RasterEntries   int
	RasterCache     cache.Stats
	Failed          bool
}

// Session answers space-time queries for one Config.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Cancellation: queries fail with slice.ErrCancelled when ctx is done
//     before they finish; re-issuing them resumes from memoized work.
//   - Failure: the first slice.ErrCapacityExceeded latches the session.
type Session struct {
	cfg  Config
	rule slice.Rule

	store    *slice.Store
	resolver *spacetime.Resolver
	view     *block.View
	lru      *cache.LRU[slice.ID, *raster.Grid]
	raster   *raster.Rasterizer

	mw     *observe.Middleware
	logger observe.Logger
	gauges metric.Registration

	mu     sync.RWMutex
	failed error
}

// New builds a session for cfg.
func New(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	o := options{observer: observe.Noop()}
	for _, opt := range opts {
		opt(&o)
	}

	rule, _ := slice.NewRule(cfg.Rule)
	store := slice.NewStore(rule, slice.WithMaxSlices(cfg.MaxSlices))
	resolver := spacetime.NewResolver(store, cfg.Initial)
	view := block.NewView(resolver)
	lru, err := cache.NewLRU[slice.ID, *raster.Grid](cfg.CacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	mw, err := observe.MiddlewareFromObserver(o.observer)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:      cfg,
		rule:     rule,
		store:    store,
		resolver: resolver,
		view:     view,
		lru:      lru,
		raster:   raster.NewRasterizer(view, lru, raster.Options{MinCachedLevel: cfg.MinCachedLevel}),
		mw:       mw,
		logger:   o.observer.Logger(),
	}
	s.gauges, err = observe.RegisterGauges(o.observer.Meter(), s.snapshot)
	if err != nil {
		return nil, fmt.Errorf("register gauges: %w", err)
	}
	return s, nil
}

// Close releases the session's metric callbacks.
func (s *Session) Close() error {
	if s.gauges == nil {
		return nil
	}
	return s.gauges.Unregister()
}

// Config returns the configuration with defaults applied.
func (s *Session) Config() Config {
	return s.cfg
}

// Rule returns the session's rule.
func (s *Session) Rule() slice.Rule {
	return s.rule
}

// Initial returns the normalized initial row.
func (s *Session) Initial() spacetime.Initial {
	return s.resolver.Initial()
}

// Store returns the session's slice store.
func (s *Session) Store() *slice.Store {
	return s.store
}

// SliceAt returns the slice covering [x, x+2^bs) at time t.
func (s *Session) SliceAt(ctx context.Context, x, t int64, bs int) (slice.ID, error) {
	var id slice.ID
	err := s.run(ctx, observe.QueryMeta{Op: "slice", X: x, T: t, HasPos: true, BlockSize: bs}, func(ctx context.Context) error {
		var err error
		id, err = s.resolver.SliceAt(ctx, x, t, bs)
		return err
	})
	return id, err
}

// Cell returns the state of cell x at time t.
func (s *Session) Cell(ctx context.Context, x, t int64) (bool, error) {
	var c bool
	err := s.run(ctx, observe.QueryMeta{Op: "cell", X: x, T: t, HasPos: true}, func(ctx context.Context) error {
		var err error
		c, err = s.resolver.Cell(ctx, x, t)
		return err
	})
	return c, err
}

// Row returns cells [x, x+width) at time t.
func (s *Session) Row(ctx context.Context, x, t int64, width int) ([]bool, error) {
	var row []bool
	err := s.run(ctx, observe.QueryMeta{Op: "row", X: x, T: t, HasPos: true}, func(ctx context.Context) error {
		var err error
		row, err = s.resolver.Row(ctx, x, t, width)
		return err
	})
	return row, err
}

// BlockAt returns the level-k block with origin (x, t).
func (s *Session) BlockAt(ctx context.Context, x, t int64, level int) (block.Block, error) {
	var b block.Block
	err := s.run(ctx, observe.QueryMeta{Op: "block", X: x, T: t, HasPos: true, BlockSize: level + 1}, func(ctx context.Context) error {
		var err error
		b, err = s.view.BlockAt(ctx, x, t, level)
		return err
	})
	return b, err
}

// Decode returns the block determined by id.
func (s *Session) Decode(ctx context.Context, id slice.ID) (block.Block, error) {
	var b block.Block
	err := s.run(ctx, observe.QueryMeta{Op: "decode"}, func(ctx context.Context) error {
		var err error
		b, err = s.view.Decode(ctx, id)
		return err
	})
	return b, err
}

// Raster returns the cell grid of the level-k block with origin (x, t).
func (s *Session) Raster(ctx context.Context, x, t int64, level int) (*raster.Grid, error) {
	var g *raster.Grid
	err := s.run(ctx, observe.QueryMeta{Op: "raster", X: x, T: t, HasPos: true, BlockSize: level + 1}, func(ctx context.Context) error {
		b, err := s.view.BlockAt(ctx, x, t, level)
		if err != nil {
			return err
		}
		g, err = s.raster.Rasterize(ctx, b.ID)
		return err
	})
	return g, err
}

// Transitions builds the transition graph of width-n periodic patterns
// under the session's rule. It shares the session's slice store.
func (s *Session) Transitions(ctx context.Context, n int) (*transition.Graph, error) {
	var g *transition.Graph
	err := s.run(ctx, observe.QueryMeta{Op: "transitions"}, func(ctx context.Context) error {
		var err error
		g, err = transition.Build(ctx, s.store, n)
		return err
	})
	return g, err
}

// Stats returns current table sizes.
func (s *Session) Stats() Stats {
	return Stats{
		Store:           s.store.Stats(),
		ResolverEntries: s.resolver.MemoLen(),
		RasterEntries:   s.raster.CacheLen(),
		RasterCache:     s.lru.Stats(),
		Failed:          s.Failed() != nil,
	}
}

// SliceUsage reports issued slice ids against the ceiling.
func (s *Session) SliceUsage() (used, limit int) {
	st := s.store.Stats()
	return st.Slices, st.MaxSlices
}

// Failed returns the error that latched the session, or nil.
func (s *Session) Failed() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failed
}

var _ health.CapacitySource = (*Session)(nil)

func (s *Session) run(ctx context.Context, meta observe.QueryMeta, fn func(context.Context) error) error {
	if err := s.Failed(); err != nil {
		return fmt.Errorf("%w: %w", ErrSessionFailed, err)
	}
	meta.Rule = s.rule.Number()

	err := s.mw.Wrap(func(ctx context.Context, _ observe.QueryMeta) error {
		return fn(ctx)
	})(ctx, meta)
	if errors.Is(err, slice.ErrCapacityExceeded) {
		s.latch(ctx, err)
		return fmt.Errorf("%w: %w", ErrSessionFailed, err)
	}
	return err
}

func (s *Session) latch(ctx context.Context, err error) {
	s.mu.Lock()
	first := s.failed == nil
	if first {
		s.failed = err
	}
	s.mu.Unlock()

	if first {
		st := s.store.Stats()
		s.logger.Error(ctx, "session failed",
			observe.Field{Key: "error", Value: err.Error()},
			observe.Field{Key: "slices", Value: st.Slices},
			observe.Field{Key: "max_slices", Value: st.MaxSlices},
		)
	}
}

func (s *Session) snapshot() observe.Snapshot {
	st := s.store.Stats()
	return observe.Snapshot{
		Slices:          int64(st.Slices),
		Nexts:           int64(st.Nexts),
		ResolverEntries: int64(s.resolver.MemoLen()),
		RasterEntries:   int64(s.raster.CacheLen()),
	}
}
