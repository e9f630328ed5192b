package raster

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/ecaspace/block"
	"github.com/jonwraymond/ecaspace/cache"
	"github.com/jonwraymond/ecaspace/slice"
)

const (
	// DefaultMinCachedLevel is the smallest block level whose grid is cached.
	DefaultMinCachedLevel = 4

	// MaxLevel is the largest block level Rasterize expands.
	MaxLevel = 12
)

// Options configures a Rasterizer.
type Options struct {
	// MinCachedLevel is the smallest level memoized in the cache.
	// Zero selects DefaultMinCachedLevel.
	MinCachedLevel int
}

// Rasterizer expands block ids of one view into grids.
//
// Contract:
//   - Determinism: a given id always yields an equal grid.
//   - Concurrency: safe for concurrent use; concurrent expansion of the same
//     id runs once and every caller gets its result.
//   - Cancellation: ctx is passed to block decoding; a cancelled expansion
//     caches nothing. A shared expansion runs under the first caller's
//     context; when that one is cancelled, waiters whose own context is
//     still live expand again under theirs.
type Rasterizer struct {
	view     *block.View
	cache    *cache.LRU[slice.ID, *Grid]
	minLevel int
	group    singleflight.Group
}

// NewRasterizer creates a rasterizer over view. lru may be nil, in which
// case nothing is cached.
func NewRasterizer(view *block.View, lru *cache.LRU[slice.ID, *Grid], opts Options) *Rasterizer {
	if opts.MinCachedLevel <= 0 {
		opts.MinCachedLevel = DefaultMinCachedLevel
	}
	return &Rasterizer{view: view, cache: lru, minLevel: opts.MinCachedLevel}
}

// CacheLen returns the number of cached grids.
func (r *Rasterizer) CacheLen() int {
	if r.cache == nil {
		return 0
	}
	return r.cache.Len()
}

// Rasterize returns the 2^k by 2^(k-1) grid of the level-k block id determines.
func (r *Rasterizer) Rasterize(ctx context.Context, id slice.ID) (*Grid, error) {
	bs, err := r.view.Resolver().Store().BlockSize(id)
	if err != nil {
		return nil, err
	}
	if level := bs - 1; level > MaxLevel {
		return nil, fmt.Errorf("%w: block level %d exceeds %d", slice.ErrTooLarge, level, MaxLevel)
	}
	return r.rasterize(ctx, id)
}

func (r *Rasterizer) rasterize(ctx context.Context, id slice.ID) (*Grid, error) {
	if r.cache != nil {
		if g, ok := r.cache.Get(id); ok {
			return g, nil
		}
	}

	b, err := r.view.Decode(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Leaf {
		g := newGrid(2, 1)
		g.Cells[0], g.Cells[1] = b.L, b.R
		return g, nil
	}
	if r.cache == nil || b.Level < r.minLevel {
		return r.compose(ctx, b)
	}

	for {
		v, err, shared := r.group.Do(flightKey(id), func() (any, error) {
			g, err := r.compose(ctx, b)
			if err != nil {
				return nil, err
			}
			r.cache.Set(id, g)
			return g, nil
		})
		if err == nil {
			return v.(*Grid), nil
		}
		// The flight ran under another caller's context; its cancellation
		// says nothing about ours. Finished quadrants are cached, so the
		// next flight resumes.
		if shared && errors.Is(err, slice.ErrCancelled) && ctx.Err() == nil {
			continue
		}
		return nil, err
	}
}

func flightKey(id slice.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}

func (r *Rasterizer) compose(ctx context.Context, b block.Block) (*Grid, error) {
	w, h := int(b.Width()), int(b.Height())
	out := newGrid(w, h)
	offsets := [4][2]int{{0, 0}, {w / 2, 0}, {0, h / 2}, {w / 2, h / 2}}
	for i, q := range b.Quadrants() {
		g, err := r.rasterize(ctx, q)
		if err != nil {
			return nil, err
		}
		out.blit(g, offsets[i][0], offsets[i][1])
	}
	return out, nil
}
