package spacetime

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonwraymond/ecaspace/slice"
)

const (
	// MaxBlockSize is the largest block size SliceAt accepts; 2^bs must fit an int64.
	MaxBlockSize = 62

	// MaxPosition bounds queried windows to [-MaxPosition, MaxPosition].
	MaxPosition int64 = 1 << 61

	// MaxTime is the largest time SliceAt accepts. With MaxPosition it
	// keeps every window of the light cone inside the int64 range.
	MaxTime int64 = 1 << 61
)

// rowChunk is the block size Row resolves at once.
const rowChunk = 6

type memoKey struct {
	x  int64
	t  int64
	bs int
}

// Resolver maps absolute queries to slice ids for one initial condition.
//
// Contract:
//   - Memoization: every resolved (x, t, bs) window is cached for the
//     lifetime of the resolver; cancelled queries cache nothing.
//   - Concurrency: safe for concurrent use when the underlying store is.
//   - Lifetime: a resolver is bound to one store and one Initial; build a
//     new one when either changes.
type Resolver struct {
	store *slice.Store
	init  Initial

	mu   sync.RWMutex
	memo map[memoKey]slice.ID
}

// NewResolver creates a resolver over store for the given initial row.
// Empty cycles default to a single false cell.
func NewResolver(store *slice.Store, init Initial) *Resolver {
	return &Resolver{
		store: store,
		init:  init.normalized(),
		memo:  make(map[memoKey]slice.ID),
	}
}

// Store returns the slice store the resolver issues ids from.
func (r *Resolver) Store() *slice.Store {
	return r.store
}

// Initial returns the (normalized) initial row.
func (r *Resolver) Initial() Initial {
	return r.init.normalized()
}

// MemoLen returns the number of memoized windows.
func (r *Resolver) MemoLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.memo)
}

// SliceAt returns the slice covering cells [x, x+2^bs) at time t.
func (r *Resolver) SliceAt(ctx context.Context, x, t int64, bs int) (slice.ID, error) {
	if t < 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidTime, t)
	}
	if t > MaxTime {
		return 0, fmt.Errorf("%w: got %d, limit %d", ErrInvalidTime, t, MaxTime)
	}
	if bs < 0 || bs > MaxBlockSize {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidBlockSize, bs)
	}
	if err := CheckWindow(x, int64(1)<<bs); err != nil {
		return 0, err
	}
	return r.sliceAt(ctx, x, t, bs)
}

// CheckWindow reports whether [x, x+width) lies within
// [-MaxPosition, MaxPosition].
func CheckWindow(x, width int64) error {
	if x < -MaxPosition || x > MaxPosition || width < 0 || width > MaxPosition-x {
		return fmt.Errorf("%w: window [%d, +%d) leaves [-%d, %d]", ErrInvalidPosition, x, width, MaxPosition, MaxPosition)
	}
	return nil
}

func (r *Resolver) sliceAt(ctx context.Context, x, t int64, bs int) (slice.ID, error) {
	if bs > MaxBlockSize {
		return 0, fmt.Errorf("%w: query needs block size %d", ErrInvalidBlockSize, bs)
	}
	key := r.key(x, t, bs)

	r.mu.RLock()
	id, ok := r.memo[key]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", slice.ErrCancelled, err)
	}

	id, err := r.resolve(ctx, x, t, bs)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.memo[key] = id
	r.mu.Unlock()
	return id, nil
}

func (r *Resolver) resolve(ctx context.Context, x, t int64, bs int) (slice.ID, error) {
	if bs == 0 {
		if t == 0 {
			return r.store.Primitive(r.init.CellAt(x)), nil
		}
		// Borrow the left cell of a pair computed at the same time.
		pair, err := r.sliceAt(ctx, x, t, 1)
		if err != nil {
			return 0, err
		}
		return r.store.Left(pair)
	}

	d := int64(1) << (bs - 1)
	if t-d >= 0 {
		// The wider slice d steps earlier, shifted left by d, determines this one.
		parent, err := r.sliceAt(ctx, x-d, t-d, bs+1)
		if err != nil {
			return 0, err
		}
		return r.store.Next(ctx, parent)
	}

	left, err := r.sliceAt(ctx, x, t, bs-1)
	if err != nil {
		return 0, err
	}
	right, err := r.sliceAt(ctx, x+d, t, bs-1)
	if err != nil {
		return 0, err
	}
	return r.store.Composite(left, right)
}

// key normalizes t = 0 windows lying wholly inside a periodic region so
// that translated copies share one memo entry. Windows touching the center
// keep their absolute position.
func (r *Resolver) key(x, t int64, bs int) memoKey {
	if t == 0 {
		w := int64(1) << bs
		n := int64(len(r.init.Center))
		switch {
		case x <= -w:
			k := int64(len(r.init.LeftCycle))
			x = (x+w)%k - w
		case x >= n:
			k := int64(len(r.init.RightCycle))
			x = (x-n)%k + n
		}
	}
	return memoKey{x: x, t: t, bs: bs}
}

// Cell returns the state of cell x at time t.
func (r *Resolver) Cell(ctx context.Context, x, t int64) (bool, error) {
	id, err := r.SliceAt(ctx, x, t, 0)
	if err != nil {
		return false, err
	}
	return r.store.IsTrue(id), nil
}

// Row returns the states of cells [x, x+width) at time t.
func (r *Resolver) Row(ctx context.Context, x, t int64, width int) ([]bool, error) {
	if width < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWidth, width)
	}
	if err := CheckWindow(x, int64(width)); err != nil {
		return nil, err
	}
	out := make([]bool, 0, width)
	for len(out) < width {
		pos := x + int64(len(out))
		if width-len(out) >= 1<<rowChunk {
			id, err := r.SliceAt(ctx, pos, t, rowChunk)
			if err != nil {
				return nil, err
			}
			cells, err := r.store.Cells(id)
			if err != nil {
				return nil, err
			}
			out = append(out, cells...)
			continue
		}
		c, err := r.Cell(ctx, pos, t)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
