package block

import (
	"context"
	"fmt"

	"github.com/jonwraymond/ecaspace/slice"
	"github.com/jonwraymond/ecaspace/spacetime"
)

// Block is a decoded space-time region.
//
// A block of Level k is 2^k cells wide and 2^(k-1) steps tall. Level-1
// blocks are leaves holding the two cells L and R. Larger blocks hold the
// ids of their four quadrants; pass them to View.Decode to go deeper.
type Block struct {
	// ID is the slice that determines this block.
	ID slice.ID
	// Level is log2 of the block width.
	Level int
	// Leaf is true for Level 1 blocks.
	Leaf bool

	L, R bool

	UpperL, UpperR slice.ID // earlier half
	LowerL, LowerR slice.ID // later half
}

// Width returns the block width in cells.
func (b Block) Width() int64 {
	return int64(1) << b.Level
}

// Height returns the block height in steps.
func (b Block) Height() int64 {
	return int64(1) << (b.Level - 1)
}

// Quadrants returns the quadrant ids in upperL, upperR, lowerL, lowerR
// order, or nil for a leaf.
func (b Block) Quadrants() []slice.ID {
	if b.Leaf {
		return nil
	}
	return []slice.ID{b.UpperL, b.UpperR, b.LowerL, b.LowerR}
}

// MaxLevel is the largest level BlockAt resolves.
const MaxLevel = spacetime.MaxBlockSize - 1

// View decodes slices of one resolver into blocks.
type View struct {
	resolver *spacetime.Resolver
	store    *slice.Store
}

// NewView creates a view over r.
func NewView(r *spacetime.Resolver) *View {
	return &View{resolver: r, store: r.Store()}
}

// Resolver returns the underlying resolver.
func (v *View) Resolver() *spacetime.Resolver {
	return v.resolver
}

// BlockAt returns the block with origin (x, t): cells [x, x+2^bs) over
// steps [t, t+2^(bs-1)).
func (v *View) BlockAt(ctx context.Context, x, t int64, bs int) (Block, error) {
	if bs < 1 || bs > MaxLevel {
		return Block{}, fmt.Errorf("%w: got %d", ErrInvalidBlockSize, bs)
	}
	if err := spacetime.CheckWindow(x, int64(1)<<bs); err != nil {
		return Block{}, err
	}
	id, err := v.resolver.SliceAt(ctx, x-int64(1)<<(bs-1), t, bs+1)
	if err != nil {
		return Block{}, err
	}
	return v.Decode(ctx, id)
}

// Decode returns the block determined by id. id must have block size >= 2.
func (v *View) Decode(ctx context.Context, id slice.ID) (Block, error) {
	k, err := v.store.BlockSize(id)
	if err != nil {
		return Block{}, err
	}
	if k < 2 {
		return Block{}, fmt.Errorf("%w: decode requires block size >= 2, got %d", slice.ErrTooSmall, k)
	}

	if k == 2 {
		left, err := v.store.Left(id)
		if err != nil {
			return Block{}, err
		}
		right, err := v.store.Right(id)
		if err != nil {
			return Block{}, err
		}
		l, err := v.store.Right(left)
		if err != nil {
			return Block{}, err
		}
		r, err := v.store.Left(right)
		if err != nil {
			return Block{}, err
		}
		return Block{ID: id, Level: 1, Leaf: true, L: v.store.IsTrue(l), R: v.store.IsTrue(r)}, nil
	}

	s, err := v.decompose8(id)
	if err != nil {
		return Block{}, err
	}

	b := Block{ID: id, Level: k - 1}
	if b.UpperL, err = v.compose4(s[1], s[2], s[3], s[4]); err != nil {
		return Block{}, err
	}
	if b.UpperR, err = v.compose4(s[3], s[4], s[5], s[6]); err != nil {
		return Block{}, err
	}

	var mid [3]slice.ID
	for i := range mid {
		w, err := v.compose4(s[2*i], s[2*i+1], s[2*i+2], s[2*i+3])
		if err != nil {
			return Block{}, err
		}
		if mid[i], err = v.store.Next(ctx, w); err != nil {
			return Block{}, err
		}
	}
	if b.LowerL, err = v.store.Composite(mid[0], mid[1]); err != nil {
		return Block{}, err
	}
	if b.LowerR, err = v.store.Composite(mid[1], mid[2]); err != nil {
		return Block{}, err
	}
	return b, nil
}

// decompose8 returns the eight descendants of id three levels down, left
// to right.
func (v *View) decompose8(id slice.ID) ([8]slice.ID, error) {
	var out [8]slice.ID
	for i := range out {
		cur := id
		for bit := 2; bit >= 0; bit-- {
			var err error
			if i&(1<<bit) == 0 {
				cur, err = v.store.Left(cur)
			} else {
				cur, err = v.store.Right(cur)
			}
			if err != nil {
				return out, err
			}
		}
		out[i] = cur
	}
	return out, nil
}

func (v *View) compose4(a, b, c, d slice.ID) (slice.ID, error) {
	ab, err := v.store.Composite(a, b)
	if err != nil {
		return 0, err
	}
	cd, err := v.store.Composite(c, d)
	if err != nil {
		return 0, err
	}
	return v.store.Composite(ab, cd)
}
