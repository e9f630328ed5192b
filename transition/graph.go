package transition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/ecaspace/slice"
	"github.com/jonwraymond/ecaspace/spacetime"
)

// MaxWidth is the widest pattern Build enumerates.
const MaxWidth = 16

// ErrInvalidWidth indicates a pattern width outside 1..MaxWidth.
var ErrInvalidWidth = errors.New("transition: width out of range")

// Graph maps every width-n periodic pattern to its successor.
type Graph struct {
	// Width is the pattern width n.
	Width int
	// Next holds the successor of each of the 2^n patterns.
	Next []uint32
}

// Build steps every pattern of width n once through the resolver algebra
// of store. Cancellation of ctx fails with slice.ErrCancelled; the store
// keeps what it memoized.
func Build(ctx context.Context, store *slice.Store, n int) (*Graph, error) {
	if n < 1 || n > MaxWidth {
		return nil, fmt.Errorf("%w: got %d, want 1..%d", ErrInvalidWidth, n, MaxWidth)
	}
	g := &Graph{Width: n, Next: make([]uint32, 1<<n)}
	for p := range g.Next {
		cells := Decode(n, uint32(p))
		r := spacetime.NewResolver(store, spacetime.Initial{
			Center:     cells,
			LeftCycle:  cells,
			RightCycle: cells,
		})
		row, err := r.Row(ctx, 0, 1, n)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", Format(n, uint32(p)), err)
		}
		g.Next[p] = Encode(row)
	}
	return g, nil
}

// Len returns the number of patterns.
func (g *Graph) Len() int {
	return len(g.Next)
}

// Predecessors returns the patterns stepping into p, in ascending order.
func (g *Graph) Predecessors(p uint32) []uint32 {
	var out []uint32
	for q, next := range g.Next {
		if next == p {
			out = append(out, uint32(q))
		}
	}
	return out
}

// GardenOfEden returns the patterns without a predecessor, in ascending order.
func (g *Graph) GardenOfEden() []uint32 {
	reached := make([]bool, len(g.Next))
	for _, next := range g.Next {
		reached[next] = true
	}
	var out []uint32
	for p, ok := range reached {
		if !ok {
			out = append(out, uint32(p))
		}
	}
	return out
}

// FixedPoints returns the patterns that are their own successor.
func (g *Graph) FixedPoints() []uint32 {
	var out []uint32
	for p, next := range g.Next {
		if next == uint32(p) {
			out = append(out, next)
		}
	}
	return out
}

// Decode returns the cells of pattern p of width n.
func Decode(n int, p uint32) []bool {
	cells := make([]bool, n)
	for i := range cells {
		cells[i] = p>>(n-1-i)&1 == 1
	}
	return cells
}

// Encode is the inverse of Decode.
func Encode(cells []bool) uint32 {
	var p uint32
	for _, c := range cells {
		p <<= 1
		if c {
			p |= 1
		}
	}
	return p
}

// Format renders pattern p of width n as a 0/1 string.
func Format(n int, p uint32) string {
	var b strings.Builder
	b.Grow(n)
	for _, c := range Decode(n, p) {
		if c {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
