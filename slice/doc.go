// Package slice canonicalizes finite elementary cellular automaton patterns.
//
// A slice is a window of 2^bs cells at one instant. Every slice is issued a
// small integer ID by a Store, and two requests that describe the same
// pattern always receive the same ID. Because patterns are shared, the
// store can memoize how each pattern evolves: Next advances a slice by a
// quarter of its width and keeps the causally determined center half.
//
// # Basic Usage
//
//	rule, _ := slice.NewRule(110)
//	st := slice.NewStore(rule)
//
//	id, _ := st.FromCells([]bool{false, true, true, false})
//	next, err := st.Next(ctx, id)
//	if errors.Is(err, slice.ErrCancelled) {
//	    // retry later with a fresh context; memoized work is kept
//	}
//
// # Cancellation
//
// Next checks ctx.Err() only before work that is not already memoized. A
// cancelled call caches nothing partial, so re-issuing the call with a new
// context resumes from the sub-results that did complete.
package slice
