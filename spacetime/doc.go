// Package spacetime resolves absolute (x, t) queries against an infinite
// initial row into canonical slices.
//
// The t = 0 row is described by an Initial: a finite center run flanked by
// a left-periodic and a right-periodic pattern. Queries reduce recursively
// to t = 0, either by finding a wider ancestor slice earlier in time and
// advancing it with slice.Store.Next, or by splitting the window in half.
// Every resolved window is memoized, so overlapping queries share work.
package spacetime
