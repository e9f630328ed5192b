// Package session owns one simulation configuration: a rule, an initial
// row, and every table derived from them.
//
// A Session builds the slice store, resolver, block view and rasterizer for
// its Config and routes each query through observe middleware. Changing the
// rule or the initial row means building a new Session; nothing computed
// for one configuration is valid for another.
//
// Exhausting the slice id space is fatal: the first query that fails with
// slice.ErrCapacityExceeded latches the session, and every later query
// fails with ErrSessionFailed.
package session
