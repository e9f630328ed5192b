// Package cache provides a bounded, strictly least-recently-used map.
//
// LRU is the generic cache; Memo layers get-or-compute on top of it for
// callers that derive values from keys.
package cache
