package cache

import "errors"

// ErrInvalidCapacity is returned by NewLRU for a capacity below 1.
var ErrInvalidCapacity = errors.New("cache: capacity must be at least 1")

// Cache is a bounded key/value map.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Bound: Len never exceeds Capacity.
// - Errors: Get never errors; it returns the zero value and false on miss.
type Cache[K comparable, V any] interface {
	// Get returns the value for key and marks it most recently used.
	Get(key K) (V, bool)

	// Set stores value under key and marks it most recently used.
	Set(key K, value V)

	// Len returns the number of entries.
	Len() int
}

// Stats counts cache traffic since construction or the last Clear.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}
