package cache

// Memo computes values on miss and keeps them in a Cache.
//
// Contract:
//   - Errors: a failed compute is returned to the caller and never stored.
//   - Concurrency: safe for concurrent use; two callers missing the same key
//     may both compute, and the later Set wins.
type Memo[K comparable, V any] struct {
	cache Cache[K, V]
}

// NewMemo wraps c. A nil cache yields a memo that always computes.
func NewMemo[K comparable, V any](c Cache[K, V]) *Memo[K, V] {
	return &Memo[K, V]{cache: c}
}

// Get returns the cached value for key, or calls compute and caches its
// result when it succeeds.
func (m *Memo[K, V]) Get(key K, compute func(K) (V, error)) (V, error) {
	if m.cache != nil {
		if v, ok := m.cache.Get(key); ok {
			return v, nil
		}
	}
	v, err := compute(key)
	if err != nil {
		var zero V
		return zero, err
	}
	if m.cache != nil {
		m.cache.Set(key, v)
	}
	return v, nil
}
