package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/ecaspace/slice"
)

// DefaultMaxConcurrent is the bulkhead size used when none is configured.
const DefaultMaxConcurrent = 16

// BulkheadConfig configures a Bulkhead.
type BulkheadConfig struct {
	// MaxConcurrent is the number of queries allowed in flight.
	// Default: 16
	MaxConcurrent int

	// MaxWait is how long Acquire waits for a free slot. Zero fails at once.
	MaxWait time.Duration
}

// BulkheadStats reports bulkhead occupancy.
type BulkheadStats struct {
	Active        int
	MaxActive     int
	MaxConcurrent int
	Rejected      int64
}

// Bulkhead caps the number of queries sharing one session at a time.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Pairing: every successful Acquire must be matched by one Release.
//   - Cancellation: a wait ended by ctx fails with slice.ErrCancelled and is
//     not counted as a rejection.
type Bulkhead struct {
	config BulkheadConfig
	slots  chan struct{}

	mu        sync.Mutex
	active    int
	maxActive int
	rejected  int64
}

// NewBulkhead creates a bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultMaxConcurrent
	}
	if config.MaxWait < 0 {
		config.MaxWait = 0
	}
	return &Bulkhead{
		config: config,
		slots:  make(chan struct{}, config.MaxConcurrent),
	}
}

// Acquire takes a slot, waiting up to MaxWait.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.slots <- struct{}{}:
		b.taken()
		return nil
	default:
	}

	if b.config.MaxWait == 0 {
		b.reject()
		return fmt.Errorf("%w: limit %d", ErrBulkheadFull, b.config.MaxConcurrent)
	}

	timer := time.NewTimer(b.config.MaxWait)
	defer timer.Stop()
	select {
	case b.slots <- struct{}{}:
		b.taken()
		return nil
	case <-timer.C:
		b.reject()
		return fmt.Errorf("%w: limit %d, waited %s", ErrBulkheadFull, b.config.MaxConcurrent, b.config.MaxWait)
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", slice.ErrCancelled, ctx.Err())
	}
}

// Release frees a slot taken by Acquire.
func (b *Bulkhead) Release() {
	select {
	case <-b.slots:
		b.mu.Lock()
		b.active--
		b.mu.Unlock()
	default:
	}
}

// Execute runs op while holding a slot.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()
	return op(ctx)
}

// Stats returns current occupancy.
func (b *Bulkhead) Stats() BulkheadStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BulkheadStats{
		Active:        b.active,
		MaxActive:     b.maxActive,
		MaxConcurrent: b.config.MaxConcurrent,
		Rejected:      b.rejected,
	}
}

// Config returns the configuration with defaults applied.
func (b *Bulkhead) Config() BulkheadConfig {
	return b.config
}

func (b *Bulkhead) taken() {
	b.mu.Lock()
	b.active++
	b.maxActive = max(b.maxActive, b.active)
	b.mu.Unlock()
}

func (b *Bulkhead) reject() {
	b.mu.Lock()
	b.rejected++
	b.mu.Unlock()
}
