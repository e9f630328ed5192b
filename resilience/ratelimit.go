package resilience

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jonwraymond/ecaspace/slice"
)

// RateLimiterConfig configures a RateLimiter.
type RateLimiterConfig struct {
	// Rate is the number of queries admitted per second.
	// Default: 100
	Rate float64

	// Burst is the bucket size.
	// Default: 10
	Burst int

	// MaxWait is how long Wait may block for a token. Zero fails at once.
	MaxWait time.Duration
}

// RateLimiter admits queries from a token bucket refilled at Rate.
type RateLimiter struct {
	config RateLimiterConfig
	now    func() time.Time

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewRateLimiter creates a rate limiter with a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 100
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}
	if config.MaxWait < 0 {
		config.MaxWait = 0
	}
	rl := &RateLimiter{config: config, now: time.Now}
	rl.tokens = float64(config.Burst)
	rl.last = rl.now()
	return rl
}

// Allow takes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// Wait takes a token, blocking up to MaxWait for one to be refilled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", slice.ErrCancelled, err)
	}
	if rl.Allow() {
		return nil
	}

	rl.mu.Lock()
	delay := time.Duration(math.Ceil((1 - rl.tokens) / rl.config.Rate * float64(time.Second)))
	rl.mu.Unlock()
	if delay > rl.config.MaxWait {
		return fmt.Errorf("%w: %.0f/s", ErrRateLimited, rl.config.Rate)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", slice.ErrCancelled, ctx.Err())
	case <-timer.C:
	}
	if !rl.Allow() {
		return fmt.Errorf("%w: %.0f/s", ErrRateLimited, rl.config.Rate)
	}
	return nil
}

// Execute runs op once Wait admits it.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := rl.Wait(ctx); err != nil {
		return err
	}
	return op(ctx)
}

// Tokens returns the tokens currently in the bucket.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}

// Config returns the configuration with defaults applied.
func (rl *RateLimiter) Config() RateLimiterConfig {
	return rl.config
}

func (rl *RateLimiter) refillLocked() {
	now := rl.now()
	if elapsed := now.Sub(rl.last); elapsed > 0 {
		rl.tokens = min(rl.tokens+elapsed.Seconds()*rl.config.Rate, float64(rl.config.Burst))
	}
	rl.last = now
}
