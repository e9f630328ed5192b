package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/ecaspace/slice"
)

// PollerConfig configures a Poller.
type PollerConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 10
	MaxAttempts int

	// Interval is the pause between attempts.
	// Default: 100ms
	Interval time.Duration

	// Budget bounds each attempt.
	// Default: NewBudget(BudgetConfig{})
	Budget *Budget

	// OnAttempt is called after each attempt that ran out of budget.
	OnAttempt func(attempt int, err error)
}

// Poller re-issues budget-limited operations until they complete.
type Poller struct {
	config PollerConfig
}

// NewPoller creates a new poller.
func NewPoller(config PollerConfig) *Poller {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 10
	}
	if config.Interval <= 0 {
		config.Interval = 100 * time.Millisecond
	}
	if config.Budget == nil {
		config.Budget = NewBudget(BudgetConfig{})
	}
	return &Poller{config: config}
}

// Execute runs op until it succeeds or fails with an error other than
// slice.ErrCancelled. Cancellation of ctx itself stops polling at once.
func (p *Poller) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		err := p.config.Budget.Execute(ctx, op)
		if err == nil {
			return nil
		}
		if !errors.Is(err, slice.ErrCancelled) {
			return err
		}
		lastErr = err

		if p.config.OnAttempt != nil {
			p.config.OnAttempt(attempt, err)
		}
		if ctx.Err() != nil {
			return err
		}
		if attempt >= p.config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", slice.ErrCancelled, ctx.Err())
		case <-time.After(p.config.Interval):
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrPollExhausted, p.config.MaxAttempts, lastErr)
}

// Config returns the poller configuration.
func (p *Poller) Config() PollerConfig {
	return p.config
}

// Poll executes op under p and returns its value.
func Poll[T any](ctx context.Context, p *Poller, op func(context.Context) (T, error)) (T, error) {
	var out T
	err := p.Execute(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
