package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/ecaspace/slice"
)

// DefaultFrame is the per-attempt budget used when none is configured.
const DefaultFrame = 100 * time.Millisecond

// BudgetConfig configures a Budget.
type BudgetConfig struct {
	// Frame is the maximum duration of one attempt.
	// Default: 100ms
	Frame time.Duration
}

// Budget runs operations under a per-frame deadline.
//
// Operations run on the calling goroutine; a Budget only sets the deadline
// the operation is expected to honor.
type Budget struct {
	config BudgetConfig
}

// NewBudget creates a new budget.
func NewBudget(config BudgetConfig) *Budget {
	if config.Frame <= 0 {
		config.Frame = DefaultFrame
	}
	return &Budget{config: config}
}

// Execute runs op with a context that expires after one frame.
func (b *Budget) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, b.config.Frame)
	defer cancel()
	return asCancelled(op(ctx))
}

// Config returns the budget configuration.
func (b *Budget) Config() BudgetConfig {
	return b.config
}

// Run executes op under b and returns its value.
func Run[T any](ctx context.Context, b *Budget, op func(context.Context) (T, error)) (T, error) {
	var out T
	err := b.Execute(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// asCancelled tags bare context errors so callers only test for ErrCancelled.
func asCancelled(err error) error {
	if err == nil || errors.Is(err, slice.ErrCancelled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", slice.ErrCancelled, err)
	}
	return err
}
