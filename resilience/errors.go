package resilience

import "errors"

var (
	// ErrPollExhausted is returned when every poll attempt ran out of budget.
	// It wraps the last attempt's error, so errors.Is(err, slice.ErrCancelled)
	// holds as well.
	ErrPollExhausted = errors.New("resilience: poll attempts exhausted")

	// ErrBulkheadFull is returned when every query slot stayed taken.
	ErrBulkheadFull = errors.New("resilience: too many concurrent queries")

	// ErrRateLimited is returned when no query token became available.
	ErrRateLimited = errors.New("resilience: query rate exceeded")
)
