// Package resilience bounds the work a query may do per frame and re-issues
// queries that ran out of budget.
//
// Queries against the space-time core are cooperative: they check their
// context before every piece of uncached work and fail with
// slice.ErrCancelled once it is done, keeping everything they memoized.
// Re-issuing the same query therefore resumes where the last attempt
// stopped.
//
// # Patterns
//
//   - Budget: runs an operation under a per-frame deadline and reports a
//     deadline hit as slice.ErrCancelled.
//
//   - Poller: re-issues an operation on a fixed cadence, each attempt with a
//     fresh Budget, until it completes, fails for another reason, or runs out
//     of attempts.
//
//   - Bulkhead: caps the number of queries in flight on one session.
//
//   - RateLimiter: a token bucket admitting queries at a steady rate.
//
// # Usage
//
//	p := resilience.NewPoller(resilience.PollerConfig{
//	    MaxAttempts: 50,
//	    Interval:    100 * time.Millisecond,
//	    Budget:      resilience.NewBudget(resilience.BudgetConfig{Frame: 20 * time.Millisecond}),
//	})
//
//	cell, err := resilience.Poll(ctx, p, func(ctx context.Context) (bool, error) {
//	    return resolver.Cell(ctx, x, t)
//	})
package resilience
