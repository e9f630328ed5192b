package slice

import "errors"

// Structural errors. These indicate a programming error in the caller.
var (
	// ErrInvalidRule indicates a rule number outside 0..255.
	ErrInvalidRule = errors.New("slice: rule must be in 0..255")

	// ErrSizeMismatch indicates Composite was given children of unequal block size.
	ErrSizeMismatch = errors.New("slice: child block sizes differ")

	// ErrUnknownID indicates an ID that was not issued by this store.
	ErrUnknownID = errors.New("slice: unknown slice id")

	// ErrNoChildren indicates an attempt to decompose a primitive slice.
	ErrNoChildren = errors.New("slice: primitive slice has no children")

	// ErrTooSmall indicates a slice below the minimum block size for the operation.
	ErrTooSmall = errors.New("slice: block size too small")

	// ErrInvalidWidth indicates a cell run whose length is not a power of two.
	ErrInvalidWidth = errors.New("slice: width must be a positive power of two")

	// ErrTooLarge indicates a slice too wide to expand into cells.
	ErrTooLarge = errors.New("slice: block size too large to expand")
)

// Resource errors.
var (
	// ErrCapacityExceeded indicates the canonical id space is exhausted.
	// It is fatal for the store; retrying cannot succeed.
	ErrCapacityExceeded = errors.New("slice: canonical id space exhausted")

	// ErrCancelled indicates the cooperative budget ran out before new work
	// could start. Memoized sub-results stay valid; retry with a new budget.
	ErrCancelled = errors.New("slice: computation cancelled")
)
