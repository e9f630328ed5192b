package spacetime

import "errors"

var (
	// ErrInvalidTime indicates a query for t < 0 or t > MaxTime.
	ErrInvalidTime = errors.New("spacetime: time must be >= 0")

	// ErrInvalidPosition indicates a window reaching past MaxPosition.
	ErrInvalidPosition = errors.New("spacetime: position out of range")

	// ErrInvalidBlockSize indicates a block size outside 0..MaxBlockSize.
	ErrInvalidBlockSize = errors.New("spacetime: block size out of range")

	// ErrInvalidWidth indicates a negative row width.
	ErrInvalidWidth = errors.New("spacetime: width must be >= 0")
)
