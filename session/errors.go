package session

import "errors"

var (
	// ErrInvalidConfig indicates a Config that failed validation.
	ErrInvalidConfig = errors.New("session: invalid config")

	// ErrSessionFailed indicates the session latched a fatal error and
	// refuses further queries. It wraps the original error.
	ErrSessionFailed = errors.New("session: session failed")
)
