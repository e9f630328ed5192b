package auth

import "errors"

// Authentication errors.
var (
	ErrMissingCredentials = errors.New("auth: missing credentials")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrTokenMalformed     = errors.New("auth: token malformed")
)

// ErrInvalidConfig indicates an authenticator that cannot be built.
var ErrInvalidConfig = errors.New("auth: invalid configuration")
