package config

import "errors"

var (
	// ErrInvalidConfig indicates a value outside its allowed range.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrMissingEnv indicates a ${VAR} reference to an unset variable.
	ErrMissingEnv = errors.New("config: missing environment variables")

	// ErrInvalidPattern indicates a cell pattern with characters other than 0 and 1.
	ErrInvalidPattern = errors.New("config: pattern must contain only 0 and 1")
)
