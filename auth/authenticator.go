package auth

import (
	"context"
	"net/http"
)

// Authenticator validates the credentials carried by an HTTP request.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: a rejected credential is reported as one of the package
//     sentinel errors; Authenticate never returns a nil identity with a
//     nil error.
type Authenticator interface {
	// Name identifies the authenticator in logs.
	Name() string

	// Supports reports whether r carries a credential of this kind.
	Supports(r *http.Request) bool

	// Authenticate validates the credential and returns the caller.
	Authenticate(ctx context.Context, r *http.Request) (*Identity, error)
}

// Chain tries authenticators in order and accepts the first success.
type Chain []Authenticator

// Name returns "chain".
func (c Chain) Name() string {
	return "chain"
}

// Supports reports whether any member supports r.
func (c Chain) Supports(r *http.Request) bool {
	for _, a := range c {
		if a.Supports(r) {
			return true
		}
	}
	return false
}

// Authenticate returns the first identity a supporting member accepts.
// When every supporting member rejects r, the last rejection is returned.
func (c Chain) Authenticate(ctx context.Context, r *http.Request) (*Identity, error) {
	err := ErrMissingCredentials
	for _, a := range c {
		if !a.Supports(r) {
			continue
		}
		id, aerr := a.Authenticate(ctx, r)
		if aerr == nil {
			return id, nil
		}
		err = aerr
	}
	return nil, err
}

var _ Authenticator = Chain(nil)
