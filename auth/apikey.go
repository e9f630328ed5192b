package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

// DefaultAPIKeyHeader carries API keys unless configured otherwise.
const DefaultAPIKeyHeader = "X-API-Key"

// APIKey registers one key by its SHA-256 hex digest.
type APIKey struct {
	Principal string
	SHA256    string
}

// APIKeyAuthenticator accepts requests whose key digest is registered.
type APIKeyAuthenticator struct {
	header string
	keys   map[string]string // digest -> principal
}

// NewAPIKeyAuthenticator builds an authenticator over keys. An empty
// header selects DefaultAPIKeyHeader.
func NewAPIKeyAuthenticator(header string, keys []APIKey) (*APIKeyAuthenticator, error) {
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	a := &APIKeyAuthenticator{header: header, keys: make(map[string]string, len(keys))}
	for i, k := range keys {
		digest := strings.ToLower(strings.TrimSpace(k.SHA256))
		if b, err := hex.DecodeString(digest); err != nil || len(b) != sha256.Size {
			return nil, fmt.Errorf("%w: key %d: sha256 must be 64 hex digits", ErrInvalidConfig, i)
		}
		if k.Principal == "" {
			return nil, fmt.Errorf("%w: key %d: principal is required", ErrInvalidConfig, i)
		}
		a.keys[digest] = k.Principal
	}
	return a, nil
}

// Name returns "api_key".
func (a *APIKeyAuthenticator) Name() string {
	return string(MethodAPIKey)
}

// Supports reports whether r carries the key header.
func (a *APIKeyAuthenticator) Supports(r *http.Request) bool {
	return r.Header.Get(a.header) != ""
}

// Authenticate looks the key up by digest.
func (a *APIKeyAuthenticator) Authenticate(_ context.Context, r *http.Request) (*Identity, error) {
	key := strings.TrimSpace(r.Header.Get(a.header))
	if key == "" {
		return nil, ErrMissingCredentials
	}
	principal, ok := a.keys[HashAPIKey(key)]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return &Identity{Principal: principal, Method: MethodAPIKey}, nil
}

// HashAPIKey returns the SHA-256 hex digest under which key is stored.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

var _ Authenticator = (*APIKeyAuthenticator)(nil)
