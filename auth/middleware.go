package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Middleware rejects requests that a does not authenticate and attaches
// the caller's Identity to the request context of the rest.
func Middleware(a Authenticator, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.Authenticate(r.Context(), r)
		if err != nil {
			if errors.Is(err, ErrMissingCredentials) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="ecaspace"`)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": unauthorizedReason(err)})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// unauthorizedReason keeps verification details out of responses.
func unauthorizedReason(err error) string {
	for _, sentinel := range []error{ErrMissingCredentials, ErrTokenExpired, ErrTokenMalformed} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return ErrInvalidCredentials.Error()
}
