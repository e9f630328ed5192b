// Package auth guards the query endpoints of the ecaspace server.
//
// Two credential kinds are supported: static API keys, stored as SHA-256
// digests, and HMAC-signed bearer tokens. A Chain tries each configured
// Authenticator in turn; Middleware rejects requests none of them accept.
// Health and metrics endpoints are mounted outside the middleware.
package auth
