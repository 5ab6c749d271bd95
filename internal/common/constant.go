// Package common contains constants and small helpers shared by the client
// layers.
package common

// Header names set on every outbound API request.
const (
	AuthorizationHeaderName = "Authorization"
	RequestIDHeaderName     = "X-Request-ID"
	BearerPrefix            = "Bearer "
)

// AuthTokenKey is the metadata key under which the credential is persisted.
const AuthTokenKey = "auth_token"

// AuthTokenSavedAtKey records when the credential was stored (RFC 3339).
const AuthTokenSavedAtKey = "auth_token_saved_at"
