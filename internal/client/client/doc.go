// Package client is the gateway to the account API.
//
// # Overview
//
// The package provides:
//  1. The Client interface: one method per backend operation (current user,
//     login, register, resend verification, profile update and lookup, and
//     the moderation calls ban, unban and change group).
//  2. HTTPClient, the implementation bound to a single API origin. Its
//     transport reads the stored credential from a TokenSource and attaches
//     it as a bearer Authorization header on every request, together with a
//     fresh X-Request-ID.
//  3. InitDatabase and RunMigrations, which open the local SQLite database
//     used to persist the credential and apply the embedded goose migrations.
//
// # Error Handling
//
// Non-2xx responses come back as *APIError carrying the status code, the
// backend message, the per-field validation errors and the raw body. An
// APIError matches one sentinel with errors.Is:
//
//	400, 409, 422 -> ErrValidation
//	401           -> ErrUnauthorized
//	403           -> ErrForbidden
//	404           -> ErrNotFound
//	429, 5xx      -> ErrUnavailable
//
// Transport failures wrap ErrUnavailable. Nothing is retried; deciding what
// to show the user is up to the caller.
package client
