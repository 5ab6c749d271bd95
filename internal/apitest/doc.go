// Package apitest runs an in-process imitation of the account backend for
// tests. It speaks the same paths and Laravel-style error bodies as the real
// API, issues HS256 tokens and enforces the group hierarchy on every admin
// route, so client-side gates can be tested against a server that does not
// trust them.
package apitest
