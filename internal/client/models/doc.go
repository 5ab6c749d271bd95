// Package models defines the client-side data shapes exchanged with the
// account API: the signed-in identity, public profiles, and request bodies.
package models
