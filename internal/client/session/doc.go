// Package session holds the signed-in identity of the running client.
//
// A Store starts Unresolved. Resolve reads the persisted credential and
// moves it to Anonymous or Authenticated exactly once; callers wait on Ready
// before rendering anything that depends on the identity.
//
// Every network-driven mutation is tagged with the epoch observed when its
// request started. Login, Logout and Close bump the epoch, so a response that
// arrives after one of them is dropped instead of resurrecting old state.
package session
