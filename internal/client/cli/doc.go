// Package cli provides the interactive hub command-line client.
//
// It wires configuration, the local credential database, the API client,
// the session store and the services, then runs a REPL whose commands open
// the screens of the views package and render them as text.
//
// Key features:
//   - Register / Login / Logout, with the persisted credential restored at
//     startup
//   - Email verification prompt with a resend cooldown
//   - Own profile editing and public profile lookup
//   - Moderation commands for staff: search, ban, unban, change group
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
