package models

import "time"

// IsBannedAt reports whether a ban expiring at until is in force at now.
// A nil expiry means no ban. The result depends on now, so callers must
// evaluate it at the moment of the check instead of caching it.
func IsBannedAt(until *time.Time, now time.Time) bool {
	return until != nil && until.After(now)
}

// BanRequest is the body of POST /admin/users/{id}/ban. A nil Until asks the
// backend for a permanent ban.
type BanRequest struct {
	Reason string     `json:"ban_reason"`
	Until  *time.Time `json:"banned_until,omitempty"`
}

// Permanent reports whether the request carries no expiry.
func (b BanRequest) Permanent() bool {
	return b.Until == nil
}
