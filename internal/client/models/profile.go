package models

import (
	"time"

	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
)

// Profile is the payload of GET /users/{id}/profile. Name and Email are only
// present when the backend decides the viewer may see them.
type Profile struct {
	ID                int64           `json:"id"`
	Username          string          `json:"username"`
	Name              *string         `json:"name,omitempty"`
	Email             *string         `json:"email,omitempty"`
	Bio               *string         `json:"bio"`
	Nationality       *string         `json:"nationality"`
	ProfilePictureURL *string         `json:"profile_picture_url"`
	IsProfilePublic   bool            `json:"is_profile_public"`
	Group             privilege.Group `json:"group"`
	BannedUntil       *time.Time      `json:"banned_until"`
	BanReason         *string         `json:"ban_reason"`
	IsPrivate         bool            `json:"is_private,omitempty"`
	Message           string          `json:"message,omitempty"`
}

// IsBannedAt reports whether the profile owner is banned at now.
func (p Profile) IsBannedAt(now time.Time) bool {
	return IsBannedAt(p.BannedUntil, now)
}
