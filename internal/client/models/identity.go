package models

import (
	"time"

	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
)

// Identity is the signed-in account as returned by GET /user.
type Identity struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	EmailVerifiedAt   *time.Time      `json:"email_verified_at"`
	Bio               *string         `json:"bio"`
	Nationality       *string         `json:"nationality"`
	ProfilePictureURL *string         `json:"profile_picture_url"`
	IsProfilePublic   bool            `json:"is_profile_public"`
	Username          *string         `json:"username"`
	Group             privilege.Group `json:"group"`
	BannedUntil       *time.Time      `json:"banned_until"`
	BanReason         *string         `json:"ban_reason"`
}

// Verified reports whether the email address has been confirmed.
func (i Identity) Verified() bool {
	return i.EmailVerifiedAt != nil
}

// IsBannedAt reports whether the account is banned at the given instant.
func (i Identity) IsBannedAt(now time.Time) bool {
	return IsBannedAt(i.BannedUntil, now)
}

// Handle is the username when set, the display name otherwise.
func (i Identity) Handle() string {
	if i.Username != nil && *i.Username != "" {
		return *i.Username
	}
	return i.Name
}

// Clone returns a deep copy so callers cannot mutate shared state through
// the pointer fields.
func (i Identity) Clone() Identity {
	c := i
	c.EmailVerifiedAt = clonePtr(i.EmailVerifiedAt)
	c.Bio = clonePtr(i.Bio)
	c.Nationality = clonePtr(i.Nationality)
	c.ProfilePictureURL = clonePtr(i.ProfilePictureURL)
	c.Username = clonePtr(i.Username)
	c.BannedUntil = clonePtr(i.BannedUntil)
	c.BanReason = clonePtr(i.BanReason)
	return c
}

// IdentityPatch is a partial Identity. Only fields with Set=true are applied.
// It decodes from a partial JSON object, so {"group":"Owner"} touches group only.
type IdentityPatch struct {
	ID                Optional[int64]           `json:"id"`
	Name              Optional[string]          `json:"name"`
	Email             Optional[string]          `json:"email"`
	EmailVerifiedAt   Optional[*time.Time]      `json:"email_verified_at"`
	Bio               Optional[*string]         `json:"bio"`
	Nationality       Optional[*string]         `json:"nationality"`
	ProfilePictureURL Optional[*string]         `json:"profile_picture_url"`
	IsProfilePublic   Optional[bool]            `json:"is_profile_public"`
	Username          Optional[*string]         `json:"username"`
	Group             Optional[privilege.Group] `json:"group"`
	BannedUntil       Optional[*time.Time]      `json:"banned_until"`
	BanReason         Optional[*string]         `json:"ban_reason"`
}

// Apply returns a copy of i with every supplied field of p overwritten.
func (i Identity) Apply(p IdentityPatch) Identity {
	out := i.Clone()
	p.ID.apply(&out.ID)
	p.Name.apply(&out.Name)
	p.Email.apply(&out.Email)
	p.EmailVerifiedAt.apply(&out.EmailVerifiedAt)
	p.Bio.apply(&out.Bio)
	p.Nationality.apply(&out.Nationality)
	p.ProfilePictureURL.apply(&out.ProfilePictureURL)
	p.IsProfilePublic.apply(&out.IsProfilePublic)
	p.Username.apply(&out.Username)
	p.Group.apply(&out.Group)
	p.BannedUntil.apply(&out.BannedUntil)
	p.BanReason.apply(&out.BanReason)
	return out
}

// PatchFrom builds a patch that sets every field to the value held by i.
func PatchFrom(i Identity) IdentityPatch {
	c := i.Clone()
	return IdentityPatch{
		ID:                Some(c.ID),
		Name:              Some(c.Name),
		Email:             Some(c.Email),
		EmailVerifiedAt:   Some(c.EmailVerifiedAt),
		Bio:               Some(c.Bio),
		Nationality:       Some(c.Nationality),
		ProfilePictureURL: Some(c.ProfilePictureURL),
		IsProfilePublic:   Some(c.IsProfilePublic),
		Username:          Some(c.Username),
		Group:             Some(c.Group),
		BannedUntil:       Some(c.BannedUntil),
		BanReason:         Some(c.BanReason),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns *p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
