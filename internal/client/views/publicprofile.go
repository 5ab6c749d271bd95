package views

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/hubcli/internal/client/client"
	"github.com/dmitrijs2005/hubcli/internal/client/models"
	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
	"github.com/dmitrijs2005/hubcli/internal/client/services"
)

const (
	MsgProfilePrivate    = "This profile is private."
	MsgAccessDenied      = "Access Denied."
	MsgUserNotFound      = "User not found."
	MsgProfileLoadFailed = "Failed to load profile. Please try again later."
)

// PublicProfile shows someone's profile by id or username.
type PublicProfile struct {
	Key     string
	Profile *models.Profile
	Banned  bool
	// BanOnly is set when the backend disclosed nothing but the ban.
	BanOnly bool
	Error   string

	sess  Viewer
	svc   services.ProfileService
	scope *Scope
}

func NewPublicProfile(sess Viewer, svc services.ProfileService) *PublicProfile {
	return &PublicProfile{sess: sess, svc: svc, scope: NewScope()}
}

// Load fetches the profile, replacing whatever was shown before.
func (v *PublicProfile) Load(ctx context.Context, idOrUsername string) {
	v.Key = idOrUsername
	v.Profile, v.Banned, v.BanOnly, v.Error = nil, false, false, ""

	ticket := v.scope.Begin()
	ctx, cancel := v.scope.Bind(ctx)
	defer cancel()

	res, err := v.svc.Fetch(ctx, idOrUsername)
	if !v.scope.Current(ticket) {
		return
	}

	switch {
	case err == nil:
		p := res.Profile
		v.Profile = &p
		v.Banned = res.Banned
		v.BanOnly = res.BanOnly
	case errors.Is(err, services.ErrPrivateProfile):
		v.Error = MsgProfilePrivate
	case errors.Is(err, client.ErrForbidden):
		v.Error = MsgAccessDenied
	case errors.Is(err, client.ErrNotFound):
		v.Error = MsgUserNotFound
	default:
		v.Error = MsgProfileLoadFailed
	}
}

// IsOwner reports whether the signed-in user is looking at their own
// profile.
func (v *PublicProfile) IsOwner() bool {
	u := v.sess.User()
	return u != nil && v.Profile != nil && !v.BanOnly && u.ID == v.Profile.ID
}

// CanSeeFullInfo reports whether name and email may be shown.
func (v *PublicProfile) CanSeeFullInfo() bool {
	return v.IsOwner() || v.sess.HasPrivilege(privilege.SeniorSupport, privilege.Admin, privilege.Owner)
}

func (v *PublicProfile) Close() {
	v.scope.Close()
}
