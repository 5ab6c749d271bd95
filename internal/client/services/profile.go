package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/hubcli/internal/client/client"
	"github.com/dmitrijs2005/hubcli/internal/client/models"
	"github.com/dmitrijs2005/hubcli/internal/logging"
)

// ErrPrivateProfile is returned by Fetch when the owner hid the profile.
var ErrPrivateProfile = errors.New("profile is private")

// ProfileResult is a loaded public profile.
//
// BanOnly is set when the backend refused the profile because its owner is
// banned; Profile then carries only the requested handle and the ban fields.
type ProfileResult struct {
	Profile models.Profile
	Banned  bool
	BanOnly bool
}

// ProfileService defines profile operations for the CLI.
//
// Contract:
//   - UpdateOwnProfile: send the edit form and merge the returned identity
//     into the session.
//   - Fetch: load a profile by numeric id or username and classify refusals.
type ProfileService interface {
	UpdateOwnProfile(ctx context.Context, upd models.ProfileUpdate) (models.Identity, error)
	Fetch(ctx context.Context, idOrUsername string) (ProfileResult, error)
}

type profileService struct {
	client  client.Client
	session Session
	now     func() time.Time
	logger  logging.Logger
}

// NewProfileService constructs a ProfileService bound to the API client and
// session store.
func NewProfileService(c client.Client, s Session, opts ...Option) ProfileService {
	o := collect(opts)
	return &profileService{client: c, session: s, now: o.now, logger: o.logger}
}

func (p *profileService) UpdateOwnProfile(ctx context.Context, upd models.ProfileUpdate) (models.Identity, error) {
	if p.session.User() == nil {
		return models.Identity{}, ErrNotSignedIn
	}
	epoch := p.session.Epoch()

	updated, err := p.client.UpdateProfile(ctx, upd)
	if err != nil {
		return models.Identity{}, err
	}

	if err := p.session.UpdateUserAt(epoch, models.PatchFrom(updated)); err != nil {
		p.logger.Info(ctx, "profile update arrived after session change", "error", err)
		return updated, err
	}
	return updated, nil
}

func (p *profileService) Fetch(ctx context.Context, idOrUsername string) (ProfileResult, error) {
	prof, err := p.client.Profile(ctx, idOrUsername)
	if err == nil {
		return ProfileResult{Profile: prof, Banned: prof.IsBannedAt(p.now())}, nil
	}

	apiErr, ok := client.AsAPIError(err)
	if !ok || apiErr.StatusCode != http.StatusForbidden {
		return ProfileResult{}, err
	}

	var payload models.Profile
	if apiErr.Decode(&payload) != nil {
		return ProfileResult{}, err
	}
	switch {
	case payload.IsPrivate:
		return ProfileResult{}, ErrPrivateProfile
	case payload.Message != "" && payload.BannedUntil != nil:
		return ProfileResult{
			Profile: models.Profile{
				Username:    idOrUsername,
				BannedUntil: payload.BannedUntil,
				BanReason:   payload.BanReason,
				Message:     payload.Message,
			},
			Banned:  true,
			BanOnly: true,
		}, nil
	default:
		return ProfileResult{}, err
	}
}
