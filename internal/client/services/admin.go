package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/hubcli/internal/client/client"
	"github.com/dmitrijs2005/hubcli/internal/client/models"
	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
	"github.com/dmitrijs2005/hubcli/internal/logging"
)

var (
	ErrEmptyQuery      = errors.New("empty user query")
	ErrIncompleteBan   = errors.New("ban reason and expiry are required")
	ErrUnknownGroup    = errors.New("unknown group")
	ErrInvalidTargetID = errors.New("invalid user id")
)

// AdminService defines moderation operations for the CLI.
//
// Contract:
//   - Search: look a user up by numeric id or username.
//   - Ban, Unban, ChangeGroup: moderate the user with the given id. When the
//     target is the signed-in user the session is updated to match.
//
// Validation errors are returned before any request is made.
type AdminService interface {
	Search(ctx context.Context, query string) (models.Profile, error)
	Ban(ctx context.Context, userID int64, req models.BanRequest, permanent bool) error
	Unban(ctx context.Context, userID int64) error
	ChangeGroup(ctx context.Context, userID int64, group privilege.Group) error
}

type adminService struct {
	client  client.Client
	session Session
	logger  logging.Logger
}

// NewAdminService constructs an AdminService bound to the API client and
// session store.
func NewAdminService(c client.Client, s Session, opts ...Option) AdminService {
	o := collect(opts)
	return &adminService{client: c, session: s, logger: o.logger}
}

func (a *adminService) Search(ctx context.Context, query string) (models.Profile, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return models.Profile{}, ErrEmptyQuery
	}
	return a.client.Profile(ctx, q)
}

// Ban requires a reason, and an expiry unless permanent is set. A permanent
// ban sends no expiry.
func (a *adminService) Ban(ctx context.Context, userID int64, req models.BanRequest, permanent bool) error {
	if userID <= 0 {
		return ErrInvalidTargetID
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" || (!permanent && req.Until == nil) {
		return ErrIncompleteBan
	}
	if permanent {
		req.Until = nil
	}

	epoch := a.session.Epoch()
	if err := a.client.BanUser(ctx, userID, req); err != nil {
		return err
	}

	if !a.isSelf(userID) {
		return nil
	}
	if req.Until == nil {
		// Only the backend knows how it stores a permanent ban.
		return a.session.Refresh(ctx)
	}
	return a.patchSelf(ctx, epoch, models.IdentityPatch{
		BannedUntil: models.Some(models.Ptr(req.Until.UTC())),
		BanReason:   models.Some(models.Ptr(req.Reason)),
	})
}

func (a *adminService) Unban(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrInvalidTargetID
	}
	epoch := a.session.Epoch()
	if err := a.client.UnbanUser(ctx, userID); err != nil {
		return err
	}
	if !a.isSelf(userID) {
		return nil
	}
	return a.patchSelf(ctx, epoch, models.IdentityPatch{
		BannedUntil: models.Some[*time.Time](nil),
		BanReason:   models.Some[*string](nil),
	})
}

func (a *adminService) ChangeGroup(ctx context.Context, userID int64, group privilege.Group) error {
	if userID <= 0 {
		return ErrInvalidTargetID
	}
	if !privilege.Known(group) {
		return fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}
	epoch := a.session.Epoch()
	if err := a.client.ChangeGroup(ctx, userID, group); err != nil {
		return err
	}
	if !a.isSelf(userID) {
		return nil
	}
	return a.patchSelf(ctx, epoch, models.IdentityPatch{Group: models.Some(group)})
}

func (a *adminService) isSelf(userID int64) bool {
	u := a.session.User()
	return u != nil && u.ID == userID
}

func (a *adminService) patchSelf(ctx context.Context, epoch uint64, p models.IdentityPatch) error {
	if err := a.session.UpdateUserAt(epoch, p); err != nil {
		a.logger.Info(ctx, "moderation result not applied to session", "error", err)
		return err
	}
	return nil
}
