package views

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/hubcli/internal/client/client"
	"github.com/dmitrijs2005/hubcli/internal/client/models"
	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
	"github.com/dmitrijs2005/hubcli/internal/client/services"
	"github.com/dmitrijs2005/hubcli/internal/client/session"
)

const (
	MsgEmptySearch     = "Please enter a user ID or username to search."
	MsgNoUserFound     = "No user found with that ID or username."
	MsgSearchFailed    = "Failed to search for user. Make sure the ID/username is correct."
	MsgFillBanFields   = "Please fill all ban fields."
	MsgBanFailed       = "Failed to ban user. Check privileges or user ID."
	MsgUnbanFailed     = "Failed to unban user. Check privileges or user ID."
	MsgSelectGroup     = "Please select a new group."
	MsgGroupFailed     = "Failed to update group. Check privileges or user ID."
	MsgNoBanPermission = "You do not have permission to ban or unban users."
	MsgNoGroupChange   = "You do not have permission to change groups."
)

// The groups allowed to use each part of the admin panel.
var (
	panelGroups       = []privilege.Group{privilege.JuniorSupport, privilege.Support, privilege.SeniorSupport, privilege.Admin, privilege.Owner}
	banGroups         = []privilege.Group{privilege.Admin, privilege.Owner, privilege.SeniorSupport}
	groupChangeGroups = []privilege.Group{privilege.Admin, privilege.Owner}
	fullInfoGroups    = []privilege.Group{privilege.Admin, privilege.Owner, privilege.SeniorSupport}
)

// AdminPanel is the moderation screen: search a user, inspect them, then
// ban, unban or move them to another group.
type AdminPanel struct {
	Query       string
	SearchError string
	Results     []models.Profile
	Selected    *models.Profile

	BanReason   string
	BannedUntil *time.Time
	NewGroup    privilege.Group
	Notice      Notice

	sess  Viewer
	svc   services.AdminService
	now   func() time.Time
	scope *Scope
}

func NewAdminPanel(sess Viewer, svc services.AdminService, now func() time.Time) *AdminPanel {
	if now == nil {
		now = time.Now
	}
	return &AdminPanel{sess: sess, svc: svc, now: now, scope: NewScope()}
}

// CanOpenAdminPanel reports whether sess may open the moderation screen.
func CanOpenAdminPanel(sess Viewer) bool { return sess.HasPrivilege(panelGroups...) }

func (v *AdminPanel) CanAccess() bool      { return CanOpenAdminPanel(v.sess) }
func (v *AdminPanel) CanBan() bool         { return v.sess.HasPrivilege(banGroups...) }
func (v *AdminPanel) CanChangeGroup() bool { return v.sess.HasPrivilege(groupChangeGroups...) }

// CanSeeFullInfo reports whether name and email of the selected user may be
// shown.
func (v *AdminPanel) CanSeeFullInfo() bool {
	if v.sess.HasPrivilege(fullInfoGroups...) {
		return true
	}
	u := v.sess.User()
	return u != nil && v.Selected != nil && u.ID == v.Selected.ID
}

// Redirect reports whether the user has to be sent away from the panel.
func (v *AdminPanel) Redirect() bool {
	return !v.CanAccess()
}

// SelectedBanned reports whether the selected user is banned right now.
func (v *AdminPanel) SelectedBanned() bool {
	return v.Selected != nil && v.Selected.IsBannedAt(v.now())
}

// Search looks a user up and selects it on success.
func (v *AdminPanel) Search(ctx context.Context, query string) {
	v.Query = query
	v.Results, v.SearchError, v.Selected = nil, "", nil

	ticket := v.scope.Begin()
	ctx, cancel := v.scope.Bind(ctx)
	defer cancel()

	p, err := v.svc.Search(ctx, query)
	if !v.scope.Current(ticket) {
		return
	}

	switch {
	case err == nil:
		v.Results = []models.Profile{p}
		v.Select(p)
	case errors.Is(err, services.ErrEmptyQuery):
		v.SearchError = MsgEmptySearch
	case errors.Is(err, client.ErrNotFound):
		v.SearchError = MsgNoUserFound
	default:
		v.SearchError = messageOr(err, MsgSearchFailed)
	}
}

// Select shows p and seeds the moderation form from it.
func (v *AdminPanel) Select(p models.Profile) {
	v.Selected = &p
	v.BanReason = models.Deref(p.BanReason)
	v.BannedUntil = p.BannedUntil
	v.NewGroup = p.Group
	v.Notice = Notice{}
}

// Ban bans the selected user until BannedUntil, or for good when permanent.
func (v *AdminPanel) Ban(ctx context.Context, permanent bool) {
	if v.Selected == nil {
		return
	}
	if !v.CanBan() {
		v.Notice = failure(MsgNoBanPermission)
		return
	}
	target := *v.Selected
	req := models.BanRequest{Reason: v.BanReason, Until: v.BannedUntil}

	v.run(ctx, func(ctx context.Context) error {
		return v.svc.Ban(ctx, target.ID, req, permanent)
	}, func(err error) {
		if errors.Is(err, services.ErrIncompleteBan) {
			v.Notice = failure(MsgFillBanFields)
			return
		}
		v.Notice = failure(messageOr(err, MsgBanFailed))
	}, func(ctx context.Context) {
		v.Notice = success(fmt.Sprintf("User %s banned successfully!", target.Username))
		if permanent {
			v.reload(ctx, target.ID)
			return
		}
		v.Selected.BannedUntil = req.Until
		v.Selected.BanReason = models.Ptr(req.Reason)
	})
}

func (v *AdminPanel) Unban(ctx context.Context) {
	if v.Selected == nil {
		return
	}
	if !v.CanBan() {
		v.Notice = failure(MsgNoBanPermission)
		return
	}
	target := *v.Selected

	v.run(ctx, func(ctx context.Context) error {
		return v.svc.Unban(ctx, target.ID)
	}, func(err error) {
		v.Notice = failure(messageOr(err, MsgUnbanFailed))
	}, func(context.Context) {
		v.Notice = success(fmt.Sprintf("User %s unbanned successfully!", target.Username))
		v.Selected.BannedUntil = nil
		v.Selected.BanReason = nil
		v.BanReason = ""
		v.BannedUntil = nil
	})
}

// ChangeGroup moves the selected user to NewGroup.
func (v *AdminPanel) ChangeGroup(ctx context.Context) {
	if v.Selected == nil || v.NewGroup == "" {
		v.Notice = failure(MsgSelectGroup)
		return
	}
	if !v.CanChangeGroup() {
		v.Notice = failure(MsgNoGroupChange)
		return
	}
	target, group := *v.Selected, v.NewGroup

	v.run(ctx, func(ctx context.Context) error {
		return v.svc.ChangeGroup(ctx, target.ID, group)
	}, func(err error) {
		if errors.Is(err, services.ErrUnknownGroup) {
			v.Notice = failure(MsgSelectGroup)
			return
		}
		v.Notice = failure(messageOr(err, MsgGroupFailed))
	}, func(context.Context) {
		v.Notice = success(fmt.Sprintf("User %s group updated to %s!", target.Username, group))
		v.Selected.Group = group
	})
}

// run executes one moderation request and applies its outcome unless the
// panel moved on in the meantime.
func (v *AdminPanel) run(ctx context.Context, call func(context.Context) error, onErr func(error), onOK func(context.Context)) {
	v.Notice = Notice{}

	ticket := v.scope.Begin()
	ctx, cancel := v.scope.Bind(ctx)
	defer cancel()

	err := call(ctx)
	if !v.scope.Current(ticket) || v.Selected == nil {
		return
	}
	switch {
	case err == nil:
		onOK(ctx)
	case errors.Is(err, session.ErrStale):
	default:
		onErr(err)
	}
}

// reload refreshes the selected user after a change whose result only the
// backend knows.
func (v *AdminPanel) reload(ctx context.Context, id int64) {
	p, err := v.svc.Search(ctx, strconv.FormatInt(id, 10))
	if err != nil || v.Selected == nil || v.Selected.ID != id {
		return
	}
	v.Selected.BannedUntil = p.BannedUntil
	v.Selected.BanReason = p.BanReason
}

func (v *AdminPanel) Close() {
	v.scope.Close()
}

func messageOr(err error, fallback string) string {
	if msg := client.Message(err); msg != "" {
		return msg
	}
	return fallback
}
