package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
	"github.com/dmitrijs2005/hubcli/internal/client/views"
)

const msgNoPanelAccess = "You do not have access to the admin panel."

var errBadUntil = errors.New(`use a date (2006-01-02), a date and time (2006-01-02 15:04), RFC 3339, or a duration such as 72h or 7d`)

// openPanel returns the admin panel when the signed-in user may use it.
func (a *App) openPanel() (*views.AdminPanel, bool) {
	p := views.NewAdminPanel(a.session, a.admin, a.now)
	if p.Redirect() {
		p.Close()
		fmt.Fprintln(a.out, errStyle.Render(msgNoPanelAccess))
		return nil, false
	}
	return p, true
}

// selectUser searches query and prints the match. It reports whether a user
// is selected.
func (a *App) selectUser(ctx context.Context, p *views.AdminPanel, query string) bool {
	p.Search(ctx, query)
	if p.SearchError != "" {
		fmt.Fprintln(a.out, errStyle.Render(p.SearchError))
		return false
	}
	if p.Selected == nil {
		return false
	}
	fmt.Fprintln(a.out, renderProfile(*p.Selected, p.CanSeeFullInfo(), p.SelectedBanned()))
	return true
}

func (a *App) printPanelNotice(p *views.AdminPanel) {
	if n := renderNotice(p.Notice); n != "" {
		fmt.Fprintln(a.out, n)
	}
}

// AdminSearch looks a user up by id or username.
func (a *App) AdminSearch(ctx context.Context, query string) error {
	p, ok := a.openPanel()
	if !ok {
		return nil
	}
	defer p.Close()

	a.selectUser(ctx, p, query)
	return nil
}

// AdminBan asks for a reason and an expiry, then bans the user. An empty
// expiry bans for good.
func (a *App) AdminBan(ctx context.Context, id string) error {
	p, ok := a.openPanel()
	if !ok {
		return nil
	}
	defer p.Close()

	if !p.CanBan() {
		fmt.Fprintln(a.out, errStyle.Render(views.MsgNoBanPermission))
		return nil
	}
	if !a.selectUser(ctx, p, id) {
		return nil
	}

	reason, err := getSimpleText(a.reader, "Ban reason", a.out)
	if err != nil {
		return err
	}
	untilText, err := getSimpleText(a.reader, "Banned until (empty for a permanent ban)", a.out)
	if err != nil {
		return err
	}

	p.BanReason = reason
	permanent := untilText == ""
	if !permanent {
		until, err := parseUntil(untilText, a.now())
		if err != nil {
			fmt.Fprintln(a.out, errStyle.Render(err.Error()))
			return err
		}
		p.BannedUntil = &until
	}

	p.Ban(ctx, permanent)
	a.printPanelNotice(p)
	return nil
}

// AdminUnban lifts the ban of a user.
func (a *App) AdminUnban(ctx context.Context, id string) error {
	p, ok := a.openPanel()
	if !ok {
		return nil
	}
	defer p.Close()

	if !p.CanBan() {
		fmt.Fprintln(a.out, errStyle.Render(views.MsgNoBanPermission))
		return nil
	}
	if !a.selectUser(ctx, p, id) {
		return nil
	}

	p.Unban(ctx)
	a.printPanelNotice(p)
	return nil
}

// AdminGroup moves a user to another group.
func (a *App) AdminGroup(ctx context.Context, id, group string) error {
	p, ok := a.openPanel()
	if !ok {
		return nil
	}
	defer p.Close()

	if !p.CanChangeGroup() {
		fmt.Fprintln(a.out, errStyle.Render(views.MsgNoGroupChange))
		return nil
	}
	g, err := privilege.ParseGroup(group)
	if err != nil {
		fmt.Fprintln(a.out, errStyle.Render(views.MsgSelectGroup))
		fmt.Fprintln(a.out, "Groups: "+groupList())
		return nil
	}
	if !a.selectUser(ctx, p, id) {
		return nil
	}

	p.NewGroup = g
	p.ChangeGroup(ctx)
	a.printPanelNotice(p)
	return nil
}

func groupList() string {
	names := make([]string, 0, len(privilege.AllGroups()))
	for _, g := range privilege.AllGroups() {
		names = append(names, string(g))
	}
	return strings.Join(names, ", ")
}

// parseUntil reads a ban expiry. Dates without a zone are local time.
func parseUntil(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil && n > 0 {
			return now.AddDate(0, 0, n), nil
		}
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return now.Add(d), nil
	}
	return time.Time{}, errBadUntil
}
