package views

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/hubcli/internal/apitest"
	"github.com/dmitrijs2005/hubcli/internal/client/models"
	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
)

func TestAdminPanel_Gates(t *testing.T) {
	tests := []struct {
		group                          privilege.Group
		access, ban, changeGroup, full bool
	}{
		{privilege.BasicPlan, false, false, false, false},
		{privilege.PremiumPlan, false, false, false, false},
		{privilege.JuniorSupport, true, false, false, false},
		{privilege.Support, true, false, false, false},
		{privilege.SeniorSupport, true, true, false, true},
		{privilege.Admin, true, true, true, true},
		{privilege.Owner, true, true, true, true},
		{privilege.Group("Moderator"), false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.group), func(t *testing.T) {
			v := NewAdminPanel(viewerIn(tt.group), nil, nil)
			defer v.Close()

			assert.Equal(t, tt.access, v.CanAccess())
			assert.Equal(t, tt.access, CanOpenAdminPanel(viewerIn(tt.group)))
			assert.Equal(t, !tt.access, v.Redirect())
			assert.Equal(t, tt.ban, v.CanBan())
			assert.Equal(t, tt.changeGroup, v.CanChangeGroup())
			assert.Equal(t, tt.full, v.CanSeeFullInfo())
		})
	}

	anon := NewAdminPanel(staticViewer{}, nil, nil)
	defer anon.Close()
	assert.True(t, anon.Redirect())
	assert.False(t, CanOpenAdminPanel(staticViewer{}))
}

func TestAdminPanel_SeeFullInfoOfSelf(t *testing.T) {
	v := NewAdminPanel(viewerIn(privilege.Support), nil, nil)
	defer v.Close()

	v.Select(models.Profile{ID: 1})
	assert.True(t, v.CanSeeFullInfo())
	v.Select(models.Profile{ID: 2})
	assert.False(t, v.CanSeeFullInfo())
}

func TestAdminPanel_Search(t *testing.T) {
	e := newEnv(t, privilege.JuniorSupport)
	target := e.add("alice", privilege.PremiumPlan, true)
	v := NewAdminPanel(e.store, e.admin, nil)
	defer v.Close()
	ctx := context.Background()

	v.Search(ctx, "  ")
	assert.Equal(t, MsgEmptySearch, v.SearchError)

	v.Search(ctx, "nobody")
	assert.Equal(t, MsgNoUserFound, v.SearchError)
	assert.Nil(t, v.Selected)

	v.Search(ctx, "alice")
	assert.Empty(t, v.SearchError)
	require.Len(t, v.Results, 1)
	require.NotNil(t, v.Selected)
	assert.Equal(t, target.ID, v.Selected.ID)
	assert.Equal(t, privilege.PremiumPlan, v.NewGroup)
}

func TestAdminPanel_SupportCannotBan(t *testing.T) {
	e := newEnv(t, privilege.Support)
	e.add("alice", privilege.BasicPlan, true)
	v := NewAdminPanel(e.store, e.admin, nil)
	defer v.Close()
	ctx := context.Background()

	v.Search(ctx, "alice")
	require.NotNil(t, v.Selected)
	before := e.srv.TotalHits()

	v.BanReason = "spam"
	v.Ban(ctx, true)
	assert.Equal(t, failure(MsgNoBanPermission), v.Notice)

	v.Unban(ctx)
	v.NewGroup = privilege.Admin
	v.ChangeGroup(ctx)
	assert.Equal(t, failure(MsgNoGroupChange), v.Notice)

	assert.Equal(t, before, e.srv.TotalHits(), "gates stop the request before it is sent")
	assert.Zero(t, e.srv.Hits(http.MethodPost, "/api/admin/users/{id}/ban"))
}

func TestAdminPanel_BanAndUnban(t *testing.T) {
	e := newEnv(t, privilege.SeniorSupport)
	target := e.add("alice", privilege.BasicPlan, true)
	now := time.Now()
	v := NewAdminPanel(e.store, e.admin, func() time.Time { return now })
	defer v.Close()
	ctx := context.Background()

	v.Search(ctx, "alice")
	require.NotNil(t, v.Selected)

	v.Ban(ctx, false)
	assert.Equal(t, failure(MsgFillBanFields), v.Notice)

	until := now.Add(24 * time.Hour)
	v.BanReason = "spam"
	v.BannedUntil = &until
	v.Ban(ctx, false)
	assert.Equal(t, success("User alice banned successfully!"), v.Notice)
	assert.True(t, v.SelectedBanned())

	v.Unban(ctx)
	assert.Equal(t, success("User alice unbanned successfully!"), v.Notice)
	assert.False(t, v.SelectedBanned())

	v.BanReason = "again"
	v.Ban(ctx, true)
	assert.Equal(t, NoticeSuccess, v.Notice.Kind)
	require.NotNil(t, v.Selected.BannedUntil)
	assert.True(t, apitest.PermanentBan.Equal(*v.Selected.BannedUntil))

	got, _ := e.srv.User(target.ID)
	assert.Equal(t, "again", models.Deref(got.BanReason))
}

func TestAdminPanel_BackendMessageOnRefusal(t *testing.T) {
	e := newEnv(t, privilege.SeniorSupport)
	e.add("boss", privilege.Owner, true)
	v := NewAdminPanel(e.store, e.admin, nil)
	defer v.Close()
	ctx := context.Background()

	v.Search(ctx, "boss")
	require.NotNil(t, v.Selected)
	v.BanReason = "coup"
	v.Ban(ctx, true)

	assert.Equal(t, failure("You cannot moderate a user with equal or higher privileges."), v.Notice)
}

func TestAdminPanel_ChangeGroup(t *testing.T) {
	e := newEnv(t, privilege.Admin)
	e.add("alice", privilege.BasicPlan, true)
	v := NewAdminPanel(e.store, e.admin, nil)
	defer v.Close()
	ctx := context.Background()

	v.ChangeGroup(ctx)
	assert.Equal(t, failure(MsgSelectGroup), v.Notice)

	v.Search(ctx, "alice")
	v.NewGroup = privilege.Owner
	v.ChangeGroup(ctx)
	assert.Equal(t, success("User alice group updated to Owner!"), v.Notice)
	assert.Equal(t, privilege.Owner, v.Selected.Group)

	v.Search(ctx, "me")
	require.NotNil(t, v.Selected)
	v.NewGroup = privilege.Owner
	v.ChangeGroup(ctx)
	assert.Equal(t, NoticeSuccess, v.Notice.Kind)
	assert.Equal(t, privilege.Owner, e.store.User().Group, "own group change is reflected locally")
}

func TestGroupColor(t *testing.T) {
	seen := map[Palette]bool{}
	for _, g := range privilege.AllGroups() {
		p := GroupColor(g)
		assert.NotEmpty(t, p.From)
		if g != privilege.BasicPlan {
			assert.False(t, seen[p], "distinct colour for %s", g)
		}
		seen[p] = true
	}
	assert.Equal(t, GroupColor(privilege.BasicPlan), GroupColor("Unknown"))
}
