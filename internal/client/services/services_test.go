package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/hubcli/internal/apitest"
	"github.com/dmitrijs2005/hubcli/internal/client/client"
	"github.com/dmitrijs2005/hubcli/internal/client/credentials"
	"github.com/dmitrijs2005/hubcli/internal/client/models"
	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
	"github.com/dmitrijs2005/hubcli/internal/client/session"
)

type env struct {
	srv   *apitest.Server
	api   *client.HTTPClient
	store *session.Store
	me    models.Identity
}

// newEnv signs a fresh user of group g into a session backed by the fake
// backend. An empty group leaves the session anonymous.
func newEnv(t *testing.T, g privilege.Group) *env {
	t.Helper()
	ctx := context.Background()
	srv := apitest.New(t)

	db, err := client.InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	creds := credentials.NewStore(db)

	api, err := client.NewHTTPClient(srv.BaseURL(), creds)
	require.NoError(t, err)

	e := &env{srv: srv, api: api}
	if g != "" {
		e.me = srv.AddUser(models.Identity{
			Name: "Me", Email: "me@example.com", Username: models.Ptr("me"),
			Group: g, IsProfilePublic: true,
		}, "")
		srv.MarkVerified(e.me.ID)
		require.NoError(t, creds.Save(ctx, srv.Token(e.me.ID, 0)))
	}

	e.store = session.New(api, creds)
	e.store.Resolve(ctx)
	t.Cleanup(e.store.Close)
	return e
}

func (e *env) other(name string, g privilege.Group, public bool) models.Identity {
	return e.srv.AddUser(models.Identity{
		Name: name, Email: name + "@example.com", Username: models.Ptr(name),
		Group: g, IsProfilePublic: public,
	}, "")
}

type hookClient struct {
	client.Client
	before func()
}

func (h hookClient) ChangeGroup(ctx context.Context, id int64, g privilege.Group) error {
	h.before()
	return h.Client.ChangeGroup(ctx, id, g)
}

func TestProfileService_UpdateOwnProfile(t *testing.T) {
	e := newEnv(t, privilege.BasicPlan)
	svc := NewProfileService(e.api, e.store)

	got, err := svc.UpdateOwnProfile(context.Background(), models.ProfileUpdate{
		Name: "Me Again", Username: "me2", Bio: "Templates", Public: false,
		Avatar: &models.Upload{Filename: "a.png", ContentType: "image/png", Data: []byte("\x89PNG\r\n")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Me Again", got.Name)

	u := e.store.User()
	require.NotNil(t, u)
	assert.Equal(t, "Me Again", u.Name)
	assert.Equal(t, "me2", models.Deref(u.Username))
	assert.Equal(t, "Templates", models.Deref(u.Bio))
	assert.False(t, u.IsProfilePublic)
	assert.NotNil(t, u.ProfilePictureURL)

	_, err = svc.UpdateOwnProfile(context.Background(), models.ProfileUpdate{Name: "Me", ClearAvatar: true})
	require.NoError(t, err)
	assert.Nil(t, e.store.User().ProfilePictureURL)
}

func TestProfileService_UpdateOwnProfileErrors(t *testing.T) {
	e := newEnv(t, privilege.BasicPlan)
	e.other("taken", privilege.BasicPlan, true)
	svc := NewProfileService(e.api, e.store)

	_, err := svc.UpdateOwnProfile(context.Background(), models.ProfileUpdate{Name: "Me", Username: "taken"})
	require.ErrorIs(t, err, client.ErrValidation)
	assert.Equal(t, "me", models.Deref(e.store.User().Username), "session untouched on failure")

	anon := newEnv(t, "")
	_, err = NewProfileService(anon.api, anon.store).UpdateOwnProfile(context.Background(), models.ProfileUpdate{Name: "x"})
	require.ErrorIs(t, err, ErrNotSignedIn)
	assert.Zero(t, anon.srv.TotalHits())
}

func TestProfileService_Fetch(t *testing.T) {
	e := newEnv(t, "")
	public := e.other("pub", privilege.Support, true)
	e.other("priv", privilege.BasicPlan, false)
	banned := e.other("banned", privilege.BasicPlan, true)

	admin := e.srv.AddUser(models.Identity{Name: "root", Email: "root@example.com", Group: privilege.Owner}, "")
	adminAPI, err := client.NewHTTPClient(e.srv.BaseURL(), client.StaticToken(e.srv.Token(admin.ID, 0)))
	require.NoError(t, err)
	until := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, adminAPI.BanUser(context.Background(), banned.ID, models.BanRequest{Reason: "spam", Until: &until}))

	svc := NewProfileService(e.api, e.store)
	ctx := context.Background()

	res, err := svc.Fetch(ctx, "pub")
	require.NoError(t, err)
	assert.Equal(t, public.ID, res.Profile.ID)
	assert.False(t, res.Banned)
	assert.Nil(t, res.Profile.Email, "anonymous viewers do not get contact details")

	_, err = svc.Fetch(ctx, "priv")
	require.ErrorIs(t, err, ErrPrivateProfile)

	res, err = svc.Fetch(ctx, "banned")
	require.NoError(t, err)
	assert.True(t, res.BanOnly)
	assert.True(t, res.Banned)
	assert.Equal(t, "banned", res.Profile.Username)
	assert.Equal(t, "spam", models.Deref(res.Profile.BanReason))
	assert.True(t, until.Equal(*res.Profile.BannedUntil))

	_, err = svc.Fetch(ctx, "ghost")
	require.ErrorIs(t, err, client.ErrNotFound)
}

func TestProfileService_FetchBannedAsStaff(t *testing.T) {
	e := newEnv(t, privilege.SeniorSupport)
	target := e.other("target", privilege.BasicPlan, false)
	admin := NewAdminService(e.api, e.store)
	until := time.Now().Add(time.Hour)
	require.NoError(t, admin.Ban(context.Background(), target.ID, models.BanRequest{Reason: "spam", Until: &until}, false))

	res, err := NewProfileService(e.api, e.store).Fetch(context.Background(), "target")
	require.NoError(t, err)
	assert.False(t, res.BanOnly)
	assert.True(t, res.Banned)
	assert.Equal(t, "target@example.com", models.Deref(res.Profile.Email))
}

func TestAdminService_Search(t *testing.T) {
	e := newEnv(t, privilege.JuniorSupport)
	target := e.other("alice", privilege.BasicPlan, true)
	svc := NewAdminService(e.api, e.store)
	ctx := context.Background()

	_, err := svc.Search(ctx, "   ")
	require.ErrorIs(t, err, ErrEmptyQuery)
	assert.Zero(t, e.srv.Hits(http.MethodGet, "/api/users/{idOrUsername}/profile"))

	p, err := svc.Search(ctx, "  alice ")
	require.NoError(t, err)
	assert.Equal(t, target.ID, p.ID)

	p, err = svc.Search(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)

	_, err = svc.Search(ctx, "nobody")
	require.ErrorIs(t, err, client.ErrNotFound)
}

func TestAdminService_BanValidatesBeforeCalling(t *testing.T) {
	e := newEnv(t, privilege.Admin)
	target := e.other("t", privilege.BasicPlan, true)
	svc := NewAdminService(e.api, e.store)
	ctx := context.Background()
	before := e.srv.TotalHits()
	until := time.Now().Add(time.Hour)

	require.ErrorIs(t, svc.Ban(ctx, target.ID, models.BanRequest{Reason: "x"}, false), ErrIncompleteBan)
	require.ErrorIs(t, svc.Ban(ctx, target.ID, models.BanRequest{Reason: "  ", Until: &until}, false), ErrIncompleteBan)
	require.ErrorIs(t, svc.Ban(ctx, 0, models.BanRequest{Reason: "x"}, true), ErrInvalidTargetID)
	require.ErrorIs(t, svc.ChangeGroup(ctx, target.ID, privilege.Group("Moderator")), ErrUnknownGroup)
	require.ErrorIs(t, svc.Unban(ctx, -1), ErrInvalidTargetID)

	assert.Equal(t, before, e.srv.TotalHits())
}

func TestAdminService_BanAndUnban(t *testing.T) {
	e := newEnv(t, privilege.SeniorSupport)
	target := e.other("t", privilege.PremiumPlan, true)
	svc := NewAdminService(e.api, e.store)
	ctx := context.Background()

	until := time.Now().Add(48 * time.Hour)
	require.NoError(t, svc.Ban(ctx, target.ID, models.BanRequest{Reason: " abuse ", Until: &until}, true))
	got, _ := e.srv.User(target.ID)
	assert.Equal(t, apitest.PermanentBan, *got.BannedUntil, "permanent drops the expiry")
	assert.Equal(t, "abuse", models.Deref(got.BanReason))

	require.NoError(t, svc.Unban(ctx, target.ID))
	got, _ = e.srv.User(target.ID)
	assert.Nil(t, got.BannedUntil)

	require.ErrorIs(t, svc.ChangeGroup(ctx, target.ID, privilege.Support), client.ErrForbidden, "backend enforces Admin for group changes")
}

func TestAdminService_ChangeGroup(t *testing.T) {
	e := newEnv(t, privilege.Admin)
	target := e.other("t", privilege.BasicPlan, true)
	svc := NewAdminService(e.api, e.store)
	ctx := context.Background()

	require.NoError(t, svc.ChangeGroup(ctx, target.ID, privilege.Owner))
	got, _ := e.srv.User(target.ID)
	assert.Equal(t, privilege.Owner, got.Group)
	assert.Equal(t, privilege.Admin, e.store.User().Group, "other users do not touch the session")

	require.NoError(t, svc.ChangeGroup(ctx, e.me.ID, privilege.Owner))
	assert.Equal(t, privilege.Owner, e.store.User().Group)
	assert.True(t, e.store.HasPrivilege(privilege.Owner))
}

func TestAdminService_ChangeGroupDroppedAfterLogout(t *testing.T) {
	e := newEnv(t, privilege.Admin)
	svc := NewAdminService(hookClient{
		Client: e.api,
		before: func() { require.NoError(t, e.store.Logout(context.Background())) },
	}, e.store)

	err := svc.ChangeGroup(context.Background(), e.me.ID, privilege.Owner)
	require.Error(t, err)
	assert.Nil(t, e.store.User())
}
