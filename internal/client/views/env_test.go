package views

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/hubcli/internal/apitest"
	"github.com/dmitrijs2005/hubcli/internal/client/client"
	"github.com/dmitrijs2005/hubcli/internal/client/credentials"
	"github.com/dmitrijs2005/hubcli/internal/client/models"
	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
	"github.com/dmitrijs2005/hubcli/internal/client/services"
	"github.com/dmitrijs2005/hubcli/internal/client/session"
)

type env struct {
	srv     *apitest.Server
	api     *client.HTTPClient
	creds   *credentials.Store
	store   *session.Store
	profile services.ProfileService
	admin   services.AdminService
	me      models.Identity
}

// newEnv resolves a session against a fresh fake backend. A non-empty group
// signs in a verified user of that group first.
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

	e := &env{srv: srv, api: api, creds: creds}
	if g != "" {
		e.me = srv.AddUser(models.Identity{
			Name: "Me", Email: "me@example.com", Username: models.Ptr("me"),
			Group: g, IsProfilePublic: true, Bio: models.Ptr("hello"),
		}, "")
		srv.MarkVerified(e.me.ID)
		require.NoError(t, creds.Save(ctx, srv.Token(e.me.ID, 0)))
	}

	e.store = session.New(api, creds)
	e.store.Resolve(ctx)
	t.Cleanup(e.store.Close)

	e.profile = services.NewProfileService(api, e.store)
	e.admin = services.NewAdminService(api, e.store)
	return e
}

func (e *env) add(name string, g privilege.Group, public bool) models.Identity {
	return e.srv.AddUser(models.Identity{
		Name: name, Email: name + "@example.com", Username: models.Ptr(name),
		Group: g, IsProfilePublic: public,
	}, "")
}

// staticViewer is a Viewer with a fixed identity.
type staticViewer struct {
	user *models.Identity
}

func viewerIn(g privilege.Group) staticViewer {
	return staticViewer{user: &models.Identity{ID: 1, Name: "v", Group: g}}
}

func (s staticViewer) User() *models.Identity { return s.user }

func (s staticViewer) HasPrivilege(required ...privilege.Group) bool {
	return s.user != nil && privilege.Meets(s.user.Group, required...)
}

func (s staticViewer) IsBanned() bool { return false }

func newBossAPI(t *testing.T, e *env, id int64) *client.HTTPClient {
	t.Helper()
	c, err := client.NewHTTPClient(e.srv.BaseURL(), client.StaticToken(e.srv.Token(id, 0)))
	require.NoError(t, err)
	return c
}
