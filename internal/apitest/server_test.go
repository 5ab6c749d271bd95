package apitest

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/hubcli/internal/client/client"
	"github.com/dmitrijs2005/hubcli/internal/client/models"
	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
)

func clientFor(t *testing.T, s *Server, token string) *client.HTTPClient {
	t.Helper()
	c, err := client.NewHTTPClient(s.BaseURL(), client.StaticToken(token))
	require.NoError(t, err)
	return c
}

func seed(s *Server, name string, g privilege.Group, public bool) models.Identity {
	return s.AddUser(models.Identity{
		Name:            name,
		Email:           name + "@example.com",
		Username:        models.Ptr(name),
		Group:           g,
		IsProfilePublic: public,
	}, "")
}

func TestServer_LoginAndCurrentUser(t *testing.T) {
	s := New(t)
	u := seed(s, "ada", privilege.Admin, true)
	ctx := context.Background()

	_, err := clientFor(t, s, "").Login(ctx, models.Credentials{Email: "ada@example.com", Password: "wrong-password"})
	require.ErrorIs(t, err, client.ErrUnauthorized)

	res, err := clientFor(t, s, "").Login(ctx, models.Credentials{Email: "ADA@example.com", Password: DefaultPassword})
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)

	me, err := clientFor(t, s, res.AccessToken).CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, privilege.Admin, me.Group)

	_, err = clientFor(t, s, "").CurrentUser(ctx)
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, 2, s.Hits(http.MethodPost, "/api/login"))
}

func TestServer_ExpiredTokenRejected(t *testing.T) {
	s := New(t)
	u := seed(s, "bob", privilege.BasicPlan, true)
	token := s.Token(u.ID, time.Minute)

	s.SetClock(func() time.Time { return time.Now().Add(2 * time.Minute) })

	_, err := clientFor(t, s, token).CurrentUser(context.Background())
	require.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestServer_RegisterValidation(t *testing.T) {
	s := New(t)
	seed(s, "taken", privilege.BasicPlan, true)
	c := clientFor(t, s, "")

	err := c.Register(context.Background(), models.Registration{
		Name: "X", Username: "taken", Email: "new@example.com",
		Password: "password1", PasswordConfirmation: "password1",
	})
	require.ErrorIs(t, err, client.ErrValidation)
	assert.Equal(t, "The username has already been taken.", client.FieldErrors(err)["username"])

	err = c.Register(context.Background(), models.Registration{
		Name: "X", Username: "fresh", Email: "new@example.com",
		Password: "password1", PasswordConfirmation: "password1",
	})
	require.NoError(t, err)

	_, err = c.Login(context.Background(), models.Credentials{Email: "new@example.com", Password: "password1"})
	require.NoError(t, err)
}

func TestServer_ProfileVisibility(t *testing.T) {
	s := New(t)
	hidden := seed(s, "hidden", privilege.BasicPlan, false)
	staff := seed(s, "staff", privilege.SeniorSupport, true)
	ctx := context.Background()

	_, err := clientFor(t, s, "").Profile(ctx, "hidden")
	require.ErrorIs(t, err, client.ErrForbidden)
	apiErr, ok := client.AsAPIError(err)
	require.True(t, ok)
	var payload models.Profile
	require.NoError(t, apiErr.Decode(&payload))
	assert.True(t, payload.IsPrivate)

	p, err := clientFor(t, s, s.Token(staff.ID, 0)).Profile(ctx, "hidden")
	require.NoError(t, err)
	assert.Equal(t, hidden.ID, p.ID)
	assert.Equal(t, "hidden@example.com", models.Deref(p.Email))

	p, err = clientFor(t, s, s.Token(hidden.ID, 0)).Profile(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "hidden", p.Username)

	_, err = clientFor(t, s, "").Profile(ctx, "nobody")
	require.ErrorIs(t, err, client.ErrNotFound)
}

func TestServer_EnforcesHierarchy(t *testing.T) {
	s := New(t)
	support := seed(s, "support", privilege.Support, true)
	senior := seed(s, "senior", privilege.SeniorSupport, true)
	admin := seed(s, "admin", privilege.Admin, true)
	member := seed(s, "member", privilege.BasicPlan, true)
	ctx := context.Background()
	ban := models.BanRequest{Reason: "spam"}

	require.ErrorIs(t, clientFor(t, s, s.Token(support.ID, 0)).BanUser(ctx, member.ID, ban), client.ErrForbidden)
	require.ErrorIs(t, clientFor(t, s, s.Token(senior.ID, 0)).BanUser(ctx, admin.ID, ban), client.ErrForbidden)
	require.ErrorIs(t, clientFor(t, s, s.Token(senior.ID, 0)).ChangeGroup(ctx, member.ID, privilege.PremiumPlan), client.ErrForbidden)

	require.NoError(t, clientFor(t, s, s.Token(senior.ID, 0)).BanUser(ctx, member.ID, ban))
	got, _ := s.User(member.ID)
	assert.Equal(t, PermanentBan, *got.BannedUntil)

	require.NoError(t, clientFor(t, s, s.Token(admin.ID, 0)).ChangeGroup(ctx, member.ID, privilege.Owner))
	got, _ = s.User(member.ID)
	assert.Equal(t, privilege.Owner, got.Group)

	err := clientFor(t, s, s.Token(admin.ID, 0)).ChangeGroup(ctx, senior.ID, privilege.Group("Moderator"))
	require.ErrorIs(t, err, client.ErrValidation)
}

func TestServer_BanValidation(t *testing.T) {
	s := New(t)
	admin := seed(s, "admin", privilege.Admin, true)
	member := seed(s, "member", privilege.BasicPlan, true)
	c := clientFor(t, s, s.Token(admin.ID, 0))
	past := time.Now().Add(-time.Hour)

	err := c.BanUser(context.Background(), member.ID, models.BanRequest{Reason: "x", Until: &past})
	require.ErrorIs(t, err, client.ErrValidation)
	assert.Contains(t, client.FieldErrors(err), "banned_until")

	require.ErrorIs(t, c.BanUser(context.Background(), admin.ID, models.BanRequest{Reason: "x"}), client.ErrForbidden)
	require.ErrorIs(t, c.UnbanUser(context.Background(), 999), client.ErrNotFound)
}
