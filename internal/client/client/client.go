package client

import (
	"context"

	"github.com/dmitrijs2005/hubcli/internal/client/models"
	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
)

// Client is the set of backend operations used by the application.
type Client interface {
	CurrentUser(ctx context.Context) (models.Identity, error)
	Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error)
	Register(ctx context.Context, reg models.Registration) error
	ResendVerification(ctx context.Context) error
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.Identity, error)
	Profile(ctx context.Context, idOrUsername string) (models.Profile, error)
	BanUser(ctx context.Context, userID int64, req models.BanRequest) error
	UnbanUser(ctx context.Context, userID int64) error
	ChangeGroup(ctx context.Context, userID int64, group privilege.Group) error
	Ping(ctx context.Context) error
}

// TokenSource yields the credential to attach to outgoing requests. An empty
// token means the request goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed value.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}
