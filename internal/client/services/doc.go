// Package services contains the application services behind the CLI views.
//
// Services call the API client and fold successful responses back into the
// session store. They never decide whether the user may attempt an action;
// that is the job of the views, and ultimately of the backend.
package services

import (
	"context"

	"github.com/dmitrijs2005/hubcli/internal/client/models"
)

// Session is the part of session.Store the services update.
type Session interface {
	User() *models.Identity
	Epoch() uint64
	UpdateUserAt(epoch uint64, p models.IdentityPatch) error
	Refresh(ctx context.Context) error
}
