// Package views holds the screen models of the client. A view keeps the
// form state and the messages of one screen and talks to the session store
// and the services; rendering is left to the cli package.
//
// Views are not safe for concurrent use. Each owns a Scope so that a result
// arriving after the view was closed, or after a newer request of the same
// view, is ignored.
package views

import (
	"github.com/dmitrijs2005/hubcli/internal/client/models"
	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
)

// Viewer is the read side of the session store.
type Viewer interface {
	User() *models.Identity
	HasPrivilege(required ...privilege.Group) bool
	IsBanned() bool
}

type NoticeKind int

const (
	NoticeNone NoticeKind = iota
	NoticeSuccess
	NoticeError
)

// Notice is a one-line status shown under a form.
type Notice struct {
	Kind NoticeKind
	Text string
}

func success(text string) Notice { return Notice{Kind: NoticeSuccess, Text: text} }
func failure(text string) Notice { return Notice{Kind: NoticeError, Text: text} }
