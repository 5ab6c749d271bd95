package views

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/hubcli/internal/client/client"
	"github.com/dmitrijs2005/hubcli/internal/client/models"
	"github.com/dmitrijs2005/hubcli/internal/client/services"
	"github.com/dmitrijs2005/hubcli/internal/client/session"
)

const (
	MsgProfileUpdated      = "Profile updated successfully!"
	MsgProfileUpdateFailed = "Failed to update profile. Please try again."
)

// MaxAvatarBytes bounds the picture accepted by LoadAvatar.
const MaxAvatarBytes = 2 << 20

var (
	ErrNotAnImage     = errors.New("please choose an image file")
	ErrAvatarTooLarge = fmt.Errorf("profile picture must not exceed %d KB", MaxAvatarBytes>>10)
)

// EditProfile is the own-profile form. It needs a signed-in user; check
// Redirect before showing it.
type EditProfile struct {
	Name        string
	Username    string
	Bio         string
	Nationality string
	Public      bool

	Avatar        *models.Upload
	ClearAvatar   bool
	AvatarPreview string

	Notice Notice

	sess  Viewer
	svc   services.ProfileService
	scope *Scope
}

func NewEditProfile(sess Viewer, svc services.ProfileService) *EditProfile {
	v := &EditProfile{sess: sess, svc: svc, scope: NewScope()}
	if u := sess.User(); u != nil {
		v.fill(*u)
	}
	return v
}

// Redirect reports whether the view must be left because nobody is signed
// in.
func (v *EditProfile) Redirect() bool {
	return v.sess.User() == nil
}

func (v *EditProfile) fill(u models.Identity) {
	v.Name = u.Name
	v.Username = models.Deref(u.Username)
	v.Bio = models.Deref(u.Bio)
	v.Nationality = models.Deref(u.Nationality)
	v.Public = u.IsProfilePublic
	v.AvatarPreview = models.Deref(u.ProfilePictureURL)
}

// LoadAvatar reads an image from disk and selects it as the new picture.
func (v *EditProfile) LoadAvatar(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("open picture: %w", err)
	}
	if info.Size() > MaxAvatarBytes {
		return ErrAvatarTooLarge
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read picture: %w", err)
	}
	return v.SetAvatar(filepath.Base(path), data)
}

// SetAvatar selects data as the new picture. The content type is sniffed
// from the bytes, not taken from the name.
func (v *EditProfile) SetAvatar(filename string, data []byte) error {
	if len(data) > MaxAvatarBytes {
		return ErrAvatarTooLarge
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return ErrNotAnImage
	}
	v.Avatar = &models.Upload{Filename: filename, ContentType: ct, Data: data}
	v.AvatarPreview = filename
	v.ClearAvatar = false
	return nil
}

// RemoveAvatar drops any selected picture and asks the backend to clear the
// current one.
func (v *EditProfile) RemoveAvatar() {
	v.Avatar = nil
	v.AvatarPreview = ""
	v.ClearAvatar = true
}

// Submit sends the form and reports whether the profile was saved.
func (v *EditProfile) Submit(ctx context.Context) bool {
	v.Notice = Notice{}

	ticket := v.scope.Begin()
	ctx, cancel := v.scope.Bind(ctx)
	defer cancel()

	updated, err := v.svc.UpdateOwnProfile(ctx, models.ProfileUpdate{
		Name:        v.Name,
		Username:    v.Username,
		Bio:         v.Bio,
		Nationality: v.Nationality,
		Public:      v.Public,
		Avatar:      v.Avatar,
		ClearAvatar: v.ClearAvatar,
	})
	if !v.scope.Current(ticket) || errors.Is(err, session.ErrStale) {
		return false
	}
	if err != nil {
		v.Notice = failure(updateErrorText(err))
		return false
	}

	v.fill(updated)
	v.Avatar = nil
	v.ClearAvatar = false
	v.Notice = success(MsgProfileUpdated)
	return true
}

func updateErrorText(err error) string {
	if msg := client.Message(err); msg != "" {
		return msg
	}
	if msg := client.JoinedFieldErrors(err); msg != "" {
		return msg
	}
	return MsgProfileUpdateFailed
}

func (v *EditProfile) Close() {
	v.scope.Close()
}
