package apitest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/hubcli/internal/client/models"
	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
)

const maxAvatarBytes = 2 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// fieldErrors accumulates validation messages the way the backend reports
// them: the first failing field also becomes the top-level message.
type fieldErrors struct {
	first  string
	fields map[string][]string
}

func (f *fieldErrors) add(field, msg string) {
	if f.fields == nil {
		f.fields = make(map[string][]string)
	}
	if f.first == "" {
		f.first = msg
	}
	f.fields[field] = append(f.fields[field], msg)
}

func (f *fieldErrors) write(w http.ResponseWriter) bool {
	if len(f.fields) == 0 {
		return false
	}
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": f.first, "errors": f.fields})
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, "Malformed JSON body.")
		return false
	}
	return true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in models.Credentials
	if !decodeBody(w, r, &in) {
		return
	}

	s.mu.Lock()
	var (
		user models.Identity
		hash []byte
	)
	for _, a := range s.users {
		if strings.EqualFold(a.Email, in.Email) {
			user, hash = a.Identity.Clone(), a.hash
			break
		}
	}
	s.mu.Unlock()

	if hash == nil || bcrypt.CompareHashAndPassword(hash, []byte(in.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid login details")
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResult{
		AccessToken: s.Token(user.ID, 0),
		User:        user,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in models.Registration
	if !decodeBody(w, r, &in) {
		return
	}

	var errs fieldErrors
	s.mu.Lock()
	if strings.TrimSpace(in.Name) == "" {
		errs.add("name", "The name field is required.")
	}
	switch {
	case strings.TrimSpace(in.Username) == "":
		errs.add("username", "The username field is required.")
	case s.takenLocked("username", in.Username, 0):
		errs.add("username", "The username has already been taken.")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		errs.add("email", "The email field must be a valid email address.")
	} else if s.takenLocked("email", in.Email, 0) {
		errs.add("email", "The email has already been taken.")
	}
	if len(in.Password) < 8 {
		errs.add("password", "The password field must be at least 8 characters.")
	}
	if in.Password != in.PasswordConfirmation {
		errs.add("password", "The password field confirmation does not match.")
	}
	s.mu.Unlock()
	if errs.write(w) {
		return
	}

	s.AddUser(models.Identity{
		Name:     in.Name,
		Email:    in.Email,
		Username: models.Ptr(in.Username),
		Group:    privilege.BasicPlan,
	}, in.Password)

	writeMessage(w, http.StatusCreated, "Registration successful. Please check your email to verify your account.")
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	id, _ := actorID(r.Context())
	u, ok := s.User(id)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleResend(w http.ResponseWriter, r *http.Request) {
	id, _ := actorID(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()

	if a := s.users[id]; a != nil && a.EmailVerifiedAt != nil {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Email already verified."})
		return
	}
	s.resends[id]++
	writeJSON(w, http.StatusOK, map[string]string{"message": "Verification link sent!"})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAvatarBytes + (1 << 16)); err != nil {
		writeMessage(w, http.StatusBadRequest, "Expected a multipart form.")
		return
	}
	if r.FormValue("_method") != http.MethodPut {
		writeMessage(w, http.StatusMethodNotAllowed, "The POST method is not supported for route api/user/profile.")
		return
	}
	id, _ := actorID(r.Context())

	name := strings.TrimSpace(r.FormValue("name"))
	username := strings.TrimSpace(r.FormValue("username"))

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs fieldErrors
	if name == "" {
		errs.add("name", "The name field is required.")
	}
	if username != "" && s.takenLocked("username", username, id) {
		errs.add("username", "The username has already been taken.")
	}

	var avatarURL *string
	if fhs := r.MultipartForm.File["profile_picture"]; len(fhs) > 0 {
		fh := fhs[0]
		switch {
		case fh.Size > maxAvatarBytes:
			errs.add("profile_picture", "The profile picture field must not be greater than 2048 kilobytes.")
		case !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/"):
			errs.add("profile_picture", "The profile picture field must be an image.")
		default:
			avatarURL = models.Ptr(fmt.Sprintf("%s/storage/avatars/%d-%s", s.URL, id, fh.Filename))
		}
	}
	if errs.write(w) {
		return
	}

	a := s.users[id]
	a.Name = name
	a.Username = optionalString(username)
	a.Bio = optionalString(r.FormValue("bio"))
	a.Nationality = optionalString(r.FormValue("nationality"))
	a.IsProfilePublic = r.FormValue("is_profile_public") == "1"
	switch {
	case avatarURL != nil:
		a.ProfilePictureURL = avatarURL
	case r.FormValue("clear_profile_picture") == "1":
		a.ProfilePictureURL = nil
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    a.Identity.Clone(),
	})
}

func optionalString(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "idOrUsername")
	viewerID, signedIn := actorID(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.lookupLocked(key)
	if a == nil {
		writeMessage(w, http.StatusNotFound, "User not found.")
		return
	}

	owner := signedIn && viewerID == a.ID
	staff := false
	if v := s.users[viewerID]; signedIn && v != nil {
		staff = privilege.Meets(v.Group, privilege.SeniorSupport)
	}

	if !owner && !staff {
		if a.IsBannedAt(s.now()) {
			writeJSON(w, http.StatusForbidden, map[string]any{
				"message":      "This user is currently banned.",
				"banned_until": a.BannedUntil,
				"ban_reason":   a.BanReason,
			})
			return
		}
		if !a.IsProfilePublic {
			writeJSON(w, http.StatusForbidden, map[string]any{
				"message":    "This profile is private.",
				"is_private": true,
			})
			return
		}
	}

	p := models.Profile{
		ID:                a.ID,
		Username:          models.Deref(a.Username),
		Bio:               a.Bio,
		Nationality:       a.Nationality,
		ProfilePictureURL: a.ProfilePictureURL,
		IsProfilePublic:   a.IsProfilePublic,
		Group:             a.Group,
		BannedUntil:       a.BannedUntil,
		BanReason:         a.BanReason,
	}
	if owner || staff {
		p.Name = models.Ptr(a.Name)
		p.Email = models.Ptr(a.Email)
	}
	writeJSON(w, http.StatusOK, p)
}

// targetLocked loads the {id} user and checks that the actor outranks it.
// Acting on oneself is allowed when allowSelf is set.
func (s *Server) targetLocked(w http.ResponseWriter, r *http.Request, allowSelf bool) (*account, bool) {
	actor := s.users[mustActor(r)]
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "User not found.")
		return nil, false
	}
	target := s.users[id]
	if target == nil {
		writeMessage(w, http.StatusNotFound, "User not found.")
		return nil, false
	}
	if target.ID == actor.ID {
		if !allowSelf {
			writeMessage(w, http.StatusForbidden, "You cannot perform this action on yourself.")
			return nil, false
		}
		return target, true
	}
	if privilege.Rank(target.Group) >= privilege.Rank(actor.Group) {
		writeMessage(w, http.StatusForbidden, "You cannot moderate a user with equal or higher privileges.")
		return nil, false
	}
	return target, true
}

func mustActor(r *http.Request) int64 {
	id, _ := actorID(r.Context())
	return id
}

func (s *Server) handleBan(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Reason string     `json:"ban_reason"`
		Until  *time.Time `json:"banned_until"`
	}
	if !decodeBody(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.targetLocked(w, r, false)
	if !ok {
		return
	}

	var errs fieldErrors
	if strings.TrimSpace(in.Reason) == "" {
		errs.add("ban_reason", "The ban reason field is required.")
	}
	if in.Until != nil && !in.Until.After(s.now()) {
		errs.add("banned_until", "The banned until field must be a date after now.")
	}
	if errs.write(w) {
		return
	}

	until := PermanentBan
	if in.Until != nil {
		until = in.Until.UTC()
	}
	target.BannedUntil = &until
	target.BanReason = models.Ptr(in.Reason)

	writeJSON(w, http.StatusOK, map[string]any{"message": "User banned successfully.", "user": target.Identity.Clone()})
}

func (s *Server) handleUnban(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.targetLocked(w, r, false)
	if !ok {
		return
	}
	target.BannedUntil = nil
	target.BanReason = nil

	writeJSON(w, http.StatusOK, map[string]any{"message": "User unbanned successfully.", "user": target.Identity.Clone()})
}

func (s *Server) handleChangeGroup(w http.ResponseWriter, r *http.Request) {
	var in models.GroupChange
	if !decodeBody(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.targetLocked(w, r, true)
	if !ok {
		return
	}

	g := privilege.Group(in.Group)
	if !privilege.Known(g) {
		var errs fieldErrors
		errs.add("group", "The selected group is invalid.")
		errs.write(w)
		return
	}
	target.Group = g

	writeJSON(w, http.StatusOK, map[string]any{"message": "User group updated successfully.", "user": target.Identity.Clone()})
}
