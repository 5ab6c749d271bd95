package views

import (
	"context"
	"errors"
	"regexp"

	"github.com/dmitrijs2005/hubcli/internal/client/client"
	"github.com/dmitrijs2005/hubcli/internal/client/models"
	"github.com/dmitrijs2005/hubcli/internal/client/session"
)

type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeRegister
)

// Keys of AuthForm.Errors besides the backend field names.
const (
	FieldName                 = "name"
	FieldUsername             = "username"
	FieldEmail                = "email"
	FieldPassword             = "password"
	FieldPasswordConfirmation = "password_confirmation"
	FieldSubmit               = "submit"
)

const (
	MsgAuthFailed          = "Authentication failed. Please check your credentials or try again."
	MsgRegistrationTitle   = "Registration Successful!"
	MsgRegistrationSuccess = "Please check your email inbox and click the link to verify your account."
)

const minPasswordLen = 8
const minUsernameLen = 3

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Authenticator is the part of session.Store used by the sign-in form.
type Authenticator interface {
	Login(ctx context.Context, c models.Credentials) error
	Register(ctx context.Context, reg models.Registration) error
}

// AuthForm is the combined sign-in and registration form.
type AuthForm struct {
	Mode                 AuthMode
	Name                 string
	Username             string
	Email                string
	Password             string
	PasswordConfirmation string

	// Errors maps a field (or FieldSubmit) to its message.
	Errors map[string]string
	// Registered is set after a successful registration.
	Registered bool

	auth  Authenticator
	scope *Scope
}

func NewAuthForm(auth Authenticator, mode AuthMode) *AuthForm {
	return &AuthForm{Mode: mode, Errors: map[string]string{}, auth: auth, scope: NewScope()}
}

// Toggle switches between login and registration and clears the form.
func (f *AuthForm) Toggle() {
	if f.Mode == ModeLogin {
		f.Mode = ModeRegister
	} else {
		f.Mode = ModeLogin
	}
	f.Name, f.Username, f.Email, f.Password, f.PasswordConfirmation = "", "", "", "", ""
	f.Errors = map[string]string{}
	f.Registered = false
}

// Validate runs the local checks and records their messages.
func (f *AuthForm) Validate() bool {
	errs := map[string]string{}

	switch {
	case f.Email == "":
		errs[FieldEmail] = "Email is required"
	case !emailPattern.MatchString(f.Email):
		errs[FieldEmail] = "Email is invalid"
	}
	switch {
	case f.Password == "":
		errs[FieldPassword] = "Password is required"
	case len(f.Password) < minPasswordLen:
		errs[FieldPassword] = "Password must be at least 8 characters"
	}

	if f.Mode == ModeRegister {
		if f.Name == "" {
			errs[FieldName] = "Full Name is required"
		}
		switch {
		case f.Username == "":
			errs[FieldUsername] = "Username is required"
		case len(f.Username) < minUsernameLen:
			errs[FieldUsername] = "Username must be at least 3 characters"
		}
		if f.Password != f.PasswordConfirmation {
			errs[FieldPasswordConfirmation] = "Passwords do not match"
		}
	}

	f.Errors = errs
	return len(errs) == 0
}

// Submit validates and sends the form. It reports whether the login or
// registration succeeded.
func (f *AuthForm) Submit(ctx context.Context) bool {
	if !f.Validate() {
		return false
	}

	ticket := f.scope.Begin()
	ctx, cancel := f.scope.Bind(ctx)
	defer cancel()

	var err error
	if f.Mode == ModeLogin {
		err = f.auth.Login(ctx, models.Credentials{Email: f.Email, Password: f.Password})
	} else {
		err = f.auth.Register(ctx, models.Registration{
			Name:                 f.Name,
			Username:             f.Username,
			Email:                f.Email,
			Password:             f.Password,
			PasswordConfirmation: f.PasswordConfirmation,
		})
	}
	if !f.scope.Current(ticket) || errors.Is(err, session.ErrStale) {
		return false
	}

	if err != nil {
		if fields := client.FieldErrors(err); len(fields) > 0 {
			f.Errors = fields
		} else {
			f.Errors = map[string]string{FieldSubmit: MsgAuthFailed}
		}
		return false
	}

	f.Password, f.PasswordConfirmation = "", ""
	if f.Mode == ModeRegister {
		f.Registered = true
	}
	return true
}

// Close abandons any request still running for this form.
func (f *AuthForm) Close() {
	f.scope.Close()
}
