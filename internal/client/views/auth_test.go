package views

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/hubcli/internal/apitest"
	"github.com/dmitrijs2005/hubcli/internal/client/privilege"
	"github.com/dmitrijs2005/hubcli/internal/client/session"
)

func TestAuthForm_Validate(t *testing.T) {
	tests := []struct {
		name string
		form AuthForm
		want map[string]string
	}{
		{
			name: "login empty",
			form: AuthForm{Mode: ModeLogin},
			want: map[string]string{FieldEmail: "Email is required", FieldPassword: "Password is required"},
		},
		{
			name: "login malformed",
			form: AuthForm{Mode: ModeLogin, Email: "nope", Password: "short"},
			want: map[string]string{FieldEmail: "Email is invalid", FieldPassword: "Password must be at least 8 characters"},
		},
		{
			name: "login ok",
			form: AuthForm{Mode: ModeLogin, Email: "a@b.io", Password: "12345678"},
			want: map[string]string{},
		},
		{
			name: "register missing fields",
			form: AuthForm{Mode: ModeRegister, Email: "a@b.io", Password: "12345678", Username: "ab", PasswordConfirmation: "x"},
			want: map[string]string{
				FieldName:                 "Full Name is required",
				FieldUsername:             "Username must be at least 3 characters",
				FieldPasswordConfirmation: "Passwords do not match",
			},
		},
		{
			name: "register empty username",
			form: AuthForm{Mode: ModeRegister, Name: "N", Email: "a@b.io", Password: "12345678", PasswordConfirmation: "12345678"},
			want: map[string]string{FieldUsername: "Username is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.form
			ok := f.Validate()
			assert.Equal(t, len(tt.want) == 0, ok)
			assert.Equal(t, tt.want, f.Errors)
		})
	}
}

func TestAuthForm_LoginWrongPassword(t *testing.T) {
	e := newEnv(t, "")
	e.add("ada", privilege.BasicPlan, true)

	f := NewAuthForm(e.store, ModeLogin)
	f.Email, f.Password = "ada@example.com", "not-the-password"

	require.False(t, f.Submit(context.Background()))
	assert.Equal(t, map[string]string{FieldSubmit: MsgAuthFailed}, f.Errors)
	assert.Equal(t, session.StateAnonymous, e.store.State())

	tok, err := e.creds.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestAuthForm_LoginSuccess(t *testing.T) {
	e := newEnv(t, "")
	u := e.add("ada", privilege.Support, true)

	f := NewAuthForm(e.store, ModeLogin)
	f.Email, f.Password = "ada@example.com", apitest.DefaultPassword

	require.True(t, f.Submit(context.Background()))
	assert.Empty(t, f.Password)
	assert.Equal(t, u.ID, e.store.User().ID)
	assert.True(t, e.store.VerificationRequired(), "seeded user has no verified email")
}

func TestAuthForm_RegisterTakenUsername(t *testing.T) {
	e := newEnv(t, "")
	e.add("taken", privilege.BasicPlan, true)

	f := NewAuthForm(e.store, ModeRegister)
	f.Name, f.Username, f.Email = "New", "taken", "new@example.com"
	f.Password, f.PasswordConfirmation = "password1", "password1"

	require.False(t, f.Submit(context.Background()))
	assert.Equal(t, "The username has already been taken.", f.Errors[FieldUsername])
	assert.NotContains(t, f.Errors, FieldSubmit)
	assert.False(t, f.Registered)
	assert.Nil(t, e.store.User())
}

func TestAuthForm_RegisterSuccessDoesNotSignIn(t *testing.T) {
	e := newEnv(t, "")

	f := NewAuthForm(e.store, ModeRegister)
	f.Name, f.Username, f.Email = "New", "newbie", "new@example.com"
	f.Password, f.PasswordConfirmation = "password1", "password1"

	require.True(t, f.Submit(context.Background()))
	assert.True(t, f.Registered)
	assert.Equal(t, session.StateAnonymous, e.store.State())

	f.Toggle()
	assert.Equal(t, ModeLogin, f.Mode)
	assert.False(t, f.Registered)
	assert.Empty(t, f.Email)
}

func TestAuthForm_ValidationSkipsBackend(t *testing.T) {
	e := newEnv(t, "")
	f := NewAuthForm(e.store, ModeLogin)
	f.Email = "bad"

	require.False(t, f.Submit(context.Background()))
	assert.Zero(t, e.srv.TotalHits())
}
