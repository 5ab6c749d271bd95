package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrijs2005/hubcli/internal/client/views"
	"github.com/dmitrijs2005/hubcli/internal/common"
)

// fieldOrder is the order in which form errors are printed.
var fieldOrder = []string{
	views.FieldName,
	views.FieldUsername,
	views.FieldEmail,
	views.FieldPassword,
	views.FieldPasswordConfirmation,
	views.FieldSubmit,
}

// getStatus is the part of the prompt describing the session: handle,
// group and flags, then the connectivity mode.
func (a *App) getStatus() string {
	var parts []string
	snap := a.session.Snapshot()
	if u := snap.User; u != nil {
		s := u.Handle() + " " + badge(u.Group)
		if !u.Verified() {
			s += " unverified"
		}
		if u.IsBannedAt(a.now()) {
			s += " banned"
		}
		parts = append(parts, s)
	}
	if m := a.mode(); m != "" {
		parts = append(parts, string(m))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Register prompts for the registration fields and submits them. A
// successful registration does not sign in.
func (a *App) Register(ctx context.Context) error {
	if a.isLoggedIn() {
		fmt.Fprintln(a.out, "Already logged in. Log out first.")
		return nil
	}
	form := views.NewAuthForm(a.session, views.ModeRegister)
	defer form.Close()

	var err error
	if form.Name, err = getSimpleText(a.reader, "Enter full name", a.out); err != nil {
		return err
	}
	if form.Username, err = getSimpleText(a.reader, "Enter username", a.out); err != nil {
		return err
	}
	if form.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}
	if form.Password, err = readSecret(a, "Enter password"); err != nil {
		return err
	}
	if form.PasswordConfirmation, err = readSecret(a, "Confirm password"); err != nil {
		return err
	}

	if !form.Submit(ctx) {
		a.printFormErrors(form.Errors)
		return nil
	}

	fmt.Fprintln(a.out, okStyle.Render(views.MsgRegistrationTitle))
	fmt.Fprintln(a.out, views.MsgRegistrationSuccess)
	return nil
}

// Login prompts for email and password and signs in. An unverified account
// lands in the verification prompt.
func (a *App) Login(ctx context.Context) error {
	if u := a.session.User(); u != nil {
		fmt.Fprintf(a.out, "Already logged in as %s.\n", u.Handle())
		return nil
	}
	form := views.NewAuthForm(a.session, views.ModeLogin)
	defer form.Close()

	var err error
	if form.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}
	if form.Password, err = readSecret(a, "Enter password"); err != nil {
		return err
	}

	if !form.Submit(ctx) {
		a.printFormErrors(form.Errors)
		return nil
	}

	u := a.session.User()
	if u == nil {
		return nil
	}
	a.logger.Info(ctx, "Login successful", "user_id", u.ID)
	fmt.Fprintf(a.out, "Welcome, %s!\n", u.Handle())
	if a.session.VerificationRequired() {
		a.printVerifyPrompt()
	}
	return nil
}

// Logout signs out and forgets the stored credential.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	if err := a.session.Logout(ctx); err != nil {
		a.logger.Warn(ctx, "discarding credential", "err", err)
		fmt.Fprintln(a.out, errStyle.Render("Logged out, but the stored credential could not be removed."))
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// WhoAmI prints the signed-in account.
func (a *App) WhoAmI(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	fmt.Fprintln(a.out, renderIdentity(*u, a.now()))
	since, ok, err := a.creds.SavedAt(ctx)
	if err != nil {
		a.logger.Warn(ctx, "reading credential timestamp", "err", err)
	}
	if ok {
		fmt.Fprintln(a.out, dimStyle.Render("Signed in since "+formatTime(&since)))
	}
	return nil
}

// Resend asks for a new verification link, honouring the cooldown.
func (a *App) Resend(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	v := a.verifyView()
	if !v.Resend(ctx) {
		fmt.Fprintln(a.out, dimStyle.Render(v.ButtonLabel()))
		return nil
	}
	if v.Message == views.MsgVerificationSent {
		fmt.Fprintln(a.out, okStyle.Render(v.Message))
	} else {
		fmt.Fprintln(a.out, errStyle.Render(v.Message))
	}
	return nil
}

// Verified shows the page a verification link leads to. When signed in,
// the account is reloaded so a confirmed address closes the prompt. If the
// reload fails, a confirming link dismisses the prompt for this session.
func (a *App) Verified(ctx context.Context, status string) error {
	out := views.VerificationResult(status)
	fmt.Fprintln(a.out, titleStyle.Render(out.Title))
	fmt.Fprintln(a.out, out.Body)
	fmt.Fprintln(a.out, dimStyle.Render("-> "+out.Action))

	if !a.isLoggedIn() {
		return nil
	}
	err := a.session.Refresh(ctx)
	if err != nil {
		a.logger.Warn(ctx, "refreshing account", "err", err)
		// The account cannot be reloaded; take the link's word for it.
		if out.Confirmed {
			a.session.DismissVerification()
		}
	}
	if !a.session.VerificationRequired() {
		fmt.Fprintln(a.out, okStyle.Render("Your email address is verified."))
	}
	return err
}

// verifyView returns the verification prompt of the signed-in account,
// keeping its cooldown between commands.
func (a *App) verifyView() *views.VerifyEmail {
	u := a.session.User()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.verify == nil {
		a.verify = views.NewVerifyEmail(a.session, a.config.ResendCooldown, a.now)
		if u != nil {
			a.verifyFor = u.ID
		}
	}
	return a.verify
}

func (a *App) printVerifyPrompt() {
	v := a.verifyView()
	fmt.Fprintln(a.out, titleStyle.Render("Verify Your Email Address"))
	fmt.Fprintf(a.out, "A verification link was sent to %s. Please check your inbox.\n", v.Email())
	fmt.Fprintln(a.out, dimStyle.Render("Type 'resend' for a new link or 'logout' to leave."))
}

func (a *App) printFormErrors(errs map[string]string) {
	seen := make(map[string]bool, len(errs))
	for _, k := range fieldOrder {
		if msg, ok := errs[k]; ok {
			fmt.Fprintln(a.out, errStyle.Render(msg))
			seen[k] = true
		}
	}
	for _, k := range slices.Sorted(maps.Keys(errs)) {
		if !seen[k] {
			fmt.Fprintln(a.out, errStyle.Render(errs[k]))
		}
	}
}

func readSecret(a *App, prompt string) (string, error) {
	pw, err := getPassword(a.out, prompt)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}
