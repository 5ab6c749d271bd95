package views

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/hubcli/internal/client/models"
)

const (
	MsgVerificationSent   = "A new verification link has been sent!"
	MsgVerificationFailed = "Failed to send link. Please try again."
	LabelResend           = "Resend Verification Email"
)

// DefaultResendCooldown is the wait between two resend attempts.
const DefaultResendCooldown = 60 * time.Second

// Verifier is the part of session.Store used by the verification prompt.
type Verifier interface {
	User() *models.Identity
	ResendVerificationEmail(ctx context.Context) error
	Logout(ctx context.Context) error
}

// VerifyEmail is the prompt shown while the signed-in email is unverified.
type VerifyEmail struct {
	Message string

	sess     Verifier
	now      func() time.Time
	cooldown time.Duration
	readyAt  time.Time
	scope    *Scope
}

// NewVerifyEmail builds the prompt. A zero cooldown selects the default; a
// nil clock selects time.Now.
func NewVerifyEmail(sess Verifier, cooldown time.Duration, now func() time.Time) *VerifyEmail {
	if cooldown <= 0 {
		cooldown = DefaultResendCooldown
	}
	if now == nil {
		now = time.Now
	}
	return &VerifyEmail{sess: sess, now: now, cooldown: cooldown, scope: NewScope()}
}

// Email is the address the link was sent to.
func (v *VerifyEmail) Email() string {
	if u := v.sess.User(); u != nil {
		return u.Email
	}
	return ""
}

// Remaining is the cooldown left, rounded up to whole seconds.
func (v *VerifyEmail) Remaining() time.Duration {
	left := v.readyAt.Sub(v.now())
	if left <= 0 {
		return 0
	}
	return (left + time.Second - 1).Truncate(time.Second)
}

// ButtonLabel is the text of the resend action.
func (v *VerifyEmail) ButtonLabel() string {
	if left := v.Remaining(); left > 0 {
		return fmt.Sprintf("Resend in %ds", int(left/time.Second))
	}
	return LabelResend
}

// Resend requests a new link unless the cooldown is running. The cooldown
// restarts after every attempt, successful or not. It reports whether a
// request was made.
func (v *VerifyEmail) Resend(ctx context.Context) bool {
	if v.Remaining() > 0 {
		return false
	}
	v.Message = ""

	ticket := v.scope.Begin()
	ctx, cancel := v.scope.Bind(ctx)
	defer cancel()

	err := v.sess.ResendVerificationEmail(ctx)
	if !v.scope.Current(ticket) {
		return true
	}

	if err != nil {
		v.Message = MsgVerificationFailed
	} else {
		v.Message = MsgVerificationSent
	}
	v.readyAt = v.now().Add(v.cooldown)
	return true
}

// Logout signs out from the prompt.
func (v *VerifyEmail) Logout(ctx context.Context) error {
	v.scope.Close()
	return v.sess.Logout(ctx)
}

func (v *VerifyEmail) Close() {
	v.scope.Close()
}

// VerificationOutcome is the page shown after following a verification link.
type VerificationOutcome struct {
	Title  string
	Body   string
	Action string
	// Confirmed is set when the link reported the address as verified.
	Confirmed bool
}

// VerificationResult maps the status query value of the verification
// redirect to its page.
func VerificationResult(status string) VerificationOutcome {
	switch status {
	case "success":
		return VerificationOutcome{
			Title:     "Email Verified Successfully!",
			Body:      "Thank you for verifying your email. You can now log in to access your account.",
			Action:    "Go to Login",
			Confirmed: true,
		}
	case "already-verified":
		return VerificationOutcome{
			Title:     "Email Already Verified",
			Body:      "Your email address has already been verified. You can log in at any time.",
			Action:    "Go to Login",
			Confirmed: true,
		}
	default:
		return VerificationOutcome{
			Title:  "Verification Failed",
			Body:   "The verification link is invalid or has expired. Please try again or contact support.",
			Action: "Back to Home",
		}
	}
}
