package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/jobportal/internal/client/client"
	"github.com/dmitrijs2005/jobportal/internal/client/models"
	"github.com/dmitrijs2005/jobportal/internal/client/otp"
	"github.com/dmitrijs2005/jobportal/internal/client/reset"
	"github.com/dmitrijs2005/jobportal/internal/client/session"
)

// getSimpleText, getPassword and getChoice are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getChoice     = GetChoice
)

var errNoPendingOTP = errors.New("no verification in progress, use 'login' first")

// Signup prompts for the account details and registers a seeker or an
// employer. The account must then be confirmed with verify-account.
func (a *App) Signup(ctx context.Context) error {
	role, err := getChoice(a.reader, "Account type", []string{string(models.RoleSeeker), string(models.RoleEmployer)}, string(models.RoleSeeker), a.out)
	if err != nil {
		return err
	}

	var req client.SignupRequest
	if req.FirstName, err = getSimpleText(a.reader, "First name", a.out); err != nil {
		return err
	}
	if req.LastName, err = getSimpleText(a.reader, "Last name", a.out); err != nil {
		return err
	}
	if role == string(models.RoleEmployer) {
		if req.CompanyName, err = getSimpleText(a.reader, "Company name", a.out); err != nil {
			return err
		}
	}
	if req.Email, err = getSimpleText(a.reader, "Email", a.out); err != nil {
		return err
	}
	if req.Password, err = getPassword("Password", a.out); err != nil {
		return err
	}

	msg, err := a.authService.Signup(ctx, models.Role(role), req)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	fmt.Fprintln(a.out, "Open the link from the email or run: verify-account <link>")
	return nil
}

// VerifyAccount confirms an account. It accepts the link, or token, role and
// id as separate arguments, and prompts for the link when none are given.
func (a *App) VerifyAccount(ctx context.Context, args []string) error {
	var link string
	switch len(args) {
	case 0:
		var err error
		if link, err = getSimpleText(a.reader, "Paste the verification link", a.out); err != nil {
			return err
		}
	case 1:
		link = args[0]
	default:
		link = strings.Join(args, "/")
	}

	token, role, id, err := parseVerificationLink(link)
	if err != nil {
		return err
	}
	msg, err := a.authService.VerifyAccount(ctx, token, role, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// Login runs the password step and then the OTP step.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		fmt.Fprintln(a.out, "Already logged in, use 'logout' first")
		return nil
	}

	role, err := getChoice(a.reader, "Sign in as", []string{string(models.RoleSeeker), string(models.RoleEmployer), string(models.RoleAdmin)}, string(models.RoleSeeker), a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Password", a.out)
	if err != nil {
		return err
	}

	ch, err := a.authService.Login(ctx, models.Role(role), email, password)
	if err != nil {
		return err
	}
	a.setChallenge(ch)

	fmt.Fprintf(a.out, "A verification code was sent to %s\n", ch.Email())
	return a.runOTP(ctx, ch)
}

// OTP resumes a pending verification.
func (a *App) OTP(ctx context.Context) error {
	a.mu.Lock()
	ch := a.challenge
	a.mu.Unlock()
	if ch == nil {
		return errNoPendingOTP
	}
	return a.runOTP(ctx, ch)
}

func (a *App) setChallenge(ch *otp.Challenge) {
	a.mu.Lock()
	old := a.challenge
	a.challenge = ch
	a.mu.Unlock()
	if old != nil && old != ch {
		old.Close()
	}
}

func (a *App) runOTP(ctx context.Context, ch *otp.Challenge) error {
	for {
		prompt := fmt.Sprintf("Enter the 6-digit code (resend available in %s), or 'back' / 'cancel'", ch.TimeLeft())
		if ch.CanResend() {
			prompt = "Enter the 6-digit code, 'resend' for a new one, or 'back' / 'cancel'"
		}
		line, err := getSimpleText(a.reader, prompt, a.out)
		if err != nil {
			return err
		}

		switch strings.ToLower(line) {
		case "back":
			fmt.Fprintln(a.out, "Verification paused, type 'otp' to continue")
			return nil

		case "cancel":
			a.setChallenge(nil)
			fmt.Fprintln(a.out, "Verification cancelled")
			return nil

		case "resend":
			if err := ch.Resend(ctx); err != nil {
				if errors.Is(err, otp.ErrResendNotAllowed) {
					fmt.Fprintf(a.out, "You can request a new code in %s\n", ch.TimeLeft())
				} else {
					fmt.Fprintln(a.out, "Error:", userMessage(err))
				}
				continue
			}
			fmt.Fprintln(a.out, "A new code was sent")
			continue
		}

		if err := ch.Paste(line); err != nil {
			fmt.Fprintln(a.out, "Error:", err)
			continue
		}

		route, err := a.authService.VerifyOTP(ctx, ch)
		if err != nil {
			fmt.Fprintln(a.out, "Error:", userMessage(err))
			continue
		}

		a.mu.Lock()
		a.challenge = nil
		a.mu.Unlock()
		a.navigate(route)

		name := "there"
		if u := a.store.User(); u != nil {
			name = u.DisplayName()
		}
		fmt.Fprintf(a.out, "Welcome, %s! You are on %s\n", name, route)
		return nil
	}
}

// Forgot requests a password reset link.
func (a *App) Forgot(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	msg, err := a.authService.RequestPasswordReset(ctx, email)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// Reset sets a new password from a reset token or link. An empty password
// abandons the flow.
func (a *App) Reset(ctx context.Context, args []string) error {
	var raw string
	if len(args) > 0 {
		raw = args[0]
	} else {
		var err error
		if raw, err = getSimpleText(a.reader, "Paste the reset link or token", a.out); err != nil {
			return err
		}
	}

	flow := a.authService.StartReset(parseResetToken(raw))
	flow.SetOnline(a.Mode() != ModeOffline)

	a.mu.Lock()
	a.resetFlow = flow
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.resetFlow = nil
		a.mu.Unlock()
	}()

	if !flow.CanSubmit() && flow.Err() != "" {
		return reset.ErrMissingToken
	}

	for {
		password, err := getPassword("New password (empty to cancel)", a.out)
		if err != nil {
			return err
		}
		if password == "" {
			fmt.Fprintln(a.out, "Password reset cancelled")
			return nil
		}
		flow.SetPassword(password)

		confirmation, err := getPassword("Confirm new password", a.out)
		if err != nil {
			return err
		}
		printRequirements(a.out, flow.SetConfirmation(confirmation))

		route, err := flow.Submit(ctx)
		switch {
		case err == nil:
			a.navigate(route)
			fmt.Fprintln(a.out, "Password updated, please log in")
			return nil
		case errors.Is(err, reset.ErrMissingToken):
			return err
		default:
			fmt.Fprintln(a.out, "Error:", flow.Err())
		}
	}
}

func (a *App) Whoami(ctx context.Context) error {
	u, err := a.authService.Whoami(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			if cached := a.store.User(); cached != nil {
				fmt.Fprintf(a.out, "%s <%s> (%s, cached)\n", cached.DisplayName(), cached.Email, cached.Role)
				return nil
			}
		}
		return err
	}
	fmt.Fprintf(a.out, "%s <%s> (%s)\n", u.DisplayName(), u.Email, u.Role)
	if exp, ok := session.ExpiresAt(a.store.AccessToken()); ok {
		fmt.Fprintf(a.out, "Access token valid until %s\n", exp.Local().Format(time.DateTime))
	}
	return nil
}

// Logout ends the session. The local session is cleared even when the
// server cannot be notified.
func (a *App) Logout(ctx context.Context) error {
	a.setChallenge(nil)
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.navigate(models.RouteLogin)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
