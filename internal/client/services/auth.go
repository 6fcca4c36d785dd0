// Package services contains application services for the jobportal client.
// This file defines the authentication service: signup, the password and OTP
// sign-in steps, logout, password reset and liveness checks.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/jobportal/internal/client/client"
	"github.com/dmitrijs2005/jobportal/internal/client/countdown"
	"github.com/dmitrijs2005/jobportal/internal/client/models"
	"github.com/dmitrijs2005/jobportal/internal/client/otp"
	"github.com/dmitrijs2005/jobportal/internal/client/reset"
	"github.com/dmitrijs2005/jobportal/internal/client/session"
	"github.com/dmitrijs2005/jobportal/internal/logging"
)

var ErrNotLoggedIn = errors.New("not logged in")

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: check the password and return an OTP challenge for the second step.
//   - VerifyOTP: submit the challenge, open the session and return the dashboard route.
//   - Logout: notify the server best-effort and always clear the local session.
//   - StartReset: build the password reset form for a token from a reset link.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Signup(ctx context.Context, role models.Role, req client.SignupRequest) (string, error)
	VerifyAccount(ctx context.Context, token string, role models.Role, id string) (string, error)
	Login(ctx context.Context, role models.Role, email, password string) (*otp.Challenge, error)
	VerifyOTP(ctx context.Context, ch *otp.Challenge) (models.Route, error)
	Logout(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	StartReset(token string) *reset.Flow
	Whoami(ctx context.Context) (*models.User, error)
	Ping(ctx context.Context) error
}

// AuthOptions tunes the OTP step.
type AuthOptions struct {
	// MockOTP replaces backend code verification with otp.MockVerifier.
	MockOTP bool
	// OTPDuration is the resend countdown; zero means otp.DefaultTTL.
	OTPDuration time.Duration
	// CountdownOptions are passed to every challenge timer.
	CountdownOptions []countdown.Option
}

type authService struct {
	client client.Client
	store  *session.Store
	logger logging.Logger
	opts   AuthOptions
}

// NewAuthService constructs an AuthService bound to the API client and the
// session store.
func NewAuthService(c client.Client, store *session.Store, logger logging.Logger, opts AuthOptions) AuthService {
	if opts.OTPDuration <= 0 {
		opts.OTPDuration = otp.DefaultTTL
	}
	return &authService{client: c, store: store, logger: logger, opts: opts}
}

func (a *authService) Signup(ctx context.Context, role models.Role, req client.SignupRequest) (string, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := reset.ValidateEmail(req.Email); err != nil {
		return "", err
	}
	if req.Password == "" {
		return "", errors.New("password is required")
	}

	resp, err := a.client.Signup(ctx, role, req)
	if err != nil {
		return "", fmt.Errorf("signup error: %w", err)
	}
	return resp.Message, nil
}

func (a *authService) VerifyAccount(ctx context.Context, token string, role models.Role, id string) (string, error) {
	if token == "" || id == "" {
		return "", errors.New("verification link is incomplete")
	}
	resp, err := a.client.VerifyAccount(ctx, token, role, id)
	if err != nil {
		return "", fmt.Errorf("verify account error: %w", err)
	}
	return resp.Message, nil
}

// Login performs the password step. The returned challenge has its countdown
// running; the caller must Close it when leaving the OTP screen.
func (a *authService) Login(ctx context.Context, role models.Role, email, password string) (*otp.Challenge, error) {
	email = strings.TrimSpace(email)
	if err := reset.ValidateEmail(email); err != nil {
		return nil, err
	}

	a.store.SetLoading(true)
	resp, err := a.client.Login(ctx, role, email, password)
	a.store.SetLoading(false)
	if err != nil {
		a.store.SetError(client.Message(err))
		return nil, fmt.Errorf("login error: %w", err)
	}

	var v otp.Verifier = otp.NewAPIVerifier(a.client, role)
	if a.opts.MockOTP {
		v = otp.MockVerifier{}
	}

	ch := otp.NewChallenge(resp.Email, v, countdown.New(a.opts.OTPDuration, a.opts.CountdownOptions...))
	ch.Start(ctx)
	a.logger.Info(ctx, "otp challenge started", "role", string(role), "mock", a.opts.MockOTP)
	return ch, nil
}

// VerifyOTP submits the challenge and, on success, opens the session.
func (a *authService) VerifyOTP(ctx context.Context, ch *otp.Challenge) (models.Route, error) {
	a.store.SetLoading(true)
	res, err := ch.Submit(ctx)
	a.store.SetLoading(false)
	if err != nil {
		a.store.SetError(ch.Err())
		return "", err
	}
	ch.Close()

	if err := a.store.Login(ctx, res.Credential, res.User); err != nil {
		if !errors.Is(err, session.ErrNotPersisted) {
			return "", err
		}
		a.logger.Warn(ctx, "signed in for this run only", "error", err)
	}
	return models.DashboardRoute(res.User.Role), nil
}

// Logout clears the local session even when the server cannot be reached.
func (a *authService) Logout(ctx context.Context) error {
	u := a.store.User()
	if u == nil && !a.store.IsAuthenticated() {
		return ErrNotLoggedIn
	}

	var notify func(ctx context.Context) error
	if u != nil {
		role := u.Role
		notify = func(ctx context.Context) error { return a.client.Logout(ctx, role) }
	}
	return a.store.Logout(ctx, notify)
}

func (a *authService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if err := reset.ValidateEmail(email); err != nil {
		return "", err
	}
	resp, err := a.client.RequestPasswordReset(ctx, email)
	if err != nil {
		return "", fmt.Errorf("password reset request error: %w", err)
	}
	return resp.Message, nil
}

func (a *authService) StartReset(token string) *reset.Flow {
	return reset.New(strings.TrimSpace(token), a.client)
}

// Whoami refreshes the stored user from the backend.
func (a *authService) Whoami(ctx context.Context) (*models.User, error) {
	if !a.store.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}
	u, err := a.client.Me(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.store.SetUser(ctx, u); err != nil && !errors.Is(err, session.ErrNotPersisted) {
		return nil, err
	}
	return u, nil
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
