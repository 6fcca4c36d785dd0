// Package services contains server-side business logic. This file implements
// UserService: signup with email verification, password plus one-time code
// login, refresh token rotation and password reset.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dmitrijs2005/jobportal/internal/common"
	"github.com/dmitrijs2005/jobportal/internal/dbx"
	"github.com/dmitrijs2005/jobportal/internal/server/auth"
	"github.com/dmitrijs2005/jobportal/internal/server/config"
	"github.com/dmitrijs2005/jobportal/internal/server/models"
	"github.com/dmitrijs2005/jobportal/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpLength         = 6
	minPasswordLength = 8

	// MaxOTPAttempts wrong guesses burn a login code; ResendOTP issues a new one.
	MaxOTPAttempts = 5
)

var (
	ErrInvalidCode     = fmt.Errorf("%w: invalid or expired code", common.ErrorValidation)
	ErrInvalidLink     = fmt.Errorf("%w: link is invalid or expired", common.ErrorValidation)
	ErrSignupForbidden = fmt.Errorf("%w: this role cannot sign up", common.ErrorValidation)
	ErrTooManyAttempts = fmt.Errorf("%w: too many attempts, request a new code", common.ErrorValidation)
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SignupInput is the self-service registration form.
type SignupInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	CompanyName string
}

type UserServiceOption func(*UserService)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) UserServiceOption {
	return func(s *UserService) { s.hashCost = cost }
}

// UserService provides the authentication operations of the backend.
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	mailer                       Mailer
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	otpValidityDuration          time.Duration
	linkValidityDuration         time.Duration
	fixedOTP                     string
	publicURL                    string
	hashCost                     int
	dummyHash                    []byte
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, mailer Mailer, opts ...UserServiceOption) *UserService {
	s := &UserService{
		db:                           db,
		repomanager:                  m,
		mailer:                       mailer,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		otpValidityDuration:          cfg.OTPValidityDuration,
		linkValidityDuration:         cfg.LinkValidityDuration,
		fixedOTP:                     cfg.FixedOTP,
		publicURL:                    strings.TrimRight(cfg.PublicURL, "/"),
		hashCost:                     bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(s)
	}
	// compared against when the account does not exist, so both paths cost the same
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.hashCost)
	return s
}

// Signup registers a seeker or employer and mails the verification link.
func (s *UserService) Signup(ctx context.Context, role models.Role, in SignupInput) (*models.User, error) {
	if !role.CanSignup() {
		return nil, ErrSignupForbidden
	}
	if err := validateSignup(role, in); err != nil {
		return nil, err
	}

	user, err := s.newUser(role, in, false)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			return err
		}
		return s.repomanager.Codes(tx).Put(ctx, models.CodeVerifyAccount, user.ID, token, s.linkValidityDuration)
	}); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	link := fmt.Sprintf("%s/verify-account/%s/%s/%s", s.publicURL, token, user.Role, user.ID)
	if err := s.mailer.Send(ctx, user.Email, "Verify your account", "Open "+link+" to activate your account."); err != nil {
		return nil, fmt.Errorf("error sending verification mail: %w", err)
	}
	return user, nil
}

// SeedUser creates an already verified account of any role.
func (s *UserService) SeedUser(ctx context.Context, role models.Role, in SignupInput) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrorValidation, role)
	}
	user, err := s.newUser(role, in, true)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Users(s.db).Create(ctx, user)
}

// VerifyAccount consumes the token of a verification link.
func (s *UserService) VerifyAccount(ctx context.Context, token string, role models.Role, userID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		codes := s.repomanager.Codes(tx)
		code, err := codes.FindByCode(ctx, models.CodeVerifyAccount, token)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return ErrInvalidLink
			}
			return err
		}
		if code.UserID != userID || code.Expired(time.Now()) {
			return ErrInvalidLink
		}

		users := s.repomanager.Users(tx)
		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.Role != role {
			return ErrInvalidLink
		}
		if err := users.SetVerified(ctx, userID); err != nil {
			return err
		}
		return codes.Delete(ctx, models.CodeVerifyAccount, userID)
	})
}

// Login checks the password and mails a one-time code. Tokens are issued by
// VerifyOTP.
func (s *UserService) Login(ctx context.Context, role models.Role, email, password string) error {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return common.ErrorUnauthorized
		}
		return common.ErrorInternal
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil || user.Role != role {
		return common.ErrorUnauthorized
	}
	if !user.Verified {
		return common.ErrorForbidden
	}
	return s.sendOTP(ctx, user)
}

// ResendOTP mails a fresh code. Unknown or unverified accounts are ignored
// silently.
func (s *UserService) ResendOTP(ctx context.Context, role models.Role, email string) error {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return common.ErrorInternal
	}
	if user.Role != role || !user.Verified {
		return nil
	}
	return s.sendOTP(ctx, user)
}

// VerifyOTP consumes the login code and returns a fresh TokenPair. Every
// wrong guess is counted on the code; after MaxOTPAttempts the code is
// refused even when correct.
func (s *UserService) VerifyOTP(ctx context.Context, role models.Role, email, otp string) (*TokenPair, *models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, ErrInvalidCode
		}
		return nil, nil, common.ErrorInternal
	}
	if user.Role != role {
		return nil, nil, ErrInvalidCode
	}

	var pair *TokenPair
	failed := false
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		codes := s.repomanager.Codes(tx)
		code, err := codes.FindByUser(ctx, models.CodeOTP, user.ID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return ErrInvalidCode
			}
			return err
		}
		if code.Expired(time.Now()) {
			return ErrInvalidCode
		}
		if code.Attempts >= MaxOTPAttempts {
			return ErrTooManyAttempts
		}
		if subtle.ConstantTimeCompare([]byte(code.Code), []byte(otp)) != 1 {
			// the counter must survive, so the tx commits
			if _, err := codes.AddAttempt(ctx, models.CodeOTP, user.ID); err != nil {
				return err
			}
			failed = true
			return nil
		}
		if err := codes.Delete(ctx, models.CodeOTP, user.ID); err != nil {
			return err
		}
		pair, err = s.generateTokenPair(ctx, user, tx)
		return err
	}); err != nil {
		return nil, nil, err
	}
	if failed {
		return nil, nil, ErrInvalidCode
	}
	return pair, user, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Unknown or already rotated tokens yield
// ErrorUnauthorized and expired ones ErrRefreshTokenExpired. The lookup and
// the delete share one transaction, so a token is redeemed at most once.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair *TokenPair
	expired := false
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RefreshTokens(tx)
		token, err := repo.Find(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return fmt.Errorf("error searching refresh token: %w", err)
		}
		if err := repo.Delete(ctx, refreshToken); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		if token.Expires.Before(time.Now()) {
			// commit the delete
			expired = true
			return nil
		}

		user, err := s.repomanager.Users(tx).GetByID(ctx, token.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return err
		}
		pair, err = s.generateTokenPair(ctx, user, tx)
		return err
	}); err != nil {
		return nil, err
	}
	if expired {
		return nil, common.ErrRefreshTokenExpired
	}
	return pair, nil
}

// Logout revokes every refresh token of the user.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	return s.repomanager.RefreshTokens(s.db).DeleteByUser(ctx, userID)
}

// RequestPasswordReset mails a reset link when the account exists. The
// outcome is the same either way.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return common.ErrorInternal
	}

	token := uuid.NewString()
	if err := s.repomanager.Codes(s.db).Put(ctx, models.CodeResetPassword, user.ID, token, s.linkValidityDuration); err != nil {
		return fmt.Errorf("error storing reset token: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.publicURL, token)
	return s.mailer.Send(ctx, user.Email, "Reset your password", "Open "+link+" to choose a new password.")
}

// ResetPassword consumes a reset token, sets the new password and revokes
// all sessions of the account.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCost)
	if err != nil {
		return common.ErrorInternal
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		codes := s.repomanager.Codes(tx)
		code, err := codes.FindByCode(ctx, models.CodeResetPassword, token)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return ErrInvalidLink
			}
			return err
		}
		if code.Expired(time.Now()) {
			return ErrInvalidLink
		}
		if err := s.repomanager.Users(tx).SetPasswordHash(ctx, code.UserID, hash); err != nil {
			return err
		}
		if err := codes.Delete(ctx, models.CodeResetPassword, code.UserID); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, code.UserID)
	})
}

func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

// --- helpers below ---

func (s *UserService) newUser(role models.Role, in SignupInput, verified bool) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &models.User{
		Role:         role,
		Email:        in.Email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		CompanyName:  strings.TrimSpace(in.CompanyName),
		PasswordHash: hash,
		Verified:     verified,
	}, nil
}

func (s *UserService) sendOTP(ctx context.Context, user *models.User) error {
	code := s.fixedOTP
	if code == "" {
		var err error
		if code, err = common.MakeRandDigits(otpLength); err != nil {
			return common.ErrorInternal
		}
	}
	if err := s.repomanager.Codes(s.db).Put(ctx, models.CodeOTP, user.ID, code, s.otpValidityDuration); err != nil {
		return fmt.Errorf("error storing login code: %w", err)
	}
	return s.mailer.Send(ctx, user.Email, "Your login code", "Your verification code is "+code)
}

func (s *UserService) generateAccessToken(user *models.User) (string, error) {
	return auth.GenerateToken(user, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, user *models.User, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(user)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, user.ID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func validateSignup(role models.Role, in SignupInput) error {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return fmt.Errorf("%w: first and last name are required", common.ErrorValidation)
	}
	if !strings.Contains(in.Email, "@") {
		return fmt.Errorf("%w: email is invalid", common.ErrorValidation)
	}
	if role == models.RoleEmployer && strings.TrimSpace(in.CompanyName) == "" {
		return fmt.Errorf("%w: company name is required", common.ErrorValidation)
	}
	return validatePassword(in.Password)
}

func validatePassword(pw string) error {
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if len(pw) < minPasswordLength || !upper || !lower || !digit {
		return fmt.Errorf("%w: password must have at least %d characters with upper and lower case letters and a number",
			common.ErrorValidation, minPasswordLength)
	}
	return nil
}
