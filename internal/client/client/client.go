package client

import (
	"context"

	"github.com/dmitrijs2005/jobportal/internal/client/models"
)

// Client is the typed backend API used by the client services.
type Client interface {
	Signup(ctx context.Context, role models.Role, req SignupRequest) (*MessageResponse, error)
	VerifyAccount(ctx context.Context, token string, role models.Role, id string) (*MessageResponse, error)
	Login(ctx context.Context, role models.Role, email, password string) (*LoginResponse, error)
	VerifyOTP(ctx context.Context, role models.Role, email, code string) (*models.AuthResult, error)
	ResendOTP(ctx context.Context, role models.Role, email string) error
	Logout(ctx context.Context, role models.Role) error
	RequestPasswordReset(ctx context.Context, email string) (*MessageResponse, error)
	ResetPassword(ctx context.Context, token, newPassword string) (*MessageResponse, error)
	Me(ctx context.Context) (*models.User, error)
	Ping(ctx context.Context) error
}

// CredentialStore is the session contract the HTTP wrapper relies on. The
// session store implements it, so both share one view of durable storage.
type CredentialStore interface {
	AccessToken() string
	RefreshToken(ctx context.Context) (string, error)
	UpdateTokens(ctx context.Context, cred models.Credential) error
	Invalidate(ctx context.Context) error
}
