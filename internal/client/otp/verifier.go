package otp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/jobportal/internal/client/client"
	"github.com/dmitrijs2005/jobportal/internal/client/models"
)

// MockToken is the access token issued by MockVerifier.
const MockToken = "mock-token-abc123"

// Verifier checks a one-time code issued to email.
type Verifier interface {
	Verify(ctx context.Context, email, code string) (*models.AuthResult, error)
	Resend(ctx context.Context, email string) error
}

// MockVerifier accepts codes locally and signs the user in as a seeker.
// An empty ValidCode accepts any complete code.
type MockVerifier struct {
	ValidCode string
}

func (m MockVerifier) Verify(ctx context.Context, email, code string) (*models.AuthResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.ValidCode != "" && code != m.ValidCode {
		return nil, ErrInvalidCode
	}
	return &models.AuthResult{
		Credential: models.Credential{AccessToken: MockToken},
		User: models.User{
			ID:        "mock-user",
			FirstName: "Demo",
			LastName:  "User",
			Email:     email,
			Role:      models.RoleSeeker,
		},
	}, nil
}

func (m MockVerifier) Resend(ctx context.Context, email string) error {
	return ctx.Err()
}

type otpAPI interface {
	VerifyOTP(ctx context.Context, role models.Role, email, code string) (*models.AuthResult, error)
	ResendOTP(ctx context.Context, role models.Role, email string) error
}

// APIVerifier verifies codes against the backend for one role.
type APIVerifier struct {
	api  otpAPI
	role models.Role
}

func NewAPIVerifier(api otpAPI, role models.Role) *APIVerifier {
	return &APIVerifier{api: api, role: role}
}

func (v *APIVerifier) Verify(ctx context.Context, email, code string) (*models.AuthResult, error) {
	res, err := v.api.VerifyOTP(ctx, v.role, email, code)
	if err != nil {
		return nil, mapRejection(err)
	}
	return res, nil
}

func (v *APIVerifier) Resend(ctx context.Context, email string) error {
	return v.api.ResendOTP(ctx, v.role, email)
}

// mapRejection turns a backend refusal of the code into ErrInvalidCode while
// keeping the server's message.
func mapRejection(err error) error {
	switch client.StatusCode(err) {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusUnprocessableEntity:
		if errors.Is(err, client.ErrSessionInvalidated) {
			return err
		}
		return fmt.Errorf("%w: %s", ErrInvalidCode, client.Message(err))
	default:
		return err
	}
}
