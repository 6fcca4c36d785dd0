package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/jobportal/internal/client/models"
)

type SignupRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"companyName,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResponse acknowledges the password step; the OTP goes to Email.
type LoginResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp,omitempty"`
}

type authResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type healthResponse struct {
	Status string `json:"status"`
}

var _ Client = (*HTTPClient)(nil)

// Signup registers a seeker or an employer. Administrators cannot sign up.
func (c *HTTPClient) Signup(ctx context.Context, role models.Role, req SignupRequest) (*MessageResponse, error) {
	if role != models.RoleSeeker && role != models.RoleEmployer {
		return nil, ErrInvalidRole
	}
	var out MessageResponse
	if err := c.callPublic(ctx, http.MethodPost, "/"+string(role)+"/signup", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) VerifyAccount(ctx context.Context, token string, role models.Role, id string) (*MessageResponse, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	path := "/verify-account/" + url.PathEscape(token) + "/" + string(role) + "/" + url.PathEscape(id)

	var out MessageResponse
	if err := c.callPublic(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Login(ctx context.Context, role models.Role, email, password string) (*LoginResponse, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	var out LoginResponse
	if err := c.callPublic(ctx, http.MethodPost, "/"+string(role)+"/login", credentials{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	if out.Email == "" {
		out.Email = email
	}
	return &out, nil
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, role models.Role, email, code string) (*models.AuthResult, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	var out authResponse
	if err := c.callPublic(ctx, http.MethodPost, "/"+string(role)+"/verify-otp", otpRequest{Email: email, OTP: code}, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, &Error{Message: "verification response has no token", Err: errors.New("empty access token")}
	}
	if out.User.Role == "" {
		out.User.Role = role
	}
	return &models.AuthResult{
		Credential: models.Credential{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken},
		User:       out.User,
	}, nil
}

func (c *HTTPClient) ResendOTP(ctx context.Context, role models.Role, email string) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	return c.callPublic(ctx, http.MethodPost, "/"+string(role)+"/resend-otp", otpRequest{Email: email}, nil)
}

// Logout notifies the server. Administrators have no logout endpoint, so for
// them it is a no-op.
func (c *HTTPClient) Logout(ctx context.Context, role models.Role) error {
	switch role {
	case models.RoleSeeker, models.RoleEmployer:
		return c.call(ctx, http.MethodPost, "/"+string(role)+"/logout", nil, nil)
	case models.RoleAdmin:
		return nil
	default:
		return ErrInvalidRole
	}
}

func (c *HTTPClient) RequestPasswordReset(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.callPublic(ctx, http.MethodPost, "/request/password/reset", emailRequest{Email: email}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ResetPassword(ctx context.Context, token, newPassword string) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.callPublic(ctx, http.MethodPost, "/reset/password", resetRequest{Token: token, NewPassword: newPassword}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the user behind the current access token.
func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.call(ctx, http.MethodGet, "/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	var out healthResponse
	if err := c.callPublic(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return err
	}
	if out.Status != "OK" {
		return &Error{Message: "server is not healthy", Err: ErrUnavailable}
	}
	return nil
}

func (c *HTTPClient) call(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.Do(ctx, method, path, in, nil)
	return decodeResult(resp, err, out)
}

func (c *HTTPClient) callPublic(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.DoPublic(ctx, method, path, in, nil)
	return decodeResult(resp, err, out)
}

func decodeResult(resp *Response, err error, out any) error {
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}
