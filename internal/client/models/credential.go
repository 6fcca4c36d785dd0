package models

// Credential is the bearer token pair proving identity to the backend.
// RefreshToken is optional: mocked sign-ins issue only an access token.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Valid reports whether the credential carries an access token.
func (c *Credential) Valid() bool {
	return c != nil && c.AccessToken != ""
}

// AuthResult is what a successful sign-in or OTP verification yields.
type AuthResult struct {
	Credential Credential
	User       User
}
