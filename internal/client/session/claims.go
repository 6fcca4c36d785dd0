package session

import (
	"time"

	"github.com/dmitrijs2005/jobportal/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims are the claims the backend puts into access tokens. The client
// never verifies the signature; it only reads what the token says about
// itself.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func parseClaims(token string) (*tokenClaims, bool) {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// ExpiresAt reports the expiry of a JWT access token. Opaque tokens report
// false.
func ExpiresAt(token string) (time.Time, bool) {
	claims, ok := parseClaims(token)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// userFromToken derives a partial user from a JWT access token.
func userFromToken(token string) *models.User {
	claims, ok := parseClaims(token)
	if !ok {
		return nil
	}

	id := claims.UserID
	if id == "" {
		id = claims.Subject
	}
	role, err := models.ParseRole(claims.Role)
	if id == "" || err != nil {
		return nil
	}
	return &models.User{ID: id, Email: claims.Email, Role: role}
}
