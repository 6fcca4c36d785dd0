package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleSeeker   Role = "seeker"
	RoleEmployer Role = "employer"
	RoleAdmin    Role = "admin"
)

// CanSignup reports whether accounts of this role may register themselves.
func (r Role) CanSignup() bool {
	return r == RoleSeeker || r == RoleEmployer
}

func (r Role) Valid() bool {
	return r.CanSignup() || r == RoleAdmin
}

type User struct {
	ID           string
	Role         Role
	Email        string
	FirstName    string
	LastName     string
	CompanyName  string
	PasswordHash []byte
	Verified     bool
	CreatedAt    time.Time
}

// NormalizeEmail is the canonical form used for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
