package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Role classifies an account on the platform.
type Role string

const (
	RoleSeeker   Role = "seeker"
	RoleEmployer Role = "employer"
	RoleAdmin    Role = "admin"
)

var ErrInvalidRole = errors.New("invalid role")

// ParseRole normalizes s and checks it names a known role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w %q", ErrInvalidRole, s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleSeeker, RoleEmployer, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is the authenticated identity as returned by the backend.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// DisplayName returns "First Last", falling back to the email.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// MarshalUser serializes a user for the durable "user" key.
func MarshalUser(u *User) ([]byte, error) {
	return json.Marshal(u)
}

// UnmarshalUser parses the durable "user" value. An empty value yields nil.
func UnmarshalUser(data []byte) (*User, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}
