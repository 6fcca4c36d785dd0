// Package reset implements the password reset flow: the request step that
// emails a reset link and the form that sets a new password from that link.
package reset

import (
	"errors"
	"net/mail"
	"strings"
	"unicode"
)

const MinPasswordLength = 8

var ErrInvalidEmail = errors.New("invalid email address")

// Requirements holds the password checks shown next to the reset form.
type Requirements struct {
	MinLength bool
	Uppercase bool
	Lowercase bool
	Number    bool
	Match     bool
}

// AllMet reports whether every requirement holds.
func (r Requirements) AllMet() bool {
	return r.MinLength && r.Uppercase && r.Lowercase && r.Number && r.Match
}

// Unmet lists human-readable descriptions of the failing requirements.
func (r Requirements) Unmet() []string {
	var out []string
	if !r.MinLength {
		out = append(out, "at least 8 characters")
	}
	if !r.Uppercase {
		out = append(out, "one uppercase letter")
	}
	if !r.Lowercase {
		out = append(out, "one lowercase letter")
	}
	if !r.Number {
		out = append(out, "one number")
	}
	if !r.Match {
		out = append(out, "passwords must match")
	}
	return out
}

// Evaluate computes the requirements for a password and its confirmation.
func Evaluate(password, confirmation string) Requirements {
	var r Requirements
	r.MinLength = len([]rune(password)) >= MinPasswordLength
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			r.Uppercase = true
		case unicode.IsLower(c):
			r.Lowercase = true
		case unicode.IsDigit(c):
			r.Number = true
		}
	}
	r.Match = password != "" && password == confirmation
	return r
}

// ValidateEmail checks the address entered on the "forgot password" step.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return ErrInvalidEmail
	}
	return nil
}
