package models

import "time"

// CodeKind separates the single-use secrets a user can hold.
type CodeKind string

const (
	CodeOTP           CodeKind = "otp"
	CodeVerifyAccount CodeKind = "verify_account"
	CodeResetPassword CodeKind = "reset_password"
)

// Code is a single-use secret. A user holds at most one per kind.
type Code struct {
	Kind     CodeKind
	UserID   string
	Code     string
	Expires  time.Time
	Attempts int
}

func (c *Code) Expired(now time.Time) bool {
	return !now.Before(c.Expires)
}
