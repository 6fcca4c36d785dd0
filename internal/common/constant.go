// Package common contains constants and sentinel errors shared by the
// jobportal client and the development backend.
package common

// Header names of the REST contract.
const (
	AuthorizationHeaderName = "Authorization"
	RequestIDHeaderName     = "X-Request-ID"
	BearerPrefix            = "Bearer "
)
