// Package models defines client-side data models shared by the session store,
// the API client and the authentication flows.
package models

// Storage keys of the durable session state. All three are written and
// cleared together.
const (
	KeyAuthToken    = "auth_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

// SessionKeys lists every durable key owned by the session.
var SessionKeys = []string{KeyAuthToken, KeyRefreshToken, KeyUser}
