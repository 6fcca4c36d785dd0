// Package metadata implements the durable key/value storage that backs the
// client session (auth_token, refresh_token, user).
package metadata

import (
	"context"
)

// Repository is the durable storage contract shared by the session store and
// the API client. Get returns (nil, nil) for a missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetMany writes all values atomically.
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, key string) error
	// DeleteKeys removes all keys atomically. Missing keys are ignored.
	DeleteKeys(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
