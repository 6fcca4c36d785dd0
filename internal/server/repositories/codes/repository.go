// Package codes stores single-use secrets: login OTPs, account verification
// tokens and password reset tokens.
package codes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/jobportal/internal/server/models"
)

type Repository interface {
	// Put stores code for (kind, userID), replacing any previous one and
	// resetting its attempt counter.
	Put(ctx context.Context, kind models.CodeKind, userID, code string, validity time.Duration) error
	FindByUser(ctx context.Context, kind models.CodeKind, userID string) (*models.Code, error)
	FindByCode(ctx context.Context, kind models.CodeKind, code string) (*models.Code, error)
	// AddAttempt records a failed guess and returns the new count.
	AddAttempt(ctx context.Context, kind models.CodeKind, userID string) (int, error)
	Delete(ctx context.Context, kind models.CodeKind, userID string) error
}
