package codes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/jobportal/internal/common"
	"github.com/dmitrijs2005/jobportal/internal/dbx"
	"github.com/dmitrijs2005/jobportal/internal/server/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Put(ctx context.Context, kind models.CodeKind, userID, code string, validity time.Duration) error {
	query := `
		INSERT INTO codes (kind, user_id, code, expires_at, attempts)
		VALUES (?, ?, ?, ?, 0)
		ON CONFLICT (kind, user_id) DO UPDATE SET code = excluded.code, expires_at = excluded.expires_at, attempts = 0
	`
	if _, err := r.db.ExecContext(ctx, query, string(kind), userID, code, time.Now().Add(validity).UnixNano()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) FindByUser(ctx context.Context, kind models.CodeKind, userID string) (*models.Code, error) {
	return r.find(ctx, `SELECT user_id, code, expires_at, attempts FROM codes WHERE kind = ? AND user_id = ?`, kind, userID)
}

func (r *SQLiteRepository) FindByCode(ctx context.Context, kind models.CodeKind, code string) (*models.Code, error) {
	return r.find(ctx, `SELECT user_id, code, expires_at, attempts FROM codes WHERE kind = ? AND code = ?`, kind, code)
}

func (r *SQLiteRepository) find(ctx context.Context, query string, kind models.CodeKind, arg string) (*models.Code, error) {
	c := &models.Code{Kind: kind}
	var expires int64
	if err := r.db.QueryRowContext(ctx, query, string(kind), arg).Scan(&c.UserID, &c.Code, &expires, &c.Attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	c.Expires = time.Unix(0, expires)
	return c, nil
}

func (r *SQLiteRepository) AddAttempt(ctx context.Context, kind models.CodeKind, userID string) (int, error) {
	query := `UPDATE codes SET attempts = attempts + 1 WHERE kind = ? AND user_id = ? RETURNING attempts`
	var n int
	if err := r.db.QueryRowContext(ctx, query, string(kind), userID).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, kind models.CodeKind, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM codes WHERE kind = ? AND user_id = ?`, string(kind), userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
