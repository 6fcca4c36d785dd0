package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/jobportal/internal/common"
	"github.com/dmitrijs2005/jobportal/internal/dbx"
	"github.com/dmitrijs2005/jobportal/internal/server/models"
	"github.com/google/uuid"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, role, email, first_name, last_name, company_name, password_hash, verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	u := *user
	u.ID = uuid.NewString()
	u.Email = models.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		u.ID, string(u.Role), u.Email, u.FirstName, u.LastName, u.CompanyName,
		u.PasswordHash, u.Verified, u.CreatedAt.UnixNano())
	if err != nil {
		if dbx.IsConstraintViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &u, nil
}

func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = ?", models.NormalizeEmail(email))
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *SQLiteRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `
		SELECT id, role, email, first_name, last_name, company_name, password_hash, verified, created_at
		FROM users
		WHERE ` + where

	var (
		u       models.User
		role    string
		created int64
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &role, &u.Email, &u.FirstName, &u.LastName, &u.CompanyName,
		&u.PasswordHash, &u.Verified, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.Role = models.Role(role)
	u.CreatedAt = time.Unix(0, created)

	return &u, nil
}

func (r *SQLiteRepository) SetVerified(ctx context.Context, id string) error {
	return r.update(ctx, `UPDATE users SET verified = 1 WHERE id = ?`, id)
}

func (r *SQLiteRepository) SetPasswordHash(ctx context.Context, id string, hash []byte) error {
	return r.update(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
}

func (r *SQLiteRepository) update(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
