package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/jobportal/internal/dbx"
	"github.com/dmitrijs2005/jobportal/internal/server/repositories/codes"
	"github.com/dmitrijs2005/jobportal/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/jobportal/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to either the pool or a
// transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Codes(db dbx.DBTX) codes.Repository
}
