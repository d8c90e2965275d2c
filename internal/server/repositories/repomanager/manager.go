package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tubeauth/internal/dbx"
	"github.com/dmitrijs2005/tubeauth/internal/server/repositories/users"
)

// RepositoryManager binds repositories to a handle, either the pool or a
// transaction opened by dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
