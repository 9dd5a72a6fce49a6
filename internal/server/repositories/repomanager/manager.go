package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/plantops/internal/dbx"
	"github.com/dmitrijs2005/plantops/internal/server/repositories/plants"
	"github.com/dmitrijs2005/plantops/internal/server/repositories/users"
)

// RepositoryManager vends the relational repositories. Each accessor binds
// to the given DBTX so the same repository works inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Plants(db dbx.DBTX) plants.Repository
}
