package repomanager

import (
	"context"
	"database/sql"

	"github.com/dropvault/dropvault/internal/dbx"
	"github.com/dropvault/dropvault/internal/server/repositories/files"
	"github.com/dropvault/dropvault/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
}
