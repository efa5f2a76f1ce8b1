package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/passwords/internal/dbx"
	"github.com/dmitrijs2005/passwords/internal/repositories/appconfig"
	"github.com/dmitrijs2005/passwords/internal/repositories/revisions"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Revisions(db dbx.DBTX) revisions.Repository
	AppConfig(db dbx.DBTX) appconfig.Repository
}
