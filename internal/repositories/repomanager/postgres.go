// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/passwords/internal/dbx"
	"github.com/dmitrijs2005/passwords/internal/migrations"
	"github.com/dmitrijs2005/passwords/internal/repositories/appconfig"
	"github.com/dmitrijs2005/passwords/internal/repositories/revisions"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct {
	pageSize int
}

// Revisions returns a revisions.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Revisions(db dbx.DBTX) revisions.Repository {
	return revisions.NewPostgresRepository(db, m.pageSize)
}

// AppConfig returns an appconfig.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) AppConfig(db dbx.DBTX) appconfig.Repository {
	return appconfig.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager
// whose revision repositories read pageSize rows at a time.
func NewPostgresRepositoryManager(pageSize int) RepositoryManager {
	return &PostgresRepositoryManager{pageSize: pageSize}
}
