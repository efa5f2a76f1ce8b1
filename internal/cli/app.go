package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/passwords/internal/backup"
	"github.com/dmitrijs2005/passwords/internal/config"
	"github.com/dmitrijs2005/passwords/internal/keys"
	"github.com/dmitrijs2005/passwords/internal/logging"
	"github.com/dmitrijs2005/passwords/internal/repair"
	"github.com/dmitrijs2005/passwords/internal/repositories/repomanager"
	"github.com/dmitrijs2005/passwords/internal/revisions"
	"github.com/dmitrijs2005/passwords/internal/sse"
)

var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}

	newRepositoryManager = repomanager.NewPostgresRepositoryManager

	newS3Storage = backup.NewS3Storage
)

// App wires the stores, the codec and the repair engines for one run.
type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	keys        *keys.Store
	codec       *sse.Codec
}

// NewApp loads the keys, connects to the database and migrates its schema.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	ks, err := keys.Load(cfg.KeysFile)
	if err != nil {
		return nil, err
	}

	db, err := openDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepositoryManager(cfg.PageSize)
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		repomanager: rm,
		keys:        ks,
		codec:       sse.NewCodec(ks),
	}, nil
}

// Close releases the database connection.
func (app *App) Close() error {
	return app.db.Close()
}

// Run writes the optional safety backup, then repairs every selected kind.
// It fails only when a pass could not complete.
func (app *App) Run(ctx context.Context) error {
	if app.config.BackupTarget != config.BackupNone {
		name, err := app.backup(ctx)
		if err != nil {
			return fmt.Errorf("safety backup: %w", err)
		}
		app.logger.Info(ctx, "safety backup written", "target", app.config.BackupTarget, "name", name)
	}

	kinds, err := app.config.Kinds()
	if err != nil {
		return err
	}

	var total repair.Report
	for _, kind := range kinds {
		engine, err := app.engine(ctx, kind)
		if err != nil {
			return err
		}

		report, err := engine.Run(ctx)
		total.Scanned += report.Scanned
		total.Repaired += report.Repaired
		total.Failed += report.Failed
		if err != nil {
			return fmt.Errorf("repair %s revisions: %w", kind, err)
		}
	}

	app.logger.Info(ctx, "repair finished",
		"scanned", total.Scanned, "repaired", total.Repaired, "failed", total.Failed)
	return nil
}

func (app *App) engine(ctx context.Context, kind revisions.Kind) (*repair.Engine, error) {
	store := app.repomanager.Revisions(app.db)

	if kind == revisions.KindPassword {
		return repair.NewPasswordRevisionRepair(ctx, store, app.repomanager.AppConfig(app.db), app.codec, app.logger, true)
	}
	return repair.NewRevisionRepair(kind, store, app.codec, app.logger), nil
}

func (app *App) backup(ctx context.Context) (string, error) {
	storage, err := app.storage(ctx)
	if err != nil {
		return "", err
	}

	pass := []byte(app.config.BackupPassphrase)
	exporter := backup.NewExporter(app.repomanager.Revisions(app.db), app.codec, app.keys, storage, app.logger)

	return exporter.Export(ctx, backup.ExportOptions{
		IncludeKeys: len(pass) > 0,
		Passphrase:  pass,
	})
}

func (app *App) storage(ctx context.Context) (backup.Storage, error) {
	switch app.config.BackupTarget {
	case config.BackupFile:
		return backup.NewFileStorage(app.config.BackupDir)
	case config.BackupS3:
		s, err := newS3Storage(ctx, backup.S3Config{
			Region:   app.config.S3Region,
			User:     app.config.S3User,
			Password: app.config.S3Password,
			Endpoint: app.config.S3Endpoint,
			Bucket:   app.config.S3Bucket,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown backup target %q", app.config.BackupTarget)
	}
}
