package migration

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Runner applies SQL migrations from an embedded filesystem.
type Runner struct {
	fs     fs.FS
	path   string
	dsn    string
	logger *zap.Logger
}

// NewRunner creates a migration runner over the given filesystem subtree.
func NewRunner(migrationsFS fs.FS, path, dsn string, logger *zap.Logger) *Runner {
	return &Runner{
		fs:     migrationsFS,
		path:   path,
		dsn:    dsn,
		logger: logger.Named("Migrator"),
	}
}

// Up applies all pending migrations. ErrNoChange is not an error.
func (r *Runner) Up() error {
	m, err := r.create()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	r.logger.Info("Database migrations applied")
	return nil
}

// Down rolls back all migrations.
func (r *Runner) Down() error {
	m, err := r.create()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	r.logger.Info("Database migrations rolled back")
	return nil
}

func (r *Runner) create() (*migrate.Migrate, error) {
	source, err := iofs.New(r.fs, r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, r.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}
