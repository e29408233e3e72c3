package persistence

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

var (
	ErrMissingMigrationsPath = errors.New("migrations path cannot be empty")
	ErrMissingDatabaseURL    = errors.New("database URL cannot be empty")
)

// ErrDirtyMigration means a previous run stopped half way through a version.
// The wallet procedures may be half installed, so start-up refuses to continue.
type ErrDirtyMigration struct {
	Version uint
}

func (e ErrDirtyMigration) Error() string {
	return fmt.Sprintf("database schema is dirty at version %d, fix it manually before starting", e.Version)
}

// migrationSourceURL accepts a bare directory or a file:// URL
func migrationSourceURL(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return "file://" + path
}

// RunMigrations brings the wallet schema and its balance procedures up to date
func RunMigrations(logger *slog.Logger, databaseURL, migrationsPath string) error {
	if migrationsPath == "" {
		return ErrMissingMigrationsPath
	}
	if databaseURL == "" {
		return ErrMissingDatabaseURL
	}

	m, err := migrate.New(migrationSourceURL(migrationsPath), databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			logger.Warn("Failed to close migrator", "source_error", sourceErr, "database_error", dbErr)
		}
	}()

	upErr := m.Up()

	version, dirty, versionErr := m.Version()
	if dirty {
		return ErrDirtyMigration{Version: version}
	}
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}
	if versionErr != nil && !errors.Is(versionErr, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", versionErr)
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		logger.Info("Database schema up to date", "version", version)
	} else {
		logger.Info("Applied database migrations", "version", version)
	}
	return nil
}
