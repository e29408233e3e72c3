package persistence

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunMigrations_InputValidation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	assert.ErrorIs(t, RunMigrations(logger, "postgres://wallet", ""), ErrMissingMigrationsPath)
	assert.ErrorIs(t, RunMigrations(logger, "", "migrations/postgres"), ErrMissingDatabaseURL)
}

func TestMigrationSourceURL(t *testing.T) {
	assert.Equal(t, "file://migrations/postgres", migrationSourceURL("migrations/postgres"))
	assert.Equal(t, "file:///srv/migrations", migrationSourceURL("/srv/migrations"))
	assert.Equal(t, "file://./migrations", migrationSourceURL("file://./migrations"))
}

func TestErrDirtyMigration(t *testing.T) {
	err := ErrDirtyMigration{Version: 2}
	assert.Equal(t, "database schema is dirty at version 2, fix it manually before starting", err.Error())
}
