package postgres

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// ErrDirtySchema is returned when a previous migration failed halfway and
// the schema needs manual repair.
var ErrDirtySchema = errors.New("database schema is dirty")

// RunMigrations applies every pending migration found in migrationsPath and
// returns the resulting schema version. Each service keeps its own directory
// (migrations/ledger, migrations/transfer).
func RunMigrations(databaseURL, migrationsPath string) (uint, error) {
	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return 0, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("%w at version %d", ErrDirtySchema, version)
	}

	slog.Info("database migrations: up to date", "path", migrationsPath, "version", version)
	return version, nil
}

func closeMigrate(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		slog.Warn("closing migrator", "source_error", srcErr, "database_error", dbErr)
	}
}
