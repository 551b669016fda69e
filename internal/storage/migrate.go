package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate applies every pending migration from sourceURL (for example
// "file://migrations") and reports the schema version before and after.
func Migrate(db *sql.DB, sourceURL string) (preVersion, postVersion uint, err error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return 0, 0, fmt.Errorf("postgres.WithInstance: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return 0, 0, fmt.Errorf("migrate.NewWithDatabaseInstance: %w", err)
	}

	preVersion, _, err = m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, 0, fmt.Errorf("m.Version.preMigrationVersion: %w", err)
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return preVersion, 0, fmt.Errorf("m.Up: %w", err)
	}

	postVersion, _, err = m.Version()
	if err != nil {
		return preVersion, 0, fmt.Errorf("m.Version.postMigrationVersion: %w", err)
	}
	return preVersion, postVersion, nil
}
