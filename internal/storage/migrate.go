package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var archiveSchema embed.FS

// MigrateArchive applies pending backup archive migrations to the database at
// dbPath and returns the schema version it ends on.
func MigrateArchive(dbPath string) (uint, error) {
	// the migrate driver closes its connection, so it gets its own
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, fmt.Errorf("archive schema: open %s: %w", dbPath, err)
	}
	defer conn.Close()

	m, err := newArchiveMigrator(conn)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("archive schema: apply: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("archive schema: read version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("archive schema: version %d left dirty", version)
	}
	return version, nil
}

func newArchiveMigrator(conn *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(archiveSchema, "migrations")
	if err != nil {
		return nil, fmt.Errorf("archive schema: load migrations: %w", err)
	}
	target, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("archive schema: sqlite target: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", target)
	if err != nil {
		return nil, fmt.Errorf("archive schema: %w", err)
	}
	return m, nil
}
