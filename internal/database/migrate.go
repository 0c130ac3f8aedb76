package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrDirty means a previous migration failed halfway and the schema needs a
// manual fix before anything else runs.
var ErrDirty = errors.New("migration version is dirty")

// Migrator applies the SQL files in a directory to one database.
type Migrator struct {
	m  *migrate.Migrate
	db *sql.DB
}

// NewMigrator opens databaseURL through the pgx stdlib driver, which
// golang-migrate requires, and reads migrations from dir.
func NewMigrator(databaseURL, dir string) (*Migrator, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &Migrator{m: m, db: db}, nil
}

// Close releases the migration connection.
func (m *Migrator) Close() error {
	return m.db.Close()
}

// Up applies every pending migration and reports the resulting version and
// whether anything changed. Version 0 means no migrations exist.
func (m *Migrator) Up() (version uint, changed bool, err error) {
	err = m.m.Up()
	changed = err == nil
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, false, fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err = m.Version()
	return version, changed, err
}

// Down rolls back steps migrations. Rolling back past the first is a no-op.
func (m *Migrator) Down(steps int) error {
	if err := m.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	return nil
}

// Version returns the applied version, 0 on a fresh database.
func (m *Migrator) Version() (uint, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("%w: version %d", ErrDirty, version)
	}
	return version, nil
}
