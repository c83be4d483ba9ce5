package nwbfile

import (
	"embed"
	"errors"
	"fmt"

	"github.com/banshee-data/motion-energy/internal/monitoring"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrateUp brings the schema to the latest version.
func (f *File) migrateUp() error {
	m, err := f.newMigrate()
	if err != nil {
		return err
	}
	// Closing m would close the shared *sql.DB, so it is left for the GC.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// SchemaVersion returns the applied migration version and dirty flag.
// A file with no migrations applied reports 0, false.
func (f *File) SchemaVersion() (uint, bool, error) {
	m, err := f.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (f *File) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(f.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = migrateLogger{logf: monitoring.Named("migrate")}
	return m, nil
}

// migrateLogger implements migrate.Logger on top of the monitoring logger.
type migrateLogger struct {
	logf func(format string, v ...interface{})
}

func (l migrateLogger) Printf(format string, v ...interface{}) { l.logf(format, v...) }

func (l migrateLogger) Verbose() bool { return false }
