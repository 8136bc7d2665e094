package postgres

import (
	stderrors "errors"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file" // file:// migration source
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/pkg/errors"
)

// Migrate applies all pending schema migrations from path.  An up-to-date
// schema is not an error.
func (db *DB) Migrate(path string) error {
	m, err := db.newMigrate(path)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to apply migrations")
	}

	version, dirty, err := m.Version()
	if err != nil && !stderrors.Is(err, migrate.ErrNilVersion) {
		db.logger.Warn("could not read migration version", logging.Err(err))
		return nil
	}
	db.logger.Info("schema migrations applied",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty))
	return nil
}

// MigrateDown rolls the schema back by steps migrations.
func (db *DB) MigrateDown(path string, steps int) error {
	if steps <= 0 {
		return errors.NewValidation("migration steps must be positive, got %d", steps)
	}

	m, err := db.newMigrate(path)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil {
		if stderrors.Is(err, migrate.ErrNoChange) {
			return errors.New(errors.ErrCodeDatabaseError, "no migrations to roll back")
		}
		return errors.Wrapf(err, errors.ErrCodeDatabaseError, "failed to roll back %d migration(s)", steps)
	}
	db.logger.Info("schema migrations rolled back", logging.Int("steps", steps))
	return nil
}

// MigrationVersion reports the current schema version and whether a failed
// migration left it dirty.  A fresh database reports version zero.
func (db *DB) MigrationVersion(path string) (uint, bool, error) {
	m, err := db.newMigrate(path)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		if stderrors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read migration version")
	}
	return version, dirty, nil
}

// ForceMigrationVersion overwrites the recorded schema version without
// running migrations.  Used to recover from a dirty state after a failed
// migration has been repaired by hand.
func (db *DB) ForceMigrationVersion(path string, version int) error {
	m, err := db.newMigrate(path)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Force(version); err != nil {
		return errors.Wrapf(err, errors.ErrCodeDatabaseError, "failed to force migration version %d", version)
	}
	db.logger.Warn("forced migration version", logging.Int("version", version))
	return nil
}

func (db *DB) newMigrate(path string) (*migrate.Migrate, error) {
	driver, err := migratepgx.WithInstance(stdlib.OpenDBFromPool(db.pool), &migratepgx.Config{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to init migration driver")
	}
	m, err := migrate.NewWithDatabaseInstance(migrationSource(path), "pgx5", driver)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to init migrator")
	}
	return m, nil
}

// migrationSource normalises a bare directory path into a file:// source URL.
func migrationSource(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return "file://" + path
}
