package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/deppfellow/wikitype-api/internal/config"
	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"
)

//go:embed migrations/postgres/*.sql migrations/mysql/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Migrate brings the schema of the configured backend up to date. It uses
// its own connection so the application pool is never touched.
func Migrate(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) error {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		return migratePostgres(ctx, logger, cfg)
	case config.DriverMySQL:
		return migrateSQL(logger, "mysql", mysqlDSN(cfg.Database), "migrations/mysql",
			func(db *sql.DB) (migratedb.Driver, error) {
				return migratemysql.WithInstance(db, &migratemysql.Config{})
			})
	case config.DriverSQLite:
		return migrateSQL(logger, "sqlite3", sqliteDSN(cfg.Database), "migrations/sqlite",
			func(db *sql.DB) (migratedb.Driver, error) {
				return migratesqlite.WithInstance(db, &migratesqlite.Config{})
			})
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func migratePostgres(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) error {
	conn, err := pgx.Connect(ctx, postgresDSN(cfg.Database))
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	m, err := tern.NewMigrator(ctx, conn, "schema_version")
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", err)
	}

	subtree, err := fs.Sub(migrations, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("retrieving database migrations subtree: %w", err)
	}

	if err := m.LoadMigrations(subtree); err != nil {
		return fmt.Errorf("loading database migrations: %w", err)
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}

	if err := m.Migrate(ctx); err != nil {
		return err
	}

	if from == int32(len(m.Migrations)) {
		logger.Info().Msgf("database schema up to date, version %d", len(m.Migrations))
	} else {
		logger.Info().Msgf("migrated database schema, from %d to %d", from, len(m.Migrations))
	}
	return nil
}

func migrateSQL(
	logger *zerolog.Logger,
	driverName, dsn, dir string,
	instance func(*sql.DB) (migratedb.Driver, error),
) error {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("opening migration connection: %w", err)
	}

	dbDriver, err := instance(db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("constructing database migrator: %w", err)
	}

	source, err := iofs.New(migrations, dir)
	if err != nil {
		_ = dbDriver.Close()
		return fmt.Errorf("loading database migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driverName, dbDriver)
	if err != nil {
		_ = dbDriver.Close()
		return fmt.Errorf("constructing database migrator: %w", err)
	}
	// closes source and db
	defer m.Close()

	from, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info().Msgf("database schema up to date, version %d", from)
			return nil
		}
		return err
	}

	to, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("retrieving migrated database version: %w", err)
	}

	logger.Info().Msgf("migrated database schema, from %d to %d", from, to)
	return nil
}
