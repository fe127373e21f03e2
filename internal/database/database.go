// Package database opens the relational backend selected by configuration
// and exposes it as a *gorm.DB. PostgreSQL goes through a pgx pool, MySQL
// and SQLite through their database/sql drivers.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/deppfellow/wikitype-api/internal/config"
	"github.com/deppfellow/wikitype-api/internal/lib/utils"
	loggerConfig "github.com/deppfellow/wikitype-api/internal/logger"
	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const DatabasePingTimeout = 10

type Database struct {
	DB     *gorm.DB
	Driver string

	// Pool is the underlying pgx pool for the postgres driver, nil otherwise.
	Pool *pgxpool.Pool

	AcquireTimeout time.Duration

	sqlDB *sql.DB
	log   *zerolog.Logger
}

// multiTracer fans pgx query tracing out to New Relic and the local logger.
type multiTracer struct {
	tracers []pgx.QueryTracer
}

func (mt *multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, tracer := range mt.tracers {
		ctx = tracer.TraceQueryStart(ctx, conn, data)
	}
	return ctx
}

func (mt *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, tracer := range mt.tracers {
		tracer.TraceQueryEnd(ctx, conn, data)
	}
}

// New opens and pings the configured backend.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	database := &Database{
		Driver:         cfg.Database.Driver,
		AcquireTimeout: time.Duration(cfg.Database.AcquireTimeout) * time.Second,
		log:            logger,
	}

	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pool, err := newPgxPool(cfg, logger, loggerService)
		if err != nil {
			return nil, err
		}
		database.Pool = pool
		dialector = postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)})
	case config.DriverMySQL:
		dialector = gormmysql.Open(mysqlDSN(cfg.Database))
	case config.DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(cfg.Database))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	var slowThreshold time.Duration
	if cfg.Observability != nil {
		slowThreshold = cfg.Observability.Logging.SlowQueryThreshold
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newGormLogger(*logger, slowThreshold),
		NowFunc:                utils.Now,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		database.closePool()
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Database.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		database.closePool()
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second)

	database.DB = db
	database.sqlDB = sqlDB

	ctx, cancel := context.WithTimeout(context.Background(), DatabasePingTimeout*time.Second)
	defer cancel()
	if err := database.Ping(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Str("driver", cfg.Database.Driver).Msg("connected to the database")

	return database, nil
}

func newPgxPool(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*pgxpool.Pool, error) {
	pgxPoolConfig, err := pgxpool.ParseConfig(postgresDSN(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx pool config: %w", err)
	}

	pgxPoolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	if cfg.Database.ConnMaxLifetime > 0 {
		pgxPoolConfig.MaxConnLifetime = time.Duration(cfg.Database.ConnMaxLifetime) * time.Second
	}
	if cfg.Database.ConnMaxIdleTime > 0 {
		pgxPoolConfig.MaxConnIdleTime = time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second
	}

	var tracers []pgx.QueryTracer
	if loggerService.GetApplication() != nil {
		tracers = append(tracers, nrpgx5.NewTracer())
	}

	// statement level pgx logging only when running locally
	if cfg.Primary.Env == "local" {
		globalLevel := logger.GetLevel()
		tracers = append(tracers, &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(loggerConfig.NewPgxLogger(globalLevel)),
			LogLevel: loggerConfig.GetPgxTraceLogLevel(globalLevel),
		})
	}

	switch len(tracers) {
	case 0:
	case 1:
		pgxPoolConfig.ConnConfig.Tracer = tracers[0]
	default:
		pgxPoolConfig.ConnConfig.Tracer = &multiTracer{tracers: tracers}
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), pgxPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

// RowLocking reports whether the backend understands SELECT ... FOR UPDATE.
func (db *Database) RowLocking() bool {
	return db.Driver != config.DriverSQLite
}

func (db *Database) Ping(ctx context.Context) error {
	return db.sqlDB.PingContext(ctx)
}

func (db *Database) Close() error {
	db.log.Info().Msg("closing database connection pool")

	var err error
	if db.sqlDB != nil {
		err = db.sqlDB.Close()
	}
	db.closePool()
	return err
}

func (db *Database) closePool() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}
