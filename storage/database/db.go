package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/trezcool/tadesk/core"
	appfs "github.com/trezcool/tadesk/fs"
)

const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"

	// MigrationsDir is the migrations directory inside the embedded assets.
	MigrationsDir = "migrations"

	defaultSQLiteDSN = "file:tadesk.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
)

var errUnknownEngine = errors.New("unknown SQL engine")

func init() {
	// modernc.org/sqlite registers as "sqlite", which sqlx does not know
	sqlx.BindDriver(EngineSQLite, sqlx.QUESTION)
}

// IsSQL reports whether engine is served by this package.
func IsSQL(engine string) bool {
	return engine == EnginePostgres || engine == EngineSQLite
}

// Open opens (without connecting) the database configured in conf.Storage.
func Open(conf *core.Config) (*sqlx.DB, error) {
	dsn := conf.Storage.DSN
	switch conf.Storage.Engine {
	case EnginePostgres:
		if dsn == "" {
			return nil, errors.New("postgres: missing DSN")
		}
	case EngineSQLite:
		if dsn == "" {
			dsn = defaultSQLiteDSN
		}
	default:
		return nil, errors.Wrap(errUnknownEngine, conf.Storage.Engine)
	}

	db, err := sqlx.Open(conf.Storage.Engine, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if conf.Storage.Engine == EngineSQLite {
		// a single writer avoids "database is locked" errors
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Ping waits for the database to be ready. Waits 100ms longer between each attempt.
func Ping(ctx context.Context, db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

// SetupMigrations points goose at the embedded migrations for the driver's dialect.
func SetupMigrations(driverName string) error {
	dialect := "postgres"
	if driverName == EngineSQLite {
		dialect = "sqlite3"
	}
	goose.SetBaseFS(appfs.FS)
	return errors.Wrap(goose.SetDialect(dialect), "setting migrations dialect")
}

// Migrate applies all pending migrations.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if err := SetupMigrations(db.DriverName()); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, MigrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
