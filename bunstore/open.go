package bunstore

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"

	"github.com/Alp4ka/gostore"
)

// Open connects to the database described by cfg. With cfg.Debug every query
// is printed by bundebug.
func Open(cfg gostore.Config) (*bun.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		driverName string
		dialect    schema.Dialect
	)

	switch cfg.Driver {
	case gostore.DriverMySQL:
		driverName, dialect = "mysql", mysqldialect.New()
	case gostore.DriverPostgres:
		driverName, dialect = "postgres", pgdialect.New()
	case gostore.DriverSQLite:
		driverName, dialect = sqliteshim.ShimName, sqlitedialect.New()
	default:
		return nil, fmt.Errorf("%w: unsupported driver '%s'", gostore.ErrInvalidArgument, cfg.Driver)
	}

	sqlDB, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	gostore.ConfigurePool(sqlDB, cfg)

	db := bun.NewDB(sqlDB, dialect)

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}

	return db, nil
}
