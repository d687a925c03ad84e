package server

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/lexand-dev/vid-skool/internal/adapter/db"
	"github.com/lexand-dev/vid-skool/internal/config"
)

// OpenDatabase connects to the configured database without touching the schema.
func OpenDatabase(cfg config.Config) (*entsql.Driver, error) {
	var driverName, entDialect, dsn string
	switch cfg.Database.Driver {
	case "postgres":
		driverName, entDialect, dsn = "postgres", dialect.Postgres, cfg.Database.URL
	case "sqlite":
		driverName, entDialect, dsn = "sqlite", dialect.SQLite, sqliteDSN(cfg.Database.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	conn, err := stdsql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if entDialect == dialect.SQLite {
		conn.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return entsql.OpenDB(entDialect, conn), nil
}

// NewDatabase opens the database and migrates the schema. The returned
// cleanup closes the driver.
func NewDatabase(cfg config.Config, logger zerolog.Logger) (*entsql.Driver, func(), error) {
	drv, err := OpenDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := db.Migrate(context.Background(), drv); err != nil {
		_ = drv.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := drv.Close(); err != nil {
			logger.Warn().Err(err).Msg("close database")
		}
	}
	return drv, cleanup, nil
}

// sqliteDSN turns on foreign keys, which the schema migration requires.
func sqliteDSN(url string) string {
	if strings.Contains(url, "foreign_keys") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_pragma=foreign_keys(1)"
}
