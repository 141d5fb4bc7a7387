package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/pdfplucker/internal/common"
)

// Open connects to the configured ledger database and migrates its tables.
// An empty DSN yields a Nop ledger. postgres:// DSNs go through a pgx pool;
// anything else is treated as a SQLite file or URI.
func Open(ctx context.Context, cfg common.LedgerConfig, logger *slog.Logger) (Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return Nop{}, nil
	}

	var (
		drv  *entsql.Driver
		pool *pgxpool.Pool
		err  error
	)
	if isPostgres(dsn) {
		drv, pool, err = openPostgres(ctx, cfg, logger)
	} else {
		drv, err = openSQLite(dsn, logger)
	}
	if err != nil {
		return nil, common.NewAppError(common.CodeIO, "open ledger", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}

	m, err := schema.NewMigrate(drv)
	if err == nil {
		err = m.Create(ctx, Tables...)
	}
	if err != nil {
		_ = drv.Close()
		if pool != nil {
			pool.Close()
		}
		logger.Error("ledger.migrate.failed", "error", err)
		return nil, common.NewAppError(common.CodeIO, "migrate ledger", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}

	logger.Info("ledger.ready", "dialect", drv.Dialect())
	return &SQLLedger{drv: drv, pool: pool, logger: logger}, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// openPostgres creates a pgx pool and wraps it for ent.
func openPostgres(ctx context.Context, cfg common.LedgerConfig, logger *slog.Logger) (*entsql.Driver, *pgxpool.Pool, error) {
	logger.Info("connecting to ledger database", "dialect", dialect.Postgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "pdfplucker"

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	// Wrap pool as *sql.DB for ent
	db := stdlib.OpenDBFromPool(pool)
	return entsql.OpenDB(dialect.Postgres, db), pool, nil
}

func openSQLite(dsn string, logger *slog.Logger) (*entsql.Driver, error) {
	dsn = sqliteDSN(dsn)
	logger.Info("opening ledger database", "dialect", dialect.SQLite, "dsn", dsn)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Outcomes are written from one goroutine; a single connection avoids
	// SQLITE_BUSY between the writer and history reads.
	db.SetMaxOpenConns(1)
	return entsql.OpenDB(dialect.SQLite, db), nil
}

// sqliteDSN turns a path into a file: URI with foreign keys enabled, which
// ent's SQLite migrator requires.
func sqliteDSN(dsn string) string {
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}
