// Package db opens the local article store and manages its schema.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	env "newsdesk/pkg/config"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const pingTimeout = 5 * time.Second

// ErrUnknownDriver is returned for a driver name other than sqlite or postgres.
var ErrUnknownDriver = errors.New("unknown store driver")

// Pool sizes the database/sql connection pool.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

func (p Pool) apply(db *sql.DB) {
	db.SetMaxOpenConns(p.MaxOpen)
	db.SetMaxIdleConns(p.MaxIdle)
	db.SetConnMaxLifetime(p.MaxLifetime)
	db.SetConnMaxIdleTime(p.MaxIdleTime)
}

// DefaultPool is the postgres pool before DB_* overrides.
func DefaultPool() Pool {
	return Pool{
		MaxOpen:     25,
		MaxIdle:     10,
		MaxLifetime: time.Hour,
		MaxIdleTime: 30 * time.Minute,
	}
}

// PoolFromEnv applies DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS, DB_CONN_MAX_LIFETIME
// and DB_CONN_MAX_IDLE_TIME to DefaultPool. Non-positive values are ignored.
func PoolFromEnv() Pool {
	p := DefaultPool()
	p.MaxOpen = env.Lookup("DB_MAX_OPEN_CONNS", p.MaxOpen, positive(strconv.Atoi))
	p.MaxIdle = env.Lookup("DB_MAX_IDLE_CONNS", p.MaxIdle, positive(strconv.Atoi))
	p.MaxLifetime = env.Lookup("DB_CONN_MAX_LIFETIME", p.MaxLifetime, positive(time.ParseDuration))
	p.MaxIdleTime = env.Lookup("DB_CONN_MAX_IDLE_TIME", p.MaxIdleTime, positive(time.ParseDuration))
	return p
}

func positive[T int | time.Duration](parse env.Parser[T]) env.Parser[T] {
	return func(s string) (T, error) {
		v, err := parse(s)
		if err == nil && v <= 0 {
			err = fmt.Errorf("%s is not positive", s)
		}
		return v, err
	}
}

// backend describes how one store driver is opened.
type backend struct {
	sqlName string
	pool    func() Pool
	// prepare runs once after the first successful ping.
	prepare func(ctx context.Context, db *sql.DB, dsn string) error
}

var backends = map[string]backend{
	// sqlite serializes every statement through one connection; an in-memory
	// database also lives only as long as that connection.
	DriverSQLite: {
		sqlName: "sqlite",
		pool:    func() Pool { return Pool{MaxOpen: 1, MaxIdle: 1} },
		prepare: sqlitePragmas,
	},
	DriverPostgres: {
		sqlName: "pgx",
		pool:    PoolFromEnv,
	},
}

// Open connects to the store and verifies it with a ping.
// For sqlite dsn is a file path or ":memory:"; for postgres it is a connection URL.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	be, ok := backends[driver]
	if !ok {
		return nil, fmt.Errorf("Open: %w: %q", ErrUnknownDriver, driver)
	}
	if dsn == "" {
		return nil, fmt.Errorf("Open: empty DSN for driver %q", driver)
	}

	db, err := sql.Open(be.sqlName, dsn)
	if err != nil {
		return nil, fmt.Errorf("Open: sql.Open: %w", err)
	}
	pool := be.pool()
	pool.apply(db)

	if err := ready(ctx, db, be, dsn); err != nil {
		_ = db.Close()
		return nil, err
	}

	slog.Info("store connected",
		slog.String("driver", driver),
		slog.Int("max_open_conns", pool.MaxOpen),
		slog.Int("max_idle_conns", pool.MaxIdle),
		slog.Duration("conn_max_lifetime", pool.MaxLifetime))
	return db, nil
}

func ready(ctx context.Context, db *sql.DB, be backend, dsn string) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("Open: ping: %w", err)
	}
	if be.prepare == nil {
		return nil
	}
	return be.prepare(ctx, db, dsn)
}

func sqlitePragmas(ctx context.Context, db *sql.DB, dsn string) error {
	pragmas := []string{
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA foreign_keys = ON`,
	}
	// WALはファイルDBのみ有効
	if dsn != ":memory:" {
		pragmas = append(pragmas, `PRAGMA journal_mode = WAL`)
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("Open: %s: %w", p, err)
		}
	}
	return nil
}
