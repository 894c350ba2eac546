package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"

	"NewsRelay/internal/ports"
)

// Backend is a ledger owning a connection.
type Backend interface {
	ports.Ledger
	Close() error
}

// ErrUnsupportedDSN is returned for connection strings with an unknown scheme.
var ErrUnsupportedDSN = errors.New("unsupported ledger connection string")

// Open connects to the ledger named by dsn and makes sure it is usable:
//
//	postgres://... or postgresql://...  Postgres
//	sqlite://path or file:path          SQLite
//	redis://... or rediss://...         Redis hash
func Open(ctx context.Context, dsn string) (Backend, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return openSQL(ctx, "postgres", dsn)
	case strings.HasPrefix(dsn, "sqlite://"):
		return openSQL(ctx, "sqlite3", strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "file:"):
		return openSQL(ctx, "sqlite3", dsn)
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return openRedis(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDSN, schemeOf(dsn))
	}
}

func openSQL(ctx context.Context, driver, dsn string) (Backend, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}

	ledger := NewSQLLedger(db)
	if err := ledger.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return ledger, nil
}

func openRedis(ctx context.Context, dsn string) (Backend, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisLedger(client, ""), nil
}

// schemeOf keeps credentials out of error messages.
func schemeOf(dsn string) string {
	if i := strings.Index(dsn, "://"); i >= 0 {
		return dsn[:i]
	}
	if i := strings.Index(dsn, ":"); i >= 0 {
		return dsn[:i]
	}
	return dsn
}
