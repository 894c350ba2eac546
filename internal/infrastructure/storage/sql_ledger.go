package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"NewsRelay/internal/ports"
)

const newsTable = "news"

const createNewsTable = `CREATE TABLE IF NOT EXISTS news (
	news_id TEXT PRIMARY KEY,
	time TIMESTAMP NOT NULL
)`

// SQLLedger stores delivered identities in the news table of a Postgres or
// SQLite database.
type SQLLedger struct {
	db      *sqlx.DB
	builder sq.StatementBuilderType
	now     func() time.Time
}

var _ ports.Ledger = (*SQLLedger)(nil)

// NewSQLLedger wraps an open handle. Placeholders follow the driver:
// $n for postgres, ? for everything else.
func NewSQLLedger(db *sqlx.DB) *SQLLedger {
	var format sq.PlaceholderFormat = sq.Question
	if db.DriverName() == "postgres" {
		format = sq.Dollar
	}
	return &SQLLedger{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// EnsureSchema creates the news table if it does not exist yet.
func (l *SQLLedger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, createNewsTable); err != nil {
		return fmt.Errorf("create news table: %w", err)
	}
	return nil
}

// Has reports whether id was recorded before.
func (l *SQLLedger) Has(ctx context.Context, id string) (bool, error) {
	query, args, err := l.builder.
		Select("1").
		From(newsTable).
		Where(sq.Eq{"news_id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build lookup: %w", err)
	}

	var one int
	if err := l.db.GetContext(ctx, &one, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup %s: %w", id, err)
	}
	return true, nil
}

// Record inserts id with the current UTC time. A duplicate is ignored.
func (l *SQLLedger) Record(ctx context.Context, id string) error {
	query, args, err := l.builder.
		Insert(newsTable).
		Columns("news_id", "time").
		Values(id, l.now()).
		Suffix("ON CONFLICT (news_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record %s: %w", id, err)
	}
	return nil
}

// Close releases the database handle.
func (l *SQLLedger) Close() error {
	return l.db.Close()
}
