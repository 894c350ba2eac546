package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLedger(t *testing.T, driver string) (*SQLLedger, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ledger := NewSQLLedger(sqlx.NewDb(db, driver))
	ledger.now = func() time.Time { return time.Date(2020, 3, 12, 10, 0, 0, 0, time.UTC) }
	return ledger, mock
}

func TestSQLLedgerEnsureSchema(t *testing.T) {
	ledger, mock := newMockLedger(t, "postgres")

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS news")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, ledger.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLLedgerHas(t *testing.T) {
	ledger, mock := newMockLedger(t, "postgres")
	lookup := `SELECT 1 FROM news WHERE news_id = \$1 LIMIT 1`

	mock.ExpectQuery(lookup).
		WithArgs("c_1125692817").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(lookup).
		WithArgs("c_unknown").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	ok, err := ledger.Has(context.Background(), "c_1125692817")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.Has(context.Background(), "c_unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLLedgerHasPropagatesErrors(t *testing.T) {
	ledger, mock := newMockLedger(t, "postgres")

	mock.ExpectQuery(`SELECT 1 FROM news`).
		WillReturnError(errors.New("connection reset"))

	_, err := ledger.Has(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestSQLLedgerRecordIgnoresDuplicates(t *testing.T) {
	ledger, mock := newMockLedger(t, "postgres")
	insert := `INSERT INTO news \(news_id,time\) VALUES \(\$1,\$2\) ON CONFLICT \(news_id\) DO NOTHING`
	stamp := time.Date(2020, 3, 12, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(insert).WithArgs("abc", stamp).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insert).WithArgs("abc", stamp).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, ledger.Record(context.Background(), "abc"))
	require.NoError(t, ledger.Record(context.Background(), "abc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLLedgerSQLitePlaceholders(t *testing.T) {
	ledger, mock := newMockLedger(t, "sqlite3")

	mock.ExpectQuery(`SELECT 1 FROM news WHERE news_id = \? LIMIT 1`).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectExec(`INSERT INTO news \(news_id,time\) VALUES \(\?,\?\)`).
		WithArgs("abc", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	ok, err := ledger.Has(context.Background(), "abc")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, ledger.Record(context.Background(), "abc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
