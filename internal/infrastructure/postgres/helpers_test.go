package postgres

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/transaction"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

// newTestGateway は時間制限なしの Gateway を作成する
// トランザクション外の読み取りは BEGIN と COMMIT に挟まれる
func newTestGateway(db *sqlx.DB) *Gateway {
	return NewGateway(db, GatewayOptions{})
}

// beginMockTx はリポジトリに渡すトランザクションを開始する
func beginMockTx(t *testing.T, db *sqlx.DB, mock sqlmock.Sqlmock) transaction.Tx {
	t.Helper()
	mock.ExpectBegin()
	tx, err := db.Beginx()
	require.NoError(t, err)
	return &TxWrapper{Tx: tx}
}

type foreignTx struct{}

func (foreignTx) Commit() error   { return nil }
func (foreignTx) Rollback() error { return nil }
