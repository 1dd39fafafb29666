package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-movie-seat-booking/internal/pkg/logger"
)

// TxWrapper は sqlx.Tx を transaction.Tx インターフェースでラップする
type TxWrapper struct {
	*sqlx.Tx
}

// Commit はトランザクションをコミットする
func (t *TxWrapper) Commit() error {
	return t.Tx.Commit()
}

// Rollback はトランザクションをロールバックする
func (t *TxWrapper) Rollback() error {
	return t.Tx.Rollback()
}

// UnwrapTx は transaction.Tx から sqlx.Tx を取り出す
// リポジトリ実装で使用する
func UnwrapTx(tx transaction.Tx) (*sqlx.Tx, error) {
	if wrapper, ok := tx.(*TxWrapper); ok && wrapper.Tx != nil {
		return wrapper.Tx, nil
	}
	return nil, fmt.Errorf("postgres: 未対応のトランザクション型 %T", tx)
}

// GatewayOptions はトランザクションごとの時間制限
// 0 の項目は制限しない
type GatewayOptions struct {
	AcquireTimeout   time.Duration
	LockTimeout      time.Duration
	StatementTimeout time.Duration
}

// Gateway は sqlx.DB を使った transaction.Gateway の実装
type Gateway struct {
	db   *sqlx.DB
	opts GatewayOptions
}

// NewGateway は新しい Gateway を作成する
func NewGateway(db *sqlx.DB, opts GatewayOptions) *Gateway {
	return &Gateway{db: db, opts: opts}
}

// WithTransaction は work を1つのトランザクションで実行する
// work のエラーはロールバック後にそのまま返し、パニックはロールバック後に再送出する
func (g *Gateway) WithTransaction(ctx context.Context, work transaction.Work) error {
	return g.run(ctx, nil, func(ctx context.Context, tx *sqlx.Tx) error {
		return work(ctx, &TxWrapper{Tx: tx})
	})
}

// read は読み取り専用トランザクションで fn を実行する
// 接続取得とステートメントの時間制限は WithTransaction と同じ
func (g *Gateway) read(ctx context.Context, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	return g.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

// write はリポジトリ内部で完結する更新を1つのトランザクションで実行する
func (g *Gateway) write(ctx context.Context, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	return g.run(ctx, nil, fn)
}

func (g *Gateway) run(ctx context.Context, txOpts *sql.TxOptions, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	conn, err := g.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTxx(ctx, txOpts)
	if err != nil {
		return persistenceError("トランザクション開始", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := g.applyLimits(ctx, tx); err != nil {
		g.rollback(tx)
		return err
	}

	if err := fn(ctx, tx); err != nil {
		g.rollback(tx)
		return err
	}

	if err := tx.Commit(); err != nil {
		return persistenceError("コミット", err)
	}
	return nil
}

func (g *Gateway) acquire(ctx context.Context) (*sqlx.Conn, error) {
	acquireCtx := ctx
	if g.opts.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, g.opts.AcquireTimeout)
		defer cancel()
	}

	conn, err := g.db.Connx(acquireCtx)
	if err != nil {
		return nil, persistenceError("接続取得", err)
	}
	return conn, nil
}

// applyLimits はトランザクション内でのみ有効なタイムアウトを設定する
func (g *Gateway) applyLimits(ctx context.Context, tx *sqlx.Tx) error {
	if g.opts.LockTimeout > 0 {
		q := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", g.opts.LockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return persistenceError("lock_timeout設定", err)
		}
	}
	if g.opts.StatementTimeout > 0 {
		q := fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", g.opts.StatementTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return persistenceError("statement_timeout設定", err)
		}
	}
	return nil
}

func (g *Gateway) rollback(tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil {
		logger.Warn("ロールバックに失敗しました", zap.Error(err))
	}
}
