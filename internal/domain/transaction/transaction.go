package transaction

import "context"

// Tx はトランザクションを表すインターフェース
// ドメイン層がインフラ層（sqlx等）に依存しないようにするための抽象化
type Tx interface {
	// Commit はトランザクションをコミットする
	Commit() error
	// Rollback はトランザクションをロールバックする
	Rollback() error
}

// Work は1つのトランザクション内で実行される処理
// エラーを返すとトランザクション全体がロールバックされる
type Work func(ctx context.Context, tx Tx) error

// Gateway はストレージへの唯一の入口
// WithTransaction は work を1つのアトミックな単位で実行し、
// 成功時はコミット、失敗・パニック時はロールバックしてから結果を返す。
// 接続はどの経路でも必ず解放される。
type Gateway interface {
	WithTransaction(ctx context.Context, work Work) error
}
