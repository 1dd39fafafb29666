package show

import (
	"context"

	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/transaction"
)

// Repository は上映リポジトリのインターフェース
type Repository interface {
	// Create は新しい上映を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, show *Show) error

	// GetByID はIDから上映を取得する
	GetByID(ctx context.Context, id string) (*Show, error)

	// GetByIDTx はトランザクション内で上映を取得する
	GetByIDTx(ctx context.Context, tx transaction.Tx, id string) (*Show, error)
}
