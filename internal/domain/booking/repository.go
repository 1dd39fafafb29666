package booking

import (
	"context"

	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成し、生成されたIDと作成日時を設定する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, booking *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// GetByUserID はユーザーIDから予約一覧を新しい順に取得する
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Booking, error)
}
