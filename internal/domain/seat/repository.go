package seat

import (
	"context"
	"time"

	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/transaction"
)

// Repository は座席リポジトリのインターフェース
type Repository interface {
	// CreateBulk は複数の座席を一括作成する（トランザクション必須）
	CreateBulk(ctx context.Context, tx transaction.Tx, seats []*Seat) error

	// GetByShowID は上映の座席一覧をラベル昇順で取得する
	GetByShowID(ctx context.Context, showID string) ([]*Seat, error)

	// ListAvailableLabels は空席のラベルを昇順で取得する
	ListAvailableLabels(ctx context.Context, showID string) ([]string, error)

	// CountAvailable は空席数を取得する
	CountAvailable(ctx context.Context, showID string) (int, error)

	// GetLabelsByBookingID は予約が確保した座席ラベルを昇順で取得する
	GetLabelsByBookingID(ctx context.Context, bookingID string) ([]string, error)

	// LockByLabels は指定ラベルの座席をラベル順に行ロックして取得する（トランザクション必須）
	LockByLabels(ctx context.Context, tx transaction.Tx, showID string, labels []string) ([]*Seat, error)

	// MarkBooked は予約可能な座席だけを booked に更新し、更新できたラベルを返す（トランザクション必須）
	MarkBooked(ctx context.Context, tx transaction.Tx, showID, userID string, labels []string, bookingID string) ([]string, error)

	// Hold は空席を仮押さえし、仮押さえできたラベルを返す（トランザクション必須）
	Hold(ctx context.Context, tx transaction.Tx, showID, userID string, labels []string, until time.Time) ([]string, error)

	// ReleaseHold はユーザー自身の仮押さえを解放し、解放数を返す（トランザクション必須）
	ReleaseHold(ctx context.Context, tx transaction.Tx, showID, userID string, labels []string) (int, error)

	// ReleaseExpiredHolds は期限切れの仮押さえを解放し、影響した上映IDごとの解放数を返す
	ReleaseExpiredHolds(ctx context.Context) (map[string]int, error)
}
