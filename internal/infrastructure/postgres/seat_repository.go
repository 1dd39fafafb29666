package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/transaction"
)

const seatColumns = `id, show_id, label, status, price, booking_id, held_by, held_until, created_at, updated_at`

// claimableCondition は $userParam のユーザーが予約・仮押さえできる座席の条件
// 空席、本人の仮押さえ、期限切れの仮押さえのいずれか
func claimableCondition(userParam int) string {
	return fmt.Sprintf(`(status = 'available' OR (status = 'held' AND (held_by = $%d OR held_until < NOW())))`, userParam)
}

type seatRow struct {
	ID        string     `db:"id"`
	ShowID    string     `db:"show_id"`
	Label     string     `db:"label"`
	Status    string     `db:"status"`
	Price     *int       `db:"price"`
	BookingID *string    `db:"booking_id"`
	HeldBy    *string    `db:"held_by"`
	HeldUntil *time.Time `db:"held_until"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func (r *seatRow) toEntity() *seat.Seat {
	return &seat.Seat{
		ID:        r.ID,
		ShowID:    r.ShowID,
		Label:     r.Label,
		Status:    seat.Status(r.Status),
		Price:     r.Price,
		BookingID: r.BookingID,
		HeldBy:    r.HeldBy,
		HeldUntil: r.HeldUntil,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toSeats(rows []seatRow) []*seat.Seat {
	seats := make([]*seat.Seat, len(rows))
	for i := range rows {
		seats[i] = rows[i].toEntity()
	}
	return seats
}

// SeatRepository は seat.Repository のPostgreSQL実装
type SeatRepository struct {
	gw *Gateway
}

// NewSeatRepository はトランザクション外の読み取りと期限切れ解放を gw 経由で実行する
func NewSeatRepository(gw *Gateway) *SeatRepository {
	return &SeatRepository{gw: gw}
}

func (r *SeatRepository) CreateBulk(ctx context.Context, tx transaction.Tx, seats []*seat.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}

	// バッチサイズごとに分割してマルチバリューINSERTを実行
	const batchSize = 1000
	for i := 0; i < len(seats); i += batchSize {
		end := i + batchSize
		if end > len(seats) {
			end = len(seats)
		}
		if err := r.createBulkBatch(ctx, sqlxTx, seats[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// createBulkBatch はバッチ単位でマルチバリューINSERTを実行し、生成IDを設定する
func (r *SeatRepository) createBulkBatch(ctx context.Context, tx *sqlx.Tx, seats []*seat.Seat) error {
	const cols = 6
	args := make([]interface{}, 0, len(seats)*cols)
	placeholders := make([]string, 0, len(seats))

	for i, s := range seats {
		base := i * cols
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, s.ShowID, s.Label, string(s.Status), s.Price, s.CreatedAt, s.UpdatedAt)
	}

	query := `INSERT INTO seats (show_id, label, status, price, created_at, updated_at) VALUES ` +
		strings.Join(placeholders, ", ") + ` RETURNING id, label`

	rows, err := tx.QueryxContext(ctx, query, args...)
	if err != nil {
		return persistenceError("座席一括作成", err)
	}
	defer rows.Close()

	ids := make(map[string]string, len(seats))
	for rows.Next() {
		var id, label string
		if err := rows.Scan(&id, &label); err != nil {
			return persistenceError("座席一括作成", err)
		}
		ids[label] = id
	}
	if err := rows.Err(); err != nil {
		return persistenceError("座席一括作成", err)
	}
	for _, s := range seats {
		s.ID = ids[s.Label]
	}
	return nil
}

func (r *SeatRepository) GetByShowID(ctx context.Context, showID string) ([]*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE show_id = $1 ORDER BY label COLLATE "C"`
	var rows []seatRow
	err := r.gw.read(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &rows, query, showID)
	})
	if err != nil {
		return nil, persistenceError("座席一覧取得", err)
	}
	return toSeats(rows), nil
}

func (r *SeatRepository) ListAvailableLabels(ctx context.Context, showID string) ([]string, error) {
	query := `SELECT label FROM seats WHERE show_id = $1 AND status = 'available' ORDER BY label COLLATE "C"`
	labels := []string{}
	err := r.gw.read(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &labels, query, showID)
	})
	if err != nil {
		return nil, persistenceError("空席一覧取得", err)
	}
	return labels, nil
}

func (r *SeatRepository) CountAvailable(ctx context.Context, showID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM seats WHERE show_id = $1 AND status = 'available'`
	err := r.gw.read(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &count, query, showID)
	})
	if err != nil {
		return 0, persistenceError("空席数取得", err)
	}
	return count, nil
}

func (r *SeatRepository) GetLabelsByBookingID(ctx context.Context, bookingID string) ([]string, error) {
	query := `SELECT label FROM seats WHERE booking_id = $1 ORDER BY label COLLATE "C"`
	labels := []string{}
	err := r.gw.read(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &labels, query, bookingID)
	})
	if err != nil {
		return nil, persistenceError("予約座席取得", err)
	}
	return labels, nil
}

// LockByLabels はラベル順に行ロックを取るため、重なる要求同士でデッドロックしない
func (r *SeatRepository) LockByLabels(ctx context.Context, tx transaction.Tx, showID string, labels []string) ([]*seat.Seat, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + seatColumns + ` FROM seats
		WHERE show_id = $1 AND label = ANY($2)
		ORDER BY label COLLATE "C"
		FOR UPDATE`
	var rows []seatRow
	if err := sqlxTx.SelectContext(ctx, &rows, query, showID, pq.Array(labels)); err != nil {
		return nil, persistenceError("座席ロック", err)
	}
	return toSeats(rows), nil
}

func (r *SeatRepository) MarkBooked(ctx context.Context, tx transaction.Tx, showID, userID string, labels []string, bookingID string) ([]string, error) {
	if len(labels) == 0 {
		return []string{}, nil
	}
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	query := `UPDATE seats
		SET status = 'booked', booking_id = $3, held_by = NULL, held_until = NULL, updated_at = NOW()
		WHERE show_id = $1 AND label = ANY($2) AND ` + claimableCondition(4) + `
		RETURNING label`
	updated := []string{}
	if err := sqlxTx.SelectContext(ctx, &updated, query, showID, pq.Array(labels), bookingID, userID); err != nil {
		return nil, persistenceError("座席確定", err)
	}
	return updated, nil
}

func (r *SeatRepository) Hold(ctx context.Context, tx transaction.Tx, showID, userID string, labels []string, until time.Time) ([]string, error) {
	if len(labels) == 0 {
		return []string{}, nil
	}
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	query := `UPDATE seats
		SET status = 'held', held_by = $3, held_until = $4, updated_at = NOW()
		WHERE show_id = $1 AND label = ANY($2) AND ` + claimableCondition(3) + `
		RETURNING label`
	held := []string{}
	if err := sqlxTx.SelectContext(ctx, &held, query, showID, pq.Array(labels), userID, until); err != nil {
		return nil, persistenceError("座席仮押さえ", err)
	}
	return held, nil
}

func (r *SeatRepository) ReleaseHold(ctx context.Context, tx transaction.Tx, showID, userID string, labels []string) (int, error) {
	if len(labels) == 0 {
		return 0, nil
	}
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return 0, err
	}
	query := `UPDATE seats
		SET status = 'available', held_by = NULL, held_until = NULL, updated_at = NOW()
		WHERE show_id = $1 AND label = ANY($2) AND status = 'held' AND held_by = $3`
	result, err := sqlxTx.ExecContext(ctx, query, showID, pq.Array(labels), userID)
	if err != nil {
		return 0, persistenceError("仮押さえ解放", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, persistenceError("仮押さえ解放", err)
	}
	return int(n), nil
}

func (r *SeatRepository) ReleaseExpiredHolds(ctx context.Context) (map[string]int, error) {
	query := `UPDATE seats
		SET status = 'available', held_by = NULL, held_until = NULL, updated_at = NOW()
		WHERE status = 'held' AND held_until < NOW()
		RETURNING show_id`
	var showIDs []string
	err := r.gw.write(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &showIDs, query)
	})
	if err != nil {
		return nil, persistenceError("期限切れ仮押さえ解放", err)
	}
	released := make(map[string]int)
	for _, id := range showIDs {
		released[id]++
	}
	return released, nil
}
