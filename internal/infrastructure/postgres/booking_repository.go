package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/transaction"
)

// 座席ラベルは seats.booking_id から集約する
const bookingSelect = `SELECT b.id, b.user_id, b.show_id, b.total_amount, b.status, b.created_at,
		COALESCE(array_agg(s.label ORDER BY s.label COLLATE "C") FILTER (WHERE s.label IS NOT NULL), '{}') AS seat_labels
	FROM bookings b
	LEFT JOIN seats s ON s.booking_id = b.id`

type bookingRow struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	ShowID      string         `db:"show_id"`
	TotalAmount int            `db:"total_amount"`
	Status      string         `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
	SeatLabels  pq.StringArray `db:"seat_labels"`
}

func (r *bookingRow) toEntity() *booking.Booking {
	labels := []string(r.SeatLabels)
	if labels == nil {
		labels = []string{}
	}
	return &booking.Booking{
		ID:          r.ID,
		ShowID:      r.ShowID,
		UserID:      r.UserID,
		SeatLabels:  labels,
		TotalAmount: r.TotalAmount,
		Status:      booking.Status(r.Status),
		CreatedAt:   r.CreatedAt,
	}
}

// BookingRepository は booking.Repository のPostgreSQL実装
type BookingRepository struct {
	gw *Gateway
}

func NewBookingRepository(gw *Gateway) *BookingRepository {
	return &BookingRepository{gw: gw}
}

// Create は予約行を挿入し、DBが採番したIDと作成日時を b に設定する
func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	query := `INSERT INTO bookings (user_id, show_id, total_amount, status)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	if err := sqlxTx.QueryRowxContext(ctx, query,
		b.UserID, b.ShowID, b.TotalAmount, string(b.Status),
	).Scan(&b.ID, &b.CreatedAt); err != nil {
		return persistenceError("予約作成", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	query := bookingSelect + ` WHERE b.id = $1 GROUP BY b.id`
	var row bookingRow
	err := r.gw.read(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &row, query, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidUUID(err) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, persistenceError("予約取得", err)
	}
	return row.toEntity(), nil
}

func (r *BookingRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	query := bookingSelect + ` WHERE b.user_id = $1 GROUP BY b.id ORDER BY b.created_at DESC LIMIT $2 OFFSET $3`
	var rows []bookingRow
	err := r.gw.read(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &rows, query, userID, limit, offset)
	})
	if err != nil {
		return nil, persistenceError("予約一覧取得", err)
	}
	bookings := make([]*booking.Booking, len(rows))
	for i := range rows {
		bookings[i] = rows[i].toEntity()
	}
	return bookings, nil
}
