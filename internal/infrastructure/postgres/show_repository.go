package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/show"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/transaction"
)

const showColumns = `id, movie_id, show_date, to_char(show_time, 'HH24:MI') AS show_time, price, created_at`

type showRow struct {
	ID        string    `db:"id"`
	MovieID   string    `db:"movie_id"`
	ShowDate  time.Time `db:"show_date"`
	ShowTime  string    `db:"show_time"`
	Price     int       `db:"price"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *showRow) toEntity() *show.Show {
	return &show.Show{
		ID:        r.ID,
		MovieID:   r.MovieID,
		Date:      r.ShowDate,
		Time:      r.ShowTime,
		Price:     r.Price,
		CreatedAt: r.CreatedAt,
	}
}

// ShowRepository は show.Repository のPostgreSQL実装
type ShowRepository struct {
	gw *Gateway
}

func NewShowRepository(gw *Gateway) *ShowRepository {
	return &ShowRepository{gw: gw}
}

func (r *ShowRepository) Create(ctx context.Context, tx transaction.Tx, s *show.Show) error {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	query := `INSERT INTO shows (movie_id, show_date, show_time, price, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := sqlxTx.QueryRowxContext(ctx, query,
		s.MovieID, s.Date.Format("2006-01-02"), s.Time, s.Price, s.CreatedAt,
	).Scan(&s.ID); err != nil {
		return persistenceError("上映作成", err)
	}
	return nil
}

func (r *ShowRepository) GetByID(ctx context.Context, id string) (*show.Show, error) {
	var s *show.Show
	err := r.gw.read(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var err error
		s, err = r.get(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *ShowRepository) GetByIDTx(ctx context.Context, tx transaction.Tx, id string) (*show.Show, error) {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, sqlxTx, id)
}

func (r *ShowRepository) get(ctx context.Context, q sqlx.QueryerContext, id string) (*show.Show, error) {
	var row showRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT `+showColumns+` FROM shows WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidUUID(err) {
			return nil, show.ErrShowNotFound
		}
		return nil, persistenceError("上映取得", err)
	}
	return row.toEntity(), nil
}
