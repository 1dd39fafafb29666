package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/show"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-movie-seat-booking/internal/pkg/logger"
)

// ShowService は上映と座席在庫を作成する
type ShowService struct {
	gateway  transaction.Gateway
	showRepo show.Repository
	seatRepo seat.Repository
}

func NewShowService(gw transaction.Gateway, shr show.Repository, sr seat.Repository) *ShowService {
	return &ShowService{gateway: gw, showRepo: shr, seatRepo: sr}
}

// SeatInput は座席ごとの価格指定（Price が nil なら上映価格）
type SeatInput struct {
	Label string
	Price *int
}

// ScheduleShowInput は上映作成の入力
// Seats を指定しない場合は Rows × SeatsPerRow で座席を生成する
type ScheduleShowInput struct {
	MovieID     string
	Date        time.Time
	Time        string
	Price       int
	Seats       []SeatInput
	Rows        int
	SeatsPerRow int
}

// ScheduleShow は上映と全座席を1つのトランザクションで作成する
func (s *ShowService) ScheduleShow(ctx context.Context, input ScheduleShowInput) (*show.Show, []*seat.Seat, error) {
	sh := show.NewShow(input.MovieID, input.Date, input.Time, input.Price)
	if err := sh.Validate(); err != nil {
		return nil, nil, err
	}

	seatInputs, err := planSeats(input)
	if err != nil {
		return nil, nil, err
	}

	var seats []*seat.Seat
	err = s.gateway.WithTransaction(ctx, func(ctx context.Context, tx transaction.Tx) error {
		if err := s.showRepo.Create(ctx, tx, sh); err != nil {
			return err
		}
		seats = make([]*seat.Seat, 0, len(seatInputs))
		for _, in := range seatInputs {
			seats = append(seats, seat.NewSeat(sh.ID, in.Label, in.Price))
		}
		return s.seatRepo.CreateBulk(ctx, tx, seats)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("上映作成に失敗: %w", err)
	}

	logger.Info("上映を作成しました",
		logger.ShowID(sh.ID),
		zap.String("movie_id", sh.MovieID),
		zap.Int("seats", len(seats)),
	)
	return sh, seats, nil
}

// GetShow は上映を取得する
func (s *ShowService) GetShow(ctx context.Context, id string) (*show.Show, error) {
	return s.showRepo.GetByID(ctx, id)
}

// planSeats は作成する座席を決め、ストレージに触れる前に検証する
func planSeats(input ScheduleShowInput) ([]SeatInput, error) {
	planned := input.Seats
	if len(planned) == 0 {
		if input.Rows == 0 && input.SeatsPerRow == 0 {
			return nil, seat.ErrNoSeats
		}
		labels, err := seat.GenerateLabels(input.Rows, input.SeatsPerRow)
		if err != nil {
			return nil, err
		}
		planned = make([]SeatInput, 0, len(labels))
		for _, l := range labels {
			planned = append(planned, SeatInput{Label: l})
		}
	}

	seen := make(map[string]struct{}, len(planned))
	for _, p := range planned {
		if err := seat.ValidateLabel(p.Label); err != nil {
			return nil, err
		}
		if p.Price != nil && *p.Price < 0 {
			return nil, seat.ErrInvalidPrice
		}
		if _, ok := seen[p.Label]; ok {
			return nil, seat.ErrDuplicateLabel
		}
		seen[p.Label] = struct{}{}
	}
	return planned, nil
}
