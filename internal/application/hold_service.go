package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-movie-seat-booking/internal/config"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/show"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-movie-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-movie-seat-booking/internal/pkg/metrics"
)

const defaultHoldTTL = 10 * time.Minute

// HoldService は座席の仮押さえを管理する
type HoldService struct {
	gateway  transaction.Gateway
	showRepo show.Repository
	seatRepo seat.Repository
	seats    *SeatService
	locker   SeatLocker
	holdTTL  time.Duration
	lockTTL  time.Duration
	now      func() time.Time
}

// NewHoldService は新しい HoldService を作成する
func NewHoldService(
	gw transaction.Gateway,
	shr show.Repository,
	sr seat.Repository,
	seats *SeatService,
	locker SeatLocker,
	cfg config.BookingConfig,
) *HoldService {
	holdTTL := cfg.HoldTTL
	if holdTTL <= 0 {
		holdTTL = defaultHoldTTL
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &HoldService{
		gateway:  gw,
		showRepo: shr,
		seatRepo: sr,
		seats:    seats,
		locker:   locker,
		holdTTL:  holdTTL,
		lockTTL:  lockTTL,
		now:      time.Now,
	}
}

// HoldInput は仮押さえの入力
type HoldInput struct {
	ShowID     string
	UserID     string
	SeatLabels []string
}

// Hold は指定座席をまとめて仮押さえする
// 本人の仮押さえは期限が延長される
func (s *HoldService) Hold(ctx context.Context, input HoldInput) (*seat.Hold, error) {
	if err := validateSeatRequest(input.ShowID, input.UserID, input.SeatLabels); err != nil {
		return nil, err
	}
	labels := seat.SortedLabels(input.SeatLabels)

	unlock := acquireShowLock(ctx, s.locker, input.ShowID, s.lockTTL)
	defer unlock()

	expiresAt := s.now().Add(s.holdTTL)
	err := s.gateway.WithTransaction(ctx, func(ctx context.Context, tx transaction.Tx) error {
		sh, err := s.showRepo.GetByIDTx(ctx, tx, input.ShowID)
		if err != nil {
			return err
		}
		held, err := s.seatRepo.Hold(ctx, tx, sh.ID, input.UserID, labels, expiresAt)
		if err != nil {
			return err
		}
		if len(held) != len(labels) {
			return booking.NewSeatUnavailableError(seat.Difference(labels, held))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("座席を仮押さえしました",
		logger.ShowID(input.ShowID),
		logger.UserID(input.UserID),
		logger.Seats(labels),
		zap.Time("expires_at", expiresAt),
	)
	s.invalidate(ctx, input.ShowID)

	return &seat.Hold{
		ShowID:     input.ShowID,
		UserID:     input.UserID,
		SeatLabels: labels,
		ExpiresAt:  expiresAt,
	}, nil
}

// ReleaseHold はユーザー自身の仮押さえを解放し、解放数を返す
// 上映が存在しない場合は show.ErrShowNotFound を返す
func (s *HoldService) ReleaseHold(ctx context.Context, showID, userID string, labels []string) (int, error) {
	if err := validateSeatRequest(showID, userID, labels); err != nil {
		return 0, err
	}

	var released int
	err := s.gateway.WithTransaction(ctx, func(ctx context.Context, tx transaction.Tx) error {
		sh, err := s.showRepo.GetByIDTx(ctx, tx, showID)
		if err != nil {
			return err
		}
		n, err := s.seatRepo.ReleaseHold(ctx, tx, sh.ID, userID, seat.SortedLabels(labels))
		if err != nil {
			return err
		}
		released = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("仮押さえ解放に失敗: %w", err)
	}

	if released > 0 {
		s.invalidate(ctx, showID)
	}
	return released, nil
}

// ReleaseExpiredHolds は期限切れの仮押さえをすべて解放し、解放数を返す
func (s *HoldService) ReleaseExpiredHolds(ctx context.Context) (int, error) {
	released, err := s.seatRepo.ReleaseExpiredHolds(ctx)
	if err != nil {
		return 0, fmt.Errorf("期限切れ仮押さえの解放に失敗: %w", err)
	}

	showIDs := make([]string, 0, len(released))
	total := 0
	for showID, n := range released {
		showIDs = append(showIDs, showID)
		total += n
	}
	sort.Strings(showIDs)
	for _, showID := range showIDs {
		s.invalidate(ctx, showID)
	}

	metrics.Get().ObserveHoldsReleased(total)
	return total, nil
}

func (s *HoldService) invalidate(ctx context.Context, showID string) {
	if s.seats != nil {
		s.seats.InvalidateCache(ctx, showID)
	}
}
