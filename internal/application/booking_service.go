package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-movie-seat-booking/internal/config"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/show"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-movie-seat-booking/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-movie-seat-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-movie-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-movie-seat-booking/internal/pkg/metrics"
)

const (
	defaultLockTTL   = 10 * time.Second
	lockMaxRetries   = 3
	lockRetryDelay   = 50 * time.Millisecond
	defaultListLimit = 20
	maxListLimit     = 100
	publishTimeout   = 3 * time.Second
)

// BookingService は座席予約トランザクションを実行する
type BookingService struct {
	gateway     transaction.Gateway
	showRepo    show.Repository
	seatRepo    seat.Repository
	bookingRepo booking.Repository
	seats       *SeatService
	locker      SeatLocker
	publisher   EventPublisher
	lockTTL     time.Duration
	now         func() time.Time
}

// NewBookingService は新しい BookingService を作成する
// locker と publisher は nil を許容する
func NewBookingService(
	gw transaction.Gateway,
	shr show.Repository,
	sr seat.Repository,
	br booking.Repository,
	seats *SeatService,
	locker SeatLocker,
	publisher EventPublisher,
	cfg config.BookingConfig,
) *BookingService {
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &BookingService{
		gateway:     gw,
		showRepo:    shr,
		seatRepo:    sr,
		bookingRepo: br,
		seats:       seats,
		locker:      locker,
		publisher:   publisher,
		lockTTL:     lockTTL,
		now:         time.Now,
	}
}

// ReserveInput は予約の入力
type ReserveInput struct {
	ShowID     string
	UserID     string
	SeatLabels []string
}

// Reserve は指定座席をまとめて予約する
// 全座席を確保できた場合のみ予約が作成され、それ以外は何も変更されない
func (s *BookingService) Reserve(ctx context.Context, input ReserveInput) (*booking.Booking, error) {
	if err := validateSeatRequest(input.ShowID, input.UserID, input.SeatLabels); err != nil {
		metrics.Get().ObserveBooking(metrics.BookingStatusInvalid, 0)
		return nil, err
	}
	labels := seat.SortedLabels(input.SeatLabels)

	unlock := acquireShowLock(ctx, s.locker, input.ShowID, s.lockTTL)
	defer unlock()

	var created *booking.Booking
	err := s.gateway.WithTransaction(ctx, func(ctx context.Context, tx transaction.Tx) error {
		sh, err := s.showRepo.GetByIDTx(ctx, tx, input.ShowID)
		if err != nil {
			return err
		}

		locked, err := s.seatRepo.LockByLabels(ctx, tx, sh.ID, labels)
		if err != nil {
			return err
		}
		total, err := claimTotal(locked, labels, input.UserID, sh.Price, s.now())
		if err != nil {
			return err
		}

		b := booking.NewBooking(sh.ID, input.UserID, labels, total)
		if err := s.bookingRepo.Create(ctx, tx, b); err != nil {
			return err
		}

		// 行ロック後でも条件付き更新の件数で最終確認する
		updated, err := s.seatRepo.MarkBooked(ctx, tx, sh.ID, input.UserID, labels, b.ID)
		if err != nil {
			return err
		}
		if len(updated) != len(labels) {
			return booking.NewSeatUnavailableError(seat.Difference(labels, updated))
		}

		created = b
		return nil
	})
	if err != nil {
		s.observeFailure(input, err)
		return nil, err
	}

	metrics.Get().ObserveBooking(metrics.BookingStatusSuccess, created.SeatCount())
	logger.Info("予約が確定しました",
		logger.BookingID(created.ID),
		logger.ShowID(created.ShowID),
		logger.UserID(created.UserID),
		logger.Seats(created.SeatLabels),
		zap.Int("total_amount", created.TotalAmount),
	)

	if s.seats != nil {
		s.seats.InvalidateCache(ctx, created.ShowID)
	}
	s.publishCreated(ctx, created)

	return created, nil
}

// GetBooking は予約を取得する
func (s *BookingService) GetBooking(ctx context.Context, id string) (*booking.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

// ListUserBookings はユーザーの予約を新しい順に返す
func (s *BookingService) ListUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	if userID == "" {
		return nil, booking.ErrUserIDRequired
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.bookingRepo.GetByUserID(ctx, userID, limit, offset)
}

func (s *BookingService) observeFailure(input ReserveInput, err error) {
	fields := []zap.Field{
		logger.ShowID(input.ShowID),
		logger.UserID(input.UserID),
		logger.Seats(input.SeatLabels),
		zap.Error(err),
	}

	switch {
	case errors.Is(err, booking.ErrSeatUnavailable):
		metrics.Get().ObserveBooking(metrics.BookingStatusSeatUnavailable, 0)
		logger.Info("座席を確保できませんでした", fields...)
	case errors.Is(err, show.ErrShowNotFound):
		metrics.Get().ObserveBooking(metrics.BookingStatusShowNotFound, 0)
		logger.Info("上映が見つかりません", fields...)
	default:
		metrics.Get().ObserveBooking(metrics.BookingStatusError, 0)
		if kind, ok := transaction.KindOf(err); ok {
			fields = append(fields, zap.String("kind", string(kind)), zap.Bool("retryable", transaction.IsRetryable(err)))
		}
		logger.Error("予約処理に失敗しました", fields...)
	}
}

// publishCreated はコミット後に予約イベントを配信する
// 配信の失敗は予約結果に影響しない
func (s *BookingService) publishCreated(ctx context.Context, b *booking.Booking) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := rabbitmq.BookingCreatedEvent{
		BookingID:   b.ID,
		ShowID:      b.ShowID,
		UserID:      b.UserID,
		SeatLabels:  b.SeatLabels,
		TotalAmount: b.TotalAmount,
		CreatedAt:   b.CreatedAt,
	}
	if err := s.publisher.PublishBookingCreated(pubCtx, event); err != nil {
		logger.Warn("予約イベントの配信に失敗しました", logger.BookingID(b.ID), zap.Error(err))
	}
}

// validateSeatRequest はストレージに触れずに検証できる入力を確認する
func validateSeatRequest(showID, userID string, labels []string) error {
	if err := booking.ValidateSelection(labels); err != nil {
		return err
	}
	if userID == "" {
		return booking.ErrUserIDRequired
	}
	if showID == "" {
		return booking.ErrShowIDRequired
	}
	return nil
}

// claimTotal はロック済みの座席がすべて userID に確保可能かを確認し、合計金額を返す
// 存在しないラベルも確保できない座席として扱う
func claimTotal(locked []*seat.Seat, labels []string, userID string, showPrice int, now time.Time) (int, error) {
	byLabel := make(map[string]*seat.Seat, len(locked))
	for _, se := range locked {
		byLabel[se.Label] = se
	}

	var total int
	var unavailable []string
	for _, l := range labels {
		se, ok := byLabel[l]
		if !ok || !se.IsClaimableBy(userID, now) {
			unavailable = append(unavailable, l)
			continue
		}
		total += se.EffectivePrice(showPrice)
	}
	if len(unavailable) > 0 {
		return 0, booking.NewSeatUnavailableError(unavailable)
	}
	return total, nil
}

// acquireShowLock は上映単位の分散ロックを取得し、解放関数を返す
// 取得できない場合もDBの行ロックで整合性は保たれるため処理を続ける
func acquireShowLock(ctx context.Context, locker SeatLocker, showID string, ttl time.Duration) func() {
	if locker == nil {
		return func() {}
	}

	start := time.Now()
	lock, err := locker.AcquireLockWithRetry(ctx, redisinfra.ShowLockKey(showID), ttl, lockMaxRetries, lockRetryDelay)
	metrics.Get().ObserveLock("acquire", err == nil, time.Since(start).Seconds())
	if err != nil {
		logger.Warn("分散ロックを取得できませんでした。DBのロックのみで続行します",
			logger.ShowID(showID), zap.Error(err))
		return func() {}
	}

	return func() {
		start := time.Now()
		err := lock.Release(context.WithoutCancel(ctx))
		metrics.Get().ObserveLock("release", err == nil, time.Since(start).Seconds())
		if err != nil {
			logger.Warn("分散ロックの解放に失敗しました", logger.ShowID(showID), zap.Error(err))
		}
	}
}

