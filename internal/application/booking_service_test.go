package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-movie-seat-booking/internal/config"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/show"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-movie-seat-booking/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-movie-seat-booking/internal/infrastructure/redis"
)

var fixedNow = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

type bookingFixture struct {
	gw          *MockGateway
	showRepo    *MockShowRepository
	seatRepo    *MockSeatRepository
	bookingRepo *MockBookingRepository
	locker      *MockLocker
	lock        *MockLock
	cache       *MockCache
	publisher   *MockPublisher
	svc         *BookingService
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		gw:          newMockGateway(),
		showRepo:    new(MockShowRepository),
		seatRepo:    new(MockSeatRepository),
		bookingRepo: new(MockBookingRepository),
		locker:      new(MockLocker),
		lock:        new(MockLock),
		cache:       new(MockCache),
		publisher:   new(MockPublisher),
	}
	seats := NewSeatService(f.seatRepo, f.showRepo, f.cache, time.Minute)
	f.svc = NewBookingService(f.gw, f.showRepo, f.seatRepo, f.bookingRepo, seats, f.locker, f.publisher,
		config.BookingConfig{LockTTL: 5 * time.Second})
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *bookingFixture) expectLock(showID string) {
	f.locker.On("AcquireLockWithRetry", mock.Anything, redisinfra.ShowLockKey(showID), 5*time.Second, lockMaxRetries, lockRetryDelay).
		Return(f.lock, nil).Once()
	f.lock.On("Release", mock.Anything).Return(nil).Once()
}

func (f *bookingFixture) expectCreate(id string) {
	f.bookingRepo.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*booking.Booking")).
		Run(func(args mock.Arguments) {
			args.Get(2).(*booking.Booking).ID = id
		}).
		Return(nil).Once()
}

func (f *bookingFixture) assertNoStorage(t *testing.T) {
	t.Helper()
	f.gw.AssertNotCalled(t, "WithTransaction", mock.Anything)
	f.locker.AssertNotCalled(t, "AcquireLockWithRetry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.seatRepo.AssertNotCalled(t, "LockByLabels", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.bookingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_Reserve(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 2席まとめて予約し合計金額を計算する", func(t *testing.T) {
		f := newBookingFixture()
		f.expectLock("show-1")
		f.gw.On("WithTransaction", mock.Anything).Return(nil).Once()
		f.showRepo.On("GetByIDTx", mock.Anything, mock.Anything, "show-1").Return(testShow("show-1", 250), nil)
		f.seatRepo.On("LockByLabels", mock.Anything, mock.Anything, "show-1", []string{"A1", "A2"}).
			Return([]*seat.Seat{availableSeat("show-1", "A1"), availableSeat("show-1", "A2")}, nil)
		f.expectCreate("booking-1")
		f.seatRepo.On("MarkBooked", mock.Anything, mock.Anything, "show-1", "user-1", []string{"A1", "A2"}, "booking-1").
			Return([]string{"A1", "A2"}, nil)
		f.cache.On("Invalidate", mock.Anything, "show-1").Return(nil).Once()
		f.publisher.On("PublishBookingCreated", mock.Anything, mock.MatchedBy(func(e rabbitmq.BookingCreatedEvent) bool {
			return e.BookingID == "booking-1" && e.TotalAmount == 500 && len(e.SeatLabels) == 2
		})).Return(nil).Once()

		b, err := f.svc.Reserve(ctx, ReserveInput{ShowID: "show-1", UserID: "user-1", SeatLabels: []string{"A2", "A1"}})

		require.NoError(t, err)
		assert.Equal(t, "booking-1", b.ID)
		assert.Equal(t, 500, b.TotalAmount)
		assert.Equal(t, []string{"A1", "A2"}, b.SeatLabels)
		assert.Equal(t, booking.StatusConfirmed, b.Status)
		f.gw.AssertExpectations(t)
		f.seatRepo.AssertExpectations(t)
		f.bookingRepo.AssertExpectations(t)
		f.lock.AssertExpectations(t)
		f.cache.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
	})

	t.Run("座席ごとの価格が上映価格より優先される", func(t *testing.T) {
		f := newBookingFixture()
		f.expectLock("show-1")
		f.gw.On("WithTransaction", mock.Anything).Return(nil).Once()
		f.showRepo.On("GetByIDTx", mock.Anything, mock.Anything, "show-1").Return(testShow("show-1", 250), nil)
		premium := availableSeat("show-1", "A1")
		premium.Price = intPtr(400)
		f.seatRepo.On("LockByLabels", mock.Anything, mock.Anything, "show-1", []string{"A1", "A2"}).
			Return([]*seat.Seat{premium, availableSeat("show-1", "A2")}, nil)
		f.expectCreate("booking-2")
		f.seatRepo.On("MarkBooked", mock.Anything, mock.Anything, "show-1", "user-1", []string{"A1", "A2"}, "booking-2").
			Return([]string{"A1", "A2"}, nil)
		f.cache.On("Invalidate", mock.Anything, "show-1").Return(nil)
		f.publisher.On("PublishBookingCreated", mock.Anything, mock.Anything).Return(nil)

		b, err := f.svc.Reserve(ctx, ReserveInput{ShowID: "show-1", UserID: "user-1", SeatLabels: []string{"A1", "A2"}})

		require.NoError(t, err)
		assert.Equal(t, 650, b.TotalAmount)
	})

	t.Run("本人の仮押さえと期限切れの仮押さえは予約できる", func(t *testing.T) {
		f := newBookingFixture()
		f.expectLock("show-1")
		f.gw.On("WithTransaction", mock.Anything).Return(nil).Once()
		f.showRepo.On("GetByIDTx", mock.Anything, mock.Anything, "show-1").Return(testShow("show-1", 100), nil)
		own := &seat.Seat{Label: "A1", Status: seat.StatusHeld, HeldBy: strPtr("user-1"), HeldUntil: timePtr(fixedNow.Add(time.Minute))}
		expired := &seat.Seat{Label: "A2", Status: seat.StatusHeld, HeldBy: strPtr("user-2"), HeldUntil: timePtr(fixedNow.Add(-time.Minute))}
		f.seatRepo.On("LockByLabels", mock.Anything, mock.Anything, "show-1", []string{"A1", "A2"}).
			Return([]*seat.Seat{own, expired}, nil)
		f.expectCreate("booking-3")
		f.seatRepo.On("MarkBooked", mock.Anything, mock.Anything, "show-1", "user-1", []string{"A1", "A2"}, "booking-3").
			Return([]string{"A1", "A2"}, nil)
		f.cache.On("Invalidate", mock.Anything, "show-1").Return(nil)
		f.publisher.On("PublishBookingCreated", mock.Anything, mock.Anything).Return(nil)

		b, err := f.svc.Reserve(ctx, ReserveInput{ShowID: "show-1", UserID: "user-1", SeatLabels: []string{"A1", "A2"}})

		require.NoError(t, err)
		assert.Equal(t, 200, b.TotalAmount)
	})

	t.Run("異常系: 座席未選択はストレージに触れない", func(t *testing.T) {
		f := newBookingFixture()

		b, err := f.svc.Reserve(ctx, ReserveInput{ShowID: "show-1", UserID: "user-1"})

		assert.Nil(t, b)
		assert.ErrorIs(t, err, booking.ErrEmptySelection)
		f.assertNoStorage(t)
	})

	t.Run("異常系: 重複した座席はストレージに触れない", func(t *testing.T) {
		f := newBookingFixture()

		_, err := f.svc.Reserve(ctx, ReserveInput{ShowID: "show-1", UserID: "user-1", SeatLabels: []string{"A1", "A1"}})

		assert.ErrorIs(t, err, booking.ErrDuplicateSeat)
		f.assertNoStorage(t)
	})

	t.Run("異常系: ユーザーID未指定", func(t *testing.T) {
		f := newBookingFixture()

		_, err := f.svc.Reserve(ctx, ReserveInput{ShowID: "show-1", SeatLabels: []string{"A1"}})

		assert.ErrorIs(t, err, booking.ErrUserIDRequired)
		f.assertNoStorage(t)
	})

	t.Run("異常系: 存在しない上映", func(t *testing.T) {
		f := newBookingFixture()
		f.expectLock("missing")
		f.gw.On("WithTransaction", mock.Anything).Return(nil).Once()
		f.showRepo.On("GetByIDTx", mock.Anything, mock.Anything, "missing").Return(nil, show.ErrShowNotFound)

		_, err := f.svc.Reserve(ctx, ReserveInput{ShowID: "missing", UserID: "user-1", SeatLabels: []string{"A1"}})

		assert.ErrorIs(t, err, show.ErrShowNotFound)
		f.seatRepo.AssertNotCalled(t, "LockByLabels", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.bookingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		f.publisher.AssertNotCalled(t, "PublishBookingCreated", mock.Anything, mock.Anything)
	})

	t.Run("異常系: 予約済みと他人の仮押さえは予約できない", func(t *testing.T) {
		f := newBookingFixture()
		f.expectLock("show-1")
		f.gw.On("WithTransaction", mock.Anything).Return(nil).Once()
		f.showRepo.On("GetByIDTx", mock.Anything, mock.Anything, "show-1").Return(testShow("show-1", 250), nil)
		booked := &seat.Seat{Label: "A2", Status: seat.StatusBooked, BookingID: strPtr("other")}
		held := &seat.Seat{Label: "A3", Status: seat.StatusHeld, HeldBy: strPtr("user-2"), HeldUntil: timePtr(fixedNow.Add(time.Minute))}
		f.seatRepo.On("LockByLabels", mock.Anything, mock.Anything, "show-1", []string{"A1", "A2", "A3"}).
			Return([]*seat.Seat{availableSeat("show-1", "A1"), booked, held}, nil)

		_, err := f.svc.Reserve(ctx, ReserveInput{ShowID: "show-1", UserID: "user-1", SeatLabels: []string{"A1", "A2", "A3"}})

		var unavailable *booking.SeatUnavailableError
		require.True(t, errors.As(err, &unavailable))
		assert.Equal(t, []string{"A2", "A3"}, unavailable.Seats)
		f.bookingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		f.cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	})

	t.Run("異常系: 存在しない座席ラベルは予約できない座席として返す", func(t *testing.T) {
		f := newBookingFixture()
		f.expectLock("show-1")
		f.gw.On("WithTransaction", mock.Anything).Return(nil).Once()
		f.showRepo.On("GetByIDTx", mock.Anything, mock.Anything, "show-1").Return(testShow("show-1", 250), nil)
		f.seatRepo.On("LockByLabels", mock.Anything, mock.Anything, "show-1", []string{"A1", "Z99"}).
			Return([]*seat.Seat{availableSeat("show-1", "A1")}, nil)

		_, err := f.svc.Reserve(ctx, ReserveInput{ShowID: "show-1", UserID: "user-1", SeatLabels: []string{"Z99", "A1"}})

		var unavailable *booking.SeatUnavailableError
		require.True(t, errors.As(err, &unavailable))
		assert.Equal(t, []string{"Z99"}, unavailable.Seats)
	})

	t.Run("異常系: 条件付き更新の件数が足りなければ競合として失敗する", func(t *testing.T) {
		f := newBookingFixture()
		f.expectLock("show-1")
		f.gw.On("WithTransaction", mock.Anything).Return(nil).Once()
		f.showRepo.On("GetByIDTx", mock.Anything, mock.Anything, "show-1").Return(testShow("show-1", 250), nil)
		f.seatRepo.On("LockByLabels", mock.Anything, mock.Anything, "show-1", []string{"A1", "A2"}).
			Return([]*seat.Seat{availableSeat("show-1", "A1"), availableSeat("show-1", "A2")}, nil)
		f.expectCreate("booking-4")
		f.seatRepo.On("MarkBooked", mock.Anything, mock.Anything, "show-1", "user-1", []string{"A1", "A2"}, "booking-4").
			Return([]string{"A1"}, nil)

		_, err := f.svc.Reserve(ctx, ReserveInput{ShowID: "show-1", UserID: "user-1", SeatLabels: []string{"A1", "A2"}})

		assert.ErrorIs(t, err, booking.ErrSeatUnavailable)
		var unavailable *booking.SeatUnavailableError
		require.True(t, errors.As(err, &unavailable))
		assert.Equal(t, []string{"A2"}, unavailable.Seats)
		f.publisher.AssertNotCalled(t, "PublishBookingCreated", mock.Anything, mock.Anything)
	})

	t.Run("異常系: 永続化エラーは分類を保ったまま返す", func(t *testing.T) {
		f := newBookingFixture()
		f.expectLock("show-1")
		f.gw.On("WithTransaction", mock.Anything).Return(nil).Once()
		f.showRepo.On("GetByIDTx", mock.Anything, mock.Anything, "show-1").Return(testShow("show-1", 250), nil)
		f.seatRepo.On("LockByLabels", mock.Anything, mock.Anything, "show-1", []string{"A1"}).
			Return(nil, transaction.NewPersistenceError(transaction.KindTimeout, "座席ロック", errors.New("lock timeout")))

		_, err := f.svc.Reserve(ctx, ReserveInput{ShowID: "show-1", UserID: "user-1", SeatLabels: []string{"A1"}})

		assert.ErrorIs(t, err, transaction.ErrPersistence)
		assert.True(t, transaction.IsRetryable(err))
		assert.False(t, errors.Is(err, booking.ErrSeatUnavailable))
	})

	t.Run("異常系: 接続を取得できない場合は処理を行わない", func(t *testing.T) {
		f := newBookingFixture()
		f.expectLock("show-1")
		connErr := transaction.NewPersistenceError(transaction.KindConnectivity, "接続取得", errors.New("connection refused"))
		f.gw.On("WithTransaction", mock.Anything).Return(connErr).Once()

		_, err := f.svc.Reserve(ctx, ReserveInput{ShowID: "show-1", UserID: "user-1", SeatLabels: []string{"A1"}})

		kind, ok := transaction.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, transaction.KindConnectivity, kind)
		f.showRepo.AssertNotCalled(t, "GetByIDTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("分散ロックを取得できなくてもDBのロックで予約を続行する", func(t *testing.T) {
		f := newBookingFixture()
		f.locker.On("AcquireLockWithRetry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, redisinfra.ErrLockNotAcquired)
		f.gw.On("WithTransaction", mock.Anything).Return(nil).Once()
		f.showRepo.On("GetByIDTx", mock.Anything, mock.Anything, "show-1").Return(testShow("show-1", 250), nil)
		f.seatRepo.On("LockByLabels", mock.Anything, mock.Anything, "show-1", []string{"A1"}).
			Return([]*seat.Seat{availableSeat("show-1", "A1")}, nil)
		f.expectCreate("booking-5")
		f.seatRepo.On("MarkBooked", mock.Anything, mock.Anything, "show-1", "user-1", []string{"A1"}, "booking-5").
			Return([]string{"A1"}, nil)
		f.cache.On("Invalidate", mock.Anything, "show-1").Return(nil)
		f.publisher.On("PublishBookingCreated", mock.Anything, mock.Anything).Return(nil)

		b, err := f.svc.Reserve(ctx, ReserveInput{ShowID: "show-1", UserID: "user-1", SeatLabels: []string{"A1"}})

		require.NoError(t, err)
		assert.Equal(t, "booking-5", b.ID)
		f.lock.AssertNotCalled(t, "Release", mock.Anything)
	})

	t.Run("イベント配信とキャッシュ無効化の失敗は予約結果に影響しない", func(t *testing.T) {
		f := newBookingFixture()
		f.expectLock("show-1")
		f.gw.On("WithTransaction", mock.Anything).Return(nil).Once()
		f.showRepo.On("GetByIDTx", mock.Anything, mock.Anything, "show-1").Return(testShow("show-1", 250), nil)
		f.seatRepo.On("LockByLabels", mock.Anything, mock.Anything, "show-1", []string{"A1"}).
			Return([]*seat.Seat{availableSeat("show-1", "A1")}, nil)
		f.expectCreate("booking-6")
		f.seatRepo.On("MarkBooked", mock.Anything, mock.Anything, "show-1", "user-1", []string{"A1"}, "booking-6").
			Return([]string{"A1"}, nil)
		f.cache.On("Invalidate", mock.Anything, "show-1").Return(errors.New("redis down"))
		f.publisher.On("PublishBookingCreated", mock.Anything, mock.Anything).Return(errors.New("broker down"))

		b, err := f.svc.Reserve(ctx, ReserveInput{ShowID: "show-1", UserID: "user-1", SeatLabels: []string{"A1"}})

		require.NoError(t, err)
		assert.Equal(t, 250, b.TotalAmount)
	})

	t.Run("コミット後に呼び出し元がキャンセルしてもキャッシュ無効化は中断しない", func(t *testing.T) {
		f := newBookingFixture()
		reqCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		live := mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil })
		f.expectLock("show-1")
		f.gw.On("WithTransaction", mock.Anything).Return(nil).Once()
		f.showRepo.On("GetByIDTx", mock.Anything, mock.Anything, "show-1").Return(testShow("show-1", 250), nil)
		f.seatRepo.On("LockByLabels", mock.Anything, mock.Anything, "show-1", []string{"A1"}).
			Return([]*seat.Seat{availableSeat("show-1", "A1")}, nil)
		f.expectCreate("booking-7")
		f.seatRepo.On("MarkBooked", mock.Anything, mock.Anything, "show-1", "user-1", []string{"A1"}, "booking-7").
			Run(func(mock.Arguments) { cancel() }).
			Return([]string{"A1"}, nil)
		f.cache.On("Invalidate", live, "show-1").Return(nil).Once()
		f.publisher.On("PublishBookingCreated", live, mock.Anything).Return(nil).Once()

		b, err := f.svc.Reserve(reqCtx, ReserveInput{ShowID: "show-1", UserID: "user-1", SeatLabels: []string{"A1"}})

		require.NoError(t, err)
		assert.Equal(t, "booking-7", b.ID)
		require.ErrorIs(t, reqCtx.Err(), context.Canceled)
		f.cache.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
	})
}

func TestBookingService_Reserve_OptionalDependencies(t *testing.T) {
	gw := newMockGateway()
	showRepo := new(MockShowRepository)
	seatRepo := new(MockSeatRepository)
	bookingRepo := new(MockBookingRepository)
	svc := NewBookingService(gw, showRepo, seatRepo, bookingRepo, nil, nil, nil, config.BookingConfig{})

	gw.On("WithTransaction", mock.Anything).Return(nil).Once()
	showRepo.On("GetByIDTx", mock.Anything, mock.Anything, "show-1").Return(testShow("show-1", 300), nil)
	seatRepo.On("LockByLabels", mock.Anything, mock.Anything, "show-1", []string{"B1"}).
		Return([]*seat.Seat{availableSeat("show-1", "B1")}, nil)
	bookingRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	seatRepo.On("MarkBooked", mock.Anything, mock.Anything, "show-1", "user-1", []string{"B1"}, mock.Anything).
		Return([]string{"B1"}, nil)

	b, err := svc.Reserve(context.Background(), ReserveInput{ShowID: "show-1", UserID: "user-1", SeatLabels: []string{"B1"}})

	require.NoError(t, err)
	assert.Equal(t, 300, b.TotalAmount)
}

func TestBookingService_ListUserBookings(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{"既定値", 0, 0, defaultListLimit, 0},
		{"上限を超える件数", 500, 10, maxListLimit, 10},
		{"負のオフセット", 5, -1, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture()
			expected := []*booking.Booking{{ID: "booking-1", UserID: "user-1"}}
			f.bookingRepo.On("GetByUserID", mock.Anything, "user-1", tt.wantLimit, tt.wantOffset).Return(expected, nil)

			got, err := f.svc.ListUserBookings(ctx, "user-1", tt.limit, tt.offset)

			require.NoError(t, err)
			assert.Equal(t, expected, got)
			f.bookingRepo.AssertExpectations(t)
		})
	}

	t.Run("ユーザーID未指定", func(t *testing.T) {
		f := newBookingFixture()

		_, err := f.svc.ListUserBookings(ctx, "", 10, 0)

		assert.ErrorIs(t, err, booking.ErrUserIDRequired)
	})
}

func TestBookingService_GetBooking(t *testing.T) {
	f := newBookingFixture()
	f.bookingRepo.On("GetByID", mock.Anything, "missing").Return(nil, booking.ErrBookingNotFound)

	_, err := f.svc.GetBooking(context.Background(), "missing")

	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
}

func TestClaimTotal(t *testing.T) {
	locked := []*seat.Seat{availableSeat("s", "A1"), availableSeat("s", "A2")}

	total, err := claimTotal(locked, []string{"A1", "A2"}, "user-1", 250, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 500, total)

	_, err = claimTotal(locked, []string{"A1", "A3"}, "user-1", 250, fixedNow)
	var unavailable *booking.SeatUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, []string{"A3"}, unavailable.Seats)
}
