package application

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/show"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-movie-seat-booking/internal/infrastructure/payment"
	"github.com/sanosuguru/go-movie-seat-booking/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-movie-seat-booking/internal/infrastructure/redis"
)

// === Mock implementations ===

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockGateway implements transaction.Gateway
// Return(nil) なら work を MockTx で実行し、エラーを設定すると work を実行せずに返す
type MockGateway struct {
	mock.Mock
	tx *MockTx
}

func newMockGateway() *MockGateway {
	return &MockGateway{tx: &MockTx{}}
}

func (m *MockGateway) WithTransaction(ctx context.Context, work transaction.Work) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return work(ctx, m.tx)
}

// MockShowRepository implements show.Repository
type MockShowRepository struct {
	mock.Mock
}

func (m *MockShowRepository) Create(ctx context.Context, tx transaction.Tx, s *show.Show) error {
	args := m.Called(ctx, tx, s)
	return args.Error(0)
}

func (m *MockShowRepository) GetByID(ctx context.Context, id string) (*show.Show, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*show.Show), args.Error(1)
}

func (m *MockShowRepository) GetByIDTx(ctx context.Context, tx transaction.Tx, id string) (*show.Show, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*show.Show), args.Error(1)
}

// MockSeatRepository implements seat.Repository
type MockSeatRepository struct {
	mock.Mock
}

func (m *MockSeatRepository) CreateBulk(ctx context.Context, tx transaction.Tx, seats []*seat.Seat) error {
	args := m.Called(ctx, tx, seats)
	return args.Error(0)
}

func (m *MockSeatRepository) GetByShowID(ctx context.Context, showID string) ([]*seat.Seat, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) ListAvailableLabels(ctx context.Context, showID string) ([]string, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSeatRepository) CountAvailable(ctx context.Context, showID string) (int, error) {
	args := m.Called(ctx, showID)
	return args.Int(0), args.Error(1)
}

func (m *MockSeatRepository) GetLabelsByBookingID(ctx context.Context, bookingID string) ([]string, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSeatRepository) LockByLabels(ctx context.Context, tx transaction.Tx, showID string, labels []string) ([]*seat.Seat, error) {
	args := m.Called(ctx, tx, showID, labels)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) MarkBooked(ctx context.Context, tx transaction.Tx, showID, userID string, labels []string, bookingID string) ([]string, error) {
	args := m.Called(ctx, tx, showID, userID, labels, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSeatRepository) Hold(ctx context.Context, tx transaction.Tx, showID, userID string, labels []string, until time.Time) ([]string, error) {
	args := m.Called(ctx, tx, showID, userID, labels, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSeatRepository) ReleaseHold(ctx context.Context, tx transaction.Tx, showID, userID string, labels []string) (int, error) {
	args := m.Called(ctx, tx, showID, userID, labels)
	return args.Int(0), args.Error(1)
}

func (m *MockSeatRepository) ReleaseExpiredHolds(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

// MockBookingRepository implements booking.Repository
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	args := m.Called(ctx, tx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

// MockLocker implements SeatLocker
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (redisinfra.Lock, error) {
	args := m.Called(ctx, key, ttl, maxRetries, retryDelay)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(redisinfra.Lock), args.Error(1)
}

// MockLock implements redisinfra.Lock
type MockLock struct {
	mock.Mock
}

func (m *MockLock) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockLock) Extend(ctx context.Context, ttl time.Duration) error {
	args := m.Called(ctx, ttl)
	return args.Error(0)
}

// MockCache implements AvailabilityCache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetAvailableLabels(ctx context.Context, showID string) ([]string, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCache) SetAvailableLabels(ctx context.Context, showID string, labels []string, ttl time.Duration) error {
	args := m.Called(ctx, showID, labels, ttl)
	return args.Error(0)
}

func (m *MockCache) GetAvailableCount(ctx context.Context, showID string) (int, error) {
	args := m.Called(ctx, showID)
	return args.Int(0), args.Error(1)
}

func (m *MockCache) SetAvailableCount(ctx context.Context, showID string, count int, ttl time.Duration) error {
	args := m.Called(ctx, showID, count, ttl)
	return args.Error(0)
}

func (m *MockCache) Invalidate(ctx context.Context, showID string) error {
	args := m.Called(ctx, showID)
	return args.Error(0)
}

// MockPublisher implements EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishBookingCreated(ctx context.Context, event rabbitmq.BookingCreatedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockPaymentProvider implements PaymentProvider
type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) CreateCheckoutURL(ctx context.Context, req payment.CheckoutRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// === Test fixtures ===

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func availableSeat(showID, label string) *seat.Seat {
	return &seat.Seat{ID: "seat-" + label, ShowID: showID, Label: label, Status: seat.StatusAvailable}
}

func testShow(id string, price int) *show.Show {
	return &show.Show{
		ID:      id,
		MovieID: "movie-1",
		Date:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Time:    "19:30",
		Price:   price,
	}
}
