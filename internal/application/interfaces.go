package application

import (
	"context"
	"time"

	"github.com/sanosuguru/go-movie-seat-booking/internal/infrastructure/payment"
	"github.com/sanosuguru/go-movie-seat-booking/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-movie-seat-booking/internal/infrastructure/redis"
)

// SeatLocker は上映単位の分散ロック（*redisinfra.LockManager が実装）
type SeatLocker interface {
	AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (redisinfra.Lock, error)
}

// AvailabilityCache は空席情報のキャッシュ（*redisinfra.SeatCache が実装）
type AvailabilityCache interface {
	GetAvailableLabels(ctx context.Context, showID string) ([]string, error)
	SetAvailableLabels(ctx context.Context, showID string, labels []string, ttl time.Duration) error
	GetAvailableCount(ctx context.Context, showID string) (int, error)
	SetAvailableCount(ctx context.Context, showID string, count int, ttl time.Duration) error
	Invalidate(ctx context.Context, showID string) error
}

// EventPublisher は予約イベントの配信先（*rabbitmq.Publisher が実装）
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, event rabbitmq.BookingCreatedEvent) error
}

// PaymentProvider は決済リンクの発行元（*payment.StripeCheckout が実装）
type PaymentProvider interface {
	CreateCheckoutURL(ctx context.Context, req payment.CheckoutRequest) (string, error)
}
