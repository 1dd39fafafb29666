package handler

import (
	"context"

	"github.com/sanosuguru/go-movie-seat-booking/internal/application"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/show"
)

// ShowServiceInterface は上映サービスのインターフェース
type ShowServiceInterface interface {
	ScheduleShow(ctx context.Context, input application.ScheduleShowInput) (*show.Show, []*seat.Seat, error)
	GetShow(ctx context.Context, id string) (*show.Show, error)
}

// SeatServiceInterface は座席在庫サービスのインターフェース
type SeatServiceInterface interface {
	ListAvailable(ctx context.Context, showID string) ([]string, error)
	ListSeats(ctx context.Context, showID string) ([]*seat.Seat, error)
	CountAvailable(ctx context.Context, showID string) (int, error)
}

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	Reserve(ctx context.Context, input application.ReserveInput) (*booking.Booking, error)
	GetBooking(ctx context.Context, id string) (*booking.Booking, error)
	ListUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error)
}

// HoldServiceInterface は仮押さえサービスのインターフェース
type HoldServiceInterface interface {
	Hold(ctx context.Context, input application.HoldInput) (*seat.Hold, error)
	ReleaseHold(ctx context.Context, showID, userID string, labels []string) (int, error)
}

// CheckoutServiceInterface は決済リンク発行のインターフェース
type CheckoutServiceInterface interface {
	CreatePaymentLink(ctx context.Context, bookingID string) (string, error)
}
