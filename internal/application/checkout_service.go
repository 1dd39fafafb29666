package application

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-movie-seat-booking/internal/infrastructure/payment"
	"github.com/sanosuguru/go-movie-seat-booking/internal/pkg/logger"
)

// CheckoutService は確定済み予約の決済リンクを発行する
// 決済の成否は予約に影響しない
type CheckoutService struct {
	bookingRepo booking.Repository
	provider    PaymentProvider
}

func NewCheckoutService(br booking.Repository, provider PaymentProvider) *CheckoutService {
	return &CheckoutService{bookingRepo: br, provider: provider}
}

// CreatePaymentLink は予約金額の決済URLを返す
func (s *CheckoutService) CreatePaymentLink(ctx context.Context, bookingID string) (string, error) {
	if s.provider == nil {
		return "", payment.ErrPaymentProviderUnavailable
	}

	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return "", err
	}

	url, err := s.provider.CreateCheckoutURL(ctx, payment.CheckoutRequest{
		BookingID:   b.ID,
		Amount:      b.TotalAmount,
		Description: describeBooking(b),
	})
	if err != nil {
		logger.Warn("決済リンクの発行に失敗しました", logger.BookingID(b.ID), zap.Error(err))
		return "", fmt.Errorf("決済リンク発行に失敗: %w", err)
	}

	logger.Info("決済リンクを発行しました", logger.BookingID(b.ID), zap.Int("amount", b.TotalAmount))
	return url, nil
}

// describeBooking は決済画面に表示する予約内容を返す
func describeBooking(b *booking.Booking) string {
	return fmt.Sprintf("Movie ticket: show %s, seats %s", b.ShowID, strings.Join(b.SeatLabels, ", "))
}
