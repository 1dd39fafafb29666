package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/sanosuguru/go-movie-seat-booking/internal/config"
)

var (
	// ErrPaymentProviderUnavailable は決済プロバイダーの呼び出しに失敗したことを表す
	ErrPaymentProviderUnavailable = errors.New("決済プロバイダーを利用できません")
	ErrInvalidAmount              = errors.New("決済金額は1以上である必要があります")
)

// CheckoutRequest は決済セッション作成の入力
type CheckoutRequest struct {
	BookingID   string
	Amount      int // 最小通貨単位
	Description string
}

// StripeCheckout は Stripe Checkout で決済リンクを発行する
type StripeCheckout struct {
	cfg        config.PaymentConfig
	newSession func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// NewStripeCheckout は新しい StripeCheckout を作成する
func NewStripeCheckout(cfg config.PaymentConfig) *StripeCheckout {
	sc := client.New(cfg.StripeSecretKey, nil)
	return &StripeCheckout{cfg: cfg, newSession: sc.CheckoutSessions.New}
}

// CreateCheckoutURL は予約金額の決済セッションを作成し、リダイレクト先URLを返す
func (s *StripeCheckout) CreateCheckoutURL(ctx context.Context, req CheckoutRequest) (string, error) {
	if req.Amount <= 0 {
		return "", ErrInvalidAmount
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(s.cfg.ProductName),
						Description: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(int64(req.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(s.cfg.SuccessURL),
		CancelURL:         stripe.String(s.cfg.CancelURL),
		ClientReferenceID: stripe.String(req.BookingID),
	}
	params.Context = ctx
	params.AddMetadata("booking_id", req.BookingID)

	session, err := s.newSession(params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPaymentProviderUnavailable, err)
	}
	if session.URL == "" {
		return "", fmt.Errorf("%w: 決済URLが返されませんでした", ErrPaymentProviderUnavailable)
	}
	return session.URL, nil
}
