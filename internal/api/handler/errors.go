package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/show"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-movie-seat-booking/internal/infrastructure/payment"
)

// userIDHeader は呼び出し元ユーザーを示すヘッダー（認証は上流で行う）
const userIDHeader = "X-User-ID"

func requireUserID(c echo.Context) (string, error) {
	userID := c.Request().Header.Get(userIDHeader)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	return userID, nil
}

var badRequestErrors = []error{
	seat.ErrLabelRequired,
	seat.ErrLabelTooLong,
	seat.ErrDuplicateLabel,
	seat.ErrInvalidPrice,
	seat.ErrInvalidLayout,
	seat.ErrNoSeats,
	show.ErrMovieIDRequired,
	show.ErrShowDateRequired,
	show.ErrInvalidShowTime,
	show.ErrInvalidPrice,
	payment.ErrInvalidAmount,
}

// toHTTPError はサービス層のエラーをHTTPエラーに変換する
// 元のエラーは Internal に残し、エラーハンドラーが座席や再試行可否を取り出す
func toHTTPError(err error) error {
	switch {
	case isBadRequest(err):
		return echo.NewHTTPError(http.StatusBadRequest, rootMessage(err)).SetInternal(err)
	case errors.Is(err, show.ErrShowNotFound):
		return echo.NewHTTPError(http.StatusNotFound, show.ErrShowNotFound.Error()).SetInternal(err)
	case errors.Is(err, booking.ErrBookingNotFound):
		return echo.NewHTTPError(http.StatusNotFound, booking.ErrBookingNotFound.Error()).SetInternal(err)
	case errors.Is(err, booking.ErrSeatUnavailable):
		return echo.NewHTTPError(http.StatusConflict, booking.ErrSeatUnavailable.Error()).SetInternal(err)
	case errors.Is(err, payment.ErrPaymentProviderUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, payment.ErrPaymentProviderUnavailable.Error()).SetInternal(err)
	case transaction.IsRetryable(err):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "一時的に処理できません。再試行してください").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "内部サーバーエラー").SetInternal(err)
	}
}

func isBadRequest(err error) bool {
	if booking.IsValidationError(err) {
		return true
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// rootMessage はラップを外した最も内側のエラーメッセージを返す
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
