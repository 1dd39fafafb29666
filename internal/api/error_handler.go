package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-movie-seat-booking/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error     string   `json:"error"`
	Code      int      `json:"code,omitempty"`
	Seats     []string `json:"seats,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
// HTTPError.Internal にドメインエラーがあれば競合座席と再試行可否を付与する
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code    = http.StatusInternalServerError
		message = "内部サーバーエラー"
		cause   = err
	)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
		if he.Internal != nil {
			cause = he.Internal
		}
	}

	resp := ErrorResponse{Error: message, Code: code}

	var unavailable *booking.SeatUnavailableError
	if errors.As(cause, &unavailable) {
		resp.Seats = unavailable.Seats
	}
	resp.Retryable = transaction.IsRetryable(cause)

	// エラーログを出力（5xx エラーの場合）
	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(cause),
		)
	}

	if err := c.JSON(code, resp); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}
