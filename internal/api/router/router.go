package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanosuguru/go-movie-seat-booking/internal/api"
	"github.com/sanosuguru/go-movie-seat-booking/internal/api/handler"
	"github.com/sanosuguru/go-movie-seat-booking/internal/api/middleware"
	"github.com/sanosuguru/go-movie-seat-booking/internal/config"
	"github.com/sanosuguru/go-movie-seat-booking/internal/pkg/metrics"
)

// Handlers はルーティング対象のハンドラー
type Handlers struct {
	Health  *handler.HealthHandler
	Show    *handler.ShowHandler
	Booking *handler.BookingHandler
	Hold    *handler.HoldHandler
}

// Options はルーターの付帯設定
type Options struct {
	// Metrics が nil の場合はHTTPメトリクスを収集しない
	Metrics     *metrics.Metrics
	MetricsAuth config.MetricsConfig
	// Gatherer は /metrics で公開するレジストリ（nil の場合はデフォルト）
	Gatherer prometheus.Gatherer
}

// New はミドルウェアとルートを設定した Echo インスタンスを返す
func New(h Handlers, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	middleware.SetupMiddleware(e, opts.Metrics)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// ヘルスチェック・メトリクス
	e.GET("/health", h.Health.Check)
	e.GET("/ready", h.Health.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
		middleware.MetricsBasicAuth(opts.MetricsAuth))

	v1 := e.Group("/api/v1")

	// 上映・座席
	shows := v1.Group("/shows")
	shows.POST("", h.Show.Create)
	shows.GET("/:id", h.Show.GetByID)
	shows.GET("/:id/seats", h.Show.ListSeats)
	shows.GET("/:id/seats/available/count", h.Show.CountAvailable)

	// 予約
	bookings := v1.Group("/bookings")
	bookings.POST("", h.Booking.Create)
	bookings.GET("", h.Booking.ListByUser)
	bookings.GET("/:id", h.Booking.GetByID)
	bookings.POST("/:id/checkout", h.Booking.Checkout)

	// 仮押さえ
	holds := v1.Group("/holds")
	holds.POST("", h.Hold.Create)
	holds.DELETE("", h.Hold.Release)

	return e
}
