package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 予約結果のラベル値
const (
	BookingStatusSuccess         = "success"
	BookingStatusSeatUnavailable = "seat_unavailable"
	BookingStatusShowNotFound    = "show_not_found"
	BookingStatusInvalid         = "invalid"
	BookingStatusError           = "error"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約試行の総数（status: success, seat_unavailable, show_not_found, invalid, error）
	BookingsTotal *prometheus.CounterVec

	// 予約された座席数
	SeatsBookedTotal prometheus.Counter

	// 分散ロックの操作時間（operation: acquire/release, status: success/failed）
	DistributedLockDuration *prometheus.HistogramVec

	// 期限切れで解放された仮押さえ座席数
	SeatHoldsReleasedTotal prometheus.Counter

	// 座席キャッシュの参照結果（result: hit/miss/error）
	SeatCacheRequestsTotal *prometheus.CounterVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookings_total",
				Help: "Total number of seat booking attempts",
			},
			[]string{"status"},
		),
		SeatsBookedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "seats_booked_total",
				Help: "Total number of seats booked",
			},
		),
		DistributedLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "distributed_lock_duration_seconds",
				Help:    "Time spent on distributed lock operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
		SeatHoldsReleasedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "seat_holds_released_total",
				Help: "Total number of expired seat holds released",
			},
		),
		SeatCacheRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_cache_requests_total",
				Help: "Seat availability cache lookups",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BookingsTotal,
		m.SeatsBookedTotal,
		m.DistributedLockDuration,
		m.SeatHoldsReleasedTotal,
		m.SeatCacheRequestsTotal,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
// Init 前は nil を返す
func Get() *Metrics {
	return defaultMetrics
}

// ObserveBooking は予約試行の結果を記録する
func (m *Metrics) ObserveBooking(status string, seats int) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(status).Inc()
	if status == BookingStatusSuccess {
		m.SeatsBookedTotal.Add(float64(seats))
	}
}

// ObserveLock は分散ロック操作の所要時間を記録する
func (m *Metrics) ObserveLock(operation string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failed"
	}
	m.DistributedLockDuration.WithLabelValues(operation, status).Observe(seconds)
}

// ObserveHoldsReleased は解放された仮押さえ座席数を記録する
func (m *Metrics) ObserveHoldsReleased(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SeatHoldsReleasedTotal.Add(float64(n))
}

// ObserveCache は座席キャッシュの参照結果を記録する
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.SeatCacheRequestsTotal.WithLabelValues(result).Inc()
}
