package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-movie-seat-booking/internal/api/handler"
	"github.com/sanosuguru/go-movie-seat-booking/internal/api/router"
	"github.com/sanosuguru/go-movie-seat-booking/internal/application"
	"github.com/sanosuguru/go-movie-seat-booking/internal/config"
	"github.com/sanosuguru/go-movie-seat-booking/internal/infrastructure/payment"
	"github.com/sanosuguru/go-movie-seat-booking/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-movie-seat-booking/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-movie-seat-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-movie-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-movie-seat-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-movie-seat-booking/internal/worker"
)

func main() {
	// .env はローカル開発用（存在しなくてもよい）
	_ = godotenv.Load()

	cfg := config.Load()

	log := logger.Init(cfg.Env)
	defer logger.Sync()

	m := metrics.Init()

	// PostgreSQL
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatal("データベース接続エラー", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		if err := postgres.RunMigrations(db.DB); err != nil {
			log.Fatal("マイグレーションエラー", zap.Error(err))
		}
		log.Info("マイグレーション完了")
	}

	gateway := postgres.NewGatewayFromConfig(db, &cfg.Database)
	showRepo := postgres.NewShowRepository(gateway)
	seatRepo := postgres.NewSeatRepository(gateway)
	bookingRepo := postgres.NewBookingRepository(gateway)

	checks := map[string]handler.CheckFunc{
		"database": func(ctx context.Context) error { return postgres.Ping(ctx, db) },
	}

	// Redis（任意）: 接続できない場合はロックとキャッシュなしで動作する
	var (
		locker application.SeatLocker
		cache  application.AvailabilityCache
	)
	if cfg.Redis.Enabled {
		redisClient, err := redisinfra.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn("Redisに接続できません。分散ロックとキャッシュを無効化します", zap.Error(err))
		} else {
			defer redisClient.Close()
			locker = redisinfra.NewLockManager(redisClient)
			cache = redisinfra.NewSeatCache(redisClient)
			checks["redis"] = redisCheck(redisClient)
			log.Info("Redis接続完了", zap.String("addr", cfg.Redis.Addr()))
		}
	}

	// RabbitMQ（任意）
	var publisher application.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Warn("RabbitMQに接続できません。予約イベントは配信されません", zap.Error(err))
		} else {
			defer p.Close()
			publisher = p
			log.Info("RabbitMQ接続完了", zap.String("exchange", cfg.RabbitMQ.Exchange))
		}
	}

	// 決済（任意）
	var provider application.PaymentProvider
	if cfg.Payment.StripeSecretKey != "" {
		provider = payment.NewStripeCheckout(cfg.Payment)
	}

	// サービス
	seatService := application.NewSeatService(seatRepo, showRepo, cache, cfg.Booking.CacheTTL)
	showService := application.NewShowService(gateway, showRepo, seatRepo)
	bookingService := application.NewBookingService(
		gateway, showRepo, seatRepo, bookingRepo, seatService, locker, publisher, cfg.Booking,
	)
	holdService := application.NewHoldService(gateway, showRepo, seatRepo, seatService, locker, cfg.Booking)
	checkoutService := application.NewCheckoutService(bookingRepo, provider)

	// 期限切れ仮押さえの解放ワーカー
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	releaser := worker.NewExpiredHoldReleaser(holdService, cfg.Booking.HoldSweepInterval)
	go releaser.Start(ctx)

	e := router.New(router.Handlers{
		Health:  handler.NewHealthHandler(checks),
		Show:    handler.NewShowHandler(showService, seatService),
		Booking: handler.NewBookingHandler(bookingService, checkoutService),
		Hold:    handler.NewHoldHandler(holdService),
	}, router.Options{
		Metrics:     m,
		MetricsAuth: cfg.Metrics,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	go func() {
		log.Info("サーバー起動", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("サーバーをシャットダウンしています...")

	releaser.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("サーバーシャットダウンエラー", zap.Error(err))
	}

	log.Info("サーバーが正常にシャットダウンしました")
}

func redisCheck(client *goredis.Client) handler.CheckFunc {
	return func(ctx context.Context) error {
		return redisinfra.Ping(ctx, client)
	}
}
