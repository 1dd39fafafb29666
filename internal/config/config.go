package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション設定を表す
type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Payment  PaymentConfig
	Booking  BookingConfig
	Metrics  MetricsConfig
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig はデータベース設定
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// AcquireTimeout はプールから接続を取得するまでの待ち時間の上限
	AcquireTimeout time.Duration
	// LockTimeout は行ロック待ちの上限（SET LOCAL lock_timeout）
	LockTimeout time.Duration
	// StatementTimeout は1ステートメントの実行時間の上限（SET LOCAL statement_timeout）
	StatementTimeout time.Duration

	MigrateOnStart bool
}

// RedisConfig はRedis設定
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// RabbitMQConfig はRabbitMQ設定（URLが空の場合はイベント配信を無効化）
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// PaymentConfig は決済プロバイダー設定
type PaymentConfig struct {
	StripeSecretKey string
	Currency        string
	ProductName     string
	SuccessURL      string
	CancelURL       string
}

// BookingConfig は予約処理の設定
type BookingConfig struct {
	HoldTTL           time.Duration
	HoldSweepInterval time.Duration
	CacheTTL          time.Duration
	LockTTL           time.Duration
}

// MetricsConfig は /metrics の Basic 認証設定
type MetricsConfig struct {
	User     string
	Password string
}

// Load は環境変数から設定を読み込む
func Load() *Config {
	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:             getEnv("DB_HOST", "localhost"),
			Port:             getEnv("DB_PORT", "5432"),
			User:             getEnv("DB_USER", "postgres"),
			Password:         getEnv("DB_PASSWORD", "postgres"),
			DBName:           getEnv("DB_NAME", "movie_booking"),
			SSLMode:          getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:     getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			AcquireTimeout:   getDurationEnv("DB_ACQUIRE_TIMEOUT", 5*time.Second),
			LockTimeout:      getDurationEnv("DB_LOCK_TIMEOUT", 3*time.Second),
			StatementTimeout: getDurationEnv("DB_STATEMENT_TIMEOUT", 10*time.Second),
			MigrateOnStart:   getBoolEnv("DB_MIGRATE", true),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "bookings"),
		},
		Payment: PaymentConfig{
			StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			Currency:        strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),
			ProductName:     getEnv("PAYMENT_PRODUCT_NAME", "Movie Ticket"),
			SuccessURL:      getEnv("PAYMENT_SUCCESS_URL", "http://localhost:8501/success"),
			CancelURL:       getEnv("PAYMENT_CANCEL_URL", "http://localhost:8501/cancel"),
		},
		Booking: BookingConfig{
			HoldTTL:           getDurationEnv("HOLD_TTL", 10*time.Minute),
			HoldSweepInterval: getDurationEnv("HOLD_SWEEP_INTERVAL", time.Minute),
			CacheTTL:          getDurationEnv("SEAT_CACHE_TTL", 30*time.Second),
			LockTTL:           getDurationEnv("SEAT_LOCK_TTL", 10*time.Second),
		},
		Metrics: MetricsConfig{
			User:     os.Getenv("METRICS_USER"),
			Password: os.Getenv("METRICS_PASSWORD"),
		},
	}

	// Railway等のPaaSが渡す接続URLを優先する
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		applyDatabaseURL(&cfg.Database, dbURL)
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		applyRedisURL(&cfg.Redis, redisURL)
	}

	return cfg
}

// IsProduction は本番環境かを返す
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DSN はPostgreSQL接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode +
		" connect_timeout=" + strconv.Itoa(int(c.AcquireTimeout.Seconds()))
}

// Addr はRedis接続アドレスを返す
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// IsEnabled は Basic 認証が有効かどうかを返す
func (c *MetricsConfig) IsEnabled() bool {
	return c.User != "" && c.Password != ""
}

func applyDatabaseURL(c *DatabaseConfig, raw string) {
	u, err := url.Parse(raw)
	if err != nil {
		return
	}
	c.Host = u.Hostname()
	if p := u.Port(); p != "" {
		c.Port = p
	}
	if u.User != nil {
		c.User = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			c.Password = pw
		}
	}
	if name := strings.TrimPrefix(u.Path, "/"); name != "" {
		c.DBName = name
	}
	// URL指定時はリモート接続とみなし、未指定ならTLS必須にする
	c.SSLMode = "require"
	if mode := u.Query().Get("sslmode"); mode != "" {
		c.SSLMode = mode
	}
}

func applyRedisURL(c *RedisConfig, raw string) {
	u, err := url.Parse(raw)
	if err != nil {
		return
	}
	c.Host = u.Hostname()
	if p := u.Port(); p != "" {
		c.Port = p
	}
	if u.User != nil {
		if pw, ok := u.User.Password(); ok {
			c.Password = pw
		}
	}
	if db := strings.TrimPrefix(u.Path, "/"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			c.DB = n
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
