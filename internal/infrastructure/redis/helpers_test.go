package redis

import (
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-movie-seat-booking/internal/config"
)

// setupTestRedis はローカルのRedisに接続する。接続できなければスキップする
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	client, err := NewClient(&config.RedisConfig{Host: "localhost", Port: "6379", DB: 15})
	if err != nil {
		t.Skip("Redis not available")
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func uniqueKey(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
