package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// SeatCache は上映ごとの空席情報のキャッシュを管理する
type SeatCache struct {
	client *redis.Client
}

// NewSeatCache は新しいSeatCacheインスタンスを作成する
func NewSeatCache(client *redis.Client) *SeatCache {
	return &SeatCache{client: client}
}

// GetAvailableLabels は空席ラベル一覧をキャッシュから取得する
func (c *SeatCache) GetAvailableLabels(ctx context.Context, showID string) ([]string, error) {
	data, err := c.client.Get(ctx, c.availableLabelsKey(showID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("キャッシュの復元に失敗: %w", err)
	}
	if labels == nil {
		labels = []string{}
	}
	return labels, nil
}

// SetAvailableLabels は空席ラベル一覧をキャッシュに保存する
func (c *SeatCache) SetAvailableLabels(ctx context.Context, showID string, labels []string, ttl time.Duration) error {
	data, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("キャッシュのエンコードに失敗: %w", err)
	}
	if err := c.client.Set(ctx, c.availableLabelsKey(showID), data, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// GetAvailableCount は上映の空席数をキャッシュから取得する
func (c *SeatCache) GetAvailableCount(ctx context.Context, showID string) (int, error) {
	val, err := c.client.Get(ctx, c.availableCountKey(showID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// SetAvailableCount は上映の空席数をキャッシュに保存する
func (c *SeatCache) SetAvailableCount(ctx context.Context, showID string, count int, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.availableCountKey(showID), count, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate は上映のキャッシュを無効化する
func (c *SeatCache) Invalidate(ctx context.Context, showID string) error {
	err := c.client.Del(ctx, c.availableLabelsKey(showID), c.availableCountKey(showID)).Err()
	if err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *SeatCache) availableLabelsKey(showID string) string {
	return fmt.Sprintf("seats:available:labels:%s", showID)
}

func (c *SeatCache) availableCountKey(showID string) string {
	return fmt.Sprintf("seats:available:count:%s", showID)
}
