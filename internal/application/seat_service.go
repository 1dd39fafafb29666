package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-movie-seat-booking/internal/domain/show"
	redisinfra "github.com/sanosuguru/go-movie-seat-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-movie-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-movie-seat-booking/internal/pkg/metrics"
)

const (
	defaultSeatCacheTTL    = 30 * time.Second
	cacheInvalidateTimeout = 2 * time.Second
)

// SeatService は上映ごとの座席在庫を参照する
type SeatService struct {
	seatRepo seat.Repository
	showRepo show.Repository
	cache    AvailabilityCache
	cacheTTL time.Duration
}

// NewSeatService は新しい SeatService を作成する
// cache が nil の場合は常にDBから読む
func NewSeatService(sr seat.Repository, shr show.Repository, cache AvailabilityCache, cacheTTL time.Duration) *SeatService {
	if cacheTTL <= 0 {
		cacheTTL = defaultSeatCacheTTL
	}
	return &SeatService{seatRepo: sr, showRepo: shr, cache: cache, cacheTTL: cacheTTL}
}

// ListAvailable は空席ラベルを昇順で返す
func (s *SeatService) ListAvailable(ctx context.Context, showID string) ([]string, error) {
	if s.cache != nil {
		labels, err := s.cache.GetAvailableLabels(ctx, showID)
		if err == nil {
			metrics.Get().ObserveCache("hit")
			return labels, nil
		}
		s.observeCacheMiss(showID, err)
	}

	if err := s.ensureShow(ctx, showID); err != nil {
		return nil, err
	}
	labels, err := s.seatRepo.ListAvailableLabels(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("空席一覧取得に失敗: %w", err)
	}

	if s.cache != nil {
		if cacheErr := s.cache.SetAvailableLabels(ctx, showID, labels, s.cacheTTL); cacheErr != nil {
			logger.Warn("キャッシュ保存エラー", logger.ShowID(showID), zap.Error(cacheErr))
		}
	}
	return labels, nil
}

// ListSeats は座席表示用に全座席を返す
func (s *SeatService) ListSeats(ctx context.Context, showID string) ([]*seat.Seat, error) {
	if err := s.ensureShow(ctx, showID); err != nil {
		return nil, err
	}
	seats, err := s.seatRepo.GetByShowID(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("座席一覧取得に失敗: %w", err)
	}
	return seats, nil
}

// CountAvailable は空席数を返す
func (s *SeatService) CountAvailable(ctx context.Context, showID string) (int, error) {
	if s.cache != nil {
		count, err := s.cache.GetAvailableCount(ctx, showID)
		if err == nil {
			metrics.Get().ObserveCache("hit")
			logger.Debug("キャッシュヒット", logger.ShowID(showID), zap.Int("count", count))
			return count, nil
		}
		s.observeCacheMiss(showID, err)
	}

	if err := s.ensureShow(ctx, showID); err != nil {
		return 0, err
	}
	count, err := s.seatRepo.CountAvailable(ctx, showID)
	if err != nil {
		return 0, fmt.Errorf("空席数取得に失敗: %w", err)
	}

	if s.cache != nil {
		if cacheErr := s.cache.SetAvailableCount(ctx, showID, count, s.cacheTTL); cacheErr != nil {
			logger.Warn("キャッシュ保存エラー", logger.ShowID(showID), zap.Error(cacheErr))
		}
	}
	return count, nil
}

// InvalidateCache は上映のキャッシュを無効化する
// コミット後に呼ばれるため、呼び出し元のキャンセルでは中断しない
// 失敗しても結果は変えずログに残す
func (s *SeatService) InvalidateCache(ctx context.Context, showID string) {
	if s.cache == nil {
		return
	}
	invCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheInvalidateTimeout)
	defer cancel()
	if err := s.cache.Invalidate(invCtx, showID); err != nil {
		logger.Warn("キャッシュ無効化エラー", logger.ShowID(showID), zap.Error(err))
	}
}

func (s *SeatService) ensureShow(ctx context.Context, showID string) error {
	if _, err := s.showRepo.GetByID(ctx, showID); err != nil {
		return fmt.Errorf("上映取得に失敗: %w", err)
	}
	return nil
}

func (s *SeatService) observeCacheMiss(showID string, err error) {
	if errors.Is(err, redisinfra.ErrCacheMiss) {
		metrics.Get().ObserveCache("miss")
		return
	}
	metrics.Get().ObserveCache("error")
	logger.Warn("キャッシュ取得エラー", logger.ShowID(showID), zap.Error(err))
}
