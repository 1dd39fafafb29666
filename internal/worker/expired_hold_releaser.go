package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-movie-seat-booking/internal/pkg/logger"
)

const defaultSweepInterval = time.Minute

// HoldReleaser は期限切れの仮押さえを解放する（*application.HoldService が実装）
type HoldReleaser interface {
	ReleaseExpiredHolds(ctx context.Context) (int, error)
}

// ExpiredHoldReleaser は期限切れの仮押さえを定期的に空席へ戻すワーカー
type ExpiredHoldReleaser struct {
	holds    HoldReleaser
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewExpiredHoldReleaser は新しいワーカーを作成
// interval が0以下の場合は既定の間隔を使う
func NewExpiredHoldReleaser(holds HoldReleaser, interval time.Duration) *ExpiredHoldReleaser {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &ExpiredHoldReleaser{
		holds:    holds,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start はワーカーを開始し、停止するまでブロックする
func (r *ExpiredHoldReleaser) Start(ctx context.Context) {
	logger.Info("仮押さえ解放ワーカー開始", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("仮押さえ解放ワーカー停止（コンテキストキャンセル）")
			return
		case <-r.stopCh:
			logger.Info("仮押さえ解放ワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			r.release(ctx)
		}
	}
}

// Stop はワーカーを停止し、実行中の解放処理の終了を待つ
// Start 前に呼んではいけない
func (r *ExpiredHoldReleaser) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	<-r.doneCh
}

func (r *ExpiredHoldReleaser) release(ctx context.Context) {
	log := logger.Get()

	count, err := r.holds.ReleaseExpiredHolds(ctx)
	if err != nil {
		log.Error("期限切れ仮押さえの解放失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("期限切れ仮押さえを解放", zap.Int("count", count))
	} else {
		log.Debug("期限切れ仮押さえなし")
	}
}
