// Package workers はバックグラウンドの定期処理。
package workers

import (
	"context"
	"sync"
	"time"

	"circulation-backend/internal/circulation"
	"circulation-backend/internal/platform/logger"
)

// OverdueSweeper は SweepOverdue だけを要求する
type OverdueSweeper interface {
	SweepOverdue(ctx context.Context) (circulation.SweepResult, error)
}

// Sweeper: interval ごとに延滞スイープを回す。1回の実行が終わるまで次は始めない
type Sweeper struct {
	target     OverdueSweeper
	interval   time.Duration
	runOnStart bool
	timeout    time.Duration

	wg sync.WaitGroup
}

func NewSweeper(target OverdueSweeper, interval time.Duration, runOnStart bool) *Sweeper {
	return &Sweeper{target: target, interval: interval, runOnStart: runOnStart, timeout: 10 * time.Minute}
}

// Start: interval が 0 以下なら何もしない（手動の POST /admin/sweep のみ）
func (s *Sweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		logger.Log.Info("overdue sweeper disabled")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		if s.runOnStart {
			s.Check(ctx)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Check(ctx)
			}
		}
	}()
	logger.Log.WithField("interval", s.interval.String()).Info("overdue sweeper started")
}

// Wait: Start したゴルーチンの終了待ち（シャットダウン用）
func (s *Sweeper) Wait() { s.wg.Wait() }

func (s *Sweeper) Check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.target.SweepOverdue(ctx)
	if err != nil {
		logger.Log.WithError(err).Error("worker: overdue sweep failed")
		return
	}
	if res.Failed > 0 {
		logger.Log.WithField("failed", res.Failed).Warn("worker: some issues could not be swept")
	}
}
