// Package worker は定期配信サイクルのスケジューリングを提供する。
package worker

import (
	"context"
	"log/slog"
	"time"
)

// CycleRunner は定期配信サイクルの実行インターフェース。fanout.Engineが実装する。
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// Scheduler はティッカー駆動で定期配信サイクルを実行する。
type Scheduler struct {
	runner CycleRunner
	logger *slog.Logger
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
func NewScheduler(runner CycleRunner, logger *slog.Logger) *Scheduler {
	return &Scheduler{runner: runner, logger: logger}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("配信スケジューラを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	s.run(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("配信スケジューラを停止しました")
			return
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	if err := s.runner.RunCycle(ctx); err != nil {
		s.logger.Error("定期配信サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}
