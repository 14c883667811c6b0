// Package cleanup は期限切れセッションの自動削除ジョブを提供する。
// workerモードで起動直後と一定間隔ごとにsessionsテーブルを掃除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExpiredSessionDeleter は期限切れセッションを削除するストアのインターフェース。
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CleanedRecorder は削除件数の記録インターフェース。
type CleanedRecorder interface {
	RecordSessionsCleaned(count int64)
}

// SessionCleanupJob は期限切れセッションの削除ジョブ。
// 削除対象が無くてもエラーにならない（冪等）。
type SessionCleanupJob struct {
	sessions ExpiredSessionDeleter
	metrics  CleanedRecorder
	logger   *slog.Logger
}

// NewSessionCleanupJob は新しいSessionCleanupJobを生成する。
func NewSessionCleanupJob(sessions ExpiredSessionDeleter, metrics CleanedRecorder, logger *slog.Logger) *SessionCleanupJob {
	return &SessionCleanupJob{
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
	}
}

// Run は期限切れセッションを1回削除する。
func (j *SessionCleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	deleted, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	j.metrics.RecordSessionsCleaned(deleted)
	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Start はジョブを起動直後に1回、その後intervalごとに実行する。
// コンテキストがキャンセルされるまで戻らない。
func (j *SessionCleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("セッションクリーンアップジョブを開始しました",
		slog.Duration("interval", interval),
	)

	// エラーはRun内でログ済み
	_ = j.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("セッションクリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
