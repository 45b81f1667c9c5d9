// Package sweep は孤立した追跡レコードを削除するバッチジョブを提供する。
// 目標が存在しない、または目標の所有者と一致しないuser_idを持つtrackingを削除する。
// 外部キーのCASCADEがあるため通常は0件で終わる。
package sweep

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Recorder は削除件数を記録するメトリクスのインターフェース。
type Recorder interface {
	RecordOrphanTrackingDeleted(count int64)
}

const deleteOrphansQuery = `DELETE FROM tracking t
WHERE NOT EXISTS (
    SELECT 1 FROM goals g WHERE g.id = t.goal_id AND g.user_id = t.user_id
)`

// Job は孤立した追跡レコードの削除ジョブ。冪等。
type Job struct {
	db       Executor
	logger   *slog.Logger
	recorder Recorder
}

// NewJob は新しいJobを生成する。recorderはnilでもよい。
func NewJob(db Executor, logger *slog.Logger, recorder Recorder) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{
		db:       db,
		logger:   logger,
		recorder: recorder,
	}
}

// Run は孤立した追跡レコードを1回削除し、削除件数を返す。
func (j *Job) Run(ctx context.Context) (int64, error) {
	start := time.Now()

	result, err := j.db.ExecContext(ctx, deleteOrphansQuery)
	if err != nil {
		j.logger.Error("orphan sweep failed",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("delete orphan tracking: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	if j.recorder != nil && deleted > 0 {
		j.recorder.RecordOrphanTrackingDeleted(deleted)
	}

	j.logger.Info("orphan sweep completed",
		slog.Int64("deleted_count", deleted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return deleted, nil
}

// Loop は起動直後に1回、その後intervalごとにRunを実行する。
// ctxがキャンセルされるまでブロックする。個々の実行の失敗はログに残して継続する。
func (j *Job) Loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	_, _ = j.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("orphan sweep loop stopped")
			return
		case <-ticker.C:
			_, _ = j.Run(ctx)
		}
	}
}
