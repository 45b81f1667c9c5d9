package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/streakboard/internal/heatmap"
	"github.com/hitoshi/streakboard/internal/model"
)

// PostgresTrackingRepo はPostgreSQLを使用した日別追跡リポジトリ。
type PostgresTrackingRepo struct {
	db *sql.DB
}

// NewPostgresTrackingRepo はPostgresTrackingRepoを生成する。
func NewPostgresTrackingRepo(db *sql.DB) *PostgresTrackingRepo {
	return &PostgresTrackingRepo{db: db}
}

// ListByOwner は所有者の追跡レコードを日付の昇順で返す。
func (r *PostgresTrackingRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.TrackingEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, goal_id, user_id, date, count FROM tracking
		 WHERE user_id = $1
		 ORDER BY date ASC, goal_id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking: %w", err)
	}
	defer rows.Close()

	events := []*model.TrackingEvent{}
	for rows.Next() {
		ev := &model.TrackingEvent{}
		if err := rows.Scan(&ev.ID, &ev.GoalID, &ev.UserID, &ev.Date, &ev.Count); err != nil {
			return nil, fmt.Errorf("failed to scan tracking: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracking: %w", err)
	}

	return events, nil
}

// HeatmapByOwner は所有者の追跡回数を日付ごとに合算して日付の昇順で返す。
func (r *PostgresTrackingRepo) HeatmapByOwner(ctx context.Context, ownerID string) ([]heatmap.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, SUM(count) FROM tracking
		 WHERE user_id = $1
		 GROUP BY date
		 HAVING SUM(count) > 0
		 ORDER BY date ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate heatmap: %w", err)
	}
	defer rows.Close()

	entries := []heatmap.Entry{}
	for rows.Next() {
		var e heatmap.Entry
		if err := rows.Scan(&e.Date, &e.Count); err != nil {
			return nil, fmt.Errorf("failed to scan heatmap entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate heatmap: %w", err)
	}

	return entries, nil
}

// compile-time interface check
var _ TrackingRepository = (*PostgresTrackingRepo)(nil)
