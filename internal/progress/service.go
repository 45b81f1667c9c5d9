// Package progress は目標の追跡操作と、追跡データからのヒートマップ集計を提供する。
package progress

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/streakboard/internal/heatmap"
	"github.com/hitoshi/streakboard/internal/model"
	"github.com/hitoshi/streakboard/internal/repository"
)

// TrackRecorder は追跡成功を記録するメトリクスのインターフェース。
type TrackRecorder interface {
	RecordGoalTracked()
}

// Service は追跡とヒートマップのサービス層。
type Service struct {
	goals    repository.GoalRepository
	tracking repository.TrackingRepository
	clock    heatmap.Clock
	recorder TrackRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
// clockがnilの場合はUTCのシステム時刻を使う。
func NewService(goals repository.GoalRepository, tracking repository.TrackingRepository, clock heatmap.Clock) *Service {
	if clock == nil {
		clock = heatmap.UTCClock{}
	}
	return &Service{
		goals:    goals,
		tracking: tracking,
		clock:    clock,
	}
}

// WithRecorder は追跡メトリクスの記録先を設定する。
func (s *Service) WithRecorder(r TrackRecorder) *Service {
	s.recorder = r
	return s
}

// Track は目標のcurrentを1加算し、今日の追跡回数を1加算する。
// 一般ユーザーは自分の目標のみ、管理者は任意の目標を追跡できる。
// 対象が存在しないか所有者が異なる場合はGOAL_NOT_FOUNDを返す。
func (s *Service) Track(ctx context.Context, actor *model.User, goalID string) (*model.Goal, error) {
	if actor == nil {
		return nil, model.NewUnauthenticatedError()
	}

	day := heatmap.Today(s.clock)
	scope := repository.ScopeFor(actor)

	goal, err := s.goals.Track(ctx, scope, goalID, day)
	if err != nil {
		return nil, fmt.Errorf("目標の追跡に失敗しました: %w", err)
	}
	if goal == nil {
		return nil, model.NewGoalNotFoundError(goalID)
	}

	if s.recorder != nil {
		s.recorder.RecordGoalTracked()
	}
	slog.Debug("goal tracked",
		slog.String("goal_id", goal.ID),
		slog.String("actor_id", actor.ID),
		slog.String("scope", scope.String()),
		slog.String("day", day),
		slog.Int("current", goal.Current),
	)

	return goal, nil
}

// Heatmap は所有者の追跡回数を日付ごとに合算して返す。
// 日付の昇順で、活動のない日は含まない。活動がなければ空のスライスを返す。
func (s *Service) Heatmap(ctx context.Context, ownerID string) ([]heatmap.Entry, error) {
	entries, err := s.tracking.HeatmapByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ヒートマップの取得に失敗しました: %w", err)
	}
	// 同一日付の重複や0件をストア実装に依存せず正規化する
	return heatmap.Entries(heatmap.FromEntries(entries)), nil
}
