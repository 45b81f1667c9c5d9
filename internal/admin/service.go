// Package admin は管理者向けのユーザー一覧と、ユーザー別の進捗閲覧を提供する。
// 管理者権限の確認はミドルウェアで行い、このパッケージはロールを再検証しない。
package admin

import (
	"context"
	"fmt"

	"github.com/hitoshi/streakboard/internal/heatmap"
	"github.com/hitoshi/streakboard/internal/model"
	"github.com/hitoshi/streakboard/internal/repository"
)

// UserProgress は指定ユーザーの目標・メモ・追跡データをまとめたもの。
type UserProgress struct {
	Goals    []*model.Goal
	Thoughts []*model.Thought
	Tracking []*model.TrackingEvent
}

// Service は管理者向けのサービス層。
type Service struct {
	users    repository.UserRepository
	goals    repository.GoalRepository
	thoughts repository.ThoughtRepository
	tracking repository.TrackingRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	users repository.UserRepository,
	goals repository.GoalRepository,
	thoughts repository.ThoughtRepository,
	tracking repository.TrackingRepository,
) *Service {
	return &Service{
		users:    users,
		goals:    goals,
		thoughts: thoughts,
		tracking: tracking,
	}
}

// ListUsers は全ユーザーを作成日時の昇順で返す。
func (s *Service) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	if users == nil {
		users = []*model.User{}
	}
	return users, nil
}

// UserProgress は指定ユーザーの目標・メモ・追跡データを返す。
// ユーザーが存在しない場合はUSER_NOT_FOUNDを返す。
func (s *Service) UserProgress(ctx context.Context, userID string) (*UserProgress, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	goals, err := s.goals.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("目標一覧の取得に失敗しました: %w", err)
	}
	thoughts, err := s.thoughts.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("メモ一覧の取得に失敗しました: %w", err)
	}
	tracking, err := s.tracking.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("追跡データの取得に失敗しました: %w", err)
	}

	progress := &UserProgress{
		Goals:    goals,
		Thoughts: thoughts,
		Tracking: tracking,
	}
	if progress.Goals == nil {
		progress.Goals = []*model.Goal{}
	}
	if progress.Thoughts == nil {
		progress.Thoughts = []*model.Thought{}
	}
	if progress.Tracking == nil {
		progress.Tracking = []*model.TrackingEvent{}
	}
	return progress, nil
}

// UserHeatmap は指定ユーザーのヒートマップを返す。
func (s *Service) UserHeatmap(ctx context.Context, userID string) ([]heatmap.Entry, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	entries, err := s.tracking.HeatmapByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ヒートマップの取得に失敗しました: %w", err)
	}
	return heatmap.Entries(heatmap.FromEntries(entries)), nil
}

func (s *Service) ensureUser(ctx context.Context, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}
	return nil
}
