// Package goal は目標の作成・一覧・削除のドメインロジックを提供する。
package goal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/streakboard/internal/model"
	"github.com/hitoshi/streakboard/internal/repository"
)

// Sanitizer は自由記述テキストのサニタイズを行う。
type Sanitizer interface {
	Sanitize(raw string) string
}

// CreateInput は目標作成の入力値。
// Targetは検証しない（0や負数も受け付ける）。
type CreateInput struct {
	Name   string
	Target int
	Color  string
}

// Service は目標管理のサービス層。
type Service struct {
	goals     repository.GoalRepository
	sanitizer Sanitizer
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(goals repository.GoalRepository, sanitizer Sanitizer) *Service {
	return &Service{
		goals:     goals,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Create は操作ユーザーが所有する目標を作成する。currentは0から始まる。
// サニタイズ後の名前が空の場合はVALIDATION_FAILEDを返す。
func (s *Service) Create(ctx context.Context, actor *model.User, in CreateInput) (*model.Goal, error) {
	if actor == nil {
		return nil, model.NewUnauthenticatedError()
	}

	name := s.clean(in.Name)
	if name == "" {
		return nil, model.NewValidationError("name")
	}

	goal := &model.Goal{
		ID:        uuid.New().String(),
		UserID:    actor.ID,
		Name:      name,
		Target:    in.Target,
		Current:   0,
		Color:     s.clean(in.Color),
		CreatedAt: s.now(),
	}
	if err := s.goals.Create(ctx, goal); err != nil {
		return nil, fmt.Errorf("目標の作成に失敗しました: %w", err)
	}

	slog.Info("goal created",
		slog.String("goal_id", goal.ID),
		slog.String("user_id", actor.ID),
	)
	return goal, nil
}

// List は操作ユーザー自身の目標を作成日時の昇順で返す。
// 管理者であっても一覧は本人の目標に限定する。
func (s *Service) List(ctx context.Context, actor *model.User) ([]*model.Goal, error) {
	if actor == nil {
		return nil, model.NewUnauthenticatedError()
	}
	goals, err := s.goals.ListByOwner(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("目標一覧の取得に失敗しました: %w", err)
	}
	if goals == nil {
		goals = []*model.Goal{}
	}
	return goals, nil
}

// Delete は目標と紐づく追跡データを削除する。
// 一般ユーザーが他人の目標を指定した場合は存在しない場合と同じくGOAL_NOT_FOUNDを返す。
func (s *Service) Delete(ctx context.Context, actor *model.User, goalID string) error {
	if actor == nil {
		return model.NewUnauthenticatedError()
	}
	scope := repository.ScopeFor(actor)

	deleted, err := s.goals.Delete(ctx, scope, goalID)
	if err != nil {
		return fmt.Errorf("目標の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewGoalNotFoundError(goalID)
	}

	slog.Info("goal deleted",
		slog.String("goal_id", goalID),
		slog.String("actor_id", actor.ID),
		slog.String("scope", scope.String()),
	)
	return nil
}

func (s *Service) clean(raw string) string {
	v := strings.TrimSpace(raw)
	if s.sanitizer != nil {
		v = s.sanitizer.Sanitize(v)
	}
	return v
}
