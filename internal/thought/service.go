// Package thought は日々のメモの作成・一覧・削除のドメインロジックを提供する。
package thought

import (
	"context"
	"fmt"
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

// Service はメモ管理のサービス層。
type Service struct {
	thoughts  repository.ThoughtRepository
	sanitizer Sanitizer
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(thoughts repository.ThoughtRepository, sanitizer Sanitizer) *Service {
	return &Service{
		thoughts:  thoughts,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Create はメモを作成する。日時は作成時刻になる。
func (s *Service) Create(ctx context.Context, actor *model.User, text string) (*model.Thought, error) {
	if actor == nil {
		return nil, model.NewUnauthenticatedError()
	}

	text = strings.TrimSpace(text)
	if s.sanitizer != nil {
		text = s.sanitizer.Sanitize(text)
	}
	if text == "" {
		return nil, model.NewValidationError("text")
	}

	thought := &model.Thought{
		ID:     uuid.New().String(),
		UserID: actor.ID,
		Text:   text,
		Date:   s.now(),
	}
	if err := s.thoughts.Create(ctx, thought); err != nil {
		return nil, fmt.Errorf("メモの作成に失敗しました: %w", err)
	}
	return thought, nil
}

// List は操作ユーザー自身のメモを新しい順に返す。
func (s *Service) List(ctx context.Context, actor *model.User) ([]*model.Thought, error) {
	if actor == nil {
		return nil, model.NewUnauthenticatedError()
	}
	thoughts, err := s.thoughts.ListByOwner(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("メモ一覧の取得に失敗しました: %w", err)
	}
	if thoughts == nil {
		thoughts = []*model.Thought{}
	}
	return thoughts, nil
}

// Delete はメモを削除する。
// 一般ユーザーが他人のメモを指定した場合はTHOUGHT_NOT_FOUNDを返す。
func (s *Service) Delete(ctx context.Context, actor *model.User, thoughtID string) error {
	if actor == nil {
		return model.NewUnauthenticatedError()
	}
	deleted, err := s.thoughts.Delete(ctx, repository.ScopeFor(actor), thoughtID)
	if err != nil {
		return fmt.Errorf("メモの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewThoughtNotFoundError(thoughtID)
	}
	return nil
}
