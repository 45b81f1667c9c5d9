package client

import (
	"context"

	"github.com/hitoshi/streakboard/internal/heatmap"
)

// ローカルストアの固定キー。
const (
	KeyGuest    = "streakboard.guest"
	KeyToken    = "streakboard.token"
	KeyGoals    = "streakboard.goals"
	KeyThoughts = "streakboard.thoughts"
	KeyHeatmap  = "streakboard.heatmap"
)

// NewGoal は目標作成の入力。
type NewGoal struct {
	Name   string `json:"name"`
	Target int    `json:"target"`
	Color  string `json:"color"`
}

// ProgressStore は目標・メモ・ヒートマップの操作を抽象化する。
// 認証済みならRemoteStore、ゲストモードならGuestStoreが実装する。
type ProgressStore interface {
	ListGoals(ctx context.Context) ([]Goal, error)
	AddGoal(ctx context.Context, in NewGoal) (Goal, error)
	DeleteGoal(ctx context.Context, id string) error
	Track(ctx context.Context, id string) (Goal, error)
	Heatmap(ctx context.Context) ([]heatmap.Entry, error)

	ListThoughts(ctx context.Context) ([]Thought, error)
	AddThought(ctx context.Context, text string) (Thought, error)
	DeleteThought(ctx context.Context, id string) error
}
