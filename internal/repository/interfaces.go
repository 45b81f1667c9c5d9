// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/streakboard/internal/heatmap"
	"github.com/hitoshi/streakboard/internal/model"
)

// ErrEmailTaken は別のexternal_idのユーザーが同じメールアドレスを使っていることを表す。
var ErrEmailTaken = errors.New("email already registered to another user")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByExternalID はIdPのsubjectでユーザーを検索する。見つからない場合はnilを返す。
	FindByExternalID(ctx context.Context, externalID string) (*model.User, error)

	// CreateIfAbsent はexternal_idが未登録の場合のみユーザーを作成する。
	// 同時に作成された場合も含め、永続化済みのユーザーと、今回作成したかどうかを返す。
	// メールアドレスが別ユーザーと重複する場合はErrEmailTakenを返す。
	CreateIfAbsent(ctx context.Context, user *model.User) (*model.User, bool, error)

	// List は全ユーザーを作成日時の昇順で返す。
	List(ctx context.Context) ([]*model.User, error)
}

// GoalRepository は目標データの永続化インターフェース。
// ID指定の操作はScopeで所有者を絞り込み、範囲外の目標は存在しないものとして扱う。
type GoalRepository interface {
	// Create は目標を作成する。
	Create(ctx context.Context, goal *model.Goal) error

	// ListByOwner は所有者の目標を作成日時の昇順で返す。
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Goal, error)

	// FindByID はスコープ内の目標を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, scope Scope, id string) (*model.Goal, error)

	// Delete はスコープ内の目標を削除する。紐づくtrackingはCASCADE削除される。
	// 削除対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, scope Scope, id string) (bool, error)

	// Track は目標のcurrentを1加算し、同じトランザクションで日別trackingをUPSERTする。
	// 目標が見つからない場合はnilを返す。
	Track(ctx context.Context, scope Scope, id, day string) (*model.Goal, error)
}

// ThoughtRepository はメモデータの永続化インターフェース。
type ThoughtRepository interface {
	// Create はメモを作成する。
	Create(ctx context.Context, thought *model.Thought) error

	// ListByOwner は所有者のメモを新しい順に返す。
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Thought, error)

	// Delete はスコープ内のメモを削除する。削除対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, scope Scope, id string) (bool, error)
}

// TrackingRepository は日別追跡データの読み取りインターフェース。
type TrackingRepository interface {
	// ListByOwner は所有者の追跡レコードを日付の昇順で返す。
	ListByOwner(ctx context.Context, ownerID string) ([]*model.TrackingEvent, error)

	// HeatmapByOwner は所有者の追跡回数を日付ごとに合算して返す。
	// 回数0の日は含まれない。
	HeatmapByOwner(ctx context.Context, ownerID string) ([]heatmap.Entry, error)
}
