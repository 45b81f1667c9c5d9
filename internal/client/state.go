// Package client はターミナルクライアントの状態管理を提供する。
// 認証済みの場合はAPIを呼び出し、ゲストモードでは同じ操作を端末ローカルの状態に適用する。
package client

import (
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/hitoshi/streakboard/internal/model"
)

// ErrNotFound は指定したIDの目標またはメモが存在しないことを表す。
var ErrNotFound = errors.New("not found")

// User はAPIが返すユーザー情報。
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Goal は目標。ゲストモードではUserIDが空になる。
type Goal struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Name      string    `json:"name"`
	Target    int       `json:"target"`
	Current   int       `json:"current"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// Ratio は進捗率を[0, 1]の範囲で返す。
func (g Goal) Ratio() float64 {
	return (&model.Goal{Target: g.Target, Current: g.Current}).Ratio()
}

// Thought はメモ。ゲストモードではUserIDが空になる。
type Thought struct {
	ID     string    `json:"id"`
	UserID string    `json:"user_id,omitempty"`
	Text   string    `json:"text"`
	Date   time.Time `json:"date"`
}

// TrackingEvent は管理者の進捗参照で返る日別追跡レコード。
type TrackingEvent struct {
	ID     string `json:"id"`
	GoalID string `json:"goal_id"`
	UserID string `json:"user_id"`
	Date   string `json:"date"`
	Count  int    `json:"count"`
}

// UserProgress は管理者が参照する特定ユーザーの全データ。
type UserProgress struct {
	Goals    []Goal          `json:"goals"`
	Thoughts []Thought       `json:"thoughts"`
	Tracking []TrackingEvent `json:"tracking"`
}

// State はゲストモードの状態全体。Heatmapは日付→回数のフラットなマッピング。
type State struct {
	Goals    []Goal
	Thoughts []Thought
	Heatmap  map[string]int
}

// 以下のreducerは入力のStateを変更せず、新しいStateを返す。

// AddGoal は目標を末尾に追加する。
func AddGoal(s State, g Goal) State {
	next := s.clone()
	next.Goals = append(next.Goals, g)
	return next
}

// DeleteGoal は目標を削除する。
// ヒートマップは目標ごとの内訳を持たないため変更しない。
func DeleteGoal(s State, id string) (State, error) {
	i := slices.IndexFunc(s.Goals, func(g Goal) bool { return g.ID == id })
	if i < 0 {
		return s, ErrNotFound
	}
	next := s.clone()
	next.Goals = slices.Delete(next.Goals, i, i+1)
	return next, nil
}

// Track は目標のCurrentとday日のヒートマップをそれぞれ1加算する。
func Track(s State, id, day string) (State, Goal, error) {
	i := slices.IndexFunc(s.Goals, func(g Goal) bool { return g.ID == id })
	if i < 0 {
		return s, Goal{}, ErrNotFound
	}
	next := s.clone()
	next.Goals[i].Current++
	next.Heatmap[day]++
	return next, next.Goals[i], nil
}

// AddThought はメモを先頭に追加する。一覧は新しい順。
func AddThought(s State, t Thought) State {
	next := s.clone()
	next.Thoughts = append([]Thought{t}, next.Thoughts...)
	return next
}

// DeleteThought はメモを削除する。
func DeleteThought(s State, id string) (State, error) {
	i := slices.IndexFunc(s.Thoughts, func(t Thought) bool { return t.ID == id })
	if i < 0 {
		return s, ErrNotFound
	}
	next := s.clone()
	next.Thoughts = slices.Delete(next.Thoughts, i, i+1)
	return next, nil
}

func (s State) clone() State {
	next := State{
		Goals:    slices.Clone(s.Goals),
		Thoughts: slices.Clone(s.Thoughts),
		Heatmap:  maps.Clone(s.Heatmap),
	}
	if next.Goals == nil {
		next.Goals = []Goal{}
	}
	if next.Thoughts == nil {
		next.Thoughts = []Thought{}
	}
	if next.Heatmap == nil {
		next.Heatmap = map[string]int{}
	}
	return next
}
