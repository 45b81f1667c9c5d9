package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/streakboard/internal/client/kv"
	"github.com/hitoshi/streakboard/internal/heatmap"
)

// ErrEmptyField はゲストモードで必須項目が空だったことを表す。
var ErrEmptyField = errors.New("required field is empty")

// GuestStore はサーバーを使わず、kv.Storeに状態全体を保存するProgressStore。
// 各操作はコレクション全体を読み込み、reducerを適用して書き戻す。
type GuestStore struct {
	kv    kv.Store
	clock heatmap.Clock
	newID func() string
}

// NewGuestStore はGuestStoreを生成する。clockがnilの場合はUTCClockを使う。
func NewGuestStore(store kv.Store, clock heatmap.Clock) *GuestStore {
	if clock == nil {
		clock = heatmap.UTCClock{}
	}
	return &GuestStore{
		kv:    store,
		clock: clock,
		newID: func() string { return uuid.New().String() },
	}
}

// Load は保存されている状態全体を読み込む。未保存のコレクションは空になる。
func (s *GuestStore) Load(ctx context.Context) (State, error) {
	st := State{Goals: []Goal{}, Thoughts: []Thought{}, Heatmap: map[string]int{}}
	if err := s.read(ctx, KeyGoals, &st.Goals); err != nil {
		return State{}, err
	}
	if err := s.read(ctx, KeyThoughts, &st.Thoughts); err != nil {
		return State{}, err
	}
	if err := s.read(ctx, KeyHeatmap, &st.Heatmap); err != nil {
		return State{}, err
	}
	return st, nil
}

// save は状態全体を1回のSetManyで書き戻す。
// 書き込みに失敗した場合、保存済みの状態は変更前のまま残る。
func (s *GuestStore) save(ctx context.Context, st State) error {
	entries := make(map[string]string, 3)
	for key, v := range map[string]any{
		KeyGoals:    st.Goals,
		KeyThoughts: st.Thoughts,
		KeyHeatmap:  st.Heatmap,
	} {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		entries[key] = string(data)
	}
	return s.kv.SetMany(ctx, entries)
}

func (s *GuestStore) read(ctx context.Context, key string, v any) error {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// ListGoals は目標を作成順に返す。
func (s *GuestStore) ListGoals(ctx context.Context) ([]Goal, error) {
	st, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return st.Goals, nil
}

// AddGoal は目標を追加する。
func (s *GuestStore) AddGoal(ctx context.Context, in NewGoal) (Goal, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Goal{}, fmt.Errorf("name: %w", ErrEmptyField)
	}

	st, err := s.Load(ctx)
	if err != nil {
		return Goal{}, err
	}

	g := Goal{
		ID:        s.newID(),
		Name:      name,
		Target:    in.Target,
		Color:     in.Color,
		CreatedAt: s.clock.Now(),
	}
	if err := s.save(ctx, AddGoal(st, g)); err != nil {
		return Goal{}, err
	}
	return g, nil
}

// DeleteGoal は目標を削除する。
func (s *GuestStore) DeleteGoal(ctx context.Context, id string) error {
	st, err := s.Load(ctx)
	if err != nil {
		return err
	}
	next, err := DeleteGoal(st, id)
	if err != nil {
		return err
	}
	return s.save(ctx, next)
}

// Track は目標の進捗とヒートマップの今日の回数を加算する。
func (s *GuestStore) Track(ctx context.Context, id string) (Goal, error) {
	st, err := s.Load(ctx)
	if err != nil {
		return Goal{}, err
	}
	next, g, err := Track(st, id, heatmap.Today(s.clock))
	if err != nil {
		return Goal{}, err
	}
	if err := s.save(ctx, next); err != nil {
		return Goal{}, err
	}
	return g, nil
}

// Heatmap はヒートマップを日付昇順で返す。
func (s *GuestStore) Heatmap(ctx context.Context) ([]heatmap.Entry, error) {
	st, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return heatmap.Entries(st.Heatmap), nil
}

// ListThoughts はメモを新しい順に返す。
func (s *GuestStore) ListThoughts(ctx context.Context) ([]Thought, error) {
	st, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return st.Thoughts, nil
}

// AddThought はメモを追加する。
func (s *GuestStore) AddThought(ctx context.Context, text string) (Thought, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Thought{}, fmt.Errorf("text: %w", ErrEmptyField)
	}

	st, err := s.Load(ctx)
	if err != nil {
		return Thought{}, err
	}

	th := Thought{ID: s.newID(), Text: text, Date: s.clock.Now().Truncate(time.Second)}
	if err := s.save(ctx, AddThought(st, th)); err != nil {
		return Thought{}, err
	}
	return th, nil
}

// DeleteThought はメモを削除する。
func (s *GuestStore) DeleteThought(ctx context.Context, id string) error {
	st, err := s.Load(ctx)
	if err != nil {
		return err
	}
	next, err := DeleteThought(st, id)
	if err != nil {
		return err
	}
	return s.save(ctx, next)
}

// compile-time interface check
var _ ProgressStore = (*GuestStore)(nil)
