package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/hitoshi/streakboard/internal/client/kv"
	"github.com/hitoshi/streakboard/internal/heatmap"
)

// Mode はセッションの種別。
type Mode string

const (
	ModeRemote Mode = "remote"
	ModeGuest  Mode = "guest"
)

// ErrNoSession はログインもゲストモードの選択もされていないことを表す。
var ErrNoSession = errors.New("not signed in: run 'streakboard login --token <id-token>' or 'streakboard guest'")

// Session は起動時に1度だけ選択されるProgressStoreを保持する。
type Session struct {
	Mode  Mode
	Store ProgressStore

	// Remote はModeRemoteの場合のみ設定される。
	Remote *RemoteStore
}

// SessionConfig はOpenSessionの設定。
type SessionConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Clock      heatmap.Clock
}

// OpenSession は保存済みトークンがあればRemoteStore、ゲストフラグがあればGuestStoreを選ぶ。
// 両方ある場合はトークンを優先する。どちらもない場合はErrNoSession。
func OpenSession(ctx context.Context, store kv.Store, tokens TokenStore, cfg SessionConfig) (*Session, error) {
	token, err := tokens.Load(ctx)
	switch {
	case err == nil:
		remote := NewRemoteStore(cfg.BaseURL, token, cfg.HTTPClient)
		return &Session{Mode: ModeRemote, Store: remote, Remote: remote}, nil
	case !errors.Is(err, ErrNoToken):
		return nil, err
	}

	guest, ok, err := store.Get(ctx, KeyGuest)
	if err != nil {
		return nil, err
	}
	if ok && guest == "true" {
		return &Session{Mode: ModeGuest, Store: NewGuestStore(store, cfg.Clock)}, nil
	}
	return nil, ErrNoSession
}

// Login はトークンを保存し、ゲストフラグを外す。
func Login(ctx context.Context, store kv.Store, tokens TokenStore, token string) error {
	if err := tokens.Save(ctx, token); err != nil {
		return err
	}
	return store.Delete(ctx, KeyGuest)
}

// EnterGuest はトークンを破棄してゲストモードにする。
// 以前のゲストデータはそのまま引き継がれる。
func EnterGuest(ctx context.Context, store kv.Store, tokens TokenStore) error {
	if err := tokens.Clear(ctx); err != nil {
		return err
	}
	return store.Set(ctx, KeyGuest, "true")
}

// Logout はトークンとゲストフラグを削除する。ゲストデータは削除しない。
func Logout(ctx context.Context, store kv.Store, tokens TokenStore) error {
	if err := tokens.Clear(ctx); err != nil {
		return err
	}
	return store.Delete(ctx, KeyGuest)
}
