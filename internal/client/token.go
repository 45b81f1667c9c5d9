package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/streakboard/internal/client/kv"
	"github.com/zalando/go-keyring"
)

// ErrNoToken は保存されたトークンがないことを表す。
var ErrNoToken = errors.New("no token stored")

// TokenStore はbearerトークンの保存先を抽象化する。
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// KVTokenStore はkv.Storeの固定キーにトークンを保存する。
type KVTokenStore struct {
	kv kv.Store
}

// NewKVTokenStore はKVTokenStoreを生成する。
func NewKVTokenStore(store kv.Store) *KVTokenStore {
	return &KVTokenStore{kv: store}
}

// Load は保存済みトークンを返す。未保存の場合はErrNoToken。
func (s *KVTokenStore) Load(ctx context.Context) (string, error) {
	token, ok, err := s.kv.Get(ctx, KeyToken)
	if err != nil {
		return "", err
	}
	if !ok || token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Save はトークンを保存する。
func (s *KVTokenStore) Save(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}
	return s.kv.Set(ctx, KeyToken, token)
}

// Clear はトークンを削除する。
func (s *KVTokenStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, KeyToken)
}

// keyringService はOSキーリングのサービス名。
const keyringService = "streakboard"

// KeyringTokenStore はOSキーリングにトークンを保存する。
type KeyringTokenStore struct {
	user string
}

// NewKeyringTokenStore はKeyringTokenStoreを生成する。userが空の場合は"default"。
func NewKeyringTokenStore(user string) *KeyringTokenStore {
	if user == "" {
		user = "default"
	}
	return &KeyringTokenStore{user: user}
}

// Load は保存済みトークンを返す。未保存の場合はErrNoToken。
func (s *KeyringTokenStore) Load(_ context.Context) (string, error) {
	token, err := keyring.Get(keyringService, s.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("read token from keyring: %w", err)
	}
	return token, nil
}

// Save はトークンを保存する。
func (s *KeyringTokenStore) Save(_ context.Context, token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}
	if err := keyring.Set(keyringService, s.user, token); err != nil {
		return fmt.Errorf("store token in keyring: %w", err)
	}
	return nil
}

// Clear はトークンを削除する。未保存でもエラーにしない。
func (s *KeyringTokenStore) Clear(_ context.Context) error {
	err := keyring.Delete(keyringService, s.user)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete token from keyring: %w", err)
	}
	return nil
}

// compile-time interface check
var (
	_ TokenStore = (*KVTokenStore)(nil)
	_ TokenStore = (*KeyringTokenStore)(nil)
)
