package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hitoshi/streakboard/internal/model"
	"github.com/redis/go-redis/v9"
)

// IdentityCache は検証済みトークンと解決済みユーザーの対応をキャッシュする。
// Getはキャッシュミスの場合nilを返す。
type IdentityCache interface {
	Get(ctx context.Context, rawToken string) (*model.User, error)
	Set(ctx context.Context, rawToken string, user *model.User, tokenExpiry time.Time) error
}

// cachedIdentity はRedisに保存するユーザー情報。
type cachedIdentity struct {
	UserID     string    `json:"user_id"`
	ExternalID string    `json:"external_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	AvatarURL  string    `json:"avatar_url"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// RedisIdentityCache はRedisを使用したIdentityCache。
// キーはトークンのSHA-256で、トークン自体は保存しない。
type RedisIdentityCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisIdentityCache はRedisに接続してRedisIdentityCacheを生成する。
func NewRedisIdentityCache(redisURL string, ttl time.Duration) (*RedisIdentityCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisIdentityCacheWithClient(client, ttl), nil
}

// NewRedisIdentityCacheWithClient は既存のRedisクライアントからキャッシュを生成する。
func NewRedisIdentityCacheWithClient(client *redis.Client, ttl time.Duration) *RedisIdentityCache {
	return &RedisIdentityCache{
		client: client,
		prefix: "identity:",
		ttl:    ttl,
	}
}

func (c *RedisIdentityCache) key(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return c.prefix + hex.EncodeToString(sum[:])
}

// Get はトークンに対応するユーザーを返す。キャッシュミスの場合はnilを返す。
func (c *RedisIdentityCache) Get(ctx context.Context, rawToken string) (*model.User, error) {
	data, err := c.client.Get(ctx, c.key(rawToken)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup identity cache: %w", err)
	}

	var ci cachedIdentity
	if err := json.Unmarshal([]byte(data), &ci); err != nil {
		return nil, fmt.Errorf("unmarshal cached identity: %w", err)
	}

	return &model.User{
		ID:         ci.UserID,
		ExternalID: ci.ExternalID,
		Email:      ci.Email,
		Name:       ci.Name,
		AvatarURL:  ci.AvatarURL,
		Role:       model.Role(ci.Role),
		CreatedAt:  ci.CreatedAt,
	}, nil
}

// Set はトークンとユーザーの対応を保存する。
// TTLは設定値とトークンの残り有効期間の短い方。期限切れのトークンは保存しない。
func (c *RedisIdentityCache) Set(ctx context.Context, rawToken string, user *model.User, tokenExpiry time.Time) error {
	ttl := c.ttl
	if remaining := time.Until(tokenExpiry); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(cachedIdentity{
		UserID:     user.ID,
		ExternalID: user.ExternalID,
		Email:      user.Email,
		Name:       user.Name,
		AvatarURL:  user.AvatarURL,
		Role:       string(user.Role),
		CreatedAt:  user.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal cached identity: %w", err)
	}

	if err := c.client.Set(ctx, c.key(rawToken), data, ttl).Err(); err != nil {
		return fmt.Errorf("save identity cache: %w", err)
	}
	return nil
}

// Ping はRedisへの疎通を確認する。
func (c *RedisIdentityCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close はRedis接続を閉じる。
func (c *RedisIdentityCache) Close() error {
	return c.client.Close()
}

// compile-time interface check
var _ IdentityCache = (*RedisIdentityCache)(nil)
