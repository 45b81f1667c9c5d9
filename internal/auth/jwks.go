package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultJWKSMaxAge           = time.Hour
	defaultJWKSMinRefresh       = time.Minute
	maxJWKSResponseSize   int64 = 1 << 20
)

// jwk はJSON Web Keyのうち、RSA公開鍵の復元に必要なフィールド。
type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

// JWKSCache はIdPの署名公開鍵セットを取得してメモリにキャッシュする。
// Cache-Controlのmax-ageが切れた場合と、未知のkidを要求された場合に再取得する。
type JWKSCache struct {
	url        string
	client     *http.Client
	now        func() time.Time
	minRefresh time.Duration

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	expiresAt   time.Time
	lastFetched time.Time
}

// NewJWKSCache はJWKSCacheを生成する。clientがnilの場合は10秒タイムアウトのクライアントを使う。
func NewJWKSCache(url string, client *http.Client) *JWKSCache {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &JWKSCache{
		url:        url,
		client:     client,
		now:        time.Now,
		minRefresh: defaultJWKSMinRefresh,
		keys:       map[string]*rsa.PublicKey{},
	}
}

// Key はkidに対応するRSA公開鍵を返す。
func (c *JWKSCache) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.RLock()
	key, ok := c.keys[kid]
	fresh := c.now().Before(c.expiresAt)
	canRefresh := c.now().Sub(c.lastFetched) >= c.minRefresh
	c.mu.RUnlock()

	if ok && fresh {
		return key, nil
	}
	if !fresh || canRefresh {
		if err := c.refresh(ctx); err != nil {
			if ok {
				// 再取得に失敗しても既知の鍵は使い続ける
				return key, nil
			}
			return nil, err
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok = c.keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown signing key id: %q", kid)
	}
	return key, nil
}

// refresh はJWKSエンドポイントから鍵セットを取得し直す。
func (c *JWKSCache) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create jwks request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("jwks request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read jwks response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks fetch failed with status %d", resp.StatusCode)
	}

	var set jwkSet
	if err := json.Unmarshal(body, &set); err != nil {
		return fmt.Errorf("failed to parse jwks response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := parseRSAPublicKey(k.N, k.E)
		if err != nil {
			return fmt.Errorf("invalid jwk %q: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return fmt.Errorf("jwks response contains no usable RSA keys")
	}

	now := c.now()
	c.mu.Lock()
	c.keys = keys
	c.lastFetched = now
	c.expiresAt = now.Add(maxAge(resp.Header.Get("Cache-Control")))
	c.mu.Unlock()

	return nil
}

// parseRSAPublicKey はbase64urlエンコードされたmodulusとexponentからRSA公開鍵を復元する。
func parseRSAPublicKey(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	exp := new(big.Int).SetBytes(eb)
	if !exp.IsInt64() || exp.Int64() < 3 || exp.Int64() > 1<<31-1 {
		return nil, fmt.Errorf("unsupported exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: int(exp.Int64())}, nil
}

// maxAge はCache-Controlヘッダーのmax-ageを返す。指定がなければ1時間。
func maxAge(cacheControl string) time.Duration {
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		if v, ok := strings.CutPrefix(directive, "max-age="); ok {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return defaultJWKSMaxAge
}
