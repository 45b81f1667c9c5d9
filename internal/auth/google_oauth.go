package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken はトークンの形式不正・期限切れ・署名や受信者の検証失敗を表す。
var ErrInvalidToken = errors.New("invalid id token")

// googleIssuers はGoogleのID tokenとして受け入れるiss。
var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// Claims は検証済みID tokenから取り出したユーザー情報。
type Claims struct {
	Subject       string
	Email         string
	EmailVerified bool // IdPがメールアドレスの所有を確認済みか
	Name          string
	Picture       string
	ExpiresAt     time.Time
}

// TokenVerifier はbearerトークンを検証してClaimsを返すインターフェース。
// IdPを差し替えられるように抽象化する。
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Claims, error)
}

// GoogleIDTokenConfig はGoogle ID token検証の設定。
type GoogleIDTokenConfig struct {
	ClientID string

	// テスト用にオーバーライド可能
	JWKSURL    string
	HTTPClient *http.Client
	Now        func() time.Time
}

// GoogleIDTokenVerifier はGoogleが発行したID token（RS256）を検証する。
type GoogleIDTokenVerifier struct {
	clientID string
	keys     *JWKSCache
	now      func() time.Time
}

// NewGoogleIDTokenVerifier はGoogleIDTokenVerifierを生成する。
func NewGoogleIDTokenVerifier(config GoogleIDTokenConfig) *GoogleIDTokenVerifier {
	if config.JWKSURL == "" {
		config.JWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	keys := NewJWKSCache(config.JWKSURL, config.HTTPClient)
	keys.now = config.Now
	return &GoogleIDTokenVerifier{
		clientID: config.ClientID,
		keys:     keys,
		now:      config.Now,
	}
}

// verifiedFlag はemail_verifiedクレーム。booleanと文字列"true"の両方を受け付ける。
type verifiedFlag bool

func (f *verifiedFlag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = verifiedFlag(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("email_verified: %w", err)
	}
	*f = s == "true"
	return nil
}

// googleClaims はGoogle ID tokenのペイロード。
type googleClaims struct {
	Email         string       `json:"email"`
	EmailVerified verifiedFlag `json:"email_verified"`
	Name          string       `json:"name"`
	Picture       string       `json:"picture"`
	jwt.RegisteredClaims
}

// Verify はID tokenの署名・aud・iss・expを検証し、Claimsを返す。
// 検証に失敗した場合はErrInvalidTokenをラップしたエラーを返す。
func (v *GoogleIDTokenVerifier) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	if rawToken == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(30*time.Second),
		jwt.WithTimeFunc(v.now),
	)

	var claims googleClaims
	_, err := parser.ParseWithClaims(rawToken, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.keys.Key(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !googleIssuers[claims.Issuer] {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: empty email", ErrInvalidToken)
	}

	return &Claims{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: bool(claims.EmailVerified),
		Name:          claims.Name,
		Picture:       claims.Picture,
		ExpiresAt:     claims.ExpiresAt.Time,
	}, nil
}

// compile-time interface check
var _ TokenVerifier = (*GoogleIDTokenVerifier)(nil)
