package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGoogleIDTokenVerifier_Verify_Success(t *testing.T) {
	idp := newTestIdP(t)
	v := idp.verifier()

	claims, err := v.Verify(context.Background(), idp.sign(t, validClaims()))
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	if claims.Subject != "google-sub-12345" {
		t.Errorf("Subject = %q", claims.Subject)
	}
	if claims.Email != "user@gmail.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Name != "Google User" {
		t.Errorf("Name = %q", claims.Name)
	}
	if claims.Picture == "" {
		t.Error("Picture should be set")
	}
	if claims.ExpiresAt.Before(time.Now()) {
		t.Errorf("ExpiresAt = %v, should be in the future", claims.ExpiresAt)
	}
}

func TestGoogleIDTokenVerifier_Verify_EmailVerified(t *testing.T) {
	idp := newTestIdP(t)
	v := idp.verifier()

	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"真偽値true", true, true},
		{"真偽値false", false, false},
		{"文字列true", "true", true},
		{"文字列false", "false", false},
		{"クレームなし", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validClaims()
			if tt.value == nil {
				delete(c, "email_verified")
			} else {
				c["email_verified"] = tt.value
			}

			claims, err := v.Verify(context.Background(), idp.sign(t, c))
			if err != nil {
				t.Fatalf("Verify returned error: %v", err)
			}
			if claims.EmailVerified != tt.want {
				t.Errorf("EmailVerified = %v, want %v", claims.EmailVerified, tt.want)
			}
		})
	}
}

func TestGoogleIDTokenVerifier_Verify_AcceptsBareIssuer(t *testing.T) {
	idp := newTestIdP(t)
	c := validClaims()
	c["iss"] = "accounts.google.com"

	if _, err := idp.verifier().Verify(context.Background(), idp.sign(t, c)); err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
}

func TestGoogleIDTokenVerifier_Verify_Rejects(t *testing.T) {
	idp := newTestIdP(t)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	tests := []struct {
		name  string
		token func() string
	}{
		{"空トークン", func() string { return "" }},
		{"形式不正", func() string { return "not.a.jwt" }},
		{"audience不一致", func() string {
			c := validClaims()
			c["aud"] = "someone-else"
			return idp.sign(t, c)
		}},
		{"issuer不一致", func() string {
			c := validClaims()
			c["iss"] = "https://evil.example.com"
			return idp.sign(t, c)
		}},
		{"期限切れ", func() string {
			c := validClaims()
			c["exp"] = time.Now().Add(-time.Hour).Unix()
			return idp.sign(t, c)
		}},
		{"exp欠落", func() string {
			c := validClaims()
			delete(c, "exp")
			return idp.sign(t, c)
		}},
		{"subject欠落", func() string {
			c := validClaims()
			delete(c, "sub")
			return idp.sign(t, c)
		}},
		{"署名鍵が異なる", func() string {
			return signWith(t, otherKey, idp.kid, validClaims())
		}},
		{"未知のkid", func() string {
			return signWith(t, idp.key, "rotated-away", validClaims())
		}},
		{"HS256は受け付けない", func() string {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
			token.Header["kid"] = idp.kid
			raw, _ := token.SignedString([]byte("shared-secret"))
			return raw
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := idp.verifier().Verify(context.Background(), tt.token())
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("error should wrap ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestGoogleIDTokenVerifier_CachesJWKS(t *testing.T) {
	idp := newTestIdP(t)
	v := idp.verifier()

	for i := 0; i < 3; i++ {
		if _, err := v.Verify(context.Background(), idp.sign(t, validClaims())); err != nil {
			t.Fatalf("Verify #%d returned error: %v", i, err)
		}
	}

	if hits := idp.hits.Load(); hits != 1 {
		t.Errorf("JWKS fetched %d times, want 1", hits)
	}
}
