package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/streakboard/internal/model"
)

// requestAs は認証済みユーザーを注入したリクエストを生成する。
func requestAs(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
	return req.WithContext(ContextWithUser(req.Context(), &model.User{ID: userID, Role: model.RoleUser}))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// fakeNow はテストから進められる時計。
type fakeNow struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeNow) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeNow) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

type countingRecorder struct {
	mu    sync.Mutex
	count int
}

func (c *countingRecorder) RecordRateLimited() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
}

// newTestLimiter は毎分perMinute・バーストburstで、時計を差し替えたRateLimiterを返す。
func newTestLimiter(t *testing.T, perMinute, burst int) (*RateLimiter, *fakeNow) {
	t.Helper()
	clock := &fakeNow{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(RateLimiterConfig{PerMinute: perMinute, Burst: burst, CleanupInterval: time.Hour})
	rl.now = clock.Now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl, _ := newTestLimiter(t, 60, 3)
	rec := &countingRecorder{}
	rl.WithRecorder(rec)
	handler := rl.Middleware()(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestAs("user-1"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
		if got := w.Header().Get("X-RateLimit-Limit"); got != "60" {
			t.Errorf("X-RateLimit-Limit = %q, want 60", got)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs("user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1 (one token per second)", got)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Code != model.ErrCodeRateLimited {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeRateLimited)
	}
	if rec.count != 1 {
		t.Errorf("recorded = %d, want 1", rec.count)
	}
}

func TestRateLimiter_RemainingHeader(t *testing.T) {
	rl, _ := newTestLimiter(t, 60, 3)
	handler := rl.Middleware()(okHandler())

	want := []string{"2", "1", "0"}
	for i, remaining := range want {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestAs("user-1"))
		if got := w.Header().Get("X-RateLimit-Remaining"); got != remaining {
			t.Errorf("request %d: X-RateLimit-Remaining = %q, want %q", i, got, remaining)
		}
	}
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	rl, clock := newTestLimiter(t, 60, 1)
	handler := rl.Middleware()(okHandler())

	send := func() int {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestAs("user-1"))
		return w.Code
	}

	if got := send(); got != http.StatusOK {
		t.Fatalf("first: status = %d", got)
	}
	if got := send(); got != http.StatusTooManyRequests {
		t.Fatalf("second: status = %d, want 429", got)
	}

	clock.Advance(time.Second)
	if got := send(); got != http.StatusOK {
		t.Errorf("after refill: status = %d, want 200", got)
	}
}

func TestRateLimiter_RejectedRequestDoesNotConsume(t *testing.T) {
	rl, clock := newTestLimiter(t, 60, 1)
	handler := rl.Middleware()(okHandler())

	send := func() int {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestAs("user-1"))
		return w.Code
	}

	send()
	for i := 0; i < 5; i++ {
		send() // 拒否されたリクエストは予約を取り消す
	}
	clock.Advance(time.Second)
	if got := send(); got != http.StatusOK {
		t.Errorf("status = %d, want 200 after one second regardless of rejected attempts", got)
	}
}

func TestRateLimiter_PerUserIsolation(t *testing.T) {
	rl, _ := newTestLimiter(t, 60, 1)
	handler := rl.Middleware()(okHandler())

	tests := []struct {
		name   string
		userID string
		want   int
	}{
		{"user-aの1回目", "user-a", http.StatusOK},
		{"user-aの2回目は拒否", "user-a", http.StatusTooManyRequests},
		{"user-bは独立", "user-b", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, requestAs(tt.userID))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}

	if got := rl.LimiterCount(); got != 2 {
		t.Errorf("LimiterCount = %d, want 2", got)
	}
}

func TestRateLimiter_NoUserReturns401(t *testing.T) {
	rl, _ := newTestLimiter(t, 60, 1)
	called := false
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/goals", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("next handler should not be called without a user")
	}
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl, clock := newTestLimiter(t, 60, 1)
	rl.config.IdleTTL = 10 * time.Minute
	handler := rl.Middleware()(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), requestAs("old"))
	clock.Advance(9 * time.Minute)
	handler.ServeHTTP(httptest.NewRecorder(), requestAs("recent"))
	clock.Advance(2 * time.Minute)

	if got := rl.evictIdle(clock.Now()); got != 1 {
		t.Errorf("evicted = %d, want 1", got)
	}
	if got := rl.LimiterCount(); got != 1 {
		t.Errorf("LimiterCount = %d, want 1", got)
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	rl.Stop()
	rl.Stop()
}

func TestRateLimitMiddleware_InChainWithAuth(t *testing.T) {
	resolver := &mockResolver{
		resolveFn: func(_ context.Context, token string) (*model.User, error) {
			if token == "rate-limit-token" {
				return &model.User{ID: "user-rate-chain"}, nil
			}
			return nil, model.NewUnauthenticatedError()
		},
	}
	rl, _ := newTestLimiter(t, 60, 2)

	handler := NewAuthMiddleware(resolver)(rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserIDFromContext(r.Context())
		json.NewEncoder(w).Encode(map[string]string{"user_id": userID})
	})))

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
		req.Header.Set("Authorization", "Bearer rate-limit-token")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if got := send(); got != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, got, http.StatusOK)
		}
	}
	if got := send(); got != http.StatusTooManyRequests {
		t.Errorf("request 3: status = %d, want %d", got, http.StatusTooManyRequests)
	}
}

func TestNewRateLimiterConfig(t *testing.T) {
	tests := []struct {
		name      string
		perMinute int
		want      int
	}{
		{"指定値", 60, 60},
		{"デフォルト", 120, 120},
		{"0はデフォルト", 0, 120},
		{"負値はデフォルト", -5, 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewRateLimiterConfig(tt.perMinute)
			if cfg.PerMinute != tt.want || cfg.Burst != tt.want {
				t.Errorf("PerMinute/Burst = %d/%d, want %d", cfg.PerMinute, cfg.Burst, tt.want)
			}
			if cfg.IdleTTL <= 0 || cfg.CleanupInterval <= 0 {
				t.Errorf("intervals should be positive: %+v", cfg)
			}
		})
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		delay time.Duration
		want  int
	}{
		{0, 1},
		{200 * time.Millisecond, 1},
		{1500 * time.Millisecond, 2},
		{30 * time.Second, 30},
	}
	for _, tt := range tests {
		if got := retryAfterSeconds(tt.delay); got != tt.want {
			t.Errorf("retryAfterSeconds(%v) = %d, want %d", tt.delay, got, tt.want)
		}
	}
}
