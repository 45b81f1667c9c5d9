package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/streakboard/internal/model"
)

// RateLimiterConfig はユーザーごとのレート制限の設定。
type RateLimiterConfig struct {
	PerMinute       int           // 1ユーザーあたりの毎分リクエスト数
	Burst           int           // 連続で許可するリクエスト数
	IdleTTL         time.Duration // これより長く使われていないリミッターは破棄する
	CleanupInterval time.Duration
}

// DefaultRateLimiterConfig は120 req/min/userの設定を返す。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return NewRateLimiterConfig(120)
}

// NewRateLimiterConfig は毎分perMinuteリクエストの設定を返す。
// バーストは1分間の上限と同じ。0以下の場合は120。
func NewRateLimiterConfig(perMinute int) RateLimiterConfig {
	if perMinute <= 0 {
		perMinute = 120
	}
	return RateLimiterConfig{
		PerMinute:       perMinute,
		Burst:           perMinute,
		IdleTTL:         10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

func (c RateLimiterConfig) limit() rate.Limit {
	return rate.Limit(float64(c.PerMinute) / 60.0)
}

// RateLimitRecorder は制限で拒否したリクエストを記録する。
type RateLimitRecorder interface {
	RecordRateLimited()
}

type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はユーザーIDごとにトークンバケットを持つ。
type RateLimiter struct {
	config   RateLimiterConfig
	now      func() time.Time
	recorder RateLimitRecorder

	mu       sync.Mutex
	limiters map[string]*userLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter はRateLimiterを生成し、アイドルなリミッターの掃除を開始する。
// 使い終わったらStopを呼ぶこと。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.PerMinute <= 0 {
		config.PerMinute = 120
	}
	if config.Burst <= 0 {
		config.Burst = config.PerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 2 * config.CleanupInterval
	}

	rl := &RateLimiter{
		config:   config,
		now:      time.Now,
		limiters: make(map[string]*userLimiter),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// WithRecorder は拒否の記録先を設定する。
func (rl *RateLimiter) WithRecorder(recorder RateLimitRecorder) *RateLimiter {
	rl.recorder = recorder
	return rl
}

// Stop は掃除ゴルーチンを停止する。複数回呼んでもよい。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Middleware は認証済みユーザーごとにリクエストを制限する。
// NewAuthMiddlewareの内側に置くこと。
func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				WriteAPIError(w, model.NewUnauthenticatedError())
				return
			}

			now := rl.now()
			limiter := rl.limiterFor(userID, now)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.config.PerMinute))

			res := limiter.ReserveN(now, 1)
			if delay := res.DelayFrom(now); !res.OK() || delay > 0 {
				res.CancelAt(now)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(delay)))
				WriteAPIError(w, model.NewRateLimitedError())
				if rl.recorder != nil {
					rl.recorder.RecordRateLimited()
				}
				slog.Warn("rate limit exceeded",
					slog.String("user_id", userID),
					slog.String("path", r.URL.Path),
				)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.TokensAt(now))))
			next.ServeHTTP(w, r)
		})
	}
}

// LimiterCount は保持しているリミッターの数を返す。
func (rl *RateLimiter) LimiterCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) limiterFor(userID string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	ul, ok := rl.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(rl.config.limit(), rl.config.Burst)}
		rl.limiters[userID] = ul
	}
	ul.lastAccess = now
	return ul.limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(rl.now())
		case <-rl.stopCh:
			return
		}
	}
}

// evictIdle はIdleTTLより長く使われていないリミッターを破棄し、破棄した数を返す。
func (rl *RateLimiter) evictIdle(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	evicted := 0
	for userID, ul := range rl.limiters {
		if now.Sub(ul.lastAccess) > rl.config.IdleTTL {
			delete(rl.limiters, userID)
			evicted++
		}
	}
	return evicted
}

// retryAfterSeconds は待ち時間を切り上げた秒数にする。最小1秒。
func retryAfterSeconds(delay time.Duration) int {
	sec := int(math.Ceil(delay.Seconds()))
	if sec < 1 {
		return 1
	}
	return sec
}
