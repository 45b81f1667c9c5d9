package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/streakboard/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Resolver          middleware.IdentityResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	HTTPMetrics       middleware.HTTPRecorder

	// メトリクス公開（nilの場合は/metricsを登録しない）
	MetricsHandler http.Handler

	// サービス
	GoalService     GoalServiceInterface
	ProgressService ProgressServiceInterface
	ThoughtService  ThoughtServiceInterface
	AdminService    AdminServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RequestID → SecurityHeaders → CORS → Logging → Metrics → [Auth → RateLimit] → [RequireAdmin]
//
// /api/health と /metrics は認証不要。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(chimw.RequestID)
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}

	goalHandler := NewGoalHandler(deps.GoalService, deps.ProgressService)
	thoughtHandler := NewThoughtHandler(deps.ThoughtService)
	adminHandler := NewAdminHandler(deps.AdminService)

	// --- 認証不要のルート ---
	r.Get("/api/health", Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Resolver))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		r.Get("/api/me", Me)

		r.Route("/api/goals", func(r chi.Router) {
			r.Get("/", goalHandler.ListGoals)
			r.Post("/", goalHandler.CreateGoal)
			r.Delete("/{id}", goalHandler.DeleteGoal)
			r.Post("/{id}/track", goalHandler.TrackGoal)
		})

		r.Get("/api/stats/heatmap", goalHandler.Heatmap)

		r.Route("/api/thoughts", func(r chi.Router) {
			r.Get("/", thoughtHandler.ListThoughts)
			r.Post("/", thoughtHandler.CreateThought)
			r.Delete("/{id}", thoughtHandler.DeleteThought)
		})

		// 管理者専用
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Get("/users", adminHandler.ListUsers)
			r.Get("/user/{userId}/progress", adminHandler.UserProgress)
			r.Get("/user/{userId}/heatmap", adminHandler.UserHeatmap)
		})
	})

	return r
}
