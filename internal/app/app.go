package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/streakboard/internal/admin"
	"github.com/hitoshi/streakboard/internal/auth"
	"github.com/hitoshi/streakboard/internal/config"
	"github.com/hitoshi/streakboard/internal/database"
	"github.com/hitoshi/streakboard/internal/goal"
	"github.com/hitoshi/streakboard/internal/handler"
	"github.com/hitoshi/streakboard/internal/heatmap"
	"github.com/hitoshi/streakboard/internal/logger"
	"github.com/hitoshi/streakboard/internal/metrics"
	"github.com/hitoshi/streakboard/internal/middleware"
	"github.com/hitoshi/streakboard/internal/progress"
	"github.com/hitoshi/streakboard/internal/repository"
	"github.com/hitoshi/streakboard/internal/security"
	"github.com/hitoshi/streakboard/internal/thought"
	"github.com/hitoshi/streakboard/internal/worker/sweep"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer, cmd Command) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo, string(cmd))

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. LOG_LEVELを反映して再設定
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel), string(cmd))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(fmt.Sprintf("http://localhost:%s", port))
	}

	cfg, err := Init(w, cmd)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg, ParseMigrateDirection(args))
	default:
		return runServe(cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(databaseURL string) (*sql.DB, error) {
	db, err := database.Open(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// server はAPIサーバーの構成要素をまとめる。
type server struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
	cache       *auth.RedisIdentityCache
}

// close はサーバーが保持するバックグラウンドリソースを解放する。
func (s *server) close() {
	s.rateLimiter.Stop()
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			slog.Warn("failed to close identity cache", slog.String("error", err.Error()))
		}
	}
}

// newServer は全依存関係をワイヤリングし、ルーターを構築する。
// DB接続は遅延されるため、dbが未接続でもルーターの構築自体は成功する。
func newServer(cfg *config.Config, db *sql.DB, reg *prometheus.Registry) *server {
	collector := metrics.NewCollector(reg)

	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	goalRepo := repository.NewPostgresGoalRepo(db)
	thoughtRepo := repository.NewPostgresThoughtRepo(db)
	trackingRepo := repository.NewPostgresTrackingRepo(db)

	// 2. 認証
	verifier := auth.NewGoogleIDTokenVerifier(auth.GoogleIDTokenConfig{
		ClientID:   cfg.GoogleClientID,
		JWKSURL:    cfg.GoogleJWKSURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	})
	resolver := auth.NewResolver(verifier, userRepo, goalRepo, auth.ResolverConfig{
		AdminEmail:       cfg.AdminEmail,
		SeedStarterGoals: cfg.SeedStarterGoals,
	}).WithRecorder(collector)

	var cache *auth.RedisIdentityCache
	if cfg.RedisURL != "" {
		c, err := auth.NewRedisIdentityCache(cfg.RedisURL, cfg.IdentityCacheTTL)
		if err != nil {
			// キャッシュなしでも動作する
			slog.Warn("identity cache disabled", slog.String("error", err.Error()))
		} else {
			cache = c
			resolver.WithCache(cache)
			slog.Info("identity cache enabled", slog.Duration("ttl", cfg.IdentityCacheTTL))
		}
	}

	// 3. ドメインサービスの初期化
	sanitizer := security.NewTextSanitizer()
	goalService := goal.NewService(goalRepo, sanitizer)
	progressService := progress.NewService(goalRepo, trackingRepo, heatmap.UTCClock{}).WithRecorder(collector)
	thoughtService := thought.NewService(thoughtRepo, sanitizer)
	adminService := admin.NewService(userRepo, goalRepo, thoughtRepo, trackingRepo)

	// 4. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral)).WithRecorder(collector)

	router := handler.NewRouter(&handler.RouterDeps{
		Resolver:          resolver,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		HTTPMetrics:       collector,
		MetricsHandler:    metrics.Handler(reg),

		GoalService:     goalService,
		ProgressService: progressService,
		ThoughtService:  thoughtService,
		AdminService:    adminService,
	})

	return &server{
		handler:     router,
		rateLimiter: rateLimiter,
		cache:       cache,
	}
}

// newRegistry はプロセス情報とGoランタイム情報を含むレジストリを返す。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、マイグレーションを適用し、全依存関係をワイヤリングしてHTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	// 2. スキーマを最新にする
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// 3. ワイヤリング
	srv := newServer(cfg, db, newRegistry())
	defer srv.close()

	// 4. HTTPサーバーの起動
	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 孤立trackingの掃除ジョブを起動直後とORPHAN_SWEEP_INTERVALごとに実行する。
// SERVER_PORTでは /metrics と /api/health のみを公開し、掃除の件数をスクレイプできるようにする。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	reg := newRegistry()
	collector := metrics.NewCollector(reg)
	job := sweep.NewJob(db, slog.Default(), collector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           newWorkerHandler(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("worker metrics listener starting", slog.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker metrics listener failed", slog.String("error", err.Error()))
		}
	}()

	slog.Info("worker starting", slog.Duration("sweep_interval", cfg.OrphanSweepInterval))

	// ctxがキャンセルされるまでブロックする
	job.Loop(ctx, cfg.OrphanSweepInterval)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("worker metrics listener shutdown failed", slog.String("error", err.Error()))
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// newWorkerHandler はワーカーが公開するルートを返す。
// /api/health はhealthcheckサブコマンドがAPIサーバーと同じ形で叩けるようにする。
func newWorkerHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler(reg))
	mux.HandleFunc("GET /api/health", handler.Health)
	return mux
}

// runMigrate はデータベースマイグレーションを実行する。
// directionが"down"の場合は最新のマイグレーションを1つ戻す。
func runMigrate(cfg *config.Config, direction MigrateDirection) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		slog.String("direction", string(direction)),
	)

	switch direction {
	case MigrateDown:
		if err := database.RollbackMigration(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
	default:
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /api/health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(baseURL string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
