// Package auth はbearerトークンの検証と、ユーザーレコードへの解決を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/streakboard/internal/model"
	"github.com/hitoshi/streakboard/internal/repository"
)

// StarterGoal は初回ユーザー作成時に用意する目標の定義。
type StarterGoal struct {
	Name   string
	Target int
	Color  string
}

// DefaultStarterGoals は初期目標のデフォルト。
var DefaultStarterGoals = []StarterGoal{
	{Name: "Read 10 Pages", Target: 10, Color: "#00d2ff"},
	{Name: "Code 2 Hours", Target: 2, Color: "#a29bfe"},
}

// GoalCreator は初期目標の作成に必要な目標リポジトリの操作。
type GoalCreator interface {
	Create(ctx context.Context, goal *model.Goal) error
}

// UserCreatedRecorder はユーザー作成のメトリクス記録インターフェース。
type UserCreatedRecorder interface {
	RecordUserCreated()
}

// ResolverConfig は解決サービスの設定。
type ResolverConfig struct {
	// AdminEmail と完全一致するメールアドレスのユーザーを管理者として作成する。
	// 空の場合は誰も管理者にならない。
	AdminEmail string

	// SeedStarterGoals がtrueの場合、ユーザー作成時にStarterGoalsを作成する。
	SeedStarterGoals bool
	StarterGoals     []StarterGoal
}

// Resolver はbearerトークンをユーザーレコードに解決する。
// 初めて見るsubjectの場合はユーザーを作成する。
type Resolver struct {
	verifier TokenVerifier
	users    repository.UserRepository
	goals    GoalCreator
	cache    IdentityCache
	recorder UserCreatedRecorder
	config   ResolverConfig
	now      func() time.Time
}

// NewResolver はResolverを生成する。goalsはSeedStarterGoalsが無効ならnilでよい。
func NewResolver(verifier TokenVerifier, users repository.UserRepository, goals GoalCreator, config ResolverConfig) *Resolver {
	if config.StarterGoals == nil {
		config.StarterGoals = DefaultStarterGoals
	}
	return &Resolver{
		verifier: verifier,
		users:    users,
		goals:    goals,
		config:   config,
		now:      time.Now,
	}
}

// WithCache は解決結果のキャッシュを設定する。
func (r *Resolver) WithCache(cache IdentityCache) *Resolver {
	r.cache = cache
	return r
}

// WithRecorder はユーザー作成のメトリクス記録先を設定する。
func (r *Resolver) WithRecorder(recorder UserCreatedRecorder) *Resolver {
	r.recorder = recorder
	return r
}

// Resolve はトークンを検証し、対応するユーザーを返す。
// トークンが空・不正・期限切れの場合はUNAUTHENTICATEDのAPIErrorを返す。
// 永続化層のエラーはそのままラップして返す。
func (r *Resolver) Resolve(ctx context.Context, rawToken string) (*model.User, error) {
	if rawToken == "" {
		return nil, model.NewUnauthenticatedError()
	}

	if r.cache != nil {
		user, err := r.cache.Get(ctx, rawToken)
		if err != nil {
			slog.Warn("identity cache lookup failed", slog.String("error", err.Error()))
		} else if user != nil {
			return user, nil
		}
	}

	claims, err := r.verifier.Verify(ctx, rawToken)
	if err != nil {
		if !errors.Is(err, ErrInvalidToken) {
			slog.Warn("token verification failed", slog.String("error", err.Error()))
		}
		return nil, model.NewUnauthenticatedError()
	}

	user, err := r.findOrCreate(ctx, claims)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, rawToken, user, claims.ExpiresAt); err != nil {
			slog.Warn("identity cache store failed", slog.String("error", err.Error()))
		}
	}

	return user, nil
}

// findOrCreate はsubjectに対応するユーザーを返し、存在しなければ作成する。
// ロールは作成時にのみ決まり、以後のログインでは変更しない。
func (r *Resolver) findOrCreate(ctx context.Context, claims *Claims) (*model.User, error) {
	existing, err := r.users.FindByExternalID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	role := model.RoleUser
	if r.isAdminIdentity(claims) {
		role = model.RoleAdmin
	}

	user, created, err := r.users.CreateIfAbsent(ctx, &model.User{
		ID:         uuid.New().String(),
		ExternalID: claims.Subject,
		Email:      claims.Email,
		Name:       claims.Name,
		AvatarURL:  claims.Picture,
		Role:       role,
		CreatedAt:  r.now(),
	})
	if errors.Is(err, repository.ErrEmailTaken) {
		slog.Warn("email already registered to another subject",
			slog.String("external_id", claims.Subject),
		)
		return nil, model.NewEmailConflictError()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if !created {
		return user, nil
	}

	slog.Info("new user created",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	if r.recorder != nil {
		r.recorder.RecordUserCreated()
	}

	if r.config.SeedStarterGoals && r.goals != nil {
		r.seedStarterGoals(ctx, user.ID)
	}

	return user, nil
}

// isAdminIdentity は管理者メールアドレスと一致し、IdPが所有確認済みの場合にtrueを返す。
func (r *Resolver) isAdminIdentity(claims *Claims) bool {
	return r.config.AdminEmail != "" && claims.EmailVerified && claims.Email == r.config.AdminEmail
}

// seedStarterGoals は初期目標を作成する。失敗してもユーザー作成は成功扱いにする。
func (r *Resolver) seedStarterGoals(ctx context.Context, userID string) {
	for _, sg := range r.config.StarterGoals {
		goal := &model.Goal{
			ID:        uuid.New().String(),
			UserID:    userID,
			Name:      sg.Name,
			Target:    sg.Target,
			Color:     sg.Color,
			CreatedAt: r.now(),
		}
		if err := r.goals.Create(ctx, goal); err != nil {
			slog.Warn("failed to seed starter goal",
				slog.String("user_id", userID),
				slog.String("goal", sg.Name),
				slog.String("error", err.Error()),
			)
		}
	}
}
