package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/streakboard/internal/admin"
	"github.com/hitoshi/streakboard/internal/goal"
	"github.com/hitoshi/streakboard/internal/heatmap"
	"github.com/hitoshi/streakboard/internal/middleware"
	"github.com/hitoshi/streakboard/internal/model"
)

// --- モック定義 ---

type mockGoalService struct {
	createFn func(ctx context.Context, actor *model.User, in goal.CreateInput) (*model.Goal, error)
	listFn   func(ctx context.Context, actor *model.User) ([]*model.Goal, error)
	deleteFn func(ctx context.Context, actor *model.User, goalID string) error
}

func (m *mockGoalService) Create(ctx context.Context, actor *model.User, in goal.CreateInput) (*model.Goal, error) {
	if m.createFn != nil {
		return m.createFn(ctx, actor, in)
	}
	return &model.Goal{ID: "g-new", UserID: actor.ID, Name: in.Name, Target: in.Target, Color: in.Color}, nil
}

func (m *mockGoalService) List(ctx context.Context, actor *model.User) ([]*model.Goal, error) {
	if m.listFn != nil {
		return m.listFn(ctx, actor)
	}
	return []*model.Goal{}, nil
}

func (m *mockGoalService) Delete(ctx context.Context, actor *model.User, goalID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, actor, goalID)
	}
	return nil
}

type mockProgressService struct {
	trackFn   func(ctx context.Context, actor *model.User, goalID string) (*model.Goal, error)
	heatmapFn func(ctx context.Context, ownerID string) ([]heatmap.Entry, error)
}

func (m *mockProgressService) Track(ctx context.Context, actor *model.User, goalID string) (*model.Goal, error) {
	if m.trackFn != nil {
		return m.trackFn(ctx, actor, goalID)
	}
	return &model.Goal{ID: goalID, UserID: actor.ID, Current: 1}, nil
}

func (m *mockProgressService) Heatmap(ctx context.Context, ownerID string) ([]heatmap.Entry, error) {
	if m.heatmapFn != nil {
		return m.heatmapFn(ctx, ownerID)
	}
	return []heatmap.Entry{}, nil
}

type mockThoughtService struct {
	createFn func(ctx context.Context, actor *model.User, text string) (*model.Thought, error)
	listFn   func(ctx context.Context, actor *model.User) ([]*model.Thought, error)
	deleteFn func(ctx context.Context, actor *model.User, thoughtID string) error
}

func (m *mockThoughtService) Create(ctx context.Context, actor *model.User, text string) (*model.Thought, error) {
	if m.createFn != nil {
		return m.createFn(ctx, actor, text)
	}
	return &model.Thought{ID: "t-new", UserID: actor.ID, Text: text}, nil
}

func (m *mockThoughtService) List(ctx context.Context, actor *model.User) ([]*model.Thought, error) {
	if m.listFn != nil {
		return m.listFn(ctx, actor)
	}
	return []*model.Thought{}, nil
}

func (m *mockThoughtService) Delete(ctx context.Context, actor *model.User, thoughtID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, actor, thoughtID)
	}
	return nil
}

type mockAdminService struct {
	listUsersFn    func(ctx context.Context) ([]*model.User, error)
	userProgressFn func(ctx context.Context, userID string) (*admin.UserProgress, error)
	userHeatmapFn  func(ctx context.Context, userID string) ([]heatmap.Entry, error)
}

func (m *mockAdminService) ListUsers(ctx context.Context) ([]*model.User, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(ctx)
	}
	return []*model.User{}, nil
}

func (m *mockAdminService) UserProgress(ctx context.Context, userID string) (*admin.UserProgress, error) {
	if m.userProgressFn != nil {
		return m.userProgressFn(ctx, userID)
	}
	return &admin.UserProgress{}, nil
}

func (m *mockAdminService) UserHeatmap(ctx context.Context, userID string) ([]heatmap.Entry, error) {
	if m.userHeatmapFn != nil {
		return m.userHeatmapFn(ctx, userID)
	}
	return []heatmap.Entry{}, nil
}

// compile-time interface check
var (
	_ GoalServiceInterface     = (*mockGoalService)(nil)
	_ ProgressServiceInterface = (*mockProgressService)(nil)
	_ ThoughtServiceInterface  = (*mockThoughtService)(nil)
	_ AdminServiceInterface    = (*mockAdminService)(nil)
)

// --- テストヘルパー ---

var (
	testUser  = &model.User{ID: "user-123", Email: "user@example.com", Name: "User", Role: model.RoleUser}
	testAdmin = &model.User{ID: "admin-1", Email: "admin@example.com", Name: "Admin", Role: model.RoleAdmin}
)

// withUser はテスト用にリクエストコンテキストにユーザーを注入するヘルパー。
func withUser(r *http.Request, user *model.User) *http.Request {
	return r.WithContext(middleware.ContextWithUser(r.Context(), user))
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}
