package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/streakboard/internal/admin"
	"github.com/hitoshi/streakboard/internal/heatmap"
	"github.com/hitoshi/streakboard/internal/model"
)

// AdminServiceInterface は管理者ハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
	UserProgress(ctx context.Context, userID string) (*admin.UserProgress, error)
	UserHeatmap(ctx context.Context, userID string) ([]heatmap.Entry, error)
}

// AdminHandler は管理者向けのHTTPハンドラー。
// ルーターでRequireAdminの後に配置する。
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// userProgressResponse はユーザー別進捗のAPIレスポンス。
type userProgressResponse struct {
	Goals    []goalResponse     `json:"goals"`
	Thoughts []thoughtResponse  `json:"thoughts"`
	Tracking []trackingResponse `json:"tracking"`
}

// ListUsers は全ユーザーを返す。
// GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, out)
}

// UserProgress は指定ユーザーの目標・メモ・追跡データを返す。
// GET /api/admin/user/{userId}/progress
func (h *AdminHandler) UserProgress(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.UserProgress(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userProgressResponse{
		Goals:    toGoalResponses(p.Goals),
		Thoughts: toThoughtResponses(p.Thoughts),
		Tracking: toTrackingResponses(p.Tracking),
	})
}

// UserHeatmap は指定ユーザーのヒートマップを返す。
// GET /api/admin/user/{userId}/heatmap
func (h *AdminHandler) UserHeatmap(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.UserHeatmap(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
