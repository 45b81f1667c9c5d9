package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/streakboard/internal/goal"
	"github.com/hitoshi/streakboard/internal/heatmap"
	"github.com/hitoshi/streakboard/internal/model"
)

// GoalServiceInterface は目標ハンドラーが必要とするサービスインターフェース。
type GoalServiceInterface interface {
	Create(ctx context.Context, actor *model.User, in goal.CreateInput) (*model.Goal, error)
	List(ctx context.Context, actor *model.User) ([]*model.Goal, error)
	Delete(ctx context.Context, actor *model.User, goalID string) error
}

// ProgressServiceInterface は追跡とヒートマップのサービスインターフェース。
type ProgressServiceInterface interface {
	Track(ctx context.Context, actor *model.User, goalID string) (*model.Goal, error)
	Heatmap(ctx context.Context, ownerID string) ([]heatmap.Entry, error)
}

// GoalHandler は目標・追跡・ヒートマップのHTTPハンドラー。
type GoalHandler struct {
	goals    GoalServiceInterface
	progress ProgressServiceInterface
}

// NewGoalHandler はGoalHandlerを生成する。
func NewGoalHandler(goals GoalServiceInterface, progress ProgressServiceInterface) *GoalHandler {
	return &GoalHandler{
		goals:    goals,
		progress: progress,
	}
}

// createGoalRequest は目標作成リクエストのボディ。
// targetが省略された場合は0になる。
type createGoalRequest struct {
	Name   string `json:"name"`
	Target int    `json:"target"`
	Color  string `json:"color"`
}

// ListGoals は自分の目標一覧を返す。
// GET /api/goals
func (h *GoalHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	goals, err := h.goals.List(r.Context(), user)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponses(goals))
}

// CreateGoal は目標を作成する。
// POST /api/goals
func (h *GoalHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	var req createGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, model.NewInvalidRequestError())
		return
	}

	created, err := h.goals.Create(r.Context(), user, goal.CreateInput{
		Name:   req.Name,
		Target: req.Target,
		Color:  req.Color,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalResponse(created))
}

// DeleteGoal は目標と紐づく追跡データを削除する。
// DELETE /api/goals/{id}
func (h *GoalHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	if err := h.goals.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// TrackGoal は目標の進捗を1加算する。
// POST /api/goals/{id}/track
func (h *GoalHandler) TrackGoal(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	tracked, err := h.progress.Track(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	resp := toGoalResponse(tracked)
	writeJSON(w, http.StatusOK, successResponse{Success: true, Goal: &resp})
}

// Heatmap は自分の日別追跡回数を返す。
// GET /api/stats/heatmap
func (h *GoalHandler) Heatmap(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	entries, err := h.progress.Heatmap(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
