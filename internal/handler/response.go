package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/streakboard/internal/middleware"
	"github.com/hitoshi/streakboard/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// goalResponse は目標のAPIレスポンス。
type goalResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Target    int       `json:"target"`
	Current   int       `json:"current"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// thoughtResponse はメモのAPIレスポンス。
type thoughtResponse struct {
	ID     string    `json:"id"`
	UserID string    `json:"user_id"`
	Text   string    `json:"text"`
	Date   time.Time `json:"date"`
}

// trackingResponse は日別追跡レコードのAPIレスポンス。
type trackingResponse struct {
	ID     string `json:"id"`
	GoalID string `json:"goal_id"`
	UserID string `json:"user_id"`
	Date   string `json:"date"`
	Count  int    `json:"count"`
}

// successResponse は削除・追跡操作の成功レスポンス。
type successResponse struct {
	Success bool          `json:"success"`
	Goal    *goalResponse `json:"goal,omitempty"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toGoalResponse(g *model.Goal) goalResponse {
	return goalResponse{
		ID:        g.ID,
		UserID:    g.UserID,
		Name:      g.Name,
		Target:    g.Target,
		Current:   g.Current,
		Color:     g.Color,
		CreatedAt: g.CreatedAt,
	}
}

func toGoalResponses(goals []*model.Goal) []goalResponse {
	out := make([]goalResponse, len(goals))
	for i, g := range goals {
		out[i] = toGoalResponse(g)
	}
	return out
}

func toThoughtResponses(thoughts []*model.Thought) []thoughtResponse {
	out := make([]thoughtResponse, len(thoughts))
	for i, th := range thoughts {
		out[i] = thoughtResponse{ID: th.ID, UserID: th.UserID, Text: th.Text, Date: th.Date}
	}
	return out
}

func toTrackingResponses(events []*model.TrackingEvent) []trackingResponse {
	out := make([]trackingResponse, len(events))
	for i, e := range events {
		out[i] = trackingResponse{ID: e.ID, GoalID: e.GoalID, UserID: e.UserID, Date: e.Date, Count: e.Count}
	}
	return out
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeAPIError はコードに対応するステータスでapiErrを書き込む。
func writeAPIError(w http.ResponseWriter, apiErr *model.APIError) {
	middleware.WriteAPIError(w, apiErr)
}

// currentUser はリクエストコンテキストから認証済みユーザーを取り出す。
// 取り出せない場合は401を書き込みnilを返す。
func currentUser(w http.ResponseWriter, r *http.Request) *model.User {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIError(w, model.NewUnauthenticatedError())
		return nil
	}
	return user
}

// handleServiceError はサービス層のエラーをレスポンスに変換する。
// APIError以外は内部エラーとして扱い、詳細はログにのみ残す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIError(w, apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}
