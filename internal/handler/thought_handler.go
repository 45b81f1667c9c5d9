package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/streakboard/internal/model"
)

// ThoughtServiceInterface はメモハンドラーが必要とするサービスインターフェース。
type ThoughtServiceInterface interface {
	Create(ctx context.Context, actor *model.User, text string) (*model.Thought, error)
	List(ctx context.Context, actor *model.User) ([]*model.Thought, error)
	Delete(ctx context.Context, actor *model.User, thoughtID string) error
}

// ThoughtHandler はメモのHTTPハンドラー。
type ThoughtHandler struct {
	service ThoughtServiceInterface
}

// NewThoughtHandler はThoughtHandlerを生成する。
func NewThoughtHandler(service ThoughtServiceInterface) *ThoughtHandler {
	return &ThoughtHandler{service: service}
}

type createThoughtRequest struct {
	Text string `json:"text"`
}

// ListThoughts は自分のメモを新しい順に返す。
// GET /api/thoughts
func (h *ThoughtHandler) ListThoughts(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	thoughts, err := h.service.List(r.Context(), user)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toThoughtResponses(thoughts))
}

// CreateThought はメモを作成する。
// POST /api/thoughts
func (h *ThoughtHandler) CreateThought(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	var req createThoughtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, model.NewInvalidRequestError())
		return
	}

	th, err := h.service.Create(r.Context(), user, req.Text)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toThoughtResponses([]*model.Thought{th})[0])
}

// DeleteThought はメモを削除する。
// DELETE /api/thoughts/{id}
func (h *ThoughtHandler) DeleteThought(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	if err := h.service.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
