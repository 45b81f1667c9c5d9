package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/streakboard/internal/heatmap"
)

// ErrUnauthenticated はトークンが無効または期限切れであることを表す。
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrForbidden は権限が不足していることを表す。
var ErrForbidden = errors.New("forbidden")

// APIError はAPIのエラーレスポンス。
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("api error: status %d", e.Status)
}

// Is はステータスに応じてErrNotFound・ErrUnauthenticated・ErrForbiddenと一致させる。
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthenticated:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	}
	return false
}

// RemoteStore はbearerトークンでAPIを呼び出すProgressStore。
type RemoteStore struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewRemoteStore はRemoteStoreを生成する。httpClientがnilの場合はタイムアウト付きのクライアントを使う。
func NewRemoteStore(baseURL, token string, httpClient *http.Client) *RemoteStore {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &RemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// do はリクエストを送り、2xxならレスポンスをoutにデコードする。
func (s *RemoteStore) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		// ボディが解釈できなくてもステータスだけで判定できる
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type successBody struct {
	Success bool  `json:"success"`
	Goal    *Goal `json:"goal,omitempty"`
}

// Me は認証済みユーザー自身の情報を返す。
func (s *RemoteStore) Me(ctx context.Context) (User, error) {
	var u User
	err := s.do(ctx, http.MethodGet, "/api/me", nil, &u)
	return u, err
}

// ListGoals は自分の目標一覧を返す。
func (s *RemoteStore) ListGoals(ctx context.Context) ([]Goal, error) {
	var goals []Goal
	if err := s.do(ctx, http.MethodGet, "/api/goals", nil, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

// AddGoal は目標を作成する。
func (s *RemoteStore) AddGoal(ctx context.Context, in NewGoal) (Goal, error) {
	var g Goal
	err := s.do(ctx, http.MethodPost, "/api/goals", in, &g)
	return g, err
}

// DeleteGoal は目標を削除する。
func (s *RemoteStore) DeleteGoal(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/api/goals/"+url.PathEscape(id), nil, &successBody{})
}

// Track は目標の進捗を1加算し、更新後の目標を返す。
func (s *RemoteStore) Track(ctx context.Context, id string) (Goal, error) {
	var body successBody
	if err := s.do(ctx, http.MethodPost, "/api/goals/"+url.PathEscape(id)+"/track", nil, &body); err != nil {
		return Goal{}, err
	}
	if body.Goal == nil {
		return Goal{}, errors.New("track response has no goal")
	}
	return *body.Goal, nil
}

// Heatmap は自分のヒートマップを返す。
func (s *RemoteStore) Heatmap(ctx context.Context) ([]heatmap.Entry, error) {
	var entries []heatmap.Entry
	if err := s.do(ctx, http.MethodGet, "/api/stats/heatmap", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListThoughts は自分のメモを新しい順に返す。
func (s *RemoteStore) ListThoughts(ctx context.Context) ([]Thought, error) {
	var thoughts []Thought
	if err := s.do(ctx, http.MethodGet, "/api/thoughts", nil, &thoughts); err != nil {
		return nil, err
	}
	return thoughts, nil
}

// AddThought はメモを作成する。
func (s *RemoteStore) AddThought(ctx context.Context, text string) (Thought, error) {
	var th Thought
	err := s.do(ctx, http.MethodPost, "/api/thoughts", map[string]string{"text": text}, &th)
	return th, err
}

// DeleteThought はメモを削除する。
func (s *RemoteStore) DeleteThought(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/api/thoughts/"+url.PathEscape(id), nil, &successBody{})
}

// AdminUsers は全ユーザーを返す。管理者のみ。
func (s *RemoteStore) AdminUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.do(ctx, http.MethodGet, "/api/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AdminProgress は指定ユーザーの目標・メモ・追跡レコードを返す。管理者のみ。
func (s *RemoteStore) AdminProgress(ctx context.Context, userID string) (UserProgress, error) {
	var p UserProgress
	err := s.do(ctx, http.MethodGet, "/api/admin/user/"+url.PathEscape(userID)+"/progress", nil, &p)
	return p, err
}

// AdminHeatmap は指定ユーザーのヒートマップを返す。管理者のみ。
func (s *RemoteStore) AdminHeatmap(ctx context.Context, userID string) ([]heatmap.Entry, error) {
	var entries []heatmap.Entry
	if err := s.do(ctx, http.MethodGet, "/api/admin/user/"+url.PathEscape(userID)+"/heatmap", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// compile-time interface check
var _ ProgressStore = (*RemoteStore)(nil)
