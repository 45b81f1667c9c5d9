package goal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/streakboard/internal/model"
	"github.com/hitoshi/streakboard/internal/repository"
	"github.com/hitoshi/streakboard/internal/security"
)

// --- モック ---

type mockGoalRepo struct {
	createFn      func(ctx context.Context, goal *model.Goal) error
	listByOwnerFn func(ctx context.Context, ownerID string) ([]*model.Goal, error)
	deleteFn      func(ctx context.Context, scope repository.Scope, id string) (bool, error)
}

func (m *mockGoalRepo) Create(ctx context.Context, goal *model.Goal) error {
	if m.createFn != nil {
		return m.createFn(ctx, goal)
	}
	return nil
}
func (m *mockGoalRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Goal, error) {
	return m.listByOwnerFn(ctx, ownerID)
}
func (m *mockGoalRepo) FindByID(ctx context.Context, scope repository.Scope, id string) (*model.Goal, error) {
	return nil, nil
}
func (m *mockGoalRepo) Delete(ctx context.Context, scope repository.Scope, id string) (bool, error) {
	return m.deleteFn(ctx, scope, id)
}
func (m *mockGoalRepo) Track(ctx context.Context, scope repository.Scope, id, day string) (*model.Goal, error) {
	return nil, nil
}

var (
	alice = &model.User{ID: "alice", Role: model.RoleUser}
	admin = &model.User{ID: "root", Role: model.RoleAdmin}
)

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T (%v)", err, err)
	}
	if apiErr.Code != code {
		t.Errorf("Code = %q, want %q", apiErr.Code, code)
	}
}

// --- テスト ---

func TestService_Create(t *testing.T) {
	var stored *model.Goal
	repo := &mockGoalRepo{
		createFn: func(_ context.Context, g *model.Goal) error {
			stored = g
			return nil
		},
	}
	svc := NewService(repo, security.NewTextSanitizer())

	goal, err := svc.Create(context.Background(), alice, CreateInput{Name: "Read 10 Pages", Target: 10, Color: "#00d2ff"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if stored != goal {
		t.Error("returned goal should be the stored goal")
	}
	if goal.ID == "" || goal.UserID != "alice" {
		t.Errorf("goal = %+v", goal)
	}
	if goal.Name != "Read 10 Pages" || goal.Target != 10 || goal.Color != "#00d2ff" {
		t.Errorf("goal fields = %+v", goal)
	}
	if goal.Current != 0 {
		t.Errorf("Current = %d, want 0", goal.Current)
	}
	if goal.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestService_Create_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"空文字列", ""},
		{"空白のみ", "   "},
		{"タグのみ", "<script>alert(1)</script>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockGoalRepo{
				createFn: func(_ context.Context, _ *model.Goal) error {
					t.Error("Create should not reach the repository")
					return nil
				},
			}
			svc := NewService(repo, security.NewTextSanitizer())

			_, err := svc.Create(context.Background(), alice, CreateInput{Name: tt.input, Target: 1})
			assertCode(t, err, model.ErrCodeValidationFailed)
		})
	}
}

func TestService_Create_TargetNotValidated(t *testing.T) {
	svc := NewService(&mockGoalRepo{}, security.NewTextSanitizer())

	for _, target := range []int{0, -5} {
		goal, err := svc.Create(context.Background(), alice, CreateInput{Name: "Stretch", Target: target})
		if err != nil {
			t.Fatalf("target %d: Create returned error: %v", target, err)
		}
		if goal.Target != target {
			t.Errorf("Target = %d, want %d", goal.Target, target)
		}
		if goal.Ratio() != 0 {
			t.Errorf("Ratio() = %v, want 0", goal.Ratio())
		}
	}
}

func TestService_Create_SanitizesName(t *testing.T) {
	svc := NewService(&mockGoalRepo{}, security.NewTextSanitizer())

	goal, err := svc.Create(context.Background(), alice, CreateInput{Name: "<b>Run</b> 5km", Color: `<i>red</i>`})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if goal.Name != "Run 5km" {
		t.Errorf("Name = %q, want %q", goal.Name, "Run 5km")
	}
	if strings.Contains(goal.Color, "<") {
		t.Errorf("Color = %q, want markup removed", goal.Color)
	}
}

func TestService_Create_StoreError(t *testing.T) {
	repo := &mockGoalRepo{
		createFn: func(_ context.Context, _ *model.Goal) error { return errors.New("insert failed") },
	}
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), alice, CreateInput{Name: "Read"})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("store failure should not be an APIError, got %s", apiErr.Code)
	}
}

func TestService_List_AlwaysOwnGoals(t *testing.T) {
	repo := &mockGoalRepo{
		listByOwnerFn: func(_ context.Context, ownerID string) ([]*model.Goal, error) {
			if ownerID != "root" {
				t.Errorf("ownerID = %q, want root", ownerID)
			}
			return nil, nil
		},
	}
	svc := NewService(repo, nil)

	goals, err := svc.List(context.Background(), admin)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if goals == nil || len(goals) != 0 {
		t.Errorf("List = %#v, want empty non-nil slice", goals)
	}
}

func TestService_Delete(t *testing.T) {
	tests := []struct {
		name      string
		actor     *model.User
		deleted   bool
		wantScope string
		wantCode  string
	}{
		{"所有者は削除できる", alice, true, "self:alice", ""},
		{"他人の目標は見つからない扱い", alice, false, "self:alice", model.ErrCodeGoalNotFound},
		{"管理者は任意の目標を削除できる", admin, true, "any", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotScope string
			repo := &mockGoalRepo{
				deleteFn: func(_ context.Context, scope repository.Scope, id string) (bool, error) {
					gotScope = scope.String()
					return tt.deleted, nil
				},
			}
			svc := NewService(repo, nil)

			err := svc.Delete(context.Background(), tt.actor, "g1")
			if tt.wantCode == "" && err != nil {
				t.Fatalf("Delete returned error: %v", err)
			}
			if tt.wantCode != "" {
				assertCode(t, err, tt.wantCode)
			}
			if gotScope != tt.wantScope {
				t.Errorf("scope = %q, want %q", gotScope, tt.wantScope)
			}
		})
	}
}

func TestService_NilActor(t *testing.T) {
	svc := NewService(&mockGoalRepo{}, nil)

	_, err := svc.Create(context.Background(), nil, CreateInput{Name: "x"})
	assertCode(t, err, model.ErrCodeUnauthenticated)

	_, err = svc.List(context.Background(), nil)
	assertCode(t, err, model.ErrCodeUnauthenticated)

	err = svc.Delete(context.Background(), nil, "g1")
	assertCode(t, err, model.ErrCodeUnauthenticated)
}

// compile-time interface check
var _ repository.GoalRepository = (*mockGoalRepo)(nil)
