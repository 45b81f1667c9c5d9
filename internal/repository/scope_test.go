package repository

import (
	"testing"

	"github.com/hitoshi/streakboard/internal/model"
)

func TestScopeFor(t *testing.T) {
	tests := []struct {
		name    string
		user    *model.User
		wantAny bool
		wantID  string
	}{
		{"一般ユーザーは本人スコープ", &model.User{ID: "u1", Role: model.RoleUser}, false, "u1"},
		{"管理者は全件スコープ", &model.User{ID: "a1", Role: model.RoleAdmin}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ScopeFor(tt.user)
			if s.IsAny() != tt.wantAny {
				t.Errorf("IsAny() = %v, want %v", s.IsAny(), tt.wantAny)
			}
			if s.OwnerID() != tt.wantID {
				t.Errorf("OwnerID() = %q, want %q", s.OwnerID(), tt.wantID)
			}
		})
	}
}

func TestScope_Condition(t *testing.T) {
	t.Run("Selfは所有者条件を追加する", func(t *testing.T) {
		cond, args := SelfScope("owner-1").condition("user_id", []any{"goal-1"})
		if cond != " AND user_id = $2" {
			t.Errorf("cond = %q", cond)
		}
		if len(args) != 2 || args[1] != "owner-1" {
			t.Errorf("args = %v", args)
		}
	})

	t.Run("Anyは条件を追加しない", func(t *testing.T) {
		cond, args := AnyScope().condition("user_id", []any{"goal-1"})
		if cond != "" {
			t.Errorf("cond = %q, want empty", cond)
		}
		if len(args) != 1 {
			t.Errorf("args = %v", args)
		}
	})
}

func TestScope_String(t *testing.T) {
	if got := SelfScope("u1").String(); got != "self:u1" {
		t.Errorf("String() = %q", got)
	}
	if got := AnyScope().String(); got != "any" {
		t.Errorf("String() = %q", got)
	}
}

func TestValidID(t *testing.T) {
	if !validID("3f2c1a9e-8b7d-4c6e-9f10-1a2b3c4d5e6f") {
		t.Error("UUID should be valid")
	}
	for _, id := range []string{"", "42", "not-a-uuid", "507f1f77bcf86cd799439011"} {
		if validID(id) {
			t.Errorf("validID(%q) = true, want false", id)
		}
	}
}
