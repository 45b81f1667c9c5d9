package repository

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/streakboard/internal/model"
)

// Scope はID指定操作の所有者フィルタを表す。
// Self は指定ユーザーの所有物のみ、Any は所有者を問わない。
type Scope struct {
	ownerID string
	any     bool
}

// SelfScope は指定ユーザーの所有物に限定するスコープを返す。
func SelfScope(ownerID string) Scope {
	return Scope{ownerID: ownerID}
}

// AnyScope は所有者を問わないスコープを返す。管理者のみが使用する。
func AnyScope() Scope {
	return Scope{any: true}
}

// ScopeFor は操作ユーザーのロールからID指定操作のスコープを決定する。
// 一覧取得は常に本人の所有物に限定するため、このスコープは使わない。
func ScopeFor(user *model.User) Scope {
	if user.IsAdmin() {
		return AnyScope()
	}
	return SelfScope(user.ID)
}

// IsAny は所有者を問わないスコープかどうかを返す。
func (s Scope) IsAny() bool {
	return s.any
}

// OwnerID はSelfスコープの所有者IDを返す。Anyスコープでは空文字列。
func (s Scope) OwnerID() string {
	return s.ownerID
}

// String はログ出力用の表現を返す。
func (s Scope) String() string {
	if s.any {
		return "any"
	}
	return "self:" + s.ownerID
}

// condition はWHERE句に追加する所有者条件とその引数を返す。
// argsに続くプレースホルダ番号を採番する。
func (s Scope) condition(column string, args []any) (string, []any) {
	if s.any {
		return "", args
	}
	args = append(args, s.ownerID)
	return fmt.Sprintf(" AND %s = $%d", column, len(args)), args
}

// validID はIDがUUID形式かどうかを返す。
// UUIDでないIDは存在しないものとして扱い、DBにクエリを発行しない。
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
