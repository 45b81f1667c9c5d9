// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限区分を表す。
type Role string

const (
	// RoleUser は自分のエンティティのみ操作できる一般ユーザー。
	RoleUser Role = "user"
	// RoleAdmin は所有者スコープを越えて操作できる管理者。
	RoleAdmin Role = "admin"
)

// User はサービス利用ユーザーを表す。
// 初回の認証成功時に作成され、以後はロールを含め更新されない。
type User struct {
	ID         string
	ExternalID string // IdPのsubject
	Email      string
	Name       string
	AvatarURL  string
	Role       Role
	CreatedAt  time.Time
}

// IsAdmin は管理者ロールかどうかを返す。
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
