package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/streakboard/internal/model"
)

// PostgresThoughtRepo はPostgreSQLを使用したメモリポジトリ。
type PostgresThoughtRepo struct {
	db *sql.DB
}

// NewPostgresThoughtRepo はPostgresThoughtRepoを生成する。
func NewPostgresThoughtRepo(db *sql.DB) *PostgresThoughtRepo {
	return &PostgresThoughtRepo{db: db}
}

// Create はメモを作成する。
func (r *PostgresThoughtRepo) Create(ctx context.Context, thought *model.Thought) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO thoughts (id, user_id, text, date) VALUES ($1, $2, $3, $4)`,
		thought.ID, thought.UserID, thought.Text, thought.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to insert thought: %w", err)
	}
	return nil
}

// ListByOwner は所有者のメモを新しい順に返す。同時刻の場合はID降順。
func (r *PostgresThoughtRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Thought, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, text, date FROM thoughts
		 WHERE user_id = $1
		 ORDER BY date DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list thoughts: %w", err)
	}
	defer rows.Close()

	thoughts := []*model.Thought{}
	for rows.Next() {
		th := &model.Thought{}
		if err := rows.Scan(&th.ID, &th.UserID, &th.Text, &th.Date); err != nil {
			return nil, fmt.Errorf("failed to scan thought: %w", err)
		}
		thoughts = append(thoughts, th)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate thoughts: %w", err)
	}

	return thoughts, nil
}

// Delete はスコープ内のメモを削除する。削除対象が存在しない場合はfalseを返す。
func (r *PostgresThoughtRepo) Delete(ctx context.Context, scope Scope, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}

	cond, args := scope.condition("user_id", []any{id})
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM thoughts WHERE id = $1`+cond,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete thought: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ ThoughtRepository = (*PostgresThoughtRepo)(nil)
