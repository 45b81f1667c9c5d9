package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/streakboard/internal/model"
)

const goalColumns = `id, user_id, name, target, current, color, created_at`

// PostgresGoalRepo はPostgreSQLを使用した目標リポジトリ。
type PostgresGoalRepo struct {
	db *sql.DB
}

// NewPostgresGoalRepo はPostgresGoalRepoを生成する。
func NewPostgresGoalRepo(db *sql.DB) *PostgresGoalRepo {
	return &PostgresGoalRepo{db: db}
}

func scanGoal(row rowScanner) (*model.Goal, error) {
	goal := &model.Goal{}
	if err := row.Scan(&goal.ID, &goal.UserID, &goal.Name, &goal.Target, &goal.Current, &goal.Color, &goal.CreatedAt); err != nil {
		return nil, err
	}
	return goal, nil
}

// Create は目標を作成する。currentは常に0から始まる。
func (r *PostgresGoalRepo) Create(ctx context.Context, goal *model.Goal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, name, target, current, color, created_at)
		 VALUES ($1, $2, $3, $4, 0, $5, $6)`,
		goal.ID, goal.UserID, goal.Name, goal.Target, goal.Color, goal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}
	goal.Current = 0
	return nil
}

// ListByOwner は所有者の目標を作成日時の昇順で返す。
func (r *PostgresGoalRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = $1 ORDER BY created_at ASC, id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	goals := []*model.Goal{}
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goals: %w", err)
	}

	return goals, nil
}

// FindByID はスコープ内の目標を取得する。見つからない場合はnilを返す。
func (r *PostgresGoalRepo) FindByID(ctx context.Context, scope Scope, id string) (*model.Goal, error) {
	if !validID(id) {
		return nil, nil
	}

	cond, args := scope.condition("user_id", []any{id})
	goal, err := scanGoal(r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = $1`+cond,
		args...,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find goal by ID: %w", err)
	}

	return goal, nil
}

// Delete はスコープ内の目標を削除する。
// trackingは外部キーのON DELETE CASCADEで同一ステートメント内で削除されるため、
// 目標だけが消えてtrackingが残る状態は観測されない。
func (r *PostgresGoalRepo) Delete(ctx context.Context, scope Scope, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}

	cond, args := scope.condition("user_id", []any{id})
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = $1`+cond,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete goal: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Track は目標のcurrentを1加算し、(goal_id, date)のtrackingをUPSERTする。
// 両方の更新を1トランザクションで行い、加算はDB側の原子的な式で行う。
// 目標がスコープ内に見つからない場合はnilを返し、何も変更しない。
func (r *PostgresGoalRepo) Track(ctx context.Context, scope Scope, id, day string) (*model.Goal, error) {
	if !validID(id) {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cond, args := scope.condition("user_id", []any{id})
	goal, err := scanGoal(tx.QueryRowContext(ctx,
		`UPDATE goals SET current = current + 1
		 WHERE id = $1`+cond+`
		 RETURNING `+goalColumns,
		args...,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to increment goal: %w", err)
	}

	// trackingの所有者は操作者ではなく目標の所有者
	_, err = tx.ExecContext(ctx,
		`INSERT INTO tracking (id, goal_id, user_id, date, count)
		 VALUES ($1, $2, $3, $4, 1)
		 ON CONFLICT (goal_id, date) DO UPDATE SET
		   count = tracking.count + 1`,
		uuid.New().String(), goal.ID, goal.UserID, day,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert tracking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return goal, nil
}

// compile-time interface check
var _ GoalRepository = (*PostgresGoalRepo)(nil)
