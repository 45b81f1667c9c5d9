package cli

import (
	"fmt"

	"github.com/hitoshi/streakboard/internal/client"
)

// DefaultGoalColor は目標作成時の既定の表示色。
const DefaultGoalColor = "#00d2ff"

// GoalsCmd は目標を操作するサブコマンドをまとめる。
type GoalsCmd struct {
	List   GoalsListCmd   `cmd:"" default:"1" help:"List goals."`
	Add    GoalsAddCmd    `cmd:"" help:"Add a goal."`
	Delete GoalsDeleteCmd `cmd:"" help:"Delete a goal."`
	Track  GoalsTrackCmd  `cmd:"" help:"Record one unit of progress for today."`
}

// GoalsListCmd は目標の一覧を表示する。
type GoalsListCmd struct{}

// Run は目標を作成順に進捗バー付きで出力する。
func (c *GoalsListCmd) Run(ctx *Context) error {
	sess, err := ctx.session()
	if err != nil {
		return err
	}
	goals, err := sess.Store.ListGoals(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(goals) == 0 {
		fmt.Fprintln(ctx.Out, "No goals yet")
		return nil
	}
	for _, g := range goals {
		fmt.Fprintln(ctx.Out, renderGoal(g))
	}
	return nil
}

// GoalsAddCmd は目標を追加する。
type GoalsAddCmd struct {
	Name   string `arg:"" help:"Goal name."`
	Target int    `help:"Daily target." default:"10"`
	Color  string `help:"Display color." default:"${goal_color}"`
}

// Run は目標を作成し、生成されたIDを出力する。
func (c *GoalsAddCmd) Run(ctx *Context) error {
	sess, err := ctx.session()
	if err != nil {
		return err
	}
	g, err := sess.Store.AddGoal(ctx.Ctx, client.NewGoal{Name: c.Name, Target: c.Target, Color: c.Color})
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Added %s (%s)\n", g.Name, g.ID)
	return nil
}

// GoalsDeleteCmd は目標を削除する。
type GoalsDeleteCmd struct {
	ID string `arg:"" help:"Goal id."`
}

// Run は指定IDの目標を削除する。
func (c *GoalsDeleteCmd) Run(ctx *Context) error {
	sess, err := ctx.session()
	if err != nil {
		return err
	}
	if err := sess.Store.DeleteGoal(ctx.Ctx, c.ID); err != nil {
		return fmt.Errorf("goal %s: %w", c.ID, err)
	}
	fmt.Fprintln(ctx.Out, "Deleted")
	return nil
}

// GoalsTrackCmd は目標の進捗を1つ進める。
type GoalsTrackCmd struct {
	ID string `arg:"" help:"Goal id."`
}

// Run は進捗を記録し、更新後の値を出力する。
func (c *GoalsTrackCmd) Run(ctx *Context) error {
	sess, err := ctx.session()
	if err != nil {
		return err
	}
	g, err := sess.Store.Track(ctx.Ctx, c.ID)
	if err != nil {
		return fmt.Errorf("goal %s: %w", c.ID, err)
	}
	fmt.Fprintln(ctx.Out, renderGoal(g))
	return nil
}
