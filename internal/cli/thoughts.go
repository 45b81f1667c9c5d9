package cli

import (
	"fmt"
	"strings"
)

// ThoughtsCmd はメモを操作するサブコマンドをまとめる。
type ThoughtsCmd struct {
	List   ThoughtsListCmd   `cmd:"" default:"1" help:"List thoughts, newest first."`
	Add    ThoughtsAddCmd    `cmd:"" help:"Write a thought."`
	Delete ThoughtsDeleteCmd `cmd:"" help:"Delete a thought."`
}

// ThoughtsListCmd はメモの一覧を表示する。
type ThoughtsListCmd struct{}

// Run はメモを新しい順に出力する。
func (c *ThoughtsListCmd) Run(ctx *Context) error {
	sess, err := ctx.session()
	if err != nil {
		return err
	}
	thoughts, err := sess.Store.ListThoughts(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(thoughts) == 0 {
		fmt.Fprintln(ctx.Out, "No thoughts yet")
		return nil
	}
	for _, th := range thoughts {
		fmt.Fprintf(ctx.Out, "%s  %s  %s\n", dimStyle.Render(th.Date.Format("2006-01-02")), th.Text, dimStyle.Render(th.ID))
	}
	return nil
}

// ThoughtsAddCmd はメモを追加する。
type ThoughtsAddCmd struct {
	Text []string `arg:"" help:"Thought text."`
}

// Run はメモを作成し、生成されたIDを出力する。
func (c *ThoughtsAddCmd) Run(ctx *Context) error {
	sess, err := ctx.session()
	if err != nil {
		return err
	}
	th, err := sess.Store.AddThought(ctx.Ctx, strings.Join(c.Text, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Saved (%s)\n", th.ID)
	return nil
}

// ThoughtsDeleteCmd はメモを削除する。
type ThoughtsDeleteCmd struct {
	ID string `arg:"" help:"Thought id."`
}

// Run は指定IDのメモを削除する。
func (c *ThoughtsDeleteCmd) Run(ctx *Context) error {
	sess, err := ctx.session()
	if err != nil {
		return err
	}
	if err := sess.Store.DeleteThought(ctx.Ctx, c.ID); err != nil {
		return fmt.Errorf("thought %s: %w", c.ID, err)
	}
	fmt.Fprintln(ctx.Out, "Deleted")
	return nil
}
