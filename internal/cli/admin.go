package cli

import (
	"fmt"
)

// AdminCmd は管理者向けサブコマンドをまとめる。
type AdminCmd struct {
	Users    AdminUsersCmd    `cmd:"" help:"List all users."`
	Progress AdminProgressCmd `cmd:"" help:"Show one user's goals, thoughts and heatmap."`
}

// AdminUsersCmd は登録ユーザーの一覧を表示する。
type AdminUsersCmd struct{}

// Run は全ユーザーを1行ずつ出力する。
func (c *AdminUsersCmd) Run(ctx *Context) error {
	remote, err := ctx.remote()
	if err != nil {
		return err
	}
	users, err := remote.AdminUsers(ctx.Ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		fmt.Fprintf(ctx.Out, "%s  %-6s %s <%s>\n", u.ID, u.Role, u.Name, u.Email)
	}
	return nil
}

// AdminProgressCmd は指定ユーザーの目標と進捗を表示する。
type AdminProgressCmd struct {
	UserID string `arg:"" help:"User id."`
	Weeks  int    `help:"Number of weeks to show." default:"12"`
}

// Run は目標、メモ、ヒートマップの順に出力する。
func (c *AdminProgressCmd) Run(ctx *Context) error {
	remote, err := ctx.remote()
	if err != nil {
		return err
	}
	p, err := remote.AdminProgress(ctx.Ctx, c.UserID)
	if err != nil {
		return err
	}
	entries, err := remote.AdminHeatmap(ctx.Ctx, c.UserID)
	if err != nil {
		return err
	}

	fmt.Fprintln(ctx.Out, headerStyle.Render("Goals"))
	for _, g := range p.Goals {
		fmt.Fprintln(ctx.Out, renderGoal(g))
	}
	fmt.Fprintln(ctx.Out, headerStyle.Render("Thoughts"))
	for _, th := range p.Thoughts {
		fmt.Fprintf(ctx.Out, "%s  %s\n", dimStyle.Render(th.Date.Format("2006-01-02")), th.Text)
	}
	fmt.Fprintln(ctx.Out, headerStyle.Render("Activity"))
	fmt.Fprint(ctx.Out, RenderHeatmap(entries, ctx.Clock.Now(), c.Weeks))
	return nil
}
