package cli

import (
	"fmt"
	"strings"

	"github.com/hitoshi/streakboard/internal/client"
)

// LoginCmd はbearerトークンを保存してリモートセッションを開始する。
type LoginCmd struct {
	Token string `help:"Identity token issued by the identity provider." required:""`
}

// Run はトークンを保存し、サーバーが受け入れるかをその場で確かめる。
func (c *LoginCmd) Run(ctx *Context) error {
	token := strings.TrimSpace(c.Token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if err := client.Login(ctx.Ctx, ctx.KV, ctx.Tokens, token); err != nil {
		return err
	}

	// トークンが受け入れられるかをその場で確認する
	me, err := client.NewRemoteStore(ctx.BaseURL, token, ctx.HTTPClient).Me(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("token saved but the server rejected it: %w", err)
	}
	fmt.Fprintf(ctx.Out, "Signed in as %s <%s>\n", me.Name, me.Email)
	return nil
}

// LogoutCmd はセッションを終了する。
type LogoutCmd struct{}

// Run は保存済みのトークンとゲストフラグを消す。ゲストデータは残る。
func (c *LogoutCmd) Run(ctx *Context) error {
	if err := client.Logout(ctx.Ctx, ctx.KV, ctx.Tokens); err != nil {
		return err
	}
	fmt.Fprintln(ctx.Out, "Signed out")
	return nil
}

// GuestCmd はゲストモードを開始する。
type GuestCmd struct{}

// Run はトークンを破棄してゲストフラグを立てる。
func (c *GuestCmd) Run(ctx *Context) error {
	if err := client.EnterGuest(ctx.Ctx, ctx.KV, ctx.Tokens); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Guest mode: data is kept only in %s\n", ctx.DataPath)
	return nil
}

// WhoamiCmd は現在のセッションを表示する。
type WhoamiCmd struct{}

// Run はセッションの種類とユーザー情報を出力する。
func (c *WhoamiCmd) Run(ctx *Context) error {
	sess, err := ctx.session()
	if err != nil {
		return err
	}
	if sess.Remote == nil {
		fmt.Fprintf(ctx.Out, "guest (local data at %s)\n", ctx.DataPath)
		return nil
	}

	me, err := sess.Remote.Me(ctx.Ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "%s <%s> role=%s id=%s\n", me.Name, me.Email, me.Role, me.ID)
	return nil
}
