// Package cli はstreakboardターミナルクライアントのコマンドを定義する。
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/hitoshi/streakboard/internal/client"
	"github.com/hitoshi/streakboard/internal/client/kv"
	"github.com/hitoshi/streakboard/internal/clilog"
	"github.com/hitoshi/streakboard/internal/heatmap"
)

// Context はコマンド実行時に渡される依存関係。
type Context struct {
	Ctx        context.Context
	Out        io.Writer
	KV         kv.Store
	DataPath   string
	Tokens     client.TokenStore
	BaseURL    string
	HTTPClient *http.Client
	Clock      heatmap.Clock
	Log        *log.Logger
}

// session は保存済みの状態からProgressStoreを選ぶ。
func (c *Context) session() (*client.Session, error) {
	sess, err := client.OpenSession(c.Ctx, c.KV, c.Tokens, client.SessionConfig{
		BaseURL:    c.BaseURL,
		HTTPClient: c.HTTPClient,
		Clock:      c.Clock,
	})
	if err != nil {
		return nil, err
	}
	c.Log.Debug("session opened", "mode", sess.Mode)
	return sess, nil
}

// remote は認証済みセッションを要求する。
func (c *Context) remote() (*client.RemoteStore, error) {
	sess, err := c.session()
	if err != nil {
		return nil, err
	}
	if sess.Remote == nil {
		return nil, errors.New("this command requires login; guest mode has no server account")
	}
	return sess.Remote, nil
}

// CLI はコマンドライン全体の定義。
type CLI struct {
	Debug      bool   `help:"Write debug logs to stderr."`
	Server     string `help:"API base URL." env:"STREAKBOARD_SERVER" default:"http://localhost:8080"`
	DataDir    string `help:"Directory for local state and logs." env:"STREAKBOARD_DATA_DIR" type:"path" default:"~/.config/streakboard"`
	TokenStore string `help:"Where to keep the bearer token." enum:"keyring,local" default:"keyring"`

	Login    LoginCmd    `cmd:"" help:"Store an identity token and use the server."`
	Logout   LogoutCmd   `cmd:"" help:"Forget the stored token and leave guest mode."`
	Guest    GuestCmd    `cmd:"" help:"Use local guest storage without an account."`
	Whoami   WhoamiCmd   `cmd:"" help:"Show the current session."`
	Goals    GoalsCmd    `cmd:"" help:"Manage goals."`
	Thoughts ThoughtsCmd `cmd:"" help:"Manage thoughts."`
	Heatmap  HeatmapCmd  `cmd:"" help:"Show the activity heatmap."`
	Admin    AdminCmd    `cmd:"" help:"Administrator views."`
}

// Main はコマンドラインを解析して実行し、終了コードを返す。
func Main(args []string, stdout, stderr io.Writer) int {
	var cli CLI
	exitCode := -1
	parser, err := kong.New(&cli,
		kong.Name("streakboard"),
		kong.Description("Track daily goals, thoughts and streaks."),
		kong.UsageOnError(),
		kong.Vars{"goal_color": DefaultGoalColor},
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exitCode = code }),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	kctx, err := parser.Parse(args)
	if exitCode >= 0 {
		// --help など
		return exitCode
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logger, logCloser, err := clilog.New(clilog.Config{Debug: cli.Debug, Dir: cli.DataDir, Stderr: stderr})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer logCloser.Close()

	dataPath := filepath.Join(cli.DataDir, "streakboard.db")
	store, err := kv.OpenSQLite(dataPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()

	var tokens client.TokenStore = client.NewKeyringTokenStore("")
	if cli.TokenStore == "local" {
		tokens = client.NewKVTokenStore(store)
	}

	appCtx := &Context{
		Ctx:        context.Background(),
		Out:        stdout,
		KV:         store,
		DataPath:   dataPath,
		Tokens:     tokens,
		BaseURL:    cli.Server,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Clock:      heatmap.UTCClock{},
		Log:        logger,
	}

	if err := kctx.Run(appCtx); err != nil {
		logger.Error("command failed", "command", kctx.Command(), "err", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// Run はos.Argsでコマンドを実行してプロセスを終了する。
func Run() {
	os.Exit(Main(os.Args[1:], os.Stdout, os.Stderr))
}
