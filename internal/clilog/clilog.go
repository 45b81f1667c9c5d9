// Package clilog はターミナルクライアントのログ設定を提供する。
// 通常はローテーションされるファイルにのみ出力し、--debug 指定時は標準エラーにも出力する。
package clilog

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName はログファイル名。
const FileName = "streakboard.log"

// Config はロガーの設定。
type Config struct {
	Debug bool
	Dir   string

	// Stderr はデバッグ時の追加出力先。nilの場合はos.Stderr。
	Stderr io.Writer
}

// New は<Dir>/logs/streakboard.log に書き込むロガーを返す。
// 返されたio.Closerでログファイルを閉じる。
func New(cfg Config) (*log.Logger, io.Closer, error) {
	logDir := filepath.Join(cfg.Dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, err
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, FileName),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	level := log.WarnLevel
	var writer io.Writer = fileWriter
	if cfg.Debug {
		level = log.DebugLevel
		stderr := cfg.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		writer = io.MultiWriter(stderr, fileWriter)
	}

	logger := log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "streakboard",
	})
	return logger, fileWriter, nil
}
