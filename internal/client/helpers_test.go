package client

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hitoshi/streakboard/internal/client/kv"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// openKV はt.TempDir()上のSQLiteストアを開くヘルパー。
func openKV(t *testing.T, path string) *kv.SQLiteStore {
	t.Helper()
	if path == "" {
		path = filepath.Join(t.TempDir(), "client.db")
	}
	s, err := kv.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
