package app

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/streakboard/internal/metrics"
	"github.com/hitoshi/streakboard/internal/worker/sweep"
)

// fakeSweepExecutor は固定の削除件数を返すsweep.Executor。
type fakeSweepExecutor struct {
	deleted int64
}

func (f *fakeSweepExecutor) ExecContext(_ context.Context, _ string, _ ...any) (sql.Result, error) {
	return driver.RowsAffected(f.deleted), nil
}

func getBody(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestWorkerHandler_ExposesSweepMetrics(t *testing.T) {
	reg := newRegistry()
	collector := metrics.NewCollector(reg)
	job := sweep.NewJob(&fakeSweepExecutor{deleted: 3}, nil, collector)

	if _, err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	srv := httptest.NewServer(newWorkerHandler(reg))
	defer srv.Close()

	status, body := getBody(t, srv.URL+"/metrics")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	if !strings.Contains(body, "streakboard_orphan_tracking_deleted_total 3") {
		t.Errorf("worker /metrics should expose the sweep counter, got:\n%s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Error("worker /metrics should include runtime collectors")
	}
}

func TestWorkerHandler_Routes(t *testing.T) {
	srv := httptest.NewServer(newWorkerHandler(newRegistry()))
	defer srv.Close()

	tests := []struct {
		name string
		path string
		want int
	}{
		{"ヘルスチェック", "/api/health", http.StatusOK},
		{"APIは公開しない", "/api/goals", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, _ := getBody(t, srv.URL+tt.path); status != tt.want {
				t.Errorf("status = %d, want %d", status, tt.want)
			}
		})
	}

	// healthcheckサブコマンドがワーカーにも使える
	if err := runHealthcheck(srv.URL); err != nil {
		t.Errorf("runHealthcheck against worker: %v", err)
	}
}
