package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetric はGatherの結果から指定名のメトリクスファミリーを返す。
func findMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if c := NewCollector(reg); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

func TestCounters_Increment(t *testing.T) {
	tests := []struct {
		name   string
		metric string
		record func(c *Collector)
		want   float64
	}{
		{
			name:   "進捗記録",
			metric: "streakboard_goal_tracks_total",
			record: func(c *Collector) { c.RecordGoalTracked(); c.RecordGoalTracked() },
			want:   2,
		},
		{
			name:   "ユーザー作成",
			metric: "streakboard_users_created_total",
			record: func(c *Collector) { c.RecordUserCreated() },
			want:   1,
		},
		{
			name:   "孤立tracking削除",
			metric: "streakboard_orphan_tracking_deleted_total",
			record: func(c *Collector) { c.RecordOrphanTrackingDeleted(3); c.RecordOrphanTrackingDeleted(0) },
			want:   3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			c := NewCollector(reg)
			tt.record(c)

			mf := findMetric(t, reg, tt.metric)
			if mf == nil {
				t.Fatalf("%s metric not found", tt.metric)
			}
			if got := mf.GetMetric()[0].GetCounter().GetValue(); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.metric, got, tt.want)
			}
		})
	}
}

// TestRecordHTTPStatus_LabelsByCode はステータスコードごとにラベルが分かれることを検証する。
func TestRecordHTTPStatus_LabelsByCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	mf := findMetric(t, reg, "streakboard_http_requests_total")
	if mf == nil {
		t.Fatal("streakboard_http_requests_total metric not found")
	}

	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "status_code" {
				got[lp.GetValue()] = m.GetCounter().GetValue()
			}
		}
	}
	if got["200"] != 2 || got["404"] != 1 {
		t.Errorf("status counts = %v, want 200:2 404:1", got)
	}
}

// TestRecordRequestLatency_ObservesHistogram はヒストグラムに観測値が記録されることを検証する。
func TestRecordRequestLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestLatency(150 * time.Millisecond)

	mf := findMetric(t, reg, "streakboard_http_request_duration_seconds")
	if mf == nil {
		t.Fatal("latency metric not found")
	}
	if count := mf.GetMetric()[0].GetHistogram().GetSampleCount(); count != 1 {
		t.Errorf("sample count = %d, want 1", count)
	}
}
