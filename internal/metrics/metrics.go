// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェア、サービス層、ワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordGoalTracked()
	RecordUserCreated()
	RecordOrphanTrackingDeleted(count int64)
	RecordRateLimited()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
	goalTracks     prometheus.Counter
	usersCreated   prometheus.Counter
	orphansDeleted prometheus.Counter
	rateLimited    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "streakboard_http_requests_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "streakboard_http_request_duration_seconds",
			Help:    "APIリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		goalTracks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streakboard_goal_tracks_total",
			Help: "目標の進捗記録の合計数",
		}),
		usersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streakboard_users_created_total",
			Help: "初回認証で作成されたユーザーの合計数",
		}),
		orphansDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streakboard_orphan_tracking_deleted_total",
			Help: "孤立したtrackingレコードの削除数",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streakboard_rate_limited_total",
			Help: "レート制限で拒否したリクエスト数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.goalTracks,
		c.usersCreated,
		c.orphansDeleted,
		c.rateLimited,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストの処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordGoalTracked は進捗記録の成功を記録する。
func (c *Collector) RecordGoalTracked() {
	c.goalTracks.Inc()
}

// RecordUserCreated はユーザー作成を記録する。
func (c *Collector) RecordUserCreated() {
	c.usersCreated.Inc()
}

// RecordOrphanTrackingDeleted は孤立trackingの削除件数を記録する。
func (c *Collector) RecordOrphanTrackingDeleted(count int64) {
	if count > 0 {
		c.orphansDeleted.Add(float64(count))
	}
}

// RecordRateLimited はレート制限による拒否を記録する。
func (c *Collector) RecordRateLimited() {
	c.rateLimited.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
// 一部のコレクターが失敗しても残りのメトリクスは返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
