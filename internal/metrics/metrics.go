// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 配信エンジンやハンドラー層から利用する。
type MetricsCollector interface {
	RecordFetchSuccess(sourceKey string)
	RecordFetchFailure(sourceKey string)
	RecordFetchLatency(sourceKey string, duration time.Duration)
	RecordPush(sourceKey string, recipients int)
	RecordPushFailure(sourceKey string)
	RecordWebhookEvent(eventType string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	fetchSuccess *prometheus.CounterVec
	fetchFail    *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
	pushTotal    *prometheus.CounterVec
	pushFail     *prometheus.CounterVec
	recipients   *prometheus.CounterVec
	webhookEvent *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsline_fetch_success_total",
			Help: "ソース別のフェッチ成功の合計数",
		}, []string{"source"}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsline_fetch_fail_total",
			Help: "ソース別のフェッチ失敗の合計数",
		}, []string{"source"}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newsline_fetch_latency_seconds",
			Help:    "ソース別のフェッチレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		pushTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsline_push_total",
			Help: "ソース別のプッシュ配信の合計数",
		}, []string{"source"}),
		pushFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsline_push_fail_total",
			Help: "ソース別のプッシュ配信失敗の合計数",
		}, []string{"source"}),
		recipients: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsline_push_recipients_total",
			Help: "ソース別のプッシュ配信宛先数の合計",
		}, []string{"source"}),
		webhookEvent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsline_webhook_events_total",
			Help: "種別ごとのWebhookイベント受信数",
		}, []string{"type"}),
	}

	reg.MustRegister(
		c.fetchSuccess,
		c.fetchFail,
		c.fetchLatency,
		c.pushTotal,
		c.pushFail,
		c.recipients,
		c.webhookEvent,
	)

	return c
}

// RecordFetchSuccess はフェッチ成功を記録する。
func (c *Collector) RecordFetchSuccess(sourceKey string) {
	c.fetchSuccess.WithLabelValues(sourceKey).Inc()
}

// RecordFetchFailure はフェッチ失敗を記録する。
func (c *Collector) RecordFetchFailure(sourceKey string) {
	c.fetchFail.WithLabelValues(sourceKey).Inc()
}

// RecordFetchLatency はフェッチのレイテンシを記録する。
func (c *Collector) RecordFetchLatency(sourceKey string, duration time.Duration) {
	c.fetchLatency.WithLabelValues(sourceKey).Observe(duration.Seconds())
}

// RecordPush はプッシュ配信の成功と宛先数を記録する。
func (c *Collector) RecordPush(sourceKey string, recipientCount int) {
	c.pushTotal.WithLabelValues(sourceKey).Inc()
	c.recipients.WithLabelValues(sourceKey).Add(float64(recipientCount))
}

// RecordPushFailure はプッシュ配信失敗を記録する。
func (c *Collector) RecordPushFailure(sourceKey string) {
	c.pushFail.WithLabelValues(sourceKey).Inc()
}

// RecordWebhookEvent は受信したWebhookイベントを種別ごとに記録する。
func (c *Collector) RecordWebhookEvent(eventType string) {
	c.webhookEvent.WithLabelValues(eventType).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
