// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// フォールバック理由のラベル値。
const (
	ReasonProviderError = "provider_error"
	ReasonEmptyContent  = "empty_content"
	ReasonTimeout       = "timeout"
	ReasonBreakerOpen   = "breaker_open"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層、ミドルウェア、ワーカーから利用する。
type MetricsCollector interface {
	RecordFactGenerated()
	RecordFactFallback(reason string)
	RecordProviderLatency(duration time.Duration)
	RecordMovieUpdated()
	RecordHTTPStatus(statusCode int)
	RecordSessionsCleaned(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	factGenerated   prometheus.Counter
	factFallback    *prometheus.CounterVec
	providerLatency prometheus.Histogram
	movieUpdated    prometheus.Counter
	httpStatus      *prometheus.CounterVec
	sessionsCleaned prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		factGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moviefacts_fact_generated_total",
			Help: "言語モデルから豆知識を取得できた回数",
		}),
		factFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moviefacts_fact_fallback_total",
			Help: "フォールバック文言を返した回数（理由別）",
		}, []string{"reason"}),
		providerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "moviefacts_fact_provider_latency_seconds",
			Help:    "言語モデルAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		movieUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moviefacts_movie_updated_total",
			Help: "お気に入り映画の更新に成功した回数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moviefacts_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moviefacts_sessions_cleaned_total",
			Help: "削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.factGenerated,
		c.factFallback,
		c.providerLatency,
		c.movieUpdated,
		c.httpStatus,
		c.sessionsCleaned,
	)

	return c
}

// RecordFactGenerated は豆知識の生成成功を記録する。
func (c *Collector) RecordFactGenerated() {
	c.factGenerated.Inc()
}

// RecordFactFallback はフォールバック応答を理由付きで記録する。
func (c *Collector) RecordFactFallback(reason string) {
	c.factFallback.WithLabelValues(reason).Inc()
}

// RecordProviderLatency は言語モデルAPIのレイテンシを記録する。
func (c *Collector) RecordProviderLatency(duration time.Duration) {
	c.providerLatency.Observe(duration.Seconds())
}

// RecordMovieUpdated はお気に入り映画の更新を記録する。
func (c *Collector) RecordMovieUpdated() {
	c.movieUpdated.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordSessionsCleaned は削除した期限切れセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int64) {
	c.sessionsCleaned.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

var _ MetricsCollector = (*Collector)(nil)
