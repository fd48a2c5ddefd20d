// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// パイプライン層から利用する。
type MetricsCollector interface {
	RecordSearch(source string)
	RecordCacheHit()
	RecordUpstreamCall(provider string)
	RecordListings(source string, count int)
	RecordSearchLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	searches      *prometheus.CounterVec
	cacheHits     prometheus.Counter
	upstreamCalls *prometheus.CounterVec
	listings      *prometheus.CounterVec
	searchLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricecomps_search_total",
			Help: "完了した検索パイプライン実行の合計数（ソース別）",
		}, []string{"source"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pricecomps_cache_hit_total",
			Help: "キャッシュヒットの合計数",
		}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricecomps_upstream_calls_total",
			Help: "上流プロバイダ呼び出しの合計数（プロバイダ別）",
		}, []string{"provider"}),
		listings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricecomps_listings_total",
			Help: "集計対象となった出品の合計数（ソース別）",
		}, []string{"source"}),
		searchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pricecomps_search_latency_seconds",
			Help:    "検索パイプラインのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.searches,
		c.cacheHits,
		c.upstreamCalls,
		c.listings,
		c.searchLatency,
	)

	return c
}

// RecordSearch は検索パイプラインの完了を記録する。
func (c *Collector) RecordSearch(source string) {
	c.searches.WithLabelValues(source).Inc()
}

// RecordCacheHit はキャッシュヒットを記録する。
func (c *Collector) RecordCacheHit() {
	c.cacheHits.Inc()
}

// RecordUpstreamCall は上流プロバイダ呼び出しを記録する。
func (c *Collector) RecordUpstreamCall(provider string) {
	c.upstreamCalls.WithLabelValues(provider).Inc()
}

// RecordListings は集計対象となった出品数を記録する。
func (c *Collector) RecordListings(source string, count int) {
	c.listings.WithLabelValues(source).Add(float64(count))
}

// RecordSearchLatency は検索パイプラインのレイテンシを記録する。
func (c *Collector) RecordSearchLatency(duration time.Duration) {
	c.searchLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
