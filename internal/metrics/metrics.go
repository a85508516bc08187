// Package metrics はPrometheus形式のメトリクスを収集・公開します。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FallbackRoute はルートに一致しなかったリクエストのラベル
const FallbackRoute = "fallback"

// Config はメトリクスの設定
type Config struct {
	// Namespace はメトリクス名の接頭辞 (デフォルト: "counterd")
	Namespace string

	// Buckets はリクエスト処理時間のヒストグラムのバケット
	// デフォルト: prometheus.DefBuckets
	Buckets []float64
}

// Option はメトリクスの設定を変更する
type Option func(*Config)

// WithNamespace はメトリクス名の接頭辞を設定する
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithBuckets はヒストグラムのバケットを設定する
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "counterd",
		Buckets:   prometheus.DefBuckets,
	}
}

// Metrics はサービスのメトリクス一式
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	counterValue    prometheus.Gauge
	incrementsTotal prometheus.Counter
	assetLookups    *prometheus.CounterVec
	wsSubscribers   prometheus.Gauge
}

// New はレジストリにメトリクスを登録する
func New(registry *prometheus.Registry, opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"route", "method", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   config.Buckets,
		}, []string{"route"}),

		counterValue: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "counter_value",
			Help:      "Current value of the shared counter",
		}),

		incrementsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "counter_increments_total",
			Help:      "Total number of applied counter increments",
		}),

		assetLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "asset_lookups_total",
			Help:      "Static asset lookups by result",
		}, []string{"result"}),

		wsSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "websocket_subscribers",
			Help:      "Number of connected live counter subscribers",
		}),
	}
}

// Middleware はリクエスト数と処理時間を記録するginミドルウェアを返す
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = FallbackRoute
		}

		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.requestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler はメトリクスを公開するHTTPハンドラを返す
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveIncrement は加算の適用を記録する
func (m *Metrics) ObserveIncrement(newState uint32) {
	m.incrementsTotal.Inc()
	m.counterValue.Set(float64(newState))
}

// ObserveCounter は読み取ったカウンター値を記録する
func (m *Metrics) ObserveCounter(value uint32) {
	m.counterValue.Set(float64(value))
}

// ObserveAssetLookup は静的ファイル参照の結果を記録する
func (m *Metrics) ObserveAssetLookup(found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	m.assetLookups.WithLabelValues(result).Inc()
}

// SubscriberConnected はWebSocket購読者の接続を記録する
func (m *Metrics) SubscriberConnected() {
	m.wsSubscribers.Inc()
}

// SubscriberDisconnected はWebSocket購読者の切断を記録する
func (m *Metrics) SubscriberDisconnected() {
	m.wsSubscribers.Dec()
}
