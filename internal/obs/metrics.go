package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	SearchRequestsTotal *prometheus.CounterVec
	CacheHitsTotal      prometheus.Counter
	RateLimitDropsTotal prometheus.Counter

	ProviderErrors      *prometheus.CounterVec
	ProviderLatency     *prometheus.HistogramVec
	PushEventsTotal     *prometheus.CounterVec
	RowsMergedTotal     *prometheus.CounterVec
	ParseErrorsTotal    *prometheus.CounterVec
	CommitRowsTotal     *prometheus.CounterVec
	CommitBatchesTotal  *prometheus.CounterVec
	SessionsActive      prometheus.Gauge
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec
	Registry            *prometheus.Registry
}

// Create Prometheus collectors and register them
func NewMetrics(p *prometheus.Registry) *Metrics {
	m := &Metrics{
		SearchRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "availability_search_requests_total",
			Help: "Searches run against the provider, by scope (global or group)",
		}, []string{"scope"}),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "availability_cache_hits_total",
			Help: "Number of cache hits for provider payloads",
		}),
		RateLimitDropsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "availability_ratelimit_drops_total",
			Help: "Requests dropped due to rate limiting",
		}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_errors_total",
			Help: "Errors returned by each provider",
		}, []string{"provider"}),
		ProviderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "provider_latency_seconds",
				Help:    "Latency of provider searches",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		PushEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "availability_push_events_total",
			Help: "Push events by outcome (merged, filtered, malformed)",
		}, []string{"outcome"}),
		RowsMergedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "availability_rows_merged_total",
			Help: "New rows added to working sets, by source (search, push)",
		}, []string{"source"}),
		ParseErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "availability_parse_errors_total",
			Help: "Payload fragments skipped as malformed, by source",
		}, []string{"source"}),
		CommitRowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "availability_commit_rows_total",
			Help: "Row commits by result (ok, failed)",
		}, []string{"result"}),
		CommitBatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "availability_commit_batches_total",
			Help: "Commit batches by aggregate status",
		}, []string{"status"}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "availability_sessions_active",
			Help: "Open quote search sessions",
		}),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		Registry: p,
	}

	p.MustRegister(
		m.SearchRequestsTotal,
		m.CacheHitsTotal,
		m.RateLimitDropsTotal,
		m.ProviderErrors,
		m.ProviderLatency,
		m.PushEventsTotal,
		m.RowsMergedTotal,
		m.ParseErrorsTotal,
		m.CommitRowsTotal,
		m.CommitBatchesTotal,
		m.SessionsActive,
		m.HTTPRequestDuration,
		m.HTTPRequestsTotal,
	)

	return m
}

// The helpers below accept a nil receiver so engine components can run
// without a registry in tests.

func (m *Metrics) IncSearch(scope string) {
	if m == nil {
		return
	}
	m.SearchRequestsTotal.WithLabelValues(scope).Inc()
}

func (m *Metrics) IncCacheHits() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) IncRateLimitDrops() {
	if m == nil {
		return
	}
	m.RateLimitDropsTotal.Inc()
}

func (m *Metrics) ObserveProviderLatency(provider string, seconds float64) {
	if m == nil {
		return
	}
	m.ProviderLatency.WithLabelValues(provider).Observe(seconds)
}

func (m *Metrics) IncProviderFailure(provider string) {
	if m == nil {
		return
	}
	m.ProviderErrors.WithLabelValues(provider).Inc()
}

func (m *Metrics) IncPushEvent(outcome string) {
	if m == nil {
		return
	}
	m.PushEventsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddRowsMerged(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsMergedTotal.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) AddParseErrors(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ParseErrorsTotal.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) IncCommitRow(result string) {
	if m == nil {
		return
	}
	m.CommitRowsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncCommitBatch(status string) {
	if m == nil {
		return
	}
	m.CommitBatchesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

func (m *Metrics) ObserveHTTPRequestDuration(method string, path string, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}

func (m *Metrics) IncHTTPRequestsTotal(method string, path string, status string) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
