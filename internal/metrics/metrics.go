package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	SearchRequestsTotal   *prometheus.CounterVec
	SearchRequestDuration *prometheus.HistogramVec

	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec
	UpstreamRetriesTotal    *prometheus.CounterVec

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	RateLimitWaitsTotal prometheus.Counter

	JobsEnqueuedTotal  prometheus.Counter
	JobsProcessedTotal *prometheus.CounterVec
	QueueDepth         *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		SearchRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "podcast_radar_search_requests_total",
				Help: "Total number of search requests processed",
			},
			[]string{"status"},
		),
		SearchRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "podcast_radar_search_request_duration_seconds",
				Help:    "Search request duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{},
		),

		UpstreamRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "podcast_radar_upstream_requests_total",
				Help: "Total number of iTunes API requests",
			},
			[]string{"outcome"},
		),
		UpstreamRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "podcast_radar_upstream_request_duration_seconds",
				Help:    "iTunes API request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{},
		),
		UpstreamRetriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "podcast_radar_upstream_retries_total",
				Help: "Total number of iTunes API retries",
			},
			[]string{"reason"},
		),

		CacheHitsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "podcast_radar_cache_hits_total",
				Help: "Total number of search cache hits",
			},
		),
		CacheMissesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "podcast_radar_cache_misses_total",
				Help: "Total number of search cache misses",
			},
		),

		RateLimitWaitsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "podcast_radar_rate_limit_waits_total",
				Help: "Total number of acquisitions delayed by the outbound rate limiter",
			},
		),

		JobsEnqueuedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "podcast_radar_jobs_enqueued_total",
				Help: "Total number of persistence jobs enqueued",
			},
		),
		JobsProcessedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "podcast_radar_jobs_processed_total",
				Help: "Total number of persistence jobs processed by the worker",
			},
			[]string{"status"},
		),
		QueueDepth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "podcast_radar_queue_depth",
				Help: "Number of jobs per status after the last worker cycle",
			},
			[]string{"status"},
		),
	}

	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) RecordSearchRequest(status string, duration time.Duration) {
	m.SearchRequestsTotal.WithLabelValues(status).Inc()
	m.SearchRequestDuration.WithLabelValues().Observe(duration.Seconds())
}

func (m *Metrics) RecordUpstreamRequest(outcome string, duration time.Duration) {
	m.UpstreamRequestsTotal.WithLabelValues(outcome).Inc()
	m.UpstreamRequestDuration.WithLabelValues().Observe(duration.Seconds())
}

func (m *Metrics) RecordUpstreamRetry(reason string) {
	m.UpstreamRetriesTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordCacheHit() {
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	m.CacheMissesTotal.Inc()
}

func (m *Metrics) RecordRateLimitWait() {
	m.RateLimitWaitsTotal.Inc()
}

func (m *Metrics) RecordJobsEnqueued(n int) {
	m.JobsEnqueuedTotal.Add(float64(n))
}

func (m *Metrics) RecordJobProcessed(status string) {
	m.JobsProcessedTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) SetQueueDepth(status string, n int) {
	m.QueueDepth.WithLabelValues(status).Set(float64(n))
}
