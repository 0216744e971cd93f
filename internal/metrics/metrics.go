package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Ingestion endpoint metrics
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mockingress_requests_total",
		Help: "Collector requests handled by the mock endpoint",
	}, []string{"path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mockingress_request_duration_seconds",
		Help:    "Time spent handling collector requests",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs to ~1.6s
	}, []string{"path"})

	licensingDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mockingress_licensing_decisions_total",
		Help: "License checks answered, by decision",
	}, []string{"decision"})

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mockingress_rate_limited_total",
		Help: "Requests rejected with 429 by the ingress limiter",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mockingress_queue_depth",
		Help: "Recorded requests waiting to be drained",
	})

	// Aggregation metrics
	samplesAggregatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mockingress_samples_aggregated_total",
		Help: "Samples decoded and grouped into impressions, by kind",
	}, []string{"kind"})

	samplesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mockingress_samples_dropped_total",
		Help: "Recorded bodies that could not be decoded, by kind",
	}, []string{"kind"})

	impressionsBuiltTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mockingress_impressions_built_total",
		Help: "Impressions produced by aggregation",
	})

	// Waiter metrics
	waitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mockingress_waits_total",
		Help: "Playback condition waits, by outcome",
	}, []string{"outcome"})

	waitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mockingress_wait_duration_seconds",
		Help:    "Time until a playback condition was met or timed out",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 9), // 100ms to ~25s
	})

	// Log scraper metrics
	scrapedLinesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mockingress_scraped_lines_total",
		Help: "Log lines inspected by the scraper, by result",
	}, []string{"result"})
)

// Wait outcomes.
const (
	OutcomeSatisfied = "satisfied"
	OutcomeTimeout   = "timeout"
	OutcomePanic     = "panic"
	OutcomeCanceled  = "canceled"
)

// RecordRequest counts a handled request and observes its latency.
func RecordRequest(path string, status int, seconds float64) {
	requestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(path).Observe(seconds)
}

// RecordLicenseDecision counts a granted or denied license check.
func RecordLicenseDecision(granted bool) {
	decision := "denied"
	if granted {
		decision = "granted"
	}
	licensingDecisionsTotal.WithLabelValues(decision).Inc()
}

func IncrementRateLimited() {
	rateLimitedTotal.Inc()
}

func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

func AddSamplesAggregated(kind string, n int) {
	samplesAggregatedTotal.WithLabelValues(kind).Add(float64(n))
}

func IncrementSamplesDropped(kind string) {
	samplesDroppedTotal.WithLabelValues(kind).Inc()
}

func AddImpressionsBuilt(n int) {
	impressionsBuiltTotal.Add(float64(n))
}

// RecordWait records how a playback condition wait ended.
func RecordWait(outcome string, seconds float64) {
	waitsTotal.WithLabelValues(outcome).Inc()
	waitDuration.Observe(seconds)
}

func AddScrapedLines(result string, n int) {
	scrapedLinesTotal.WithLabelValues(result).Add(float64(n))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
