package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRequest(t *testing.T) {
	path := "/analytics"

	initial := testutil.ToFloat64(requestsTotal.WithLabelValues(path, "200"))

	RecordRequest(path, http.StatusOK, 0.002)
	RecordRequest(path, http.StatusOK, 0.004)
	RecordRequest(path, http.StatusTooManyRequests, 0.0001)

	assert.Equal(t, initial+2, testutil.ToFloat64(requestsTotal.WithLabelValues(path, "200")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(requestsTotal.WithLabelValues(path, "429")), float64(1))

	histogram, ok := requestDuration.WithLabelValues(path).(prometheus.Histogram)
	require.True(t, ok)
	var metric dto.Metric
	require.NoError(t, histogram.Write(&metric))

	// Count may include observations from other tests in the package
	assert.GreaterOrEqual(t, metric.Histogram.GetSampleCount(), uint64(3))
}

func TestRecordLicenseDecision(t *testing.T) {
	initialGranted := testutil.ToFloat64(licensingDecisionsTotal.WithLabelValues("granted"))
	initialDenied := testutil.ToFloat64(licensingDecisionsTotal.WithLabelValues("denied"))

	RecordLicenseDecision(true)
	RecordLicenseDecision(false)
	RecordLicenseDecision(false)

	assert.Equal(t, initialGranted+1, testutil.ToFloat64(licensingDecisionsTotal.WithLabelValues("granted")))
	assert.Equal(t, initialDenied+2, testutil.ToFloat64(licensingDecisionsTotal.WithLabelValues("denied")))
}

func TestSetQueueDepth(t *testing.T) {
	tests := []int{5, 12, 0}

	for _, depth := range tests {
		SetQueueDepth(depth)
		assert.Equal(t, float64(depth), testutil.ToFloat64(queueDepth))
	}
}

func TestAggregationCounters(t *testing.T) {
	kind := "ad_event"

	initialAggregated := testutil.ToFloat64(samplesAggregatedTotal.WithLabelValues(kind))
	initialDropped := testutil.ToFloat64(samplesDroppedTotal.WithLabelValues(kind))
	initialImpressions := testutil.ToFloat64(impressionsBuiltTotal)

	AddSamplesAggregated(kind, 4)
	IncrementSamplesDropped(kind)
	AddImpressionsBuilt(2)

	assert.Equal(t, initialAggregated+4, testutil.ToFloat64(samplesAggregatedTotal.WithLabelValues(kind)))
	assert.Equal(t, initialDropped+1, testutil.ToFloat64(samplesDroppedTotal.WithLabelValues(kind)))
	assert.Equal(t, initialImpressions+2, testutil.ToFloat64(impressionsBuiltTotal))
}

func TestRecordWait(t *testing.T) {
	initial := testutil.ToFloat64(waitsTotal.WithLabelValues(OutcomeTimeout))

	RecordWait(OutcomeTimeout, 15)
	RecordWait(OutcomeSatisfied, 0.3)

	assert.Equal(t, initial+1, testutil.ToFloat64(waitsTotal.WithLabelValues(OutcomeTimeout)))

	var metric dto.Metric
	require.NoError(t, waitDuration.Write(&metric))
	assert.GreaterOrEqual(t, metric.Histogram.GetSampleCount(), uint64(2))
}

func TestScrapedLinesAndRateLimited(t *testing.T) {
	initialLines := testutil.ToFloat64(scrapedLinesTotal.WithLabelValues("matched"))
	initialLimited := testutil.ToFloat64(rateLimitedTotal)

	AddScrapedLines("matched", 7)
	IncrementRateLimited()

	assert.Equal(t, initialLines+7, testutil.ToFloat64(scrapedLinesTotal.WithLabelValues("matched")))
	assert.Equal(t, initialLimited+1, testutil.ToFloat64(rateLimitedTotal))
}

func TestHandler(t *testing.T) {
	IncrementRateLimited()

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "mockingress_rate_limited_total")
}
