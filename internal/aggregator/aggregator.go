// Package aggregator turns the arrival-ordered backlog of recorded collector
// requests into per-session impressions.
package aggregator

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/zsiec/mockingress/internal/logger"
	"github.com/zsiec/mockingress/internal/metrics"
	"github.com/zsiec/mockingress/internal/model"
)

// Source is a drainable request backlog, normally the mock server.
type Source interface {
	RequestCount(ctx context.Context) (int, error)
	TakeRequests(ctx context.Context, n int) ([]model.RecordedRequest, error)
}

// Samples holds decoded samples in arrival order, split by kind.
type Samples struct {
	Events       []model.EventData
	AdEvents     []model.AdEventData
	ErrorDetails []model.ErrorDetail
}

// Aggregator decodes and groups recorded requests.
type Aggregator struct {
	logger *logger.SampledLogger
}

// New creates an aggregator. A nil log discards output.
func New(log logger.Logger) *Aggregator {
	if log == nil {
		log = logger.NewNullLogger()
	}
	return &Aggregator{
		logger: logger.NewHarnessLogger(log.WithField("component", "aggregator")),
	}
}

// Drain consumes exactly as many requests as src reports at call time and
// groups them into impressions. Requests that arrive while draining stay in
// the backlog, so callers should drain only after traffic has settled.
func (a *Aggregator) Drain(ctx context.Context, src Source) ([]model.Impression, error) {
	count, err := src.RequestCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}

	requests, err := src.TakeRequests(ctx, count)
	if err != nil {
		return nil, fmt.Errorf("failed to take %d requests: %w", count, err)
	}

	impressions := a.Group(requests)

	a.logger.WithFields(map[string]interface{}{
		"requests":    len(requests),
		"impressions": len(impressions),
	}).Debug("Drained recorded requests")

	return impressions, nil
}

// Group decodes requests by path and groups the samples into impressions.
func (a *Aggregator) Group(requests []model.RecordedRequest) []model.Impression {
	samples := a.Decode(requests)
	impressions := GroupSamples(samples)
	metrics.AddImpressionsBuilt(len(impressions))
	return impressions
}

// Decode parses each request body according to its path. Bodies that do not
// decode are dropped; the drop is counted and logged, never returned.
func (a *Aggregator) Decode(requests []model.RecordedRequest) Samples {
	var samples Samples

	for _, req := range requests {
		kind, ok := model.KindForPath(req.Path)
		if !ok {
			continue
		}

		var err error
		switch kind {
		case model.KindEvent:
			var e model.EventData
			if err = decode(req.Body, &e); err == nil {
				samples.Events = append(samples.Events, e)
			}
		case model.KindAdEvent:
			var e model.AdEventData
			if err = decode(req.Body, &e); err == nil {
				samples.AdEvents = append(samples.AdEvents, e)
			}
		case model.KindError:
			var e model.ErrorDetail
			if err = decode(req.Body, &e); err == nil {
				samples.ErrorDetails = append(samples.ErrorDetails, e)
			}
		}

		if err != nil {
			metrics.IncrementSamplesDropped(string(kind))
			a.logger.DebugSampled(logger.CategorySampleDropped, "Dropped undecodable sample", map[string]interface{}{
				"kind":       kind,
				"request_id": req.ID,
				"error":      err.Error(),
			})
		}
	}

	metrics.AddSamplesAggregated(string(model.KindEvent), len(samples.Events))
	metrics.AddSamplesAggregated(string(model.KindAdEvent), len(samples.AdEvents))
	metrics.AddSamplesAggregated(string(model.KindError), len(samples.ErrorDetails))

	return samples
}

func decode(body []byte, v interface{}) error {
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("body is not valid JSON")
	}
	if !gjson.ParseBytes(body).IsObject() {
		return fmt.Errorf("body is not a JSON object")
	}
	return json.Unmarshal(body, v)
}

// GroupSamples builds one impression per distinct EventData session key, in
// order of first arrival. Ad events and error details attach by key. When no
// EventData exists at all the ad event keys define the impressions instead,
// so ad-only traffic is not lost.
func GroupSamples(samples Samples) []model.Impression {
	events := lo.GroupBy(samples.Events, func(e model.EventData) string { return e.ImpressionID })
	adEvents := lo.GroupBy(samples.AdEvents, func(e model.AdEventData) string { return e.VideoImpressionID })
	errorDetails := lo.GroupBy(samples.ErrorDetails, func(e model.ErrorDetail) string { return e.ImpressionID })

	var keys []string
	if len(samples.Events) > 0 {
		keys = lo.Uniq(lo.Map(samples.Events, func(e model.EventData, _ int) string { return e.ImpressionID }))
	} else {
		keys = lo.Uniq(lo.Map(samples.AdEvents, func(e model.AdEventData, _ int) string { return e.VideoImpressionID }))
	}

	return lo.Map(keys, func(key string, _ int) model.Impression {
		impression := model.NewImpression()

		impression.EventDataList = append(impression.EventDataList, events[key]...)
		slices.SortStableFunc(impression.EventDataList, func(a, b model.EventData) int {
			return cmp.Compare(a.SequenceNumber, b.SequenceNumber)
		})

		impression.AdEventDataList = append(impression.AdEventDataList, adEvents[key]...)
		slices.SortStableFunc(impression.AdEventDataList, func(a, b model.AdEventData) int {
			return cmp.Compare(a.Time, b.Time)
		})

		impression.ErrorDetailList = append(impression.ErrorDetailList, errorDetails[key]...)
		slices.SortStableFunc(impression.ErrorDetailList, func(a, b model.ErrorDetail) int {
			return cmp.Compare(a.Timestamp, b.Timestamp)
		})

		return impression
	})
}

// HasNoSamplesReceived reports whether no impression carries any sample.
func HasNoSamplesReceived(impressions []model.Impression) bool {
	return lo.EveryBy(impressions, func(i model.Impression) bool { return i.IsEmpty() })
}

// ImpressionIDs lists the session keys of impressions, for annotating
// assertion failures.
func ImpressionIDs(impressions []model.Impression) []string {
	return lo.Map(impressions, func(i model.Impression, _ int) string { return i.ID() })
}

// Drain drains src with a silent aggregator.
func Drain(ctx context.Context, src Source) ([]model.Impression, error) {
	return New(nil).Drain(ctx, src)
}
