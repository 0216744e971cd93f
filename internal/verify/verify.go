// Package verify holds assertions over reconstructed impressions. Every
// failure names the impression ids involved and dumps the offending sample,
// so a failed run can be looked up on a live dashboard.
package verify

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/mockingress/internal/aggregator"
	"github.com/zsiec/mockingress/internal/model"
)

type tHelper interface {
	Helper()
}

func helper(t interface{}) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
}

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// dump renders a sample for a failure message.
func dump(v interface{}) string {
	return dumper.Sdump(v)
}

// Invariants checks that every sample shares the impression id and that
// sequence numbers run 0..N-1 without gaps.
func Invariants(t assert.TestingT, impression model.Impression) bool {
	helper(t)

	id := impression.ID()
	ok := assert.NotEmpty(t, id, "impression has no id")

	for i, e := range impression.EventDataList {
		if e.ImpressionID != id {
			ok = assert.Fail(t, "sample belongs to another impression",
				"impression %s, sample %d has impressionId %q\n%s", id, i, e.ImpressionID, dump(e))
		}
		if e.SequenceNumber != i {
			ok = assert.Fail(t, "sequence numbers are not contiguous",
				"impression %s, position %d has sequenceNumber %d\n%s", id, i, e.SequenceNumber, dump(e))
		}
	}

	return ok
}

// SingleImpression fails the test now unless exactly one impression was
// built, and returns it.
func SingleImpression(t require.TestingT, impressions []model.Impression) model.Impression {
	helper(t)

	if !assert.Len(t, impressions, 1, "impressions: %v", aggregator.ImpressionIDs(impressions)) {
		t.FailNow()
		return model.NewImpression()
	}
	return impressions[0]
}

func ImpressionCount(t assert.TestingT, impressions []model.Impression, want int) bool {
	helper(t)
	return assert.Len(t, impressions, want, "impressions: %v", aggregator.ImpressionIDs(impressions))
}

// StartupSample checks the first sample reports a completed startup.
func StartupSample(t assert.TestingT, impression model.Impression) bool {
	helper(t)

	if !assert.NotEmpty(t, impression.EventDataList, "impression %s has no samples", impression.ID()) {
		return false
	}

	first := impression.EventDataList[0]
	msg := fmt.Sprintf("impression %s, first sample\n%s", impression.ID(), dump(first))

	ok := assert.Equal(t, model.StateStartup, first.State, msg)
	ok = assert.Positive(t, first.StartupTime, msg) && ok
	ok = assert.NotZero(t, first.VideoStartupTime, msg) && ok
	return ok
}

func NoErrorSamples(t assert.TestingT, impression model.Impression) bool {
	helper(t)

	failed := lo.Filter(impression.EventDataList, func(e model.EventData, _ int) bool {
		return e.HasError()
	})
	if len(failed) == 0 {
		return true
	}
	return assert.Fail(t, "impression has error samples",
		"impression %s\n%s", impression.ID(), dump(failed))
}

// ErrorSample checks that some sample reports errorCode code.
func ErrorSample(t assert.TestingT, impression model.Impression, code int) bool {
	helper(t)

	_, found := lo.Find(impression.EventDataList, func(e model.EventData) bool {
		return e.ErrorCode != nil && *e.ErrorCode == code
	})
	if found {
		return true
	}

	codes := lo.FilterMap(impression.EventDataList, func(e model.EventData, _ int) (int, bool) {
		if e.ErrorCode == nil {
			return 0, false
		}
		return *e.ErrorCode, true
	})
	return assert.Fail(t, fmt.Sprintf("no sample with errorCode %d", code),
		"impression %s reported error codes %v", impression.ID(), codes)
}

// StaticData checks the collector identity fields are set on every sample.
func StaticData(t assert.TestingT, impression model.Impression) bool {
	helper(t)

	ok := true
	for _, e := range impression.EventDataList {
		missing := lo.Compact([]string{
			lo.Ternary(e.Key == "", "key", ""),
			lo.Ternary(e.Player == "", "player", ""),
			lo.Ternary(e.PlayerTech == "", "playerTech", ""),
			lo.Ternary(e.AnalyticsVersion == "", "analyticsVersion", ""),
		})
		if len(missing) > 0 {
			ok = assert.Fail(t, fmt.Sprintf("sample is missing %v", missing),
				"impression %s, sequenceNumber %d\n%s", impression.ID(), e.SequenceNumber, dump(e))
		}
	}
	return ok
}

// ContinuousPlayback checks that playing samples cover the video timeline
// without holes: each one starts where the previous one ended.
func ContinuousPlayback(t assert.TestingT, impression model.Impression) bool {
	helper(t)

	playing := lo.Filter(impression.EventDataList, func(e model.EventData, _ int) bool {
		return e.State == model.StatePlaying
	})
	if !assert.NotEmpty(t, playing, "impression %s has no playing samples", impression.ID()) {
		return false
	}

	ok := true
	for i := 1; i < len(playing); i++ {
		prev, cur := playing[i-1], playing[i]
		if prev.VideoTimeEnd != cur.VideoTimeStart {
			ok = assert.Fail(t, "gap in playback",
				"impression %s: videoTimeEnd %d of sequenceNumber %d != videoTimeStart %d of sequenceNumber %d\n%s%s",
				impression.ID(), prev.VideoTimeEnd, prev.SequenceNumber, cur.VideoTimeStart, cur.SequenceNumber,
				dump(prev), dump(cur))
		}
	}
	return ok
}

func ExactlyOnePauseSample(t assert.TestingT, impression model.Impression) bool {
	helper(t)

	n := lo.CountBy(impression.EventDataList, func(e model.EventData) bool {
		return e.State == model.StatePause
	})
	return assert.Equal(t, 1, n, "impression %s pause samples, states %v", impression.ID(), states(impression))
}

func HasState(t assert.TestingT, impression model.Impression, state string) bool {
	helper(t)

	return assert.Contains(t, states(impression), state, "impression %s", impression.ID())
}

func states(impression model.Impression) []string {
	return lo.Map(impression.EventDataList, func(e model.EventData, _ int) string {
		return e.State
	})
}

// CustomData checks every sample carries the expected value in each given
// custom data slot.
func CustomData(t assert.TestingT, impression model.Impression, expected map[int]string) bool {
	helper(t)

	ok := true
	for _, e := range impression.EventDataList {
		for slot, want := range expected {
			got, err := e.CustomData(slot)
			if !assert.NoError(t, err) {
				return false
			}
			if got != want {
				ok = assert.Fail(t, fmt.Sprintf("customData%d is %q, want %q", slot, got, want),
					"impression %s, sequenceNumber %d\n%s", impression.ID(), e.SequenceNumber, dump(e))
			}
		}
	}
	return ok
}

// SourceURL checks every sample reports url as its manifest or progressive
// source.
func SourceURL(t assert.TestingT, impression model.Impression, url string) bool {
	helper(t)

	ok := true
	for _, e := range impression.EventDataList {
		if got := e.SourceURL(); got != url {
			ok = assert.Fail(t, fmt.Sprintf("source url is %q, want %q", got, url),
				"impression %s, sequenceNumber %d", impression.ID(), e.SequenceNumber)
		}
	}
	return ok
}

// AdEvents checks ad samples belong to the impression and are in time order.
func AdEvents(t assert.TestingT, impression model.Impression) bool {
	helper(t)

	id := impression.ID()
	ok := true
	for i, ad := range impression.AdEventDataList {
		if ad.VideoImpressionID != id {
			ok = assert.Fail(t, "ad sample belongs to another impression",
				"impression %s, ad sample %d has videoImpressionId %q\n%s", id, i, ad.VideoImpressionID, dump(ad))
		}
		if i > 0 && ad.Time < impression.AdEventDataList[i-1].Time {
			ok = assert.Fail(t, "ad samples out of order",
				"impression %s, ad sample %d at %d precedes previous at %d", id, i, ad.Time, impression.AdEventDataList[i-1].Time)
		}
	}
	return ok
}
