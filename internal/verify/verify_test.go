package verify

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/mockingress/internal/model"
)

// recordingT collects failures so negative cases can be asserted on.
type recordingT struct {
	errors    []string
	failedNow bool
}

func (r *recordingT) Errorf(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *recordingT) FailNow() {
	r.failedNow = true
}

func (r *recordingT) Failed() bool {
	return len(r.errors) > 0
}

func (r *recordingT) Output() string {
	return strings.Join(r.errors, "\n")
}

func intPtr(v int) *int {
	return &v
}

func sample(seq int, state string, start, end int64) model.EventData {
	return model.EventData{
		ImpressionID:     "abc",
		SequenceNumber:   seq,
		State:            state,
		Key:              "17e6ea02",
		Player:           "exoplayer",
		PlayerTech:       "Android:Exoplayer",
		AnalyticsVersion: "3.4.0",
		VideoTimeStart:   start,
		VideoTimeEnd:     end,
		M3U8URL:          "https://example.com/stream.m3u8",
		CustomData1:      "one",
	}
}

func playback() model.Impression {
	startup := sample(0, model.StateStartup, 0, 0)
	startup.StartupTime = 850
	startup.VideoStartupTime = 600

	imp := model.NewImpression()
	imp.EventDataList = []model.EventData{
		startup,
		sample(1, model.StatePlaying, 0, 4000),
		sample(2, model.StatePause, 4000, 4000),
		sample(3, model.StatePlaying, 4000, 9000),
	}
	imp.AdEventDataList = []model.AdEventData{
		{VideoImpressionID: "abc", Time: 10},
		{VideoImpressionID: "abc", Time: 20},
	}
	return imp
}

func TestHealthyPlaybackPasses(t *testing.T) {
	imp := playback()

	assert.True(t, Invariants(t, imp))
	assert.True(t, StartupSample(t, imp))
	assert.True(t, NoErrorSamples(t, imp))
	assert.True(t, StaticData(t, imp))
	assert.True(t, ContinuousPlayback(t, imp))
	assert.True(t, ExactlyOnePauseSample(t, imp))
	assert.True(t, HasState(t, imp, model.StatePlaying))
	assert.True(t, CustomData(t, imp, map[int]string{1: "one", 2: ""}))
	assert.True(t, SourceURL(t, imp, "https://example.com/stream.m3u8"))
	assert.True(t, AdEvents(t, imp))
	assert.True(t, ImpressionCount(t, []model.Impression{imp}, 1))
	assert.Equal(t, imp, SingleImpression(t, []model.Impression{imp}))
}

func TestInvariants(t *testing.T) {
	t.Run("gap in sequence numbers", func(t *testing.T) {
		imp := playback()
		imp.EventDataList[2].SequenceNumber = 5

		rt := &recordingT{}
		assert.False(t, Invariants(rt, imp))
		assert.Contains(t, rt.Output(), "impression abc, position 2 has sequenceNumber 5")
	})

	t.Run("foreign sample", func(t *testing.T) {
		imp := playback()
		imp.EventDataList[3].ImpressionID = "other"

		rt := &recordingT{}
		assert.False(t, Invariants(rt, imp))
		assert.Contains(t, rt.Output(), `impressionId "other"`)
	})
}

func TestSingleImpression(t *testing.T) {
	a := playback()
	b := playback()
	for i := range b.EventDataList {
		b.EventDataList[i].ImpressionID = "def"
	}

	rt := &recordingT{}
	got := SingleImpression(rt, []model.Impression{a, b})

	assert.True(t, rt.failedNow)
	assert.Contains(t, rt.Output(), "[abc def]")
	assert.True(t, got.IsEmpty())

	rt = &recordingT{}
	SingleImpression(rt, nil)
	assert.True(t, rt.failedNow)
}

func TestImpressionCount(t *testing.T) {
	rt := &recordingT{}
	assert.False(t, ImpressionCount(rt, []model.Impression{playback()}, 2))
	assert.Contains(t, rt.Output(), "[abc]")
}

func TestStartupSample(t *testing.T) {
	imp := playback()
	imp.EventDataList[0].VideoStartupTime = 0

	rt := &recordingT{}
	assert.False(t, StartupSample(rt, imp))
	assert.Contains(t, rt.Output(), "impression abc, first sample")

	rt = &recordingT{}
	assert.False(t, StartupSample(rt, model.NewImpression()))
}

func TestErrorSamples(t *testing.T) {
	imp := playback()
	imp.EventDataList[3].ErrorCode = intPtr(3006)
	imp.EventDataList[3].State = model.StateError

	rt := &recordingT{}
	assert.False(t, NoErrorSamples(rt, imp))
	assert.Contains(t, rt.Output(), "3006")

	assert.True(t, ErrorSample(t, imp, 3006))

	rt = &recordingT{}
	assert.False(t, ErrorSample(rt, imp, 1000))
	assert.Contains(t, rt.Output(), "no sample with errorCode 1000")
	assert.Contains(t, rt.Output(), "[3006]")
}

func TestStaticData(t *testing.T) {
	imp := playback()
	imp.EventDataList[1].PlayerTech = ""
	imp.EventDataList[1].Key = ""

	rt := &recordingT{}
	assert.False(t, StaticData(rt, imp))
	assert.Contains(t, rt.Output(), "sample is missing [key playerTech]")
	assert.Contains(t, rt.Output(), "sequenceNumber 1")
}

func TestContinuousPlayback(t *testing.T) {
	imp := playback()
	imp.EventDataList[3].VideoTimeStart = 4500

	rt := &recordingT{}
	assert.False(t, ContinuousPlayback(rt, imp))
	assert.Contains(t, rt.Output(), "videoTimeEnd 4000 of sequenceNumber 1 != videoTimeStart 4500 of sequenceNumber 3")

	rt = &recordingT{}
	imp.EventDataList = imp.EventDataList[:1]
	assert.False(t, ContinuousPlayback(rt, imp), "no playing samples")
}

func TestPauseAndStates(t *testing.T) {
	imp := playback()
	imp.EventDataList[3].State = model.StatePause

	rt := &recordingT{}
	assert.False(t, ExactlyOnePauseSample(rt, imp))
	assert.Contains(t, rt.Output(), "[startup playing pause pause]")

	rt = &recordingT{}
	assert.False(t, HasState(rt, imp, model.StateSeeking))
}

func TestCustomData(t *testing.T) {
	imp := playback()
	imp.EventDataList[2].CustomData1 = "changed"

	rt := &recordingT{}
	assert.False(t, CustomData(rt, imp, map[int]string{1: "one"}))
	assert.Contains(t, rt.Output(), `customData1 is "changed", want "one"`)

	rt = &recordingT{}
	assert.False(t, CustomData(rt, imp, map[int]string{51: "x"}))
	assert.True(t, rt.Failed())
}

func TestSourceURL(t *testing.T) {
	imp := playback()
	imp.EventDataList[0].M3U8URL = ""
	imp.EventDataList[0].MPDURL = "https://example.com/stream.mpd"

	rt := &recordingT{}
	assert.False(t, SourceURL(rt, imp, "https://example.com/stream.m3u8"))
	assert.Contains(t, rt.Output(), "stream.mpd")
}

func TestAdEvents(t *testing.T) {
	imp := playback()
	imp.AdEventDataList = append(imp.AdEventDataList, model.AdEventData{VideoImpressionID: "abc", Time: 5})

	rt := &recordingT{}
	assert.False(t, AdEvents(rt, imp))
	assert.Contains(t, rt.Output(), "ad sample 2 at 5 precedes previous at 20")

	imp = playback()
	imp.AdEventDataList[0].VideoImpressionID = "xyz"
	rt = &recordingT{}
	assert.False(t, AdEvents(rt, imp))
	assert.Contains(t, rt.Output(), `videoImpressionId "xyz"`)
}

func TestDumpOmitsPointerAddresses(t *testing.T) {
	e := sample(0, model.StateError, 0, 0)
	e.ErrorCode = intPtr(42)

	out := dump(e)
	require.Contains(t, out, "ErrorCode: (*int)(42)")
	assert.NotContains(t, out, "0xc0")
}
