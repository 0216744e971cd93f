package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventDataCustomData(t *testing.T) {
	var e EventData

	require.NoError(t, e.SetCustomData(1, "first"))
	require.NoError(t, e.SetCustomData(50, "last"))

	v, err := e.CustomData(1)
	require.NoError(t, err)
	assert.Equal(t, "first", v)
	assert.Equal(t, "first", e.CustomData1)
	assert.Equal(t, "last", e.CustomData50)
	assert.Equal(t, map[int]string{1: "first", 50: "last"}, e.CustomDataMap())

	_, err = e.CustomData(0)
	assert.Error(t, err)
	assert.Error(t, e.SetCustomData(51, "x"))
}

func TestEventDataDecodeIgnoresUnknownFields(t *testing.T) {
	body := `{"impressionId":"abc","sequenceNumber":3,"customData7":"seven","someFutureField":{"a":1},"state":"playing"}`

	var e EventData
	require.NoError(t, json.Unmarshal([]byte(body), &e))

	assert.Equal(t, "abc", e.ImpressionID)
	assert.Equal(t, 3, e.SequenceNumber)
	assert.Equal(t, "seven", e.CustomData7)
	assert.Equal(t, "playing", e.State)
	assert.False(t, e.HasError())
}

func TestEventDataSourceURL(t *testing.T) {
	assert.Equal(t, "a.m3u8", (&EventData{M3U8URL: "a.m3u8", ProgURL: "a.mp4"}).SourceURL())
	assert.Equal(t, "a.mpd", (&EventData{MPDURL: "a.mpd"}).SourceURL())
	assert.Equal(t, "a.mp4", (&EventData{ProgURL: "a.mp4"}).SourceURL())
}

func TestImpressionID(t *testing.T) {
	tests := []struct {
		name       string
		impression Impression
		want       string
	}{
		{"empty", NewImpression(), ""},
		{"events", Impression{EventDataList: []EventData{{ImpressionID: "e1"}}}, "e1"},
		{"ad only", Impression{AdEventDataList: []AdEventData{{VideoImpressionID: "a1"}}}, "a1"},
		{"errors only", Impression{ErrorDetailList: []ErrorDetail{{ImpressionID: "x1"}}}, "x1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.impression.ID())
		})
	}

	assert.True(t, NewImpression().IsEmpty())
	assert.False(t, Impression{ErrorDetailList: []ErrorDetail{{}}}.IsEmpty())
}

func TestNewImpressionEncodesEmptyLists(t *testing.T) {
	data, err := json.Marshal(NewImpression())
	require.NoError(t, err)
	assert.JSONEq(t, `{"eventDataList":[],"adEventDataList":[],"errorDetailList":[]}`, string(data))
}

func TestKindForPath(t *testing.T) {
	tests := []struct {
		path string
		kind Kind
		ok   bool
	}{
		{PathAnalytics, KindEvent, true},
		{PathAdAnalytics, KindAdEvent, true},
		{PathErrorDetails, KindError, true},
		{PathLicensing, "", false},
		{"/analytics/unknown", "", false},
	}

	for _, tt := range tests {
		kind, ok := KindForPath(tt.path)
		assert.Equal(t, tt.kind, kind, tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
	}
}

func TestLicenseResponseEncoding(t *testing.T) {
	granted := LicenseResponse{
		Status:  LicenseGranted,
		Message: "There you go.",
		Features: &Features{
			ErrorDetails: ErrorDetailsFeature{Enabled: true, NumberOfHTTPRequests: 10},
		},
	}
	data, err := json.Marshal(granted)
	require.NoError(t, err)
	assert.Equal(t,
		`{"status":"granted","message":"There you go.","features":{"errorDetails":{"enabled":true,"numberOfHttpRequests":10}}}`,
		string(data))

	denied, err := json.Marshal(LicenseResponse{Status: LicenseDenied, Message: "License key not found."})
	require.NoError(t, err)
	assert.Equal(t, `{"status":"denied","message":"License key not found."}`, string(denied))
}
