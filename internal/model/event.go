package model

import (
	"fmt"
	"reflect"
)

// CustomDataSlots is the number of customDataN fields a collector can fill.
const CustomDataSlots = 50

// Player states reported in EventData.State.
const (
	StateStartup       = "startup"
	StatePlaying       = "playing"
	StatePause         = "pause"
	StateBuffering     = "buffering"
	StateSeeking       = "seeking"
	StateQualityChange = "qualitychange"
	StateError         = "error"
)

// EventData is one playback-state sample posted to /analytics.
type EventData struct {
	ImpressionID   string `json:"impressionId"`
	SequenceNumber int    `json:"sequenceNumber"`

	// Player and collector identity
	Player           string `json:"player,omitempty"`
	PlayerTech       string `json:"playerTech,omitempty"`
	PlayerKey        string `json:"playerKey,omitempty"`
	Key              string `json:"key,omitempty"`
	AnalyticsVersion string `json:"analyticsVersion,omitempty"`
	Version          string `json:"version,omitempty"`

	// Playback state
	State             string `json:"state,omitempty"`
	Duration          int64  `json:"duration"`
	Played            int64  `json:"played"`
	Paused            int64  `json:"paused"`
	Buffered          int64  `json:"buffered"`
	Seeked            int64  `json:"seeked"`
	StartupTime       int64  `json:"startupTime"`
	VideoStartupTime  int64  `json:"videoStartupTime"`
	PlayerStartupTime int64  `json:"playerStartupTime"`
	Ad                int    `json:"ad"`
	RetryCount        int    `json:"retryCount"`

	// Timing, all in milliseconds
	Time           int64 `json:"time"`
	VideoTimeStart int64 `json:"videoTimeStart"`
	VideoTimeEnd   int64 `json:"videoTimeEnd"`

	// Media
	VideoBitrate        int    `json:"videoBitrate"`
	AudioBitrate        int    `json:"audioBitrate"`
	VideoPlaybackWidth  int    `json:"videoPlaybackWidth"`
	VideoPlaybackHeight int    `json:"videoPlaybackHeight"`
	VideoCodec          string `json:"videoCodec,omitempty"`
	AudioCodec          string `json:"audioCodec,omitempty"`
	AudioLanguage       string `json:"audioLanguage,omitempty"`
	SubtitleEnabled     bool   `json:"subtitleEnabled"`
	SubtitleLanguage    string `json:"subtitleLanguage,omitempty"`
	M3U8URL             string `json:"m3u8Url,omitempty"`
	MPDURL              string `json:"mpdUrl,omitempty"`
	ProgURL             string `json:"progUrl,omitempty"`
	StreamFormat        string `json:"streamFormat,omitempty"`
	IsLive              bool   `json:"isLive"`
	VideoDuration       int64  `json:"videoDuration"`
	DroppedFrames       int    `json:"droppedFrames"`

	// DRM
	DRMType     string `json:"drmType,omitempty"`
	DRMLoadTime int64  `json:"drmLoadTime"`

	// Errors; ErrorCode is nil on healthy samples.
	ErrorCode    *int   `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`

	// User and environment
	UserID            string `json:"userId,omitempty"`
	CustomUserID      string `json:"customUserId,omitempty"`
	CDNProvider       string `json:"cdnProvider,omitempty"`
	VideoID           string `json:"videoId,omitempty"`
	VideoTitle        string `json:"videoTitle,omitempty"`
	ExperimentName    string `json:"experimentName,omitempty"`
	Domain            string `json:"domain,omitempty"`
	Platform          string `json:"platform,omitempty"`
	DeviceInformation string `json:"deviceInformation,omitempty"`

	CustomData1  string `json:"customData1,omitempty"`
	CustomData2  string `json:"customData2,omitempty"`
	CustomData3  string `json:"customData3,omitempty"`
	CustomData4  string `json:"customData4,omitempty"`
	CustomData5  string `json:"customData5,omitempty"`
	CustomData6  string `json:"customData6,omitempty"`
	CustomData7  string `json:"customData7,omitempty"`
	CustomData8  string `json:"customData8,omitempty"`
	CustomData9  string `json:"customData9,omitempty"`
	CustomData10 string `json:"customData10,omitempty"`
	CustomData11 string `json:"customData11,omitempty"`
	CustomData12 string `json:"customData12,omitempty"`
	CustomData13 string `json:"customData13,omitempty"`
	CustomData14 string `json:"customData14,omitempty"`
	CustomData15 string `json:"customData15,omitempty"`
	CustomData16 string `json:"customData16,omitempty"`
	CustomData17 string `json:"customData17,omitempty"`
	CustomData18 string `json:"customData18,omitempty"`
	CustomData19 string `json:"customData19,omitempty"`
	CustomData20 string `json:"customData20,omitempty"`
	CustomData21 string `json:"customData21,omitempty"`
	CustomData22 string `json:"customData22,omitempty"`
	CustomData23 string `json:"customData23,omitempty"`
	CustomData24 string `json:"customData24,omitempty"`
	CustomData25 string `json:"customData25,omitempty"`
	CustomData26 string `json:"customData26,omitempty"`
	CustomData27 string `json:"customData27,omitempty"`
	CustomData28 string `json:"customData28,omitempty"`
	CustomData29 string `json:"customData29,omitempty"`
	CustomData30 string `json:"customData30,omitempty"`
	CustomData31 string `json:"customData31,omitempty"`
	CustomData32 string `json:"customData32,omitempty"`
	CustomData33 string `json:"customData33,omitempty"`
	CustomData34 string `json:"customData34,omitempty"`
	CustomData35 string `json:"customData35,omitempty"`
	CustomData36 string `json:"customData36,omitempty"`
	CustomData37 string `json:"customData37,omitempty"`
	CustomData38 string `json:"customData38,omitempty"`
	CustomData39 string `json:"customData39,omitempty"`
	CustomData40 string `json:"customData40,omitempty"`
	CustomData41 string `json:"customData41,omitempty"`
	CustomData42 string `json:"customData42,omitempty"`
	CustomData43 string `json:"customData43,omitempty"`
	CustomData44 string `json:"customData44,omitempty"`
	CustomData45 string `json:"customData45,omitempty"`
	CustomData46 string `json:"customData46,omitempty"`
	CustomData47 string `json:"customData47,omitempty"`
	CustomData48 string `json:"customData48,omitempty"`
	CustomData49 string `json:"customData49,omitempty"`
	CustomData50 string `json:"customData50,omitempty"`
}

// CustomData returns custom data slot n (1-based).
func (e *EventData) CustomData(n int) (string, error) {
	f, err := e.customDataField(n)
	if err != nil {
		return "", err
	}
	return f.String(), nil
}

// SetCustomData assigns custom data slot n (1-based).
func (e *EventData) SetCustomData(n int, value string) error {
	f, err := e.customDataField(n)
	if err != nil {
		return err
	}
	f.SetString(value)
	return nil
}

// CustomDataMap returns the populated custom data slots keyed by slot number.
func (e *EventData) CustomDataMap() map[int]string {
	out := make(map[int]string)
	for n := 1; n <= CustomDataSlots; n++ {
		if v, _ := e.CustomData(n); v != "" {
			out[n] = v
		}
	}
	return out
}

func (e *EventData) customDataField(n int) (reflect.Value, error) {
	if n < 1 || n > CustomDataSlots {
		return reflect.Value{}, fmt.Errorf("custom data slot %d out of range 1..%d", n, CustomDataSlots)
	}
	return reflect.ValueOf(e).Elem().FieldByName(fmt.Sprintf("CustomData%d", n)), nil
}

// HasError reports whether the sample carries an error code.
func (e *EventData) HasError() bool {
	return e.ErrorCode != nil
}

// SourceURL returns whichever manifest or progressive URL the sample carries.
func (e *EventData) SourceURL() string {
	switch {
	case e.M3U8URL != "":
		return e.M3U8URL
	case e.MPDURL != "":
		return e.MPDURL
	default:
		return e.ProgURL
	}
}
