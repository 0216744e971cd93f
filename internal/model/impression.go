package model

// Impression is everything the collector reported for one playback session.
type Impression struct {
	EventDataList   []EventData   `json:"eventDataList"`
	AdEventDataList []AdEventData `json:"adEventDataList"`
	ErrorDetailList []ErrorDetail `json:"errorDetailList"`
}

// NewImpression returns an Impression with non-nil, empty lists.
func NewImpression() Impression {
	return Impression{
		EventDataList:   []EventData{},
		AdEventDataList: []AdEventData{},
		ErrorDetailList: []ErrorDetail{},
	}
}

// ID returns the session key the impression was grouped by. Ad-only
// impressions report the videoImpressionId of their ad samples.
func (i Impression) ID() string {
	switch {
	case len(i.EventDataList) > 0:
		return i.EventDataList[0].ImpressionID
	case len(i.AdEventDataList) > 0:
		return i.AdEventDataList[0].VideoImpressionID
	case len(i.ErrorDetailList) > 0:
		return i.ErrorDetailList[0].ImpressionID
	default:
		return ""
	}
}

func (i Impression) IsEmpty() bool {
	return len(i.EventDataList) == 0 && len(i.AdEventDataList) == 0 && len(i.ErrorDetailList) == 0
}

// SampleCount is the total number of samples across all three lists.
func (i Impression) SampleCount() int {
	return len(i.EventDataList) + len(i.AdEventDataList) + len(i.ErrorDetailList)
}
