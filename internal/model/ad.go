package model

// AdEventData is one ad engagement sample posted to /analytics/a. It is
// keyed by the impression of the playback session that hosted the ad.
type AdEventData struct {
	VideoImpressionID string `json:"videoImpressionId"`
	AdImpressionID    string `json:"adImpressionId,omitempty"`
	Time              int64  `json:"time"`

	AdPosition string `json:"adPosition,omitempty"`
	AdIndex    int    `json:"adIndex"`
	AdID       string `json:"adId,omitempty"`
	AdSystem   string `json:"adSystem,omitempty"`
	AdTitle    string `json:"adTitle,omitempty"`
	MediaURL   string `json:"mediaUrl,omitempty"`
	Clicked    int    `json:"clicked"`
	Started    int    `json:"started"`
	Completed  int    `json:"completed"`
	Skipped    int    `json:"skipped"`
	TimePlayed int64  `json:"timePlayed"`
	AdDuration int64  `json:"adDuration"`

	ErrorCode    *int   `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`

	Key              string `json:"key,omitempty"`
	Player           string `json:"player,omitempty"`
	PlayerTech       string `json:"playerTech,omitempty"`
	AnalyticsVersion string `json:"analyticsVersion,omitempty"`
	Platform         string `json:"platform,omitempty"`
	UserID           string `json:"userId,omitempty"`
}
