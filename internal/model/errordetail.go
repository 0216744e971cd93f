package model

// ErrorDetail describes one playback error posted to /analytics/error.
type ErrorDetail struct {
	ImpressionID     string        `json:"impressionId"`
	Timestamp        int64         `json:"timestamp"`
	Platform         string        `json:"platform,omitempty"`
	LicenseKey       string        `json:"licenseKey,omitempty"`
	Domain           string        `json:"domain,omitempty"`
	ErrorID          int64         `json:"errorId"`
	Code             *int          `json:"code,omitempty"`
	Message          string        `json:"message,omitempty"`
	Data             ErrorData     `json:"data"`
	HTTPRequests     []HTTPRequest `json:"httpRequests,omitempty"`
	AnalyticsVersion string        `json:"analyticsVersion,omitempty"`
}

type ErrorData struct {
	ExceptionMessage    string   `json:"exceptionMessage,omitempty"`
	ExceptionStacktrace []string `json:"exceptionStacktrace,omitempty"`
	AdditionalData      string   `json:"additionalData,omitempty"`
}

// HTTPRequest is one of the player's recent network requests attached to an
// ErrorDetail when the errorDetails feature is licensed.
type HTTPRequest struct {
	Timestamp            int64  `json:"timestamp"`
	Type                 string `json:"type,omitempty"`
	URL                  string `json:"url,omitempty"`
	LastRedirectLocation string `json:"lastRedirectLocation,omitempty"`
	StatusCode           int    `json:"statusCode"`
	DownloadTime         int64  `json:"downloadTime"`
	TimeToFirstByte      *int64 `json:"timeToFirstByte,omitempty"`
	Size                 *int64 `json:"size,omitempty"`
	Success              bool   `json:"success"`
}
