package model

import (
	"net/http"
	"time"
)

// Ingestion paths a collector posts to.
const (
	PathLicensing    = "/licensing"
	PathAnalytics    = "/analytics"
	PathAdAnalytics  = "/analytics/a"
	PathErrorDetails = "/analytics/error"
)

// Kind identifies which sample type a request body holds.
type Kind string

const (
	KindEvent   Kind = "event"
	KindAdEvent Kind = "ad_event"
	KindError   Kind = "error_detail"
)

// KindForPath maps an ingestion path to its sample kind. Licensing and
// unknown paths carry no samples.
func KindForPath(path string) (Kind, bool) {
	switch path {
	case PathAnalytics:
		return KindEvent, true
	case PathAdAnalytics:
		return KindAdEvent, true
	case PathErrorDetails:
		return KindError, true
	default:
		return "", false
	}
}

// RecordedRequest is a captured collector request. It is held by the request
// queue until an aggregation drains it.
type RecordedRequest struct {
	ID         string      `json:"id"`
	Method     string      `json:"method"`
	Path       string      `json:"path"`
	Body       []byte      `json:"body"`
	Header     http.Header `json:"header,omitempty"`
	ReceivedAt time.Time   `json:"received_at"`
}
