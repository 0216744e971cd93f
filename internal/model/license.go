package model

const (
	LicenseGranted = "granted"
	LicenseDenied  = "denied"
)

// LicenseResponse is the body of a /licensing reply.
type LicenseResponse struct {
	Status   string    `json:"status"`
	Message  string    `json:"message"`
	Features *Features `json:"features,omitempty"`
}

type Features struct {
	ErrorDetails ErrorDetailsFeature `json:"errorDetails"`
}

type ErrorDetailsFeature struct {
	Enabled              bool `json:"enabled"`
	NumberOfHTTPRequests int  `json:"numberOfHttpRequests"`
}

// LicenseRequest is the body a collector posts to /licensing. Only the key is
// inspected; the rest is recorded verbatim.
type LicenseRequest struct {
	Key              string `json:"key"`
	Domain           string `json:"domain,omitempty"`
	AnalyticsVersion string `json:"analyticsVersion,omitempty"`
}
