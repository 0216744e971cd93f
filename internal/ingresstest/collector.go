package ingresstest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zsiec/mockingress/internal/model"
	"github.com/zsiec/mockingress/pkg/version"
)

// Collector posts payloads the way an analytics collector on a device does.
// It keeps the current impression id and sequence number.
type Collector struct {
	baseURL    string
	licenseKey string
	client     *http.Client

	mu           sync.Mutex
	impressionID string
	sequence     int
}

func NewCollector(baseURL, licenseKey string) *Collector {
	c := &Collector{
		baseURL:    baseURL,
		licenseKey: licenseKey,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
	c.NewImpression()
	return c
}

// NewImpression starts a new playback session and returns its id.
func (c *Collector) NewImpression() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.impressionID = uuid.New().String()
	c.sequence = 0
	return c.impressionID
}

func (c *Collector) ImpressionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.impressionID
}

// License performs the license call and returns the decoded answer and the
// HTTP status.
func (c *Collector) License(ctx context.Context) (*model.LicenseResponse, int, error) {
	body, status, err := c.post(ctx, model.PathLicensing, model.LicenseRequest{
		Key:              c.licenseKey,
		Domain:           "com.example.player",
		AnalyticsVersion: "3.4.0",
	})
	if err != nil {
		return nil, 0, err
	}

	var resp model.LicenseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, status, fmt.Errorf("failed to decode license response: %w", err)
	}
	return &resp, status, nil
}

// Sample posts e as the next sample of the current impression. The
// impression id, sequence number, license key and timestamp are filled in.
func (c *Collector) Sample(ctx context.Context, e model.EventData) error {
	c.mu.Lock()
	e.ImpressionID = c.impressionID
	e.SequenceNumber = c.sequence
	c.sequence++
	c.mu.Unlock()

	if e.Key == "" {
		e.Key = c.licenseKey
	}
	if e.Time == 0 {
		e.Time = time.Now().UnixMilli()
	}

	return c.send(ctx, model.PathAnalytics, e)
}

// AdSample posts an ad event for the current impression.
func (c *Collector) AdSample(ctx context.Context, ad model.AdEventData) error {
	if ad.VideoImpressionID == "" {
		ad.VideoImpressionID = c.ImpressionID()
	}
	if ad.Key == "" {
		ad.Key = c.licenseKey
	}
	return c.send(ctx, model.PathAdAnalytics, ad)
}

// ErrorDetail posts an error detail for the current impression.
func (c *Collector) ErrorDetail(ctx context.Context, d model.ErrorDetail) error {
	if d.ImpressionID == "" {
		d.ImpressionID = c.ImpressionID()
	}
	if d.LicenseKey == "" {
		d.LicenseKey = c.licenseKey
	}
	return c.send(ctx, model.PathErrorDetails, d)
}

// Raw posts body unchanged to path.
func (c *Collector) Raw(ctx context.Context, path string, body []byte) (int, error) {
	_, status, err := c.do(ctx, path, body)
	return status, err
}

func (c *Collector) send(ctx context.Context, path string, payload interface{}) error {
	_, status, err := c.post(ctx, path, payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("POST %s: unexpected status %d", path, status)
	}
	return nil
}

func (c *Collector) post(ctx context.Context, path string, payload interface{}) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode payload: %w", err)
	}
	return c.do(ctx, path, body)
}

func (c *Collector) do(ctx context.Context, path string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent("collector"))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("POST %s: %w", path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}
