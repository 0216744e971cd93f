package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/zsiec/mockingress/internal/errors"
	"github.com/zsiec/mockingress/internal/health"
	"github.com/zsiec/mockingress/internal/server"
	"github.com/zsiec/mockingress/pkg/version"
)

// Snapshot is one poll of a running mock ingestion server.
type Snapshot struct {
	Pending   int
	Health    string
	Checks    map[string]string
	Uptime    string
	FetchedAt time.Time
}

type Fetcher interface {
	Fetch(ctx context.Context) (Snapshot, error)
}

// HTTPFetcher polls the server's control and health endpoints. It never
// drains the backlog.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	return &HTTPFetcher{baseURL: baseURL, client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context) (Snapshot, error) {
	var count server.RequestCountResponse
	if err := f.getJSON(ctx, "/api/v1/requests/count", &count); err != nil {
		return Snapshot{}, err
	}

	var h health.Response
	// /health answers 503 with a body when a check is down
	if err := f.getJSON(ctx, "/health", &h, http.StatusServiceUnavailable); err != nil {
		return Snapshot{}, err
	}

	checks := make(map[string]string, len(h.Checks))
	for name, c := range h.Checks {
		checks[name] = string(c.Status)
	}

	return Snapshot{
		Pending:   count.Count,
		Health:    string(h.Status),
		Checks:    checks,
		Uptime:    h.Uptime,
		FetchedAt: time.Now(),
	}, nil
}

// getJSON decodes a 2xx response, or one of the extra accepted statuses,
// into v. Anything else is an error so an error envelope never reads as an
// empty snapshot.
func (f *HTTPFetcher) getJSON(ctx context.Context, path string, v interface{}, accept ...int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", version.UserAgent("dashboard"))

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok && !slices.Contains(accept, resp.StatusCode) {
		var envelope errors.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&envelope) == nil && envelope.Error.Message != "" {
			return fmt.Errorf("GET %s: %s: %s", path, resp.Status, envelope.Error.Message)
		}
		return fmt.Errorf("GET %s: %s", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("GET %s: failed to decode response: %w", path, err)
	}
	return nil
}
