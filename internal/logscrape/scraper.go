// Package logscrape rebuilds impressions from collector debug output in the
// device log instead of from captured HTTP traffic.
package logscrape

import (
	"context"
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/zsiec/mockingress/internal/aggregator"
	"github.com/zsiec/mockingress/internal/config"
	"github.com/zsiec/mockingress/internal/logger"
	"github.com/zsiec/mockingress/internal/metrics"
	"github.com/zsiec/mockingress/internal/model"
)

// ErrMarkerNotFound means the log holds no session marker, so there is no
// way to tell this run's lines from stale ones.
var ErrMarkerNotFound = stderrors.New("logscrape: no session marker in log")

// Line results reported to metrics.
const (
	ResultMatched = "matched"
	ResultInvalid = "invalid"
	ResultSkipped = "skipped"
)

var trailingObject = regexp.MustCompile(`\{.*\}\s*$`)

type Scraper struct {
	source     Source
	markers    []string
	clientTag  string
	aggregator *aggregator.Aggregator
	log        *logger.SampledLogger
}

// New creates a scraper reading from source. A nil cfg uses the defaults.
func New(source Source, cfg *config.ScraperConfig, log logger.Logger) *Scraper {
	if cfg == nil {
		cfg = &config.Default().Scraper
	}
	if log == nil {
		log = logger.NewNullLogger()
	}

	return &Scraper{
		source:     source,
		markers:    append([]string(nil), cfg.Markers...),
		clientTag:  cfg.ClientTag,
		aggregator: aggregator.New(log),
		log:        logger.NewHarnessLogger(log.WithField("component", "logscrape")),
	}
}

// Extract returns the JSON payloads logged by the collector after the last
// session marker, in log order. It does not modify lines, so repeated calls
// on one snapshot give the same result.
func (s *Scraper) Extract(lines []string) ([]string, error) {
	start := s.lastMarker(lines)
	if start < 0 {
		return nil, ErrMarkerNotFound
	}

	var payloads []string
	skipped, invalid := 0, 0
	for _, line := range lines[start+1:] {
		if !strings.Contains(line, s.clientTag) {
			skipped++
			continue
		}

		payload, ok := trailingJSON(line)
		if !ok {
			invalid++
			s.log.DebugSampled(logger.CategoryLogLine, "Tagged line without a JSON payload", map[string]interface{}{
				"line": line,
			})
			continue
		}
		payloads = append(payloads, payload)
	}

	metrics.AddScrapedLines(ResultMatched, len(payloads))
	metrics.AddScrapedLines(ResultInvalid, invalid)
	metrics.AddScrapedLines(ResultSkipped, skipped)

	return payloads, nil
}

func (s *Scraper) lastMarker(lines []string) int {
	for i := len(lines) - 1; i >= 0; i-- {
		for _, marker := range s.markers {
			if strings.Contains(lines[i], marker) {
				return i
			}
		}
	}
	return -1
}

// trailingJSON finds the JSON object the line ends with. Text before the
// payload may itself contain braces, so later opening braces are tried when
// the widest candidate is not valid JSON.
func trailingJSON(line string) (string, bool) {
	loc := trailingObject.FindStringIndex(line)
	if loc == nil {
		return "", false
	}

	candidate := strings.TrimSpace(line[loc[0]:loc[1]])
	for {
		if gjson.Valid(candidate) {
			return candidate, true
		}
		next := strings.IndexByte(candidate[1:], '{')
		if next < 0 {
			return "", false
		}
		candidate = candidate[next+1:]
	}
}

// Payloads dumps the source and extracts the collector payloads.
func (s *Scraper) Payloads(ctx context.Context) ([]string, error) {
	lines, err := s.source.Dump(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to dump log: %w", err)
	}

	payloads, err := s.Extract(lines)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"lines":    len(lines),
		"payloads": len(payloads),
	}).Debug("Log scraped")

	return payloads, nil
}

// EventSamples decodes the scraped payloads as playback samples. The first
// payload is the license call and is skipped.
func (s *Scraper) EventSamples(ctx context.Context) ([]model.EventData, error) {
	payloads, err := s.Payloads(ctx)
	if err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, nil
	}

	requests := make([]model.RecordedRequest, 0, len(payloads)-1)
	for _, p := range payloads[1:] {
		requests = append(requests, model.RecordedRequest{
			Method: "POST",
			Path:   model.PathAnalytics,
			Body:   []byte(p),
		})
	}

	return s.aggregator.Decode(requests).Events, nil
}

// Impressions groups the scraped samples the same way captured traffic is
// grouped.
func (s *Scraper) Impressions(ctx context.Context) ([]model.Impression, error) {
	events, err := s.EventSamples(ctx)
	if err != nil {
		return nil, err
	}

	impressions := aggregator.GroupSamples(aggregator.Samples{Events: events})
	metrics.AddImpressionsBuilt(len(impressions))
	return impressions, nil
}
