package logger

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Log categories that fire once per poll tick or per captured request.
const (
	CategoryPollTick        = "poll_tick"
	CategoryRequestRecorded = "request_recorded"
	CategorySampleDropped   = "sample_dropped"
	CategoryLogLine         = "log_line"
)

// SampledLogger rate-limits chatty log categories. Messages in a category
// without a sampler are always logged.
type SampledLogger struct {
	base     Logger
	mu       *sync.RWMutex
	samplers map[string]*sampler
}

type sampler struct {
	limiter *rate.Limiter
	total   atomic.Int64
	dropped atomic.Int64
}

// SamplerStats holds statistics for a log sampler
type SamplerStats struct {
	Name    string `json:"name"`
	Total   int64  `json:"total"`
	Logged  int64  `json:"logged"`
	Dropped int64  `json:"dropped"`
}

// NewSampledLogger creates a new sampled logger
func NewSampledLogger(base Logger) *SampledLogger {
	return &SampledLogger{
		base:     base,
		mu:       &sync.RWMutex{},
		samplers: make(map[string]*sampler),
	}
}

// NewHarnessLogger returns a sampled logger preconfigured for the categories
// the mock server, waiter and scraper emit.
func NewHarnessLogger(base Logger) *SampledLogger {
	return NewSampledLogger(base).
		// one line per second while waiting, after the first three ticks
		WithSampler(CategoryPollTick, time.Second, 3).
		WithSampler(CategoryRequestRecorded, 100*time.Millisecond, 20).
		WithSampler(CategorySampleDropped, 500*time.Millisecond, 5).
		WithSampler(CategoryLogLine, 100*time.Millisecond, 10)
}

// WithSampler allows one message per every interval after an initial burst.
func (s *SampledLogger) WithSampler(category string, every time.Duration, burst int) *SampledLogger {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.samplers[category] = &sampler{limiter: rate.NewLimiter(rate.Every(every), burst)}
	return s
}

func (s *SampledLogger) shouldLog(category string) bool {
	s.mu.RLock()
	smp, ok := s.samplers[category]
	s.mu.RUnlock()

	if !ok {
		return true
	}

	smp.total.Add(1)
	if smp.limiter.Allow() {
		return true
	}
	smp.dropped.Add(1)
	return false
}

// Sample logs msg at level when the category's sampler allows it.
func (s *SampledLogger) Sample(level logrus.Level, category, msg string, fields map[string]interface{}) {
	if !s.shouldLog(category) {
		return
	}

	merged := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["category"] = category

	s.base.WithFields(merged).Log(level, msg)
}

// DebugSampled is Sample at debug level.
func (s *SampledLogger) DebugSampled(category, msg string, fields map[string]interface{}) {
	s.Sample(logrus.DebugLevel, category, msg, fields)
}

// Stats returns statistics for all samplers
func (s *SampledLogger) Stats() map[string]SamplerStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]SamplerStats, len(s.samplers))
	for name, smp := range s.samplers {
		total := smp.total.Load()
		dropped := smp.dropped.Load()
		stats[name] = SamplerStats{
			Name:    name,
			Total:   total,
			Logged:  total - dropped,
			Dropped: dropped,
		}
	}
	return stats
}

func (s *SampledLogger) derive(base Logger) *SampledLogger {
	return &SampledLogger{base: base, mu: s.mu, samplers: s.samplers}
}

func (s *SampledLogger) WithFields(fields map[string]interface{}) Logger {
	return s.derive(s.base.WithFields(fields))
}

func (s *SampledLogger) WithField(key string, value interface{}) Logger {
	return s.derive(s.base.WithField(key, value))
}

func (s *SampledLogger) WithError(err error) Logger {
	return s.derive(s.base.WithError(err))
}

func (s *SampledLogger) Debug(args ...interface{}) { s.base.Debug(args...) }
func (s *SampledLogger) Info(args ...interface{}) { s.base.Info(args...) }
func (s *SampledLogger) Warn(args ...interface{}) { s.base.Warn(args...) }
func (s *SampledLogger) Error(args ...interface{}) { s.base.Error(args...) }

func (s *SampledLogger) Log(level logrus.Level, args ...interface{}) {
	s.base.Log(level, args...)
}

func (s *SampledLogger) Debugf(format string, args ...interface{}) { s.base.Debugf(format, args...) }
func (s *SampledLogger) Infof(format string, args ...interface{}) { s.base.Infof(format, args...) }
func (s *SampledLogger) Warnf(format string, args ...interface{}) { s.base.Warnf(format, args...) }
func (s *SampledLogger) Errorf(format string, args ...interface{}) { s.base.Errorf(format, args...) }
