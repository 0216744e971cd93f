package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newBufferedLogger() (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetLevel(logrus.DebugLevel)
	base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return FromLogrus(base), &buf
}

func TestSampledLogger_NoSamplerAlwaysLogs(t *testing.T) {
	base, buf := newBufferedLogger()
	s := NewSampledLogger(base)

	for i := 0; i < 5; i++ {
		s.DebugSampled("unconfigured", "tick", nil)
	}

	assert.Equal(t, 5, strings.Count(buf.String(), "tick"))
}

func TestSampledLogger_BurstThenDrop(t *testing.T) {
	base, buf := newBufferedLogger()
	s := NewSampledLogger(base).WithSampler(CategoryPollTick, time.Hour, 3)

	for i := 0; i < 10; i++ {
		s.DebugSampled(CategoryPollTick, "still waiting", map[string]interface{}{"tick": i})
	}

	assert.Equal(t, 3, strings.Count(buf.String(), "still waiting"))
	assert.Contains(t, buf.String(), "category=poll_tick")

	stats := s.Stats()[CategoryPollTick]
	assert.Equal(t, int64(10), stats.Total)
	assert.Equal(t, int64(3), stats.Logged)
	assert.Equal(t, int64(7), stats.Dropped)
}

func TestSampledLogger_DoesNotMutateFields(t *testing.T) {
	base, _ := newBufferedLogger()
	s := NewSampledLogger(base)

	fields := map[string]interface{}{"path": "/analytics"}
	s.DebugSampled(CategoryRequestRecorded, "recorded", fields)

	assert.Len(t, fields, 1)
}

func TestSampledLogger_DerivedSharesSamplers(t *testing.T) {
	base, buf := newBufferedLogger()
	s := NewSampledLogger(base).WithSampler(CategorySampleDropped, time.Hour, 1)

	child := s.WithField("impression_id", "abc").(*SampledLogger)
	child.DebugSampled(CategorySampleDropped, "dropped", nil)
	s.DebugSampled(CategorySampleDropped, "dropped", nil)

	assert.Equal(t, 1, strings.Count(buf.String(), "dropped"))
	assert.Contains(t, buf.String(), "impression_id=abc")
}

func TestNewHarnessLogger(t *testing.T) {
	s := NewHarnessLogger(NewNullLogger())

	stats := s.Stats()
	for _, category := range []string{CategoryPollTick, CategoryRequestRecorded, CategorySampleDropped, CategoryLogLine} {
		assert.Contains(t, stats, category)
	}
}

func TestSampledLogger_ConcurrentAccess(t *testing.T) {
	s := NewHarnessLogger(NewNullLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.DebugSampled(CategoryRequestRecorded, "recorded", nil)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(800), s.Stats()[CategoryRequestRecorded].Total)
}
