package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockChecker is a mock implementation of Checker for testing
type mockChecker struct {
	name  string
	err   error
	delay time.Duration
}

func (m *mockChecker) Name() string {
	return m.name
}

func (m *mockChecker) Check(ctx context.Context) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.err
}

func TestManager(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	t.Run("Register and RunChecks", func(t *testing.T) {
		manager := NewManager(logger)

		manager.Register(&mockChecker{name: "queue", err: nil})
		manager.Register(&mockChecker{name: "redis", err: errors.New("redis ping failed")})
		manager.Register(&mockChecker{name: "backlog", err: Degraded("too many requests waiting")})

		results := manager.RunChecks(context.Background())
		assert.Len(t, results, 3)

		assert.Equal(t, StatusOK, results["queue"].Status)
		assert.Empty(t, results["queue"].Message)

		assert.Equal(t, StatusDown, results["redis"].Status)
		assert.Contains(t, results["redis"].Message, "redis ping failed")

		assert.Equal(t, StatusDegraded, results["backlog"].Status)
		assert.Equal(t, "too many requests waiting", results["backlog"].Message)

		assert.Equal(t, []string{"backlog", "queue", "redis"}, manager.Names())
	})

	t.Run("GetResults returns copies", func(t *testing.T) {
		manager := NewManager(logger)
		manager.Register(&mockChecker{name: "test", err: nil})
		manager.RunChecks(context.Background())

		results := manager.GetResults()
		require.Contains(t, results, "test")
		results["test"].Status = StatusDown

		assert.Equal(t, StatusOK, manager.GetResults()["test"].Status)
	})

	t.Run("GetOverallStatus", func(t *testing.T) {
		tests := []struct {
			name     string
			checkers []Checker
			run      bool
			want     Status
		}{
			{
				name: "all healthy",
				checkers: []Checker{
					&mockChecker{name: "c1"},
					&mockChecker{name: "c2"},
				},
				run:  true,
				want: StatusOK,
			},
			{
				name: "one degraded",
				checkers: []Checker{
					&mockChecker{name: "c1"},
					&mockChecker{name: "c2", err: Degraded("slow")},
				},
				run:  true,
				want: StatusDegraded,
			},
			{
				name: "down wins over degraded",
				checkers: []Checker{
					&mockChecker{name: "c1", err: Degraded("slow")},
					&mockChecker{name: "c2", err: errors.New("error")},
				},
				run:  true,
				want: StatusDown,
			},
			{
				name: "registered but never run",
				checkers: []Checker{
					&mockChecker{name: "c1"},
				},
				want: StatusDown,
			},
			{
				name:     "no checkers",
				checkers: []Checker{},
				want:     StatusOK,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				manager := NewManager(logger)
				for _, checker := range tt.checkers {
					manager.Register(checker)
				}
				if tt.run {
					manager.RunChecks(context.Background())
				}

				assert.Equal(t, tt.want, manager.GetOverallStatus())
			})
		}
	})

	t.Run("Timeout handling", func(t *testing.T) {
		manager := NewManager(logger)
		manager.timeout = 50 * time.Millisecond
		manager.Register(&mockChecker{name: "slow-checker", delay: 10 * time.Second})

		start := time.Now()
		results := manager.RunChecks(context.Background())

		assert.Less(t, time.Since(start), 5*time.Second)

		check := results["slow-checker"]
		require.NotNil(t, check)
		assert.Equal(t, StatusDown, check.Status)
		assert.Contains(t, check.Message, "timed out")
	})
}

func TestStartPeriodicChecks(t *testing.T) {
	manager := NewManager(logrus.New())
	manager.Register(&mockChecker{name: "counter"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		manager.StartPeriodicChecks(ctx, 20*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return manager.GetResults()["counter"] != nil
	}, time.Second, 10*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("periodic checks did not stop after cancel")
	}
}

func TestCheckDurationTracking(t *testing.T) {
	manager := NewManager(logrus.New())
	manager.Register(&mockChecker{name: "delayed", delay: 50 * time.Millisecond})

	check := manager.RunChecks(context.Background())["delayed"]
	require.NotNil(t, check)

	assert.GreaterOrEqual(t, check.Duration, 50*time.Millisecond)
	assert.GreaterOrEqual(t, check.DurationMS, float64(50))
}
