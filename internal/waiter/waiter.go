// Package waiter blocks a test until a playback condition holds, polling it
// from a background goroutine.
package waiter

import (
	"context"
	"fmt"
	"time"

	"github.com/zsiec/mockingress/internal/config"
	"github.com/zsiec/mockingress/internal/errors"
	"github.com/zsiec/mockingress/internal/logger"
	"github.com/zsiec/mockingress/internal/metrics"
)

const (
	DefaultInterval = 100 * time.Millisecond
	DefaultTimeout  = 15 * time.Second
)

// Predicate reports whether the awaited condition holds. It is called from
// the polling goroutine, never concurrently with itself.
type Predicate func() bool

// TestingT is the part of testing.TB the waiter needs.
type TestingT interface {
	Fatalf(format string, args ...interface{})
}

type tHelper interface {
	Helper()
}

type options struct {
	interval time.Duration
	timeout  time.Duration
	log      *logger.SampledLogger
}

type Option func(*options)

func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger reports poll ticks through l. Ticks are sampled.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = logger.NewHarnessLogger(l)
		}
	}
}

// FromConfig applies the waiter section of the configuration.
func FromConfig(cfg *config.WaiterConfig) Option {
	return func(o *options) {
		if cfg == nil {
			return
		}
		WithInterval(cfg.Interval)(o)
		WithTimeout(cfg.Timeout)(o)
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		log:      logger.NewHarnessLogger(logger.NewNullLogger()),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Until blocks until predicate returns true and fails t if it has not done
// so when the timeout elapses. label names the condition in the failure.
func Until(t TestingT, label string, predicate Predicate, opts ...Option) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}

	if err := Poll(context.Background(), label, predicate, opts...); err != nil {
		t.Fatalf("%v", err)
	}
}

// Poll is Until for callers without a testing.T. It returns a timeout
// AppError when the condition never held, an internal AppError when the
// predicate panicked, and the context error on cancellation.
func Poll(ctx context.Context, label string, predicate Predicate, opts ...Option) error {
	o := newOptions(opts)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- o.loop(ctx, label, predicate)
	}()

	err := <-done
	metrics.RecordWait(outcome(err), time.Since(start).Seconds())
	return err
}

func (o *options) loop(ctx context.Context, label string, predicate Predicate) error {
	start := time.Now()
	deadline := start.Add(o.timeout)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		ok, err := check(label, predicate)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if !time.Now().Before(deadline) {
			return errors.NewTimeoutError(fmt.Sprintf("timed out after %s waiting for %s", o.timeout, label)).
				WithDetails(map[string]interface{}{
					"label":    label,
					"attempts": attempt,
					"elapsed":  time.Since(start).String(),
				})
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", label, ctx.Err())
		case <-ticker.C:
		}

		o.log.DebugSampled(logger.CategoryPollTick, "Condition not met yet", map[string]interface{}{
			"label":   label,
			"attempt": attempt,
			"elapsed": time.Since(start).String(),
		})
	}
}

func check(label string, predicate Predicate) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewInternalError(fmt.Sprintf("condition %q panicked: %v", label, r))
		}
	}()
	return predicate(), nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSatisfied
	case errors.IsType(err, errors.ErrorTypeTimeout):
		return metrics.OutcomeTimeout
	case errors.IsType(err, errors.ErrorTypeInternal):
		return metrics.OutcomePanic
	default:
		return metrics.OutcomeCanceled
	}
}
