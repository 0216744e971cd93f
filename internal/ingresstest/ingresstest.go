// Package ingresstest starts a mock ingestion server for the duration of a
// test.
package ingresstest

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/mockingress/internal/config"
	"github.com/zsiec/mockingress/internal/model"
	"github.com/zsiec/mockingress/internal/queue"
	"github.com/zsiec/mockingress/internal/server"
	"github.com/zsiec/mockingress/internal/waiter"
)

// Fixture is a running server bound to one test.
type Fixture struct {
	// URL is the base URL to configure the collector with.
	URL string

	Server *server.Server
	cfg    *config.Config
}

type Option func(*options)

type options struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// WithConfig adjusts the default configuration before the server starts.
func WithConfig(mutate func(*config.Config)) Option {
	return func(o *options) {
		mutate(o.cfg)
	}
}

// WithLogger sends server logs to l instead of discarding them.
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Start runs a server on an ephemeral port with an in-memory backlog and
// stops it when the test ends.
func Start(t testing.TB, opts ...Option) *Fixture {
	t.Helper()

	o := &options{cfg: config.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logrus.New()
		o.logger.SetOutput(io.Discard)
	}

	srv := server.New(&o.cfg.Server, &o.cfg.Licensing, queue.NewMemoryQueue(), o.logger)
	url, err := srv.Start(0)
	require.NoError(t, err, "failed to start mock ingestion server")

	t.Cleanup(func() {
		if err := srv.Stop(); err != nil {
			t.Errorf("failed to stop mock ingestion server: %v", err)
		}
	})

	return &Fixture{URL: url, Server: srv, cfg: o.cfg}
}

// RequestCount is the number of requests recorded and not yet drained.
func (f *Fixture) RequestCount() int {
	n, err := f.Server.RequestCount(context.Background())
	if err != nil {
		return 0
	}
	return n
}

// Impressions drains the recorded requests into impressions.
func (f *Fixture) Impressions(t testing.TB) []model.Impression {
	t.Helper()

	impressions, err := f.Server.Impressions(context.Background())
	require.NoError(t, err)
	return impressions
}

// WaitForRequests blocks until at least n requests are recorded.
func (f *Fixture) WaitForRequests(t testing.TB, n int, opts ...waiter.Option) {
	t.Helper()

	opts = append([]waiter.Option{waiter.FromConfig(&f.cfg.Waiter)}, opts...)
	waiter.Until(t, "recorded requests", func() bool {
		return f.RequestCount() >= n
	}, opts...)
}

// Reset drops everything recorded so far.
func (f *Fixture) Reset(t testing.TB) {
	t.Helper()
	require.NoError(t, f.Server.Reset(context.Background()))
}
