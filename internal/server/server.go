package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/zsiec/mockingress/internal/aggregator"
	"github.com/zsiec/mockingress/internal/config"
	"github.com/zsiec/mockingress/internal/errors"
	"github.com/zsiec/mockingress/internal/health"
	"github.com/zsiec/mockingress/internal/logger"
	"github.com/zsiec/mockingress/internal/metrics"
	"github.com/zsiec/mockingress/internal/model"
	"github.com/zsiec/mockingress/internal/queue"
)

// backlogDegradedThreshold is the queue depth at which /health reports
// degraded.
const backlogDegradedThreshold = 10000

// Server is the mock ingestion endpoint collectors post to.
type Server struct {
	config       *config.ServerConfig
	licensing    *config.LicensingConfig
	router       *mux.Router
	httpServer   *http.Server
	listener     net.Listener
	logger       *logrus.Logger
	sampled      *logger.SampledLogger
	queue        queue.Queue
	aggregator   *aggregator.Aggregator
	healthMgr    *health.Manager
	errorHandler *errors.ErrorHandler
	limiter      *rate.Limiter

	mu      sync.Mutex
	baseURL string
	serveCh chan error
}

// New creates a server recording into q. Routes are registered immediately;
// the listener is bound by Start.
func New(cfg *config.ServerConfig, licensing *config.LicensingConfig, q queue.Queue, log *logrus.Logger) *Server {
	s := &Server{
		config:       cfg,
		licensing:    licensing,
		router:       mux.NewRouter(),
		logger:       log,
		sampled:      logger.NewHarnessLogger(logger.NewLogrusAdapter(logger.WithComponent(log, "server"))),
		queue:        q,
		aggregator:   aggregator.New(logger.FromLogrus(log)),
		healthMgr:    health.NewManager(log),
		errorHandler: errors.NewErrorHandler(log),
	}

	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	s.registerHealthCheckers()
	s.setupRoutes()

	return s
}

// Start binds a listener on port (0 picks a free one) and serves in the
// background. It returns the base URL collectors should be pointed at.
func (s *Server) Start(port int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return "", errors.NewConflictError("server already started").
			WithDetails(map[string]interface{}{"base_url": s.baseURL})
	}

	addr := net.JoinHostPort(s.config.ListenAddr, strconv.Itoa(port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.baseURL = baseURLFor(listener.Addr())
	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.serveCh = make(chan error, 1)

	go func(srv *http.Server, ch chan<- error) {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("Mock ingestion server error")
			ch <- err
		}
		close(ch)
	}(s.httpServer, s.serveCh)

	s.logger.WithFields(logrus.Fields{
		"base_url":    s.baseURL,
		"rate_limit":  s.config.RateLimit,
		"control_api": s.config.ControlAPI,
	}).Info("Mock ingestion server started")

	return s.baseURL, nil
}

// Stop shuts the listener down, waiting up to the configured shutdown
// timeout for in-flight requests. Stopping a server that is not running is a
// setup bug and returns a conflict error.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer == nil {
		return errors.NewConflictError("server not started")
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	<-s.serveCh

	s.httpServer = nil
	s.listener = nil
	baseURL := s.baseURL
	s.baseURL = ""

	if err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.WithField("base_url", baseURL).Info("Mock ingestion server stopped")
	return nil
}

// Serve runs the server on the configured port until ctx is done, running
// health checks in the background. It is the long-running mode of the CLI.
func (s *Server) Serve(ctx context.Context) error {
	if _, err := s.Start(s.config.Port); err != nil {
		return err
	}

	healthCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.healthMgr.StartPeriodicChecks(healthCtx, 30*time.Second)

	s.mu.Lock()
	serveCh := s.serveCh
	s.mu.Unlock()

	select {
	case err, ok := <-serveCh:
		if !ok {
			// stopped by another caller
			return nil
		}
		_ = s.Stop()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		return s.Stop()
	}
}

// BaseURL returns the URL of the running server, or "" when stopped.
func (s *Server) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseURL
}

// RequestCount returns the number of recorded requests not yet drained.
func (s *Server) RequestCount(ctx context.Context) (int, error) {
	return s.queue.Len(ctx)
}

// TakeRequests removes and returns up to n recorded requests in arrival order.
func (s *Server) TakeRequests(ctx context.Context, n int) ([]model.RecordedRequest, error) {
	requests, err := s.queue.Take(ctx, n)
	if err != nil {
		return nil, err
	}
	s.updateQueueDepth(ctx)
	return requests, nil
}

// Impressions drains the backlog into impressions.
func (s *Server) Impressions(ctx context.Context) ([]model.Impression, error) {
	return s.aggregator.Drain(ctx, s)
}

// Reset discards every recorded request.
func (s *Server) Reset(ctx context.Context) error {
	if err := s.queue.Clear(ctx); err != nil {
		return err
	}
	metrics.SetQueueDepth(0)
	return nil
}

func (s *Server) updateQueueDepth(ctx context.Context) {
	if n, err := s.queue.Len(ctx); err == nil {
		metrics.SetQueueDepth(n)
	}
}

// registerHealthCheckers registers the backlog checkers for the configured queue.
func (s *Server) registerHealthCheckers() {
	s.healthMgr.Register(health.NewQueueChecker(s.queue, backlogDegradedThreshold))

	if rq, ok := s.queue.(*queue.RedisQueue); ok {
		s.healthMgr.Register(health.NewRedisChecker(rq.Client()))
	}
}

// RegisterRoutes adds route handlers to the server, e.g. extra ingestion
// paths a collector variant posts to.
func (s *Server) RegisterRoutes(registerFunc func(*mux.Router)) {
	registerFunc(s.router)
}

// GetRouter returns the router for testing.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// HealthManager exposes the health checks for callers that add checkers.
func (s *Server) HealthManager() *health.Manager {
	return s.healthMgr
}

// baseURLFor renders a listener address as an http URL, mapping unspecified
// hosts to loopback.
func baseURLFor(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://" + addr.String()
	}
	if ip := net.ParseIP(host); ip == nil || ip.IsUnspecified() {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
