package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/zsiec/mockingress/internal/aggregator"
	"github.com/zsiec/mockingress/internal/errors"
	"github.com/zsiec/mockingress/internal/health"
	"github.com/zsiec/mockingress/internal/logger"
	"github.com/zsiec/mockingress/internal/metrics"
	"github.com/zsiec/mockingress/internal/model"
	"github.com/zsiec/mockingress/pkg/version"
)

const (
	grantedMessage = "There you go."
	deniedMessage  = "License key not found."
)

// RequestCountResponse is the body of GET /api/v1/requests/count.
type RequestCountResponse struct {
	Count int `json:"count"`
}

// DrainResponse is the body of POST /api/v1/impressions/drain.
type DrainResponse struct {
	Count         int                `json:"count"`
	ImpressionIDs []string           `json:"impression_ids"`
	Impressions   []model.Impression `json:"impressions"`
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(logger.RequestLoggerMiddleware(s.logger))
	s.router.Use(s.errorHandler.Middleware)
	s.router.Use(s.metricsMiddleware)

	// Collector endpoints
	s.router.Handle(model.PathLicensing, s.rateLimitMiddleware(http.HandlerFunc(s.handleLicensing))).Methods("POST")
	s.router.Handle(model.PathAnalytics, s.rateLimitMiddleware(http.HandlerFunc(s.handleSample))).Methods("POST")
	s.router.Handle(model.PathAdAnalytics, s.rateLimitMiddleware(http.HandlerFunc(s.handleSample))).Methods("POST")
	s.router.Handle(model.PathErrorDetails, s.rateLimitMiddleware(http.HandlerFunc(s.handleSample))).Methods("POST")

	// Health endpoints
	healthHandler := health.NewHandler(s.healthMgr)
	s.router.HandleFunc("/health", healthHandler.HandleHealth).Methods("GET")
	s.router.HandleFunc("/ready", healthHandler.HandleReady).Methods("GET")
	s.router.HandleFunc("/live", healthHandler.HandleLive).Methods("GET")

	s.router.HandleFunc("/version", s.handleVersion).Methods("GET")

	// Control API for harnesses that cannot reach the Server value, e.g. when
	// the collector runs on a device and the test logic on the host.
	if s.config.ControlAPI {
		api := s.router.PathPrefix("/api/v1").Subrouter()
		api.HandleFunc("/requests/count", s.handleRequestCount).Methods("GET")
		api.HandleFunc("/requests", s.handleReset).Methods("DELETE")
		api.HandleFunc("/impressions/drain", s.handleDrain).Methods("POST")
	}

	s.router.NotFoundHandler = http.HandlerFunc(s.errorHandler.HandleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.errorHandler.HandleMethodNotAllowed)
}

// handleLicensing answers a collector's license check. A body containing the
// deny marker is refused; anything else is granted with the error details
// feature as configured.
func (s *Server) handleLicensing(w http.ResponseWriter, r *http.Request) {
	body, ok := s.record(w, r)
	if !ok {
		return
	}

	granted := !bytes.Contains(body, []byte(s.licensing.DenyMarker))
	s.logFromRequest(r).WithField("granted", granted).Debug("License check answered")
	metrics.RecordLicenseDecision(granted)

	if !granted {
		s.writeJSON(w, r, http.StatusForbidden, model.LicenseResponse{
			Status:  model.LicenseDenied,
			Message: deniedMessage,
		})
		return
	}

	s.writeJSON(w, r, http.StatusOK, model.LicenseResponse{
		Status:  model.LicenseGranted,
		Message: grantedMessage,
		Features: &model.Features{
			ErrorDetails: model.ErrorDetailsFeature{
				Enabled:              s.licensing.ErrorDetailsEnabled,
				NumberOfHTTPRequests: s.licensing.ErrorDetailsHTTPRequests,
			},
		},
	})
}

// handleSample records an analytics sample and answers 200 with no body.
// Payloads are parsed later, when the backlog is drained.
func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.record(w, r); !ok {
		return
	}
	w.WriteHeader(http.StatusOK)
}

// record reads the body and appends the request to the backlog. On failure
// it has already written the error response.
func (s *Server) record(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.errorHandler.HandleError(w, r, errors.NewPayloadTooLargeError(tooLarge.Limit))
			return nil, false
		}
		s.errorHandler.HandleError(w, r, errors.NewValidationError("failed to read request body"))
		return nil, false
	}

	req := model.RecordedRequest{
		ID:         uuid.NewString(),
		Method:     r.Method,
		Path:       r.URL.Path,
		Body:       body,
		Header:     r.Header.Clone(),
		ReceivedAt: time.Now(),
	}

	if err := s.queue.Push(r.Context(), req); err != nil {
		s.errorHandler.HandleError(w, r, errors.WrapInternalError(err, "failed to record request"))
		return nil, false
	}
	s.updateQueueDepth(r.Context())

	s.sampled.DebugSampled(logger.CategoryRequestRecorded, "Request recorded", map[string]interface{}{
		"recorded_id": req.ID,
		"request_id":  r.Header.Get(logger.RequestIDHeader),
		"path":        req.Path,
		"bytes":       len(body),
	})

	return body, true
}

func (s *Server) handleRequestCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.RequestCount(r.Context())
	if err != nil {
		s.errorHandler.HandleError(w, r, errors.NewServiceDownError("request queue").WithDetails(map[string]interface{}{"cause": err.Error()}))
		return
	}
	s.writeJSON(w, r, http.StatusOK, RequestCountResponse{Count: n})
}

func (s *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	impressions, err := s.Impressions(r.Context())
	if err != nil {
		s.errorHandler.HandleError(w, r, errors.WrapInternalError(err, "failed to drain requests"))
		return
	}

	s.logFromRequest(r).WithField("impressions", len(impressions)).Info("Impressions drained")

	s.writeJSON(w, r, http.StatusOK, DrainResponse{
		Count:         len(impressions),
		ImpressionIDs: aggregator.ImpressionIDs(impressions),
		Impressions:   impressions,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.Reset(r.Context()); err != nil {
		s.errorHandler.HandleError(w, r, errors.WrapInternalError(err, "failed to clear requests"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleVersion handles the /version endpoint
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	s.writeJSON(w, r, http.StatusOK, version.GetInfo())
}

// writeJSON is a helper to write JSON responses
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logFromRequest(r).WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) logFromRequest(r *http.Request) *logger.Entry {
	return logger.FromContext(r.Context())
}
