package healthcheck

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/storage"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/utils"
)

const readyCheckTimeout = 2 * time.Second

// Server represents a health check HTTP server
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux // Expose mux for adding handlers
	logger     *zap.Logger
	db         storage.Pinger
	version    string
}

// HealthResponse is the response structure for health check endpoints
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// NewServer creates a new health check server. db may be nil, in which case
// /ready only reports process liveness.
func NewServer(port int, db storage.Pinger, version string, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	server := &Server{
		httpServer: &http.Server{
			Addr:              ":" + strconv.Itoa(port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		mux:     mux,
		logger:  logger,
		db:      db,
		version: version,
	}

	mux.HandleFunc("/health", server.handleHealth)
	mux.HandleFunc("/ready", server.handleReady)

	return server
}

// RegisterMetricsHandler adds the /metrics endpoint handler.
// Should only be called if metrics are enabled.
func (s *Server) RegisterMetricsHandler(handler http.Handler) {
	s.logger.Info("Registering /metrics endpoint")
	s.mux.Handle("/metrics", handler)
}

// Handler returns the underlying mux.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe blocks until the server stops. http.ErrServerClosed is not reported as an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("Starting health check server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Health check server error", zap.Error(err))
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping health check server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth handles the /health endpoint for liveness probes
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "UP",
		Version: s.version,
	}

	utils.WriteJSONResponse(w, http.StatusOK, resp)
}

// handleReady handles the /ready endpoint for readiness probes
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	details := map[string]string{
		"timestamp": utils.FormatISO8601(utils.Now()),
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		if err := s.db.Ping(ctx); err != nil {
			s.logger.Warn("Readiness check failed", zap.Error(err))
			details["database"] = "DOWN"
			utils.WriteJSONResponse(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "NOT_READY",
				Details: details,
			})
			return
		}
		details["database"] = "UP"
	}

	utils.WriteJSONResponse(w, http.StatusOK, HealthResponse{
		Status:  "READY",
		Details: details,
	})
}
