package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/apperrors"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/config"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/observer"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/requestctx"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/utils"
)

// Server exposes the service router over HTTP.
type Server struct {
	engine       *gin.Engine
	httpServer   *http.Server
	router       *Router
	auth         Authenticator
	adminEnabled bool
}

// NewServer builds the gin engine serving POST and OPTIONS on cfg.Server.Path.
// limiter may be nil to disable rate limiting.
func NewServer(cfg *config.Config, r *Router, auth Authenticator, limiter *IPRateLimiter) (*Server, error) {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, err
	}
	engine.HandleMethodNotAllowed = true

	engine.Use(
		RequestContext(),
		Recovery(),
		CORS(cfg.CORS.AllowedOrigins),
		RateLimit(limiter),
		BodyLimit(cfg.Server.MaxBodyBytes),
	)

	s := &Server{
		engine:       engine,
		router:       r,
		auth:         auth,
		adminEnabled: cfg.Admin.Enabled,
	}

	path := cfg.Server.Path
	if path == "" {
		path = "/proxy"
	}
	engine.POST(path, s.handleProxy)
	// Preflight is answered by the CORS middleware; the route exists so the method is allowed.
	engine.OPTIONS(path, func(c *gin.Context) { c.Status(http.StatusOK) })

	s.httpServer = &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe blocks until the server stops. http.ErrServerClosed is not reported as an error.
func (s *Server) ListenAndServe() error {
	logger.Log.Info("Starting proxy server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info("Stopping proxy server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleProxy(c *gin.Context) {
	start := utils.Now()
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	label := "invalid"
	defer func() {
		observer.ObserveServiceRequest(label, c.Writer.Status(), time.Since(start))
	}()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgBodyTooLarge})
			return
		}
		log.Warn("Failed to read request body", zap.Error(err))
		writeReply(c, errorReplyFor(apperrors.ErrInvalidEnvelope))
		return
	}

	var env model.Envelope
	if err := json.Unmarshal(body, &env); err != nil || !env.Valid() {
		writeReply(c, errorReplyFor(apperrors.ErrInvalidEnvelope))
		return
	}

	label = "unknown"
	if s.router.Known(env.Service) {
		label = env.Service
	}

	if s.adminEnabled && s.router.RequiresAdmin(env.Service) {
		if s.auth == nil {
			writeReply(c, errorReplyFor(fmt.Errorf("%w: no authenticator configured", apperrors.ErrUnauthorized)))
			return
		}
		subject, err := s.auth.Validate(bearerToken(c))
		if err != nil {
			log.Info("Admin service rejected", zap.String("service", env.Service), zap.Error(err))
			writeReply(c, errorReplyFor(err))
			return
		}
		ctx = requestctx.WithAdmin(ctx, subject)
	}

	writeReply(c, s.router.Route(ctx, env))
}

func writeReply(c *gin.Context, reply Reply) {
	status := reply.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	for k, vals := range reply.Header {
		for _, v := range vals {
			c.Writer.Header().Add(k, v)
		}
	}

	if reply.JSON != nil {
		c.JSON(status, reply.JSON)
		return
	}
	contentType := reply.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(status, contentType, reply.Raw)
}
