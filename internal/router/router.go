package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/apperrors"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/utils"
)

// Reply is what a service handler wants written back. Exactly one of JSON or
// Raw is used; Raw is relayed byte for byte.
type Reply struct {
	Status      int
	JSON        interface{}
	Raw         []byte
	ContentType string
	Header      http.Header
}

// ServiceHandler processes the payload of one service discriminator.
type ServiceHandler func(ctx context.Context, payload json.RawMessage) Reply

type route struct {
	handler   ServiceHandler
	adminOnly bool
}

// Router routes an envelope to the handler registered for its service.
type Router struct {
	routes map[string]route
	// Default handler for unknown services
	defaultHandler ServiceHandler
}

// NewRouter creates a new service router
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]route),
	}
}

// Register registers a public handler for a service
func (r *Router) Register(service string, handler ServiceHandler) {
	r.routes[service] = route{handler: handler}
}

// RegisterAdmin registers a handler that requires an authenticated admin
func (r *Router) RegisterAdmin(service string, handler ServiceHandler) {
	r.routes[service] = route{handler: handler, adminOnly: true}
}

// RegisterDefault registers a default handler for unknown services
func (r *Router) RegisterDefault(handler ServiceHandler) {
	r.defaultHandler = handler
}

// Known reports whether service has a registered handler.
func (r *Router) Known(service string) bool {
	_, ok := r.routes[service]
	return ok
}

// RequiresAdmin reports whether service is admin-only.
func (r *Router) RequiresAdmin(service string) bool {
	return r.routes[service].adminOnly
}

// Services returns the registered discriminators.
func (r *Router) Services() []string {
	out := make([]string, 0, len(r.routes))
	for s := range r.routes {
		out = append(out, s)
	}
	return out
}

// Route routes an envelope to the appropriate handler
func (r *Router) Route(ctx context.Context, env model.Envelope) Reply {
	log := logger.FromContext(ctx).With(zap.String("service", env.Service))
	ctx = logger.WithLogger(ctx, log)

	log.Debug("Service request received", zap.String("payload_size", utils.ByteCountSI(len(env.Payload))))

	rt, ok := r.routes[env.Service]
	if !ok && r.defaultHandler != nil {
		log.Warn("No specific handler for service, using default")
		return r.defaultHandler(ctx, env.Payload)
	} else if !ok {
		err := fmt.Errorf("%w: %q", apperrors.ErrUnknownService, env.Service)
		log.Warn("Unknown service", zap.Error(err))
		return errorReplyFor(err)
	}

	return rt.handler(ctx, env.Payload)
}
