package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/apperrors"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/upstream"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/validator"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/utils"
)

// LeadStore is the database side of the proxy.
type LeadStore interface {
	SaveOnboarding(ctx context.Context, payload model.OnboardingPayload) (model.OnboardingRecord, bool, error)
	ListOnboardings(ctx context.Context, query model.ListQuery) (model.OnboardingPage, error)
	DeleteOnboarding(ctx context.Context, payload model.DeleteOnboardingPayload) error
	SaveContact(ctx context.Context, payload model.ContactPayload) (model.ContactFormRecord, error)
	ListContacts(ctx context.Context, query model.ListQuery) (model.ContactPage, error)
	SaveConversion(ctx context.Context, payload model.ConversionPayload) (model.ConversionRecord, error)
}

// Authenticator issues and checks admin bearer tokens.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (model.AdminSession, error)
	Validate(token string) (string, error)
}

// Handlers holds the collaborators of the service handlers.
type Handlers struct {
	Leads     LeadStore
	Auth      Authenticator // nil disables admin_login
	Siterelic upstream.Relay
	Jenkins   upstream.Relay
	GoogleDNS upstream.Relay
}

// RegisterAll wires every service discriminator into r.
func (h *Handlers) RegisterAll(r *Router) {
	r.Register(model.ServiceOnboarding, h.handleOnboarding)
	r.Register(model.ServiceContact, h.handleContact)
	r.Register(model.ServiceConversion, h.handleConversion)
	r.RegisterAdmin(model.ServiceGetOnboardings, h.handleGetOnboardings)
	r.RegisterAdmin(model.ServiceGetContacts, h.handleGetContacts)
	r.RegisterAdmin(model.ServiceDeleteOnboarding, h.handleDeleteOnboarding)
	if h.Auth != nil {
		r.Register(model.ServiceAdminLogin, h.handleAdminLogin)
	}
	r.Register(model.ServiceSiterelic, h.relay(h.Siterelic))
	r.Register(model.ServiceAnsible, h.relay(h.Jenkins))
	r.Register(model.ServiceGoogleDNS, h.handleGoogleDNS)
}

// decodePayload unmarshals a service payload, logging the decode error.
func decodePayload(ctx context.Context, payload json.RawMessage, dst interface{}) bool {
	if err := json.Unmarshal(payload, dst); err != nil {
		logger.FromContext(ctx).Info("Failed to decode service payload", zap.Error(err))
		return false
	}
	return true
}

func (h *Handlers) handleOnboarding(ctx context.Context, payload json.RawMessage) Reply {
	var p model.OnboardingPayload
	if !decodePayload(ctx, payload, &p) {
		return failureReply(http.StatusBadRequest, msgInvalidPayload)
	}

	saved, created, err := h.Leads.SaveOnboarding(ctx, p)
	if err != nil {
		return storeErrorReply(err)
	}

	body := gin.H{"message": msgOnboardingSaved, "id": saved.ID}
	if !created {
		body["duplicate"] = true
	}
	return successReply(body)
}

func (h *Handlers) handleGetOnboardings(ctx context.Context, payload json.RawMessage) Reply {
	var q model.ListQuery
	if !decodePayload(ctx, payload, &q) {
		return failureReply(http.StatusBadRequest, msgInvalidPayload)
	}

	page, err := h.Leads.ListOnboardings(ctx, q)
	if err != nil {
		return storeErrorReply(err)
	}
	return successReply(gin.H{"data": page.Data, "pagination": page.Pagination})
}

func (h *Handlers) handleGetContacts(ctx context.Context, payload json.RawMessage) Reply {
	var q model.ListQuery
	if !decodePayload(ctx, payload, &q) {
		return failureReply(http.StatusBadRequest, msgInvalidPayload)
	}

	page, err := h.Leads.ListContacts(ctx, q)
	if err != nil {
		return storeErrorReply(err)
	}
	return successReply(gin.H{"data": page.Data, "pagination": page.Pagination})
}

func (h *Handlers) handleDeleteOnboarding(ctx context.Context, payload json.RawMessage) Reply {
	var p model.DeleteOnboardingPayload
	if !decodePayload(ctx, payload, &p) {
		return failureReply(http.StatusBadRequest, msgInvalidPayload)
	}

	if err := h.Leads.DeleteOnboarding(ctx, p); err != nil {
		return storeErrorReply(err)
	}
	return successReply(gin.H{"message": msgRecordDeleted})
}

func (h *Handlers) handleContact(ctx context.Context, payload json.RawMessage) Reply {
	var p model.ContactPayload
	if !decodePayload(ctx, payload, &p) {
		return failureReply(http.StatusBadRequest, msgInvalidPayload)
	}

	saved, err := h.Leads.SaveContact(ctx, p)
	if err != nil {
		return storeErrorReply(err)
	}
	return successReply(gin.H{"message": msgContactSaved, "id": saved.ID})
}

func (h *Handlers) handleConversion(ctx context.Context, payload json.RawMessage) Reply {
	var p model.ConversionPayload
	if !decodePayload(ctx, payload, &p) {
		return failureReply(http.StatusBadRequest, msgInvalidPayload)
	}

	saved, err := h.Leads.SaveConversion(ctx, p)
	if err != nil {
		logger.FromContext(ctx).Error("Conversion insert failed", zap.Error(err))
		return storeErrorReply(err)
	}
	return successReply(gin.H{"message": msgConversionSaved, "id": saved.ID})
}

func (h *Handlers) handleAdminLogin(ctx context.Context, payload json.RawMessage) Reply {
	var p model.AdminLoginPayload
	if !decodePayload(ctx, payload, &p) {
		return failureReply(http.StatusBadRequest, msgInvalidPayload)
	}
	if err := validator.ValidateFields(p); err != nil {
		return storeErrorReply(err)
	}

	sess, err := h.Auth.Login(ctx, p.Username, p.Password)
	if err != nil {
		return failureReply(http.StatusUnauthorized, msgInvalidLogin)
	}
	return successReply(gin.H{"token": sess.Token, "expiresAt": sess.ExpiresAt})
}

func (h *Handlers) handleGoogleDNS(ctx context.Context, payload json.RawMessage) Reply {
	var p model.GoogleDNSPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.Name == "" || p.Type == "" {
		return errorReply(http.StatusBadRequest, msgInvalidGoogleDNS)
	}
	return h.relay(h.GoogleDNS)(ctx, payload)
}

// relay forwards the payload and relays the downstream status and body unmodified.
func (h *Handlers) relay(target upstream.Relay) ServiceHandler {
	return func(ctx context.Context, payload json.RawMessage) Reply {
		obj, ok := utils.DecodeJSONObject(payload)
		if !ok {
			return errorReply(http.StatusBadRequest, msgInvalidRequest)
		}

		if target == nil {
			err := fmt.Errorf("%w: relay not configured", apperrors.ErrUpstream)
			logger.FromContext(ctx).Error("Relay unavailable", zap.Error(err))
			return errorReplyFor(err)
		}

		resp, err := target.Forward(ctx, obj)
		if err != nil {
			return errorReplyFor(err)
		}

		reply := Reply{
			Status:      resp.StatusCode,
			Raw:         resp.Body,
			ContentType: resp.Header.Get("Content-Type"),
		}
		if loc := resp.Header.Get("Location"); loc != "" {
			reply.Header = http.Header{"Location": []string{loc}}
		}
		return reply
	}
}
