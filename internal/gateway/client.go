package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/config"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/upstream"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/utm"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/utils"
)

const maxReplyBytes = 4 << 20

// ErrorKind classifies a failed call.
type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindTransport  ErrorKind = "transport"
	KindStatus     ErrorKind = "status"
	KindDecode     ErrorKind = "decode"
	KindValidation ErrorKind = "validation"
)

const (
	msgTransport  = "Unable to reach the server. Please check your connection and try again."
	msgDecode     = "Received an unexpected response from the server."
	msgStatusFmt  = "Request failed with status %d"
	msgValidation = "Please fix validation errors before submitting"
)

// Result is the outcome every gateway operation reports. Callers never see raw errors.
type Result struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	Kind       ErrorKind `json:"kind,omitempty"`
	StatusCode int       `json:"statusCode,omitempty"`
}

func failure(kind ErrorKind, status int, msg string) Result {
	return Result{Kind: kind, StatusCode: status, Message: msg}
}

// Client translates domain intents into proxy envelopes.
type Client struct {
	endpoint        string
	http            upstream.Doer
	utm             *utm.Capture
	requiredARecord string
	now             func() time.Time

	mu    sync.RWMutex
	token string
}

// NewClient creates a gateway client. httpClient may be nil, in which case one
// is built from cfg.Timeout. capture may be nil when no attribution is tracked.
func NewClient(cfg config.GatewayConfig, requiredARecord string, capture *utm.Capture, httpClient upstream.Doer) *Client {
	if httpClient == nil {
		httpClient = upstream.NewHTTPClient(cfg.Timeout)
	}
	return &Client{
		endpoint:        cfg.BaseURL,
		http:            httpClient,
		utm:             capture,
		requiredARecord: requiredARecord,
		now:             utils.Now,
	}
}

// SetToken installs the bearer token sent with admin calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current admin bearer token, if any.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// reply is a raw proxy response.
type reply struct {
	status int
	header http.Header
	body   []byte
}

// decode unmarshals the body into dst, reporting a decode failure.
func (r *reply) decode(dst interface{}) (Result, bool) {
	if err := json.Unmarshal(r.body, dst); err != nil {
		return failure(KindDecode, r.status, msgDecode), false
	}
	return Result{Success: true, StatusCode: r.status}, true
}

// call posts one envelope. It returns the reply for any HTTP status; the
// Result is a failure only for transport errors and non-2xx statuses.
func (c *Client) call(ctx context.Context, service string, payload interface{}) (*reply, Result) {
	log := logger.FromContext(ctx).With(zap.String("service", service))

	body, err := json.Marshal(struct {
		Service string      `json:"service"`
		Payload interface{} `json:"payload"`
	}{service, payload})
	if err != nil {
		log.Error("Failed to encode envelope", zap.Error(err))
		return nil, failure(KindValidation, 0, msgValidation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		log.Error("Failed to build request", zap.Error(err))
		return nil, failure(KindTransport, 0, msgTransport)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("Proxy request failed", zap.Error(err))
		return nil, failure(KindTransport, 0, msgTransport)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		log.Warn("Failed to read proxy response", zap.Error(err))
		return nil, failure(KindTransport, resp.StatusCode, msgTransport)
	}
	r := &reply{status: resp.StatusCode, header: resp.Header, body: raw}

	if !utils.IsSuccessStatus(resp.StatusCode) {
		log.Info("Proxy returned failure status", zap.Int("status", resp.StatusCode))
		return r, failure(KindStatus, resp.StatusCode, statusMessage(r))
	}
	return r, Result{Success: true, StatusCode: resp.StatusCode}
}

// statusMessage prefers the message the server put in the body.
func statusMessage(r *reply) string {
	if msg, ok := bodyMessage(r.body); ok {
		return msg
	}
	return fmt.Sprintf(msgStatusFmt, r.status)
}

// bodyMessage extracts "message" or "error" from a JSON reply body.
func bodyMessage(raw []byte) (string, bool) {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", false
	}
	if body.Message != "" {
		return body.Message, true
	}
	if body.Error != "" {
		return body.Error, true
	}
	return "", false
}

// failureMessage uses the server's own message for a status failure and
// fallback for everything else.
func failureMessage(r *reply, res Result, fallback string) string {
	if res.Kind == KindStatus && r != nil {
		if msg, ok := bodyMessage(r.body); ok {
			return msg
		}
	}
	return fallback
}

// attribution returns the captured UTM bundle, or an empty one.
func (c *Client) attribution() model.UTMParams {
	if c.utm == nil {
		return model.UTMParams{}
	}
	return c.utm.Get()
}

// CleanDomain strips a scheme and a leading www. from user input.
func CleanDomain(domain string) string {
	d := strings.TrimSpace(domain)
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	return d
}
