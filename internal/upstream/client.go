package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/apperrors"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/observer"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/utils"
)

// maxResponseBytes caps how much of a downstream body is relayed.
const maxResponseBytes = 4 << 20

// Response is a downstream reply relayed to the caller unmodified.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Relay forwards a service payload to one outbound target.
type Relay interface {
	Forward(ctx context.Context, payload map[string]interface{}) (*Response, error)
}

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns the client shared by all relays.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// do executes req and reads the full response. A transport failure is wrapped with ErrUpstream;
// any HTTP status, including 4xx and 5xx, is a successful relay.
func do(ctx context.Context, client Doer, target string, req *http.Request) (*Response, error) {
	log := logger.FromContext(ctx).With(zap.String("target", target))

	start := utils.Now()
	resp, err := client.Do(req)
	if err != nil {
		observer.ObserveUpstreamRequest(target, 0, time.Since(start), err)
		log.Error("Upstream request failed", zap.Error(err))
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %w: %s: %w", apperrors.ErrUpstream, apperrors.ErrTimeout, target, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrUpstream, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	observer.ObserveUpstreamRequest(target, resp.StatusCode, time.Since(start), err)
	if err != nil {
		log.Error("Failed to read upstream response", zap.Error(err), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: %s: reading body: %w", apperrors.ErrUpstream, target, err)
	}

	log.Debug("Upstream request completed",
		zap.Int("status", resp.StatusCode),
		zap.String("size", utils.ByteCountSI(len(body))),
		zap.Duration("duration", time.Since(start)),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
