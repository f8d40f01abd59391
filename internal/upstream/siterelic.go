package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/apperrors"
)

const TargetSiterelic = "siterelic"

// SiterelicClient relays DNS record lookups to the siterelic API.
type SiterelicClient struct {
	url    string
	apiKey string
	client Doer
}

// NewSiterelicClient creates a new siterelic relay
func NewSiterelicClient(url, apiKey string, client Doer) *SiterelicClient {
	return &SiterelicClient{url: url, apiKey: apiKey, client: client}
}

// Forward re-encodes payload as JSON and posts it with the x-api-key header.
func (c *SiterelicClient) Forward(ctx context.Context, payload map[string]interface{}) (*Response, error) {
	if c.url == "" {
		return nil, fmt.Errorf("%w: %s url not configured", apperrors.ErrUpstream, TargetSiterelic)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding payload: %w", apperrors.ErrBadRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", apperrors.ErrUpstream, err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	return do(ctx, c.client, TargetSiterelic, req)
}
