package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/apperrors"
)

const TargetGoogleDNS = "googledns"

// GoogleDNSClient queries a DNS-over-HTTPS JSON resolver.
type GoogleDNSClient struct {
	baseURL string
	client  Doer
}

// NewGoogleDNSClient creates a new resolver relay
func NewGoogleDNSClient(baseURL string, client Doer) *GoogleDNSClient {
	return &GoogleDNSClient{baseURL: baseURL, client: client}
}

// Forward issues GET ?name=&type= with no body. Both keys must be present and non-empty.
func (c *GoogleDNSClient) Forward(ctx context.Context, payload map[string]interface{}) (*Response, error) {
	name, okName := payload["name"].(string)
	recordType, okType := payload["type"].(string)
	if !okName || !okType || name == "" || recordType == "" {
		return nil, fmt.Errorf("%w: name and type are required", apperrors.ErrBadRequest)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid resolver url: %w", apperrors.ErrUpstream, err)
	}
	q := u.Query()
	q.Set("name", name)
	q.Set("type", recordType)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", apperrors.ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/dns-json")

	return do(ctx, c.client, TargetGoogleDNS, req)
}
