package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/apperrors"
)

const TargetJenkins = "jenkins"

// JenkinsClient triggers the parameterised deployment job.
type JenkinsClient struct {
	url      string
	username string
	token    string
	client   Doer
}

// NewJenkinsClient creates a new deployment trigger relay
func NewJenkinsClient(url, username, token string, client Doer) *JenkinsClient {
	return &JenkinsClient{url: url, username: username, token: token, client: client}
}

// Forward form-encodes payload and posts it with HTTP Basic credentials.
// Jenkins answers 201 with a Location header naming the queue item.
func (c *JenkinsClient) Forward(ctx context.Context, payload map[string]interface{}) (*Response, error) {
	if c.url == "" {
		return nil, fmt.Errorf("%w: %s url not configured", apperrors.ErrUpstream, TargetJenkins)
	}

	form := FormEncode(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", apperrors.ErrUpstream, err)
	}
	req.SetBasicAuth(c.username, c.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return do(ctx, c.client, TargetJenkins, req)
}

// FormEncode flattens a JSON object into form values. Scalars are formatted
// with fmt; arrays repeat the key; nil values and nested objects are skipped.
func FormEncode(payload map[string]interface{}) url.Values {
	form := url.Values{}
	for k, v := range payload {
		switch val := v.(type) {
		case nil, map[string]interface{}:
			continue
		case []interface{}:
			for _, item := range val {
				if item != nil {
					form.Add(k, formatScalar(item))
				}
			}
		default:
			form.Set(k, formatScalar(val))
		}
	}
	return form
}

func formatScalar(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "1"
		}
		return "0"
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprint(val)
	}
}
