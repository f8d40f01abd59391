package gateway

import (
	"context"
	"net/url"
	"path"
	"strings"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
)

const (
	msgDeploymentStarted = "Deployment started successfully"
	msgDeploymentFailed  = "Failed to trigger deployment"
)

// DeploymentResult reports a deployment trigger. JobID is empty when the CI
// server did not return a Location header.
type DeploymentResult struct {
	Result
	JobID string `json:"jobId,omitempty"`
}

// TriggerDeployment asks the CI server to provision the customer's application.
// Only 200 and 201 count as accepted.
func (c *Client) TriggerDeployment(ctx context.Context, req model.DeploymentRequest) DeploymentResult {
	r, res := c.call(ctx, model.ServiceAnsible, req)
	if !res.Success {
		res.Message = failureMessage(r, res, msgDeploymentFailed)
		return DeploymentResult{Result: res}
	}
	if r.status != 200 && r.status != 201 {
		return DeploymentResult{Result: failure(KindStatus, r.status, msgDeploymentFailed)}
	}

	res.Message = msgDeploymentStarted
	return DeploymentResult{Result: res, JobID: jobIDFromLocation(r.header.Get("Location"))}
}

// jobIDFromLocation returns the last path segment of a queue item URL such as
// https://ci/queue/item/42/.
func jobIDFromLocation(loc string) string {
	if loc == "" {
		return ""
	}
	p := loc
	if u, err := url.Parse(loc); err == nil {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}
