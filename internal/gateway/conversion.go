package gateway

import (
	"context"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/utils"
)

// ConversionData is a conversion event for the current lead.
type ConversionData struct {
	User           model.ConversionUser
	ConversionType string
	Metadata       map[string]interface{}
}

// SaveConversion records a conversion with the captured attribution. The
// timestamp is always the client's current time.
func (c *Client) SaveConversion(ctx context.Context, data ConversionData) Result {
	payload := model.ConversionPayload{
		UserData:       data.User,
		UTMData:        c.attribution(),
		ConversionType: data.ConversionType,
		Timestamp:      utils.FormatISO8601Millis(c.now()),
		Metadata:       data.Metadata,
	}

	r, res := c.call(ctx, model.ServiceConversion, payload)
	if !res.Success {
		return res
	}
	var body struct {
		Message string `json:"message"`
	}
	if res, ok := r.decode(&body); !ok {
		return res
	}
	res.Message = body.Message
	return res
}
