package gateway

import (
	"context"
	"strconv"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
)

const (
	msgDNSVerified       = "DNS records verified successfully"
	msgDNSMisconfigured  = "DNS records are not properly configured"
	msgDNSFailed         = "Failed to verify DNS records"
	msgGoogleDNSVerified = "DNS records verified successfully using Google DNS"
	msgGoogleDNSNoRecord = "No DNS records found for the domain"
	msgGoogleDNSFailed   = "Failed to verify DNS records using Google DNS"
)

// DNS resource record types as numbered in DNS-over-HTTPS answers.
var dnsTypeNames = map[int]string{1: "A", 5: "CNAME", 28: "AAAA"}

// VerifyDNS checks the domain through the DNS lookup API relay.
func (c *Client) VerifyDNS(ctx context.Context, domain string) model.DNSVerification {
	out := model.DNSVerification{RequiredRecords: model.RequiredRecords(c.requiredARecord)}

	payload := model.SiterelicPayload{URL: CleanDomain(domain), Types: []string{"A", "CNAME"}}
	r, res := c.call(ctx, model.ServiceSiterelic, payload)
	if !res.Success {
		out.Message = failureMessage(r, res, msgDNSFailed)
		return out
	}
	if r.status != 200 || len(r.body) == 0 {
		out.Message = msgDNSMisconfigured
		return out
	}

	var body struct {
		Records []model.DNSRecord `json:"records"`
	}
	if _, ok := r.decode(&body); !ok {
		out.Message = msgDNSFailed
		return out
	}
	out.IsValid = true
	out.Message = msgDNSVerified
	out.Records = body.Records
	return out
}

// VerifyDNSWithGoogle resolves the domain's A records over DNS-over-HTTPS. Any
// answer counts as verified.
func (c *Client) VerifyDNSWithGoogle(ctx context.Context, domain string) model.DNSVerification {
	out := model.DNSVerification{RequiredRecords: model.RequiredRecords(c.requiredARecord)}

	payload := model.GoogleDNSPayload{Name: CleanDomain(domain), Type: "A"}
	r, res := c.call(ctx, model.ServiceGoogleDNS, payload)
	if !res.Success {
		out.Message = failureMessage(r, res, msgGoogleDNSFailed)
		return out
	}

	var body model.GoogleDNSResponse
	if _, ok := r.decode(&body); !ok || r.status != 200 {
		out.Message = msgGoogleDNSFailed
		return out
	}

	records := make([]model.DNSRecord, 0, len(body.Answer))
	for _, a := range body.Answer {
		records = append(records, model.DNSRecord{Type: dnsTypeName(a.Type), Host: a.Name, Value: a.Data})
	}
	out.Records = records
	out.IsValid = len(records) > 0
	if out.IsValid {
		out.Message = msgGoogleDNSVerified
	} else {
		out.Message = msgGoogleDNSNoRecord
	}
	return out
}

func dnsTypeName(t int) string {
	if name, ok := dnsTypeNames[t]; ok {
		return name
	}
	if t == 0 {
		return "A"
	}
	return strconv.Itoa(t)
}
