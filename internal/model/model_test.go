package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCount(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int
	}{
		{25, 10, 3},
		{20, 10, 2},
		{1, 10, 1},
		{0, 10, 0},
		{25, 0, 0},
		{25, -1, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PageCount(tc.total, tc.limit), "total=%d limit=%d", tc.total, tc.limit)
	}
}

func TestListQuery_Normalize(t *testing.T) {
	q := ListQuery{}.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, 0, q.Offset())

	q = ListQuery{Page: 3, Limit: 500}.Normalize()
	assert.Equal(t, MaxLimit, q.Limit)
	assert.Equal(t, 200, q.Offset())
}

func TestUTMParams_Merge(t *testing.T) {
	stored := UTMParams{Source: "google", Medium: "cpc", Campaign: "spring", FirstVisit: "2024-01-01T00:00:00Z", Referrer: "https://a.example"}
	merged := stored.Merge(UTMParams{Campaign: "summer", Term: "crm", FirstVisit: "2025-01-01T00:00:00Z", Referrer: "https://b.example"})

	assert.Equal(t, "google", merged.Source)
	assert.Equal(t, "summer", merged.Campaign)
	assert.Equal(t, "crm", merged.Term)
	assert.Equal(t, "2024-01-01T00:00:00Z", merged.FirstVisit)
	assert.Equal(t, "https://a.example", merged.Referrer)
}

func TestUTMParams_Completeness(t *testing.T) {
	assert.True(t, UTMParams{}.IsEmpty())
	assert.True(t, UTMParams{FirstVisit: "x"}.IsEmpty())
	assert.False(t, UTMParams{Source: "google"}.IsComplete())
	assert.True(t, UTMParams{Source: "google", Medium: "cpc", Campaign: "spring"}.IsComplete())
}

func TestOnboardingPayload_DecodeAndMap(t *testing.T) {
	raw := `{"companyName":"Acme","industry":"tech","companySize":"1-10","companyWebsite":"","firstName":"Jane","lastName":"Doe","email":"jane@acme.com","phoneNumber":"5551234567","jobTitle":"CEO","customDomain":"Acme.io","utm_source":"google","utm_medium":"","utm_campaign":"","utm_term":"","utm_content":""}`

	var p OnboardingPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	rec := p.ToRecord()
	assert.Equal(t, "Acme", rec.CompanyName)
	assert.Equal(t, "5551234567", rec.Phone)
	assert.Equal(t, "acme.io", rec.Domain)
	assert.Equal(t, "google", rec.UTMSource)
	assert.Nil(t, rec.SubmissionID)

	p.SubmissionID = "7b0c6a8e-3f1d-4d7c-9a43-2a3f0e6b1c55"
	rec = p.ToRecord()
	require.NotNil(t, rec.SubmissionID)
	assert.Equal(t, p.SubmissionID, *rec.SubmissionID)
}

func TestConversionPayload_ToRecord(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p := ConversionPayload{
		UserData:       ConversionUser{FirstName: "Jane", Email: "jane@acme.com", CompanyName: "Acme"},
		UTMData:        UTMParams{Source: "google"},
		ConversionType: ConversionDashboardVisit,
		Metadata:       map[string]interface{}{"plan": "trial"},
	}

	rec := p.ToRecord(now)
	assert.Equal(t, now, rec.Timestamp)
	assert.Equal(t, "google", rec.UTMSource)
	assert.JSONEq(t, `{"plan":"trial"}`, string(rec.Metadata))

	p.Timestamp = "2024-12-31T23:59:59.123Z"
	rec = p.ToRecord(now)
	assert.Equal(t, 2024, rec.Timestamp.Year())

	p.Timestamp = "not a time"
	assert.Equal(t, now, p.ToRecord(now).Timestamp)
}

func TestConversionFromOnboarding(t *testing.T) {
	onboarding := NewOnboardingRecord(&OnboardingRecord{ID: 42})
	rec := ConversionFromOnboarding(*onboarding, time.Now())

	assert.Equal(t, ConversionOnboardingSubmitted, rec.ConversionType)
	assert.Equal(t, onboarding.Email, rec.Email)
	assert.JSONEq(t, `{"onboarding_id":42}`, string(rec.Metadata))
}

func TestEnvelope_Valid(t *testing.T) {
	assert.True(t, Envelope{Service: "contact", Payload: json.RawMessage(`{"a":1}`)}.Valid())
	assert.False(t, Envelope{Payload: json.RawMessage(`{}`)}.Valid())
	assert.False(t, Envelope{Service: "contact"}.Valid())
	assert.False(t, Envelope{Service: "contact", Payload: json.RawMessage(`null`)}.Valid())
	assert.False(t, Envelope{Service: "contact", Payload: json.RawMessage(`"x"`)}.Valid())
}

func TestRequiredRecords(t *testing.T) {
	assert.Equal(t, []DNSRecord{{Type: "A", Host: "@", Value: "203.0.113.10"}}, RequiredRecords("203.0.113.10"))
}
