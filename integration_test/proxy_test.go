//go:build integration

package integration_test

import (
	"time"

	"github.com/google/uuid"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/config"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/gateway"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/utm"
)

func (s *ProxyIntegrationSuite) newClient(landing string) *gateway.Client {
	capture := utm.NewCapture(utm.NewMemoryStore(), utm.Strict)
	if landing != "" {
		capture.CaptureFromURL(landing, "")
	}
	return gateway.NewClient(config.GatewayConfig{BaseURL: s.ProxyURL(), Timeout: 5 * time.Second}, s.Cfg.DNS.RequiredARecord, capture, nil)
}

var (
	itCompany = gateway.CompanyData{CompanyName: "Acme Corp", Industry: "technology", Size: "11-50", Website: "https://acme.example"}
	itContact = gateway.ContactData{FirstName: "Jane", LastName: "Doe", Email: "jane@acme.example", PhoneNumber: "5551234567", JobTitle: "CTO"}
	itDomain  = gateway.DomainData{CustomDomain: "acme.example", IsDNSVerified: true, Email: "jane@acme.example"}
)

func (s *ProxyIntegrationSuite) TestOnboarding_StoresLeadWithAttributionAndConversion() {
	client := s.newClient("https://lysticle.example/start?utm_source=google&utm_medium=cpc&utm_campaign=spring")
	submissionID := uuid.NewString()

	res := client.SubmitOnboarding(s.Ctx, itCompany, itContact, itDomain, submissionID)
	s.Require().True(res.Success, res.Message)
	s.NotZero(res.ID)
	s.False(res.Duplicate)

	s.Equal(1, s.CountRows(`SELECT count(*) FROM onboardings WHERE id = $1 AND utm_source = 'google' AND utm_campaign = 'spring'`, res.ID))
	s.Eventually(func() bool {
		return s.CountRows(`SELECT count(*) FROM conversions WHERE email = $1 AND conversion_type = $2`,
			itContact.Email, model.ConversionOnboardingSubmitted) == 1
	}, 5*time.Second, 50*time.Millisecond)
}

func (s *ProxyIntegrationSuite) TestOnboarding_ReplayIsIdempotent() {
	client := s.newClient("")
	submissionID := uuid.NewString()

	first := client.SubmitOnboarding(s.Ctx, itCompany, itContact, itDomain, submissionID)
	s.Require().True(first.Success, first.Message)

	second := client.SubmitOnboarding(s.Ctx, itCompany, itContact, itDomain, submissionID)
	s.Require().True(second.Success, second.Message)
	s.True(second.Duplicate)
	s.Equal(first.ID, second.ID)

	s.Equal(1, s.CountRows(`SELECT count(*) FROM onboardings WHERE submission_id = $1`, submissionID))
}

func (s *ProxyIntegrationSuite) TestOnboarding_ValidationRejectedWithoutWrite() {
	client := s.newClient("")
	bad := itContact
	bad.Email = "not-an-email"

	res := client.SubmitOnboarding(s.Ctx, itCompany, bad, itDomain, uuid.NewString())
	s.False(res.Success)
	s.Equal(400, res.StatusCode)
	s.Equal(0, s.CountRows(`SELECT count(*) FROM onboardings`))
}

func (s *ProxyIntegrationSuite) TestContact_Stored() {
	client := s.newClient("")
	res := client.SubmitContact(s.Ctx, gateway.ContactForm{
		Name:    "Jane Doe",
		Email:   "jane@acme.example",
		Phone:   "(555) 123-4567",
		Message: "Please call me about pricing.",
	}, "https://lysticle.example/contact?utm_source=newsletter")
	s.Require().True(res.Success, res.Message)

	s.Equal(1, s.CountRows(`SELECT count(*) FROM contact_forms WHERE email = $1 AND utm_source = 'newsletter'`, "jane@acme.example"))
}

func (s *ProxyIntegrationSuite) TestAdmin_ListAndDelete() {
	client := s.newClient("")
	for i := 0; i < 3; i++ {
		res := client.SubmitOnboarding(s.Ctx, itCompany, itContact, itDomain, uuid.NewString())
		s.Require().True(res.Success, res.Message)
	}

	denied := client.FetchOnboardings(s.Ctx, model.ListQuery{})
	s.False(denied.Success)
	s.Equal(401, denied.StatusCode)

	s.Require().True(client.Login(s.Ctx, adminUsername, adminPassword).Success)

	list := client.FetchOnboardings(s.Ctx, model.ListQuery{Page: 1, Limit: 2})
	s.Require().True(list.Success, list.Message)
	s.Equal(int64(3), list.Pagination.Total)
	s.Equal(2, list.Pagination.Pages)
	s.Require().Len(list.Data, 2)

	s.True(client.DeleteOnboarding(s.Ctx, list.Data[0].ID).Success)
	missing := client.DeleteOnboarding(s.Ctx, list.Data[0].ID)
	s.False(missing.Success)
	s.Equal(404, missing.StatusCode)

	s.Equal(2, s.CountRows(`SELECT count(*) FROM onboardings`))
}
