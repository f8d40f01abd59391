package gateway

import (
	"context"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
)

// CompanyData is the step-1 form.
type CompanyData struct {
	CompanyName string `json:"companyName"`
	Industry    string `json:"industry"`
	Size        string `json:"size"`
	Website     string `json:"website"`
}

// ContactData is the step-2 form.
type ContactData struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	JobTitle    string `json:"jobTitle"`
}

// DomainData is the step-3 form.
type DomainData struct {
	CustomDomain  string `json:"customDomain"`
	IsDNSVerified bool   `json:"isDNSVerified"`
	Email         string `json:"email"`
}

// OnboardingResult reports a lead submission.
type OnboardingResult struct {
	Result
	ID        int64 `json:"id,omitempty"`
	Duplicate bool  `json:"duplicate,omitempty"`
}

// OnboardingList is one page of leads.
type OnboardingList struct {
	Result
	Data       []model.OnboardingRecord `json:"data"`
	Pagination model.Pagination         `json:"pagination"`
}

// ContactList is one page of contact submissions.
type ContactList struct {
	Result
	Data       []model.ContactFormRecord `json:"data"`
	Pagination model.Pagination          `json:"pagination"`
}

const (
	msgOnboardingSubmitted = "Onboarding data submitted successfully"
	msgLoginOK             = "Signed in"
)

// SubmitOnboarding flattens the three wizard forms and the captured UTM bundle
// into one onboarding payload. submissionID is sent when non-empty so a retried
// submission resolves to the same row.
func (c *Client) SubmitOnboarding(ctx context.Context, company CompanyData, contact ContactData, domain DomainData, submissionID string) OnboardingResult {
	payload := model.OnboardingPayload{
		CompanyName:    company.CompanyName,
		Industry:       company.Industry,
		CompanySize:    company.Size,
		CompanyWebsite: company.Website,
		FirstName:      contact.FirstName,
		LastName:       contact.LastName,
		Email:          contact.Email,
		PhoneNumber:    contact.PhoneNumber,
		JobTitle:       contact.JobTitle,
		CustomDomain:   domain.CustomDomain,
		UTMParams:      c.attribution(),
		SubmissionID:   submissionID,
	}

	r, res := c.call(ctx, model.ServiceOnboarding, payload)
	if !res.Success {
		return OnboardingResult{Result: res}
	}

	var body struct {
		ID        int64 `json:"id"`
		Duplicate bool  `json:"duplicate"`
	}
	if res, ok := r.decode(&body); !ok {
		return OnboardingResult{Result: res}
	}
	res.Message = msgOnboardingSubmitted
	return OnboardingResult{Result: res, ID: body.ID, Duplicate: body.Duplicate}
}

// FetchOnboardings reads one page of leads. Zero page and limit default to 1 and 10.
func (c *Client) FetchOnboardings(ctx context.Context, q model.ListQuery) OnboardingList {
	var out OnboardingList
	out.Result = c.fetchPage(ctx, model.ServiceGetOnboardings, q, &out.Data, &out.Pagination)
	if out.Success && out.Data == nil {
		out.Data = []model.OnboardingRecord{}
	}
	return out
}

// FetchContacts reads one page of contact submissions.
func (c *Client) FetchContacts(ctx context.Context, q model.ListQuery) ContactList {
	var out ContactList
	out.Result = c.fetchPage(ctx, model.ServiceGetContacts, q, &out.Data, &out.Pagination)
	if out.Success && out.Data == nil {
		out.Data = []model.ContactFormRecord{}
	}
	return out
}

func (c *Client) fetchPage(ctx context.Context, service string, q model.ListQuery, data interface{}, pagination *model.Pagination) Result {
	q = q.Normalize()

	r, res := c.call(ctx, service, q)
	if !res.Success {
		return res
	}

	body := struct {
		Data       interface{}      `json:"data"`
		Pagination model.Pagination `json:"pagination"`
	}{Data: data}
	if res, ok := r.decode(&body); !ok {
		return res
	}

	p := body.Pagination
	if p.Page == 0 {
		p.Page = q.Page
	}
	if p.Limit == 0 {
		p.Limit = q.Limit
	}
	*pagination = model.NewPagination(p.Page, p.Limit, p.Total)
	return res
}

// DeleteOnboarding removes one lead. Requires an admin token.
func (c *Client) DeleteOnboarding(ctx context.Context, id int64) Result {
	r, res := c.call(ctx, model.ServiceDeleteOnboarding, model.DeleteOnboardingPayload{ID: id})
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

// Login authenticates the admin and keeps the returned token for later admin calls.
func (c *Client) Login(ctx context.Context, username, password string) Result {
	r, res := c.call(ctx, model.ServiceAdminLogin, model.AdminLoginPayload{Username: username, Password: password})
	if !res.Success {
		return res
	}
	var sess model.AdminSession
	if res, ok := r.decode(&sess); !ok {
		return res
	}
	if sess.Token == "" {
		return failure(KindDecode, r.status, msgDecode)
	}
	c.SetToken(sess.Token)
	res.Message = msgLoginOK
	return res
}

// Logout forgets the admin token.
func (c *Client) Logout() {
	c.SetToken("")
}
