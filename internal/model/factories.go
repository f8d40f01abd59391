package model

import (
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/utils"
)

var (
	industries   = []string{"technology", "healthcare", "finance", "education", "retail", "manufacturing", "other"}
	companySizes = []string{"1-10", "11-50", "51-200", "201-500", "501-1000", "1000+"}
	utmSources   = []string{"google", "facebook", "linkedin", "newsletter", ""}
	utmMediums   = []string{"cpc", "email", "social", "organic", ""}
)

// init ensures gofakeit is seeded.
func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

// FakePhone returns a ten digit phone number.
func FakePhone() string {
	return gofakeit.Numerify("##########")
}

// FakeDomain returns a lowercase domain accepted by the domainname tag.
func FakeDomain() string {
	return strings.ToLower(gofakeit.LetterN(8)) + ".io"
}

// NewOnboardingPayload creates an OnboardingPayload with default fake data.
func NewOnboardingPayload(overrideDefaults ...*OnboardingPayload) *OnboardingPayload {
	base := &OnboardingPayload{
		CompanyName:    gofakeit.Company(),
		Industry:       gofakeit.RandomString(industries),
		CompanySize:    gofakeit.RandomString(companySizes),
		CompanyWebsite: gofakeit.URL(),
		FirstName:      gofakeit.FirstName(),
		LastName:       gofakeit.LastName(),
		Email:          gofakeit.Email(),
		PhoneNumber:    FakePhone(),
		JobTitle:       gofakeit.JobTitle(),
		CustomDomain:   FakeDomain(),
		UTMParams: UTMParams{
			Source:   gofakeit.RandomString(utmSources),
			Medium:   gofakeit.RandomString(utmMediums),
			Campaign: gofakeit.HipsterWord(),
		},
		SubmissionID: gofakeit.UUID(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.CompanyName != "" {
			base.CompanyName = ovr.CompanyName
		}
		if ovr.Industry != "" {
			base.Industry = ovr.Industry
		}
		if ovr.Email != "" {
			base.Email = ovr.Email
		}
		if ovr.PhoneNumber != "" {
			base.PhoneNumber = ovr.PhoneNumber
		}
		if ovr.CustomDomain != "" {
			base.CustomDomain = ovr.CustomDomain
		}
		if !ovr.UTMParams.IsEmpty() {
			base.UTMParams = ovr.UTMParams
		}
		// SubmissionID is assigned directly so callers can clear it.
		base.SubmissionID = ovr.SubmissionID
	}
	return base
}

// NewOnboardingRecord creates an OnboardingRecord with default fake data.
func NewOnboardingRecord(overrideDefaults ...*OnboardingRecord) *OnboardingRecord {
	base := NewOnboardingPayload().ToRecord()
	base.ID = int64(gofakeit.Number(1, 100000))
	base.CreatedAt = utils.Now().Add(-time.Duration(gofakeit.Number(1, 100)) * time.Hour)

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != 0 {
			base.ID = ovr.ID
		}
		if ovr.CompanyName != "" {
			base.CompanyName = ovr.CompanyName
		}
		if ovr.Email != "" {
			base.Email = ovr.Email
		}
		if ovr.UTMSource != "" {
			base.UTMSource = ovr.UTMSource
		}
		if ovr.SubmissionID != nil {
			base.SubmissionID = ovr.SubmissionID
		}
		if !ovr.CreatedAt.IsZero() {
			base.CreatedAt = ovr.CreatedAt
		}
	}
	return &base
}

// NewContactPayload creates a ContactPayload with default fake data that passes validation.
func NewContactPayload(overrideDefaults ...*ContactPayload) *ContactPayload {
	base := &ContactPayload{
		Name:        gofakeit.FirstName() + " " + gofakeit.LastName(),
		Email:       gofakeit.Email(),
		Phone:       FakePhone(),
		Message:     gofakeit.Sentence(8),
		UTMSource:   gofakeit.RandomString(utmSources),
		Source:      gofakeit.URL(),
		SubmittedAt: utils.FormatISO8601Millis(utils.Now()),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.Name != "" {
			base.Name = ovr.Name
		}
		if ovr.Email != "" {
			base.Email = ovr.Email
		}
		if ovr.Phone != "" {
			base.Phone = ovr.Phone
		}
		if ovr.Message != "" {
			base.Message = ovr.Message
		}
	}
	return base
}

// NewContactFormRecord creates a ContactFormRecord with default fake data.
func NewContactFormRecord(overrideDefaults ...*ContactFormRecord) *ContactFormRecord {
	base := NewContactPayload().ToRecord()
	base.ID = int64(gofakeit.Number(1, 100000))
	base.CreatedAt = utils.Now()

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != 0 {
			base.ID = ovr.ID
		}
		if ovr.Email != "" {
			base.Email = ovr.Email
		}
	}
	return &base
}

// NewConversionRecord creates a ConversionRecord with default fake data.
func NewConversionRecord(overrideDefaults ...*ConversionRecord) *ConversionRecord {
	onboarding := NewOnboardingRecord()
	base := ConversionFromOnboarding(*onboarding, utils.Now())

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ConversionType != "" {
			base.ConversionType = ovr.ConversionType
		}
		if ovr.Email != "" {
			base.Email = ovr.Email
		}
		if ovr.Metadata != nil {
			base.Metadata = ovr.Metadata
		}
	}
	return &base
}
