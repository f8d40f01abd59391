package model

import (
	"strings"
	"time"

	"gorm.io/gorm/schema"
)

// OnboardingRecord is one lead captured by the final step of the onboarding wizard.
// Rows are never updated in place; the admin delete is the only mutation.
type OnboardingRecord struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	CompanyName    string    `json:"company_name" gorm:"column:company_name;type:text;not null"`
	Industry       string    `json:"industry" gorm:"column:industry;type:text"`
	CompanySize    string    `json:"company_size" gorm:"column:company_size;type:text"`
	CompanyWebsite string    `json:"company_website" gorm:"column:company_website;type:text"`
	FirstName      string    `json:"first_name" gorm:"column:first_name;type:text"`
	LastName       string    `json:"last_name" gorm:"column:last_name;type:text"`
	Email          string    `json:"email" gorm:"column:email;type:text;index"`
	Phone          string    `json:"phone" gorm:"column:phone;type:text"`
	JobTitle       string    `json:"job_title" gorm:"column:job_title;type:text"`
	Domain         string    `json:"domain" gorm:"column:domain;type:text"`
	UTMSource      string    `json:"utm_source" gorm:"column:utm_source;type:text;default:''"`
	UTMMedium      string    `json:"utm_medium" gorm:"column:utm_medium;type:text;default:''"`
	UTMCampaign    string    `json:"utm_campaign" gorm:"column:utm_campaign;type:text;default:''"`
	UTMTerm        string    `json:"utm_term" gorm:"column:utm_term;type:text;default:''"`
	UTMContent     string    `json:"utm_content" gorm:"column:utm_content;type:text;default:''"`
	SubmissionID   *string   `json:"submission_id,omitempty" gorm:"column:submission_id;type:text;uniqueIndex"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM, respecting the Namer.
func (OnboardingRecord) TableName(namer schema.Namer) string {
	return namer.TableName("onboarding")
}

// OnboardingPayload is the flat payload of the "onboarding" service, keyed the
// way the wizard sends it.
type OnboardingPayload struct {
	CompanyName    string `json:"companyName" validate:"required,max=255"`
	Industry       string `json:"industry" validate:"required,max=100"`
	CompanySize    string `json:"companySize" validate:"max=50"`
	CompanyWebsite string `json:"companyWebsite" validate:"max=255"`
	FirstName      string `json:"firstName" validate:"required,max=100"`
	LastName       string `json:"lastName" validate:"required,max=100"`
	Email          string `json:"email" validate:"required,leademail"`
	PhoneNumber    string `json:"phoneNumber" validate:"omitempty,phone10"`
	JobTitle       string `json:"jobTitle" validate:"max=100"`
	CustomDomain   string `json:"customDomain" validate:"omitempty,domainname"`
	UTMParams
	SubmissionID string `json:"submissionId,omitempty" validate:"omitempty,uuid"`
}

// ToRecord maps the wire payload onto the table row.
func (p OnboardingPayload) ToRecord() OnboardingRecord {
	rec := OnboardingRecord{
		CompanyName:    strings.TrimSpace(p.CompanyName),
		Industry:       p.Industry,
		CompanySize:    p.CompanySize,
		CompanyWebsite: strings.TrimSpace(p.CompanyWebsite),
		FirstName:      strings.TrimSpace(p.FirstName),
		LastName:       strings.TrimSpace(p.LastName),
		Email:          strings.TrimSpace(p.Email),
		Phone:          p.PhoneNumber,
		JobTitle:       p.JobTitle,
		Domain:         strings.ToLower(strings.TrimSpace(p.CustomDomain)),
		UTMSource:      p.Source,
		UTMMedium:      p.Medium,
		UTMCampaign:    p.Campaign,
		UTMTerm:        p.Term,
		UTMContent:     p.Content,
	}
	if p.SubmissionID != "" {
		id := p.SubmissionID
		rec.SubmissionID = &id
	}
	return rec
}
