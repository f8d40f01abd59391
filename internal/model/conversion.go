package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// Conversion types recorded by the service.
const (
	ConversionOnboardingSubmitted = "onboarding_submitted"
	ConversionDashboardVisit      = "dashboard_visit"
)

// ConversionRecord unifies lead identity with attribution and a conversion label. Append-only.
type ConversionRecord struct {
	ID             int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	FirstName      string         `json:"first_name" gorm:"column:first_name;type:text"`
	LastName       string         `json:"last_name" gorm:"column:last_name;type:text"`
	Email          string         `json:"email" gorm:"column:email;type:text;index"`
	Phone          string         `json:"phone" gorm:"column:phone;type:text"`
	CompanyName    string         `json:"company_name" gorm:"column:company_name;type:text"`
	Industry       string         `json:"industry" gorm:"column:industry;type:text"`
	Domain         string         `json:"domain" gorm:"column:domain;type:text"`
	UTMSource      string         `json:"utm_source" gorm:"column:utm_source;type:text;default:''"`
	UTMMedium      string         `json:"utm_medium" gorm:"column:utm_medium;type:text;default:''"`
	UTMCampaign    string         `json:"utm_campaign" gorm:"column:utm_campaign;type:text;default:''"`
	UTMTerm        string         `json:"utm_term" gorm:"column:utm_term;type:text;default:''"`
	UTMContent     string         `json:"utm_content" gorm:"column:utm_content;type:text;default:''"`
	ConversionType string         `json:"conversion_type" gorm:"column:conversion_type;type:text;index"`
	Timestamp      time.Time      `json:"timestamp" gorm:"column:timestamp"`
	Metadata       datatypes.JSON `json:"metadata,omitempty" gorm:"column:metadata;type:jsonb"`
	CreatedAt      time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM, respecting the Namer.
func (ConversionRecord) TableName(namer schema.Namer) string {
	return namer.TableName("conversion")
}

// ConversionUser is the identity part of a conversion payload.
type ConversionUser struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName"`
	Email       string `json:"email" validate:"required,leademail"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	CompanyName string `json:"companyName" validate:"required"`
	Industry    string `json:"industry,omitempty"`
	Domain      string `json:"domain,omitempty"`
}

// ConversionPayload is the payload of the "utm" service.
type ConversionPayload struct {
	UserData       ConversionUser         `json:"userData" validate:"required"`
	UTMData        UTMParams              `json:"utmData"`
	ConversionType string                 `json:"conversionType" validate:"required,max=64"`
	Timestamp      string                 `json:"timestamp,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// ToRecord maps the payload onto the table row. An absent or unparsable
// timestamp is replaced by now.
func (p ConversionPayload) ToRecord(now time.Time) ConversionRecord {
	ts := now
	if p.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, p.Timestamp); err == nil {
			ts = parsed.UTC()
		}
	}
	rec := ConversionRecord{
		FirstName:      p.UserData.FirstName,
		LastName:       p.UserData.LastName,
		Email:          p.UserData.Email,
		Phone:          p.UserData.PhoneNumber,
		CompanyName:    p.UserData.CompanyName,
		Industry:       p.UserData.Industry,
		Domain:         p.UserData.Domain,
		UTMSource:      p.UTMData.Source,
		UTMMedium:      p.UTMData.Medium,
		UTMCampaign:    p.UTMData.Campaign,
		UTMTerm:        p.UTMData.Term,
		UTMContent:     p.UTMData.Content,
		ConversionType: p.ConversionType,
		Timestamp:      ts,
	}
	if len(p.Metadata) > 0 {
		rec.Metadata = JSONB(p.Metadata)
	}
	return rec
}

// ConversionFromOnboarding builds the conversion row recorded after a lead is saved.
func ConversionFromOnboarding(rec OnboardingRecord, now time.Time) ConversionRecord {
	return ConversionRecord{
		FirstName:      rec.FirstName,
		LastName:       rec.LastName,
		Email:          rec.Email,
		Phone:          rec.Phone,
		CompanyName:    rec.CompanyName,
		Industry:       rec.Industry,
		Domain:         rec.Domain,
		UTMSource:      rec.UTMSource,
		UTMMedium:      rec.UTMMedium,
		UTMCampaign:    rec.UTMCampaign,
		UTMTerm:        rec.UTMTerm,
		UTMContent:     rec.UTMContent,
		ConversionType: ConversionOnboardingSubmitted,
		Timestamp:      now,
		Metadata:       JSONB(map[string]interface{}{"onboarding_id": rec.ID}),
	}
}
