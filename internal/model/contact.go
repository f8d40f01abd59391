package model

import (
	"strings"
	"time"

	"gorm.io/gorm/schema"
)

// ContactFormRecord is one "contact us" submission. Append-only.
type ContactFormRecord struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"column:name;type:text;not null"`
	Email       string    `json:"email" gorm:"column:email;type:text;index"`
	Phone       string    `json:"phone" gorm:"column:phone;type:text"`
	Message     string    `json:"message" gorm:"column:message;type:text"`
	UTMSource   string    `json:"utm_source" gorm:"column:utm_source;type:text;default:''"`
	UTMMedium   string    `json:"utm_medium" gorm:"column:utm_medium;type:text;default:''"`
	UTMCampaign string    `json:"utm_campaign" gorm:"column:utm_campaign;type:text;default:''"`
	UTMTerm     string    `json:"utm_term" gorm:"column:utm_term;type:text;default:''"`
	UTMContent  string    `json:"utm_content" gorm:"column:utm_content;type:text;default:''"`
	Source      string    `json:"source" gorm:"column:source;type:text"`             // referring page URL
	SubmittedAt string    `json:"submitted_at" gorm:"column:submitted_at;type:text"` // as sent by the client
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM, respecting the Namer.
func (ContactFormRecord) TableName(namer schema.Namer) string {
	return namer.TableName("contact_form")
}

// ContactPayload is the payload of the "contact" service.
type ContactPayload struct {
	Name        string `json:"name" validate:"required,min=2,max=100,personname"`
	Email       string `json:"email" validate:"required,leademail"`
	Phone       string `json:"phone" validate:"required,digits10"`
	Message     string `json:"message" validate:"required,min=10,max=5000"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UTMTerm     string `json:"utm_term"`
	UTMContent  string `json:"utm_content"`
	Source      string `json:"source" validate:"max=2048"`
	SubmittedAt string `json:"submitted_at"`
}

// ToRecord maps the wire payload onto the table row.
func (p ContactPayload) ToRecord() ContactFormRecord {
	return ContactFormRecord{
		Name:        strings.TrimSpace(p.Name),
		Email:       strings.TrimSpace(p.Email),
		Phone:       p.Phone,
		Message:     strings.TrimSpace(p.Message),
		UTMSource:   p.UTMSource,
		UTMMedium:   p.UTMMedium,
		UTMCampaign: p.UTMCampaign,
		UTMTerm:     p.UTMTerm,
		UTMContent:  p.UTMContent,
		Source:      p.Source,
		SubmittedAt: p.SubmittedAt,
	}
}
