package gateway

import (
	"context"
	"strings"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/fieldcheck"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/utm"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/validator"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/utils"
)

const msgContactSubmitted = "Thank you for your message. We will contact you soon!"

// ContactForm is the public contact form.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// ContactResult reports a contact submission. FieldErrors is set when local
// validation failed and nothing was sent.
type ContactResult struct {
	Result
	ID          int64             `json:"id,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// ValidateName checks the contact name.
func ValidateName(name string) (bool, string) {
	switch {
	case strings.TrimSpace(name) == "":
		return false, "Full name is required"
	case len(strings.TrimSpace(name)) < 2:
		return false, "Name must be at least 2 characters long"
	case validator.ValidateVar(name, "personname") != nil:
		return false, "Name can only contain letters, spaces, hyphens and apostrophes"
	}
	return true, ""
}

// ValidateContactEmail checks the contact email.
func ValidateContactEmail(email string) (bool, string) {
	switch {
	case strings.TrimSpace(email) == "":
		return false, "Email is required"
	case !fieldcheck.IsEmail(email):
		return false, "Please enter a valid email address"
	}
	return true, ""
}

// ValidateContactPhone requires ten digits once every non-digit is removed.
func ValidateContactPhone(phone string) (bool, string) {
	switch {
	case strings.TrimSpace(phone) == "":
		return false, "Phone number is required"
	case !validator.IsDigits10(phone):
		return false, "Please enter a valid 10-digit phone number"
	}
	return true, ""
}

// ValidateMessage checks the free-text message.
func ValidateMessage(message string) (bool, string) {
	switch {
	case strings.TrimSpace(message) == "":
		return false, "Message is required"
	case len(strings.TrimSpace(message)) < 10:
		return false, "Message must be at least 10 characters long"
	}
	return true, ""
}

// ValidateContact runs every field check and returns the failures keyed by field.
func ValidateContact(form ContactForm) map[string]string {
	errs := make(map[string]string)
	checks := []struct {
		field string
		check func(string) (bool, string)
		value string
	}{
		{"name", ValidateName, form.Name},
		{"email", ValidateContactEmail, form.Email},
		{"phone", ValidateContactPhone, form.Phone},
		{"message", ValidateMessage, form.Message},
	}
	for _, c := range checks {
		if ok, msg := c.check(c.value); !ok {
			errs[c.field] = msg
		}
	}
	return errs
}

// SubmitContact validates the form locally and, when it passes, posts it with
// attribution read from pageURL rather than the stored bundle.
func (c *Client) SubmitContact(ctx context.Context, form ContactForm, pageURL string) ContactResult {
	if errs := ValidateContact(form); len(errs) > 0 {
		return ContactResult{Result: failure(KindValidation, 0, msgValidation), FieldErrors: errs}
	}

	attr := utm.ExtractFromURL(pageURL, utm.Lenient)
	payload := model.ContactPayload{
		Name:        form.Name,
		Email:       form.Email,
		Phone:       form.Phone,
		Message:     form.Message,
		UTMSource:   attr.Source,
		UTMMedium:   attr.Medium,
		UTMCampaign: attr.Campaign,
		UTMTerm:     attr.Term,
		UTMContent:  attr.Content,
		Source:      pageURL,
		SubmittedAt: utils.FormatISO8601Millis(c.now()),
	}

	r, res := c.call(ctx, model.ServiceContact, payload)
	if !res.Success {
		return ContactResult{Result: res}
	}
	var body struct {
		ID int64 `json:"id"`
	}
	if res, ok := r.decode(&body); !ok {
		return ContactResult{Result: res}
	}
	res.Message = msgContactSubmitted
	return ContactResult{Result: res, ID: body.ID}
}
