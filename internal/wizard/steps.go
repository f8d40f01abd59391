package wizard

import (
	"strings"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/fieldcheck"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/gateway"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/validator"
)

// Step is a wizard position. The order is fixed.
type Step int

const (
	StepCompany Step = iota + 1
	StepContact
	StepDomain
	StepComplete
)

func (s Step) String() string {
	switch s {
	case StepCompany:
		return "company"
	case StepContact:
		return "contact"
	case StepDomain:
		return "domain"
	case StepComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Industries is the closed set offered by the company step.
var Industries = []string{"technology", "healthcare", "finance", "education", "retail", "manufacturing", "other"}

// CompanySizes is the closed set of employee bands.
var CompanySizes = []string{"1-10", "11-50", "51-200", "201-500", "501-1000", "1000+"}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// validateCompany checks step 1.
func validateCompany(c gateway.CompanyData) map[string]string {
	errs := map[string]string{}
	if blank(c.CompanyName) {
		errs["companyName"] = "Company name is required"
	}
	switch {
	case blank(c.Industry):
		errs["industry"] = "Industry is required"
	case !contains(Industries, c.Industry):
		errs["industry"] = "Please select a valid industry"
	}
	if c.Size != "" && !contains(CompanySizes, c.Size) {
		errs["size"] = "Please select a valid company size"
	}
	return errs
}

// validateContact checks step 2. A pending or unknown async verdict does not block.
func validateContact(c gateway.ContactData, email, phone fieldcheck.FieldResult) map[string]string {
	errs := map[string]string{}
	if blank(c.FirstName) {
		errs["firstName"] = "First name is required"
	}
	if blank(c.LastName) {
		errs["lastName"] = "Last name is required"
	}
	switch {
	case blank(c.Email):
		errs["email"] = "Email is required"
	case email.Failed():
		errs["email"] = "Please enter a valid email address"
	}
	switch {
	case blank(c.PhoneNumber):
		errs["phoneNumber"] = "Phone number is required"
	case phone.Failed():
		errs["phoneNumber"] = "Please enter a valid phone number"
	}
	return errs
}

// validateDomain checks step 3.
func validateDomain(d gateway.DomainData) map[string]string {
	errs := map[string]string{}
	switch {
	case blank(d.CustomDomain):
		errs["customDomain"] = "Custom domain is required"
	case !validator.IsDomainName(d.CustomDomain):
		errs["customDomain"] = "Please enter a valid domain name"
	case !d.IsDNSVerified:
		errs["customDomain"] = "Please verify your DNS configuration"
	}
	switch {
	case blank(d.Email):
		errs["email"] = "Email is required"
	case !fieldcheck.IsEmail(d.Email):
		errs["email"] = "Please enter a valid email address"
	}
	return errs
}
