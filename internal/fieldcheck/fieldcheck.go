package fieldcheck

import (
	"regexp"
	"strings"
)

// Kind names the field an ExternalVerifier is asked about.
type Kind string

const (
	KindEmail Kind = "email"
	KindPhone Kind = "phone"
)

const (
	MsgChecking     = "Checking..."
	MsgEmailValid   = "Email address looks good"
	MsgEmailInvalid = "Please enter a valid email address"
	MsgPhoneValid   = "Phone number looks good"
	MsgPhoneInvalid = "Please enter a valid 10-digit phone number"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneFormatting = regexp.MustCompile(`[\s\-()_]`)
	tenDigits       = regexp.MustCompile(`^\d{10}$`)
)

// FieldResult is the verdict for one field. A nil IsValid means no verdict:
// either the input is empty or a check is still running.
type FieldResult struct {
	IsValid    *bool  `json:"isValid"`
	Message    string `json:"message"`
	IsChecking bool   `json:"isChecking"`
}

// Valid builds a positive verdict.
func Valid(msg string) FieldResult {
	v := true
	return FieldResult{IsValid: &v, Message: msg}
}

// Invalid builds a negative verdict.
func Invalid(msg string) FieldResult {
	v := false
	return FieldResult{IsValid: &v, Message: msg}
}

// Checking is the interim state shown while a verdict is pending.
func Checking() FieldResult {
	return FieldResult{Message: MsgChecking, IsChecking: true}
}

// Known reports whether the result carries a verdict.
func (r FieldResult) Known() bool {
	return r.IsValid != nil
}

// Failed reports whether the result is an explicit negative verdict. Pending
// and empty results are not failures.
func (r FieldResult) Failed() bool {
	return r.IsValid != nil && !*r.IsValid
}

// BasicEmail classifies raw with the local email pattern.
func BasicEmail(raw string) FieldResult {
	if strings.TrimSpace(raw) == "" {
		return FieldResult{}
	}
	if emailPattern.MatchString(raw) {
		return Valid(MsgEmailValid)
	}
	return Invalid(MsgEmailInvalid)
}

// BasicPhone strips mask characters and requires exactly ten digits.
func BasicPhone(raw string) FieldResult {
	if strings.TrimSpace(raw) == "" {
		return FieldResult{}
	}
	if tenDigits.MatchString(StripPhone(raw)) {
		return Valid(MsgPhoneValid)
	}
	return Invalid(MsgPhoneInvalid)
}

// StripPhone removes the formatting characters an input mask inserts.
func StripPhone(raw string) string {
	return phoneFormatting.ReplaceAllString(raw, "")
}

// IsEmail reports whether raw matches the local email pattern.
func IsEmail(raw string) bool {
	return emailPattern.MatchString(raw)
}
