package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/apperrors"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/fieldcheck"
)

var (
	validate *validator.Validate
	once     sync.Once

	phoneFormatting = regexp.MustCompile(`[\s\-()_]`)
	tenDigits       = regexp.MustCompile(`^\d{10}$`)
	nonDigits       = regexp.MustCompile(`\D`)
	personName      = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
	domainName      = regexp.MustCompile(`^([a-z0-9]+(-[a-z0-9]+)*\.)+[a-z]{2,}$`)
)

// Get returns a singleton validator instance
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New()

		// Register validation for extracting JSON field names instead of struct field names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = validate.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
			return IsPhone10(fl.Field().String())
		})
		_ = validate.RegisterValidation("digits10", func(fl validator.FieldLevel) bool {
			return IsDigits10(fl.Field().String())
		})
		// leademail accepts exactly what the browser-side forms accept.
		_ = validate.RegisterValidation("leademail", func(fl validator.FieldLevel) bool {
			return fieldcheck.IsEmail(fl.Field().String())
		})
		_ = validate.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
			return personName.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("domainname", func(fl validator.FieldLevel) bool {
			return IsDomainName(fl.Field().String())
		})
	})
	return validate
}

// IsPhone10 reports whether raw holds exactly ten digits once mask characters are removed.
func IsPhone10(raw string) bool {
	return tenDigits.MatchString(phoneFormatting.ReplaceAllString(raw, ""))
}

// IsDigits10 reports whether raw holds exactly ten digits once every non-digit is removed.
func IsDigits10(raw string) bool {
	return len(nonDigits.ReplaceAllString(raw, "")) == 10
}

// IsDomainName reports whether raw is a lowercase hostname with a TLD of two or more letters.
func IsDomainName(raw string) bool {
	return domainName.MatchString(raw)
}

// Validate validates a struct and returns formatted errors
func Validate(s interface{}) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Field()
		messages = append(messages, fmt.Sprintf("field '%s' failed validation: %s", field, getErrorMessage(e)))
	}

	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// ValidateFields validates a struct and returns apperrors.FieldErrors keyed by JSON field name.
func ValidateFields(s interface{}) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	fields := make(apperrors.FieldErrors, len(validationErrors))
	for _, e := range validationErrors {
		if _, seen := fields[e.Field()]; !seen {
			fields[e.Field()] = getErrorMessage(e)
		}
	}
	return fields
}

// Summary renders FieldErrors as one stable, human readable line.
func Summary(fe apperrors.FieldErrors) string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, fe[k]))
	}
	return strings.Join(parts, "; ")
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return Get().Var(field, tag)
}

// getErrorMessage returns a user-friendly error message for a validation tag
func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email", "leademail":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "uuid":
		return "must be a valid UUID"
	case "phone10", "digits10":
		return "must contain exactly 10 digits"
	case "personname":
		return "can only contain letters, spaces, hyphens and apostrophes"
	case "domainname":
		return "must be a valid domain name"
	default:
		return fmt.Sprintf("validation tag '%s' with value '%s' failed", e.Tag(), e.Value())
	}
}
