package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/apperrors"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/model"
)

func TestIsPhone10(t *testing.T) {
	assert.True(t, IsPhone10("5551234567"))
	assert.True(t, IsPhone10("555-123-4567"))
	assert.True(t, IsPhone10("(555) 123_4567"))
	assert.False(t, IsPhone10("55-123-456"))
	assert.False(t, IsPhone10("+1 555 123 4567"))
	assert.False(t, IsPhone10(""))
}

func TestIsDomainName(t *testing.T) {
	assert.True(t, IsDomainName("acme.io"))
	assert.True(t, IsDomainName("my-shop.example.co"))
	assert.False(t, IsDomainName("Acme.io"))
	assert.False(t, IsDomainName("acme"))
	assert.False(t, IsDomainName("-acme.io"))
	assert.False(t, IsDomainName("acme.i"))
}

func TestValidateFields_Contact(t *testing.T) {
	p := model.ContactPayload{
		Name:    "J",
		Email:   "not-an-email",
		Phone:   "123",
		Message: "short",
	}

	err := ValidateFields(p)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))

	var fe apperrors.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "must be at least 2 characters long", fe["name"])
	assert.Equal(t, "must be a valid email address", fe["email"])
	assert.Equal(t, "must contain exactly 10 digits", fe["phone"])
	assert.Equal(t, "must be at least 10 characters long", fe["message"])
}

func TestValidateFields_PersonName(t *testing.T) {
	p := model.NewContactPayload(&model.ContactPayload{Name: "R2-D2"})
	err := ValidateFields(*p)

	var fe apperrors.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe["name"], "letters")
}

func TestIsDigits10(t *testing.T) {
	assert.True(t, IsDigits10("555.123.4567"))
	assert.True(t, IsDigits10("+ 555 123 4567"))
	assert.False(t, IsDigits10("1 555 123 4567"))
	assert.False(t, IsDigits10(""))
}

func TestValidateFields_AcceptsBrowserFormValues(t *testing.T) {
	contact := model.NewContactPayload(&model.ContactPayload{
		Email: "a,b@acme.io",
		Phone: "555.123.4567",
	})
	assert.NoError(t, ValidateFields(*contact))

	onboarding := model.NewOnboardingPayload(&model.OnboardingPayload{Email: "a,b@acme.io"})
	assert.NoError(t, ValidateFields(*onboarding))

	bad := model.NewContactPayload(&model.ContactPayload{Email: "jane@acme", Phone: "555.123.456"})
	var fe apperrors.FieldErrors
	require.True(t, errors.As(ValidateFields(*bad), &fe))
	assert.Equal(t, "must be a valid email address", fe["email"])
	assert.Equal(t, "must contain exactly 10 digits", fe["phone"])
}

func TestValidateFields_ValidPayloads(t *testing.T) {
	assert.NoError(t, ValidateFields(*model.NewContactPayload()))
	assert.NoError(t, ValidateFields(*model.NewOnboardingPayload()))
}

func TestValidate_FormatsMessage(t *testing.T) {
	err := Validate(model.AdminLoginPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'username' failed validation: is required")
}

func TestSummary_IsSorted(t *testing.T) {
	fe := apperrors.FieldErrors{"phone": "must contain exactly 10 digits", "email": "is required"}
	assert.Equal(t, "email is required; phone must contain exactly 10 digits", Summary(fe))
}
