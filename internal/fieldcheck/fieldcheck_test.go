package fieldcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasicEmail(t *testing.T) {
	testCases := []struct {
		input    string
		expected bool
	}{
		{"jane@acme.com", true},
		{"a@b.co", true},
		{"jane.doe+tag@mail.acme.io", true},
		{"jane@acme", false},
		{"jane acme.com", false},
		{"jane@ac me.com", false},
		{"@acme.com", false},
		{"jane@@acme.com", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			res := BasicEmail(tc.input)
			assert.True(t, res.Known())
			assert.Equal(t, tc.expected, *res.IsValid)
			assert.False(t, res.IsChecking)
		})
	}
}

func TestBasicPhone(t *testing.T) {
	testCases := []struct {
		input    string
		expected bool
	}{
		{"555-123-4567", true},
		{"(555) 123-4567", true},
		{"5551234567", true},
		{"555_123_4567", true},
		{"55-123-456", false},
		{"555.123.4567", false},
		{"+1 555 123 4567", false},
		{"55512345678", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			res := BasicPhone(tc.input)
			assert.True(t, res.Known())
			assert.Equal(t, tc.expected, *res.IsValid)
		})
	}
}

func TestBasic_EmptyInputHasNoVerdict(t *testing.T) {
	for _, res := range []FieldResult{BasicEmail(""), BasicEmail("   "), BasicPhone(""), BasicPhone(" ")} {
		assert.False(t, res.Known())
		assert.False(t, res.Failed())
		assert.Empty(t, res.Message)
	}
}

func TestFieldResult_Failed(t *testing.T) {
	assert.True(t, Invalid("x").Failed())
	assert.False(t, Valid("x").Failed())
	assert.False(t, Checking().Failed())
	assert.True(t, Checking().IsChecking)
}
