package emailutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercase email",
			input:    "user@example.com",
			expected: "user@example.com",
		},
		{
			name:     "uppercase email",
			input:    "USER@EXAMPLE.COM",
			expected: "user@example.com",
		},
		{
			name:     "mixed case email",
			input:    "User@Example.Com",
			expected: "user@example.com",
		},
		{
			name:     "email with leading whitespace",
			input:    "  user@example.com",
			expected: "user@example.com",
		},
		{
			name:     "email with trailing whitespace",
			input:    "user@example.com  ",
			expected: "user@example.com",
		},
		{
			name:     "email with surrounding whitespace",
			input:    "  User@Example.Com  ",
			expected: "user@example.com",
		},
		{
			name:     "email with tabs and newlines",
			input:    "\t\nUser@Example.Com\n\t",
			expected: "user@example.com",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "only whitespace",
			input:    "   \t\n   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(tt.input)
			assert.Equal(t, tt.expected, result, "Normalize(%q)", tt.input)
		})
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain address", input: "user@example.com", expected: "example.com"},
		{name: "subdomain", input: "user@mail.example.com", expected: "mail.example.com"},
		{name: "no at sign", input: "not-an-email", expected: ""},
		{name: "multiple at signs", input: "a@b@c", expected: ""},
		{name: "empty string", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractDomain(tt.input))
		})
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain address", input: "jean@chantier.fr", expected: "j***@chantier.fr"},
		{name: "single char local part", input: "a@example.com", expected: "a***@example.com"},
		{name: "no at sign", input: "not-an-email", expected: "***"},
		{name: "empty string", input: "", expected: "***"},
		{name: "leading at sign", input: "@example.com", expected: "***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Redact(tt.input))
		})
	}
}
