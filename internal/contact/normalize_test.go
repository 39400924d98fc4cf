package contact

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    "   \t \n  ",
			expected: "",
		},
		{
			name:     "plain text untouched",
			input:    "John Smith",
			expected: "John Smith",
		},
		{
			name:     "bullet runs at edges stripped",
			input:    "•••John@@@Smith•••",
			expected: "John@@@Smith",
		},
		{
			name:     "unicode dashes become hyphens",
			input:    "Acme — Widgets",
			expected: "Acme - Widgets",
		},
		{
			name:     "dash runs collapse to space",
			input:    "——John——",
			expected: "John",
		},
		{
			name:     "garbage punctuation replaced",
			input:    "{{Jane}} | Doe //",
			expected: "Jane Doe",
		},
		{
			name:     "underscores replaced",
			input:    "call_me_now",
			expected: "call me now",
		},
		{
			name:     "parens stripped but digits kept",
			input:    "(415) 555-2671",
			expected: "415 555-2671",
		},
		{
			name:     "plus sign survives for country codes",
			input:    "+49 (0) 30-123456",
			expected: "+49 0 30-123456",
		},
		{
			name:     "double spaces collapse, single newline survives",
			input:    "John  Smith\nCEO",
			expected: "John Smith\nCEO",
		},
		{
			name:     "non-ascii runs become spaces",
			input:    "Tübingen Straße",
			expected: "T bingen Stra e",
		},
		{
			name:     "all non-ascii input",
			input:    "日本語のテキスト",
			expected: "",
		},
		{
			name:     "email characters preserved",
			input:    "jane.doe+cards@acme-corp.com",
			expected: "jane.doe+cards@acme-corp.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(tt.input)
			if result != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"John Smith",
		"•••John@@@Smith•••",
		"{{Jane}} | Doe //",
		"+49 (0) 30-123456",
		"John  Smith\nCEO\n\nAcme Inc",
		"Tübingen Straße 12",
		"——dashes—and—more——",
		"jane.doe+cards@acme-corp.com",
	}

	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}
