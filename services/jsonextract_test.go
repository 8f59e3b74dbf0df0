package services

import "testing"

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		ok       bool
	}{
		{
			name:     "Bare object",
			raw:      `{"a":1}`,
			expected: `{"a":1}`,
			ok:       true,
		},
		{
			name:     "Markdown fenced",
			raw:      "```json\n{\"a\":1}\n```",
			expected: `{"a":1}`,
			ok:       true,
		},
		{
			name:     "Wrapped in prose",
			raw:      `Sure! Here is the question: {"questionText":"Tell me about yourself"} Hope that helps.`,
			expected: `{"questionText":"Tell me about yourself"}`,
			ok:       true,
		},
		{
			name:     "Nested objects",
			raw:      `{"outer":{"inner":2}}`,
			expected: `{"outer":{"inner":2}}`,
			ok:       true,
		},
		{
			name:     "Braces inside strings",
			raw:      `{"text":"use {curly} braces"}`,
			expected: `{"text":"use {curly} braces"}`,
			ok:       true,
		},
		{
			name:     "Escaped quote inside string",
			raw:      `{"text":"she said \"hi\" {ok}"}`,
			expected: `{"text":"she said \"hi\" {ok}"}`,
			ok:       true,
		},
		{
			name: "No object at all",
			raw:  "I cannot answer that.",
			ok:   false,
		},
		{
			name: "Unbalanced object",
			raw:  `{"a":1`,
			ok:   false,
		},
		{
			name: "Empty input",
			raw:  "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSONObject(tt.raw)
			if ok != tt.ok {
				t.Fatalf("extractJSONObject() ok = %v, expected %v", ok, tt.ok)
			}
			if ok && got != tt.expected {
				t.Errorf("extractJSONObject() = %q, expected %q", got, tt.expected)
			}
		})
	}
}
