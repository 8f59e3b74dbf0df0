package repository

import (
	"strings"
	"testing"
)

func TestLegacyRenamesWellFormed(t *testing.T) {
	renames := LegacyRenames()
	if len(renames) == 0 {
		t.Fatal("expected at least one legacy rename")
	}

	seen := make(map[string]bool)
	for _, rename := range renames {
		if rename.Table == "" || rename.Legacy == "" || rename.Current == "" {
			t.Errorf("incomplete rename entry: %+v", rename)
		}
		if rename.Legacy == rename.Current {
			t.Errorf("rename %s.%s is a no-op", rename.Table, rename.Legacy)
		}
		if strings.ToLower(rename.Current) != rename.Current {
			t.Errorf("current name %q must be snake_case", rename.Current)
		}

		key := rename.Table + "." + rename.Legacy
		if seen[key] {
			t.Errorf("duplicate rename for %s", key)
		}
		seen[key] = true
	}
}

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain", "questions", `"questions"`},
		{"Mixed case", "jobPosition", `"jobPosition"`},
		{"Embedded quote", `evil"name`, `"evil""name"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuoteIdent(tt.input); got != tt.expected {
				t.Errorf("QuoteIdent(%q) = %s, expected %s", tt.input, got, tt.expected)
			}
		})
	}
}
