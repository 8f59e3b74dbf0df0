package services

import "strings"

// extractJSONObject locates the first balanced {...} block in raw model
// output. Providers routinely wrap JSON in prose or markdown fences, and some
// leak their thinking process before the payload; everything outside the
// first balanced object is noise to discard, not an error.
func extractJSONObject(raw string) (string, bool) {
	cleaned := stripCodeFences(raw)

	start := strings.IndexByte(cleaned, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(cleaned); i++ {
		c := cleaned[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return cleaned[start : i+1], true
			}
		}
	}
	return "", false
}

// stripCodeFences removes markdown ```json fences around model output
func stripCodeFences(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}
