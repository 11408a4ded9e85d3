package engine

import "encoding/json"

// SanitizeNumerics repairs engine output whose numeric fields were formatted
// with a comma decimal separator. Engines built against C libraries format
// floats with the process locale; under locales like fr_FR that produces
// text such as `"conf" : 0,282` which is not valid JSON. Valid input is
// returned untouched, so the function is idempotent and never corrupts
// legitimate comma-separated values.
func SanitizeNumerics(text string) string {
	if text == "" || json.Valid([]byte(text)) {
		return text
	}

	b := []byte(text)
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == ',' && i > 0 && i+1 < len(b) && isDigit(b[i-1]) && isDigit(b[i+1]) {
			out = append(out, '.')
			continue
		}
		out = append(out, b[i])
	}

	if json.Valid(out) {
		return string(out)
	}
	// Rewriting did not produce valid JSON either; hand back the original
	// rather than guessing further.
	return text
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
