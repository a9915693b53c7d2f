package internal

import (
	"strings"
	"unicode"
)

// Version is the application version shown in the window title and --version.
const Version = "0.4.0"

// SanitizeFilename creates a safe filename from a string.
// Letters and digits of any script are kept so that terms in the learner's
// target language still produce readable names.
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isAlphaNumeric(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// isAlphaNumeric checks if a rune is a letter or digit
func isAlphaNumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
