package batch

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// ReadBatchFile reads terms from a file, one per line. Supported formats:
//   - a term only: "gato"
//   - a term with a note: "gato = cat" (the note is ignored)
//   - a note only: "= cat" (the note becomes the term)
//
// Blank lines and lines starting with "#" are skipped, and repeated terms are
// dropped case-insensitively.
func ReadBatchFile(filename string) ([]string, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return ParseTerms(content), nil
}

// ParseTerms extracts terms from batch file content
func ParseTerms(content []byte) []string {
	var terms []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		termText := line
		if left, right, ok := strings.Cut(line, "="); ok {
			termText = strings.TrimSpace(left)
			if termText == "" {
				termText = strings.TrimSpace(right)
			}
		}
		if termText == "" {
			continue
		}

		key := strings.ToLower(termText)
		if seen[key] {
			continue
		}
		seen[key] = true
		terms = append(terms, termText)
	}

	return terms
}
