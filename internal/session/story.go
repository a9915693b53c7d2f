package session

import (
	"regexp"
	"strings"
)

var emphasis = regexp.MustCompile(`\*\*(.+?)\*\*`)

// HighlightedTerms returns the distinct words marked as **word** in a story,
// in order of first appearance
func HighlightedTerms(story string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range emphasis.FindAllStringSubmatch(story, -1) {
		word := strings.TrimSpace(m[1])
		if word == "" || seen[strings.ToLower(word)] {
			continue
		}
		seen[strings.ToLower(word)] = true
		out = append(out, word)
	}
	return out
}
