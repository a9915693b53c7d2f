package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"codeberg.org/snonux/lingopop/internal/catalog"
	"codeberg.org/snonux/lingopop/internal/term"
)

func analysisPrompt(termText string, native, target catalog.Language) string {
	return fmt.Sprintf(`Analyze the term/phrase: "%s".
Target Language: %s.
Explanation Language (Native): %s.

Output a JSON object with:
- explanation: A natural explanation in %s.
- phonetic: IPA or simple phonetic pronunciation guide if applicable.
- examples: Array of 2 objects { original, translation }. 'original' in %s, 'translation' in %s.
- funUsage: A conversational, witty paragraph in %s explaining cultural context, nuance, vibe and usage scenarios. Avoid textbook style. Use emojis. Be concise (max 60 words).
- relatedWords: A string listing 2-3 synonyms or commonly confused words with a brief distinction.`,
		termText, target.Name, native.Name, native.Name, target.Name, native.Name, native.Name)
}

func imagePrompt(termText, contextText string) string {
	return fmt.Sprintf("Generate a minimalist, colorful, vector-art style illustration representing the concept: %q. Context: %s",
		termText, contextText)
}

func chatInstruction(record term.Record) string {
	return fmt.Sprintf(`You are a helpful language tutor.
Current context word: "%s" (%s).
Keep answers short, friendly, and related to the word.`, record.Term, record.Explanation)
}

func storyPrompt(terms []string, native catalog.Language) string {
	return fmt.Sprintf(`Write a short, funny, and coherent story (max 150 words) in %s that incorporates the following words/phrases: %s.
Bold the used words in the text using markdown (**word**).
Add a translation of the bolded words in parentheses if helpful.`,
		native.Name, strings.Join(terms, ", "))
}

// parseAnalysis decodes the model's JSON answer, tolerating text around the object
func parseAnalysis(text string) (term.Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return term.Analysis{}, remoteError("analyze", "no data received")
	}
	raw, err := extractJSON(text)
	if err != nil {
		return term.Analysis{}, remoteError("analyze", "%v", err)
	}

	var a term.Analysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return term.Analysis{}, remoteError("analyze", "failed to parse analysis: %v", err)
	}
	if err := a.Validate(); err != nil {
		return term.Analysis{}, remoteError("analyze", "%v", err)
	}
	return a, nil
}

// extractJSON returns the outermost JSON object in s
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}
