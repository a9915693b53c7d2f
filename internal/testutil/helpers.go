package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/lingopop/internal/term"
)

// SampleAnalysis returns a complete analysis for termText
func SampleAnalysis(termText string) term.Analysis {
	return term.Analysis{
		Explanation: "A friendly way to use " + termText + ".",
		Phonetic:    "/" + strings.ToLower(termText) + "/",
		Examples: []term.Example{
			{Original: termText + ", amigo!", Translation: termText + ", friend!"},
			{Original: "Digo " + termText + ".", Translation: "I say " + termText + "."},
		},
		FunUsage:     "Say " + termText + " with a smile.",
		RelatedWords: termText + "s, re" + termText,
	}
}

// SampleRecord returns a saved-style record for termText
func SampleRecord(t *testing.T, termText string) term.Record {
	t.Helper()

	rec := term.NewRecord(termText, SampleAnalysis(termText))
	rec.CreatedAt = time.UnixMilli(1700000000000)
	return rec
}

// CreateTestFile creates a test file with content and returns its path
func CreateTestFile(t *testing.T, path string, content []byte) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

// AssertFileContains checks if a file contains a substring
func AssertFileContains(t *testing.T, path string, substring string) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), substring, "file %s", path)
}
