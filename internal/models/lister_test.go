package models

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/lingopop/internal/gateway"
)

type staticSource struct {
	ids []string
	err error
}

func (s staticSource) ListModels(ctx context.Context) ([]string, error) {
	return s.ids, s.err
}

func TestCategorize(t *testing.T) {
	ids := []string{
		"gpt-4o-mini",
		"gpt-4o-mini-tts",
		"dall-e-3",
		"text-embedding-3-small",
		"gemini-2.5-flash",
		"gemini-2.5-flash-image",
		"gemini-2.5-flash-preview-tts",
		"whisper-1",
		"omni-moderation-latest",
	}

	got := Categorize(ids)

	want := Catalog{
		Text:   []string{"gemini-2.5-flash", "gpt-4o-mini"},
		Image:  []string{"dall-e-3", "gemini-2.5-flash-image"},
		Speech: []string{"gemini-2.5-flash-preview-tts", "gpt-4o-mini-tts"},
	}
	assert.Equal(t, want, got)
}

func TestListAvailableModels(t *testing.T) {
	lister := NewLister("openai", staticSource{ids: []string{"gpt-4o-mini", "dall-e-3"}})

	var buf bytes.Buffer
	require.NoError(t, lister.ListAvailableModels(context.Background(), &buf))

	out := buf.String()
	for _, want := range []string{"Available openai models:", "  gpt-4o-mini", "  dall-e-3", "Text-to-speech models:\n  none found"} {
		assert.Contains(t, out, want)
	}
}

func TestListAvailableModelsTruncatesText(t *testing.T) {
	var ids []string
	for i := 0; i < 12; i++ {
		ids = append(ids, "gpt-"+string(rune('a'+i)))
	}
	lister := NewLister("openai", staticSource{ids: ids})

	var buf bytes.Buffer
	require.NoError(t, lister.ListAvailableModels(context.Background(), &buf))
	assert.Contains(t, buf.String(), "... and 2 more models")
}

func TestListAvailableModelsErrors(t *testing.T) {
	lister := NewLister("gemini", nil)
	assert.Error(t, lister.ListAvailableModels(context.Background(), &bytes.Buffer{}))

	lister = NewLister("gemini", staticSource{err: errors.New("denied")})
	err := lister.ListAvailableModels(context.Background(), &bytes.Buffer{})
	assert.ErrorContains(t, err, "failed to list models")
}

func TestListAvailableModels_Integration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}

	lister := NewLister("openai", gateway.NewOpenAI(gateway.OpenAIConfig{APIKey: apiKey}))

	var buf bytes.Buffer
	assert.NoError(t, lister.ListAvailableModels(context.Background(), &buf))
}
