package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Source lists model identifiers for a provider
type Source interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Catalog holds model identifiers grouped by what they generate
type Catalog struct {
	Text   []string
	Image  []string
	Speech []string
}

// Lister handles listing available models
type Lister struct {
	provider string
	source   Source
}

// NewLister creates a new model lister for provider
func NewLister(provider string, source Source) *Lister {
	return &Lister{provider: provider, source: source}
}

// Fetch retrieves and categorizes the provider's models
func (l *Lister) Fetch(ctx context.Context) (Catalog, error) {
	if l.source == nil {
		return Catalog{}, fmt.Errorf("no %s client configured", l.provider)
	}

	ids, err := l.source.ListModels(ctx)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to list models: %w", err)
	}
	return Categorize(ids), nil
}

// ListAvailableModels writes the provider's models to w, grouped by type
func (l *Lister) ListAvailableModels(ctx context.Context, w io.Writer) error {
	catalog, err := l.Fetch(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Available %s models:\n", l.provider)
	printGroup(w, "Text models (analysis, chat, stories)", catalog.Text, 10)
	printGroup(w, "Image generation models", catalog.Image, 0)
	printGroup(w, "Text-to-speech models", catalog.Speech, 0)
	return nil
}

// Categorize sorts model identifiers into text, image and speech models.
// Embedding and moderation models are left out.
func Categorize(ids []string) Catalog {
	var c Catalog
	for _, id := range ids {
		lower := strings.ToLower(id)
		switch {
		case strings.Contains(lower, "embed"), strings.Contains(lower, "moderation"),
			strings.Contains(lower, "whisper"), strings.Contains(lower, "transcribe"):
			continue
		case strings.Contains(lower, "tts"), strings.Contains(lower, "audio"):
			c.Speech = append(c.Speech, id)
		case strings.Contains(lower, "dall-e"), strings.Contains(lower, "image"), strings.Contains(lower, "imagen"):
			c.Image = append(c.Image, id)
		case strings.Contains(lower, "gpt"), strings.Contains(lower, "gemini"), strings.Contains(lower, "chat"):
			c.Text = append(c.Text, id)
		}
	}

	sort.Strings(c.Text)
	sort.Strings(c.Image)
	sort.Strings(c.Speech)
	return c
}

// printGroup prints up to limit ids, all of them when limit is 0
func printGroup(w io.Writer, title string, ids []string, limit int) {
	fmt.Fprintf(w, "\n%s:\n", title)
	if len(ids) == 0 {
		fmt.Fprintln(w, "  none found")
		return
	}

	shown := ids
	if limit > 0 && len(ids) > limit {
		shown = ids[:limit]
	}
	for _, id := range shown {
		fmt.Fprintf(w, "  %s\n", id)
	}
	if len(shown) < len(ids) {
		fmt.Fprintf(w, "  ... and %d more models\n", len(ids)-len(shown))
	}
}
