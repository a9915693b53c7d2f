package anki

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/lingopop/internal/term"
)

// Card represents a single Anki flashcard
type Card struct {
	ID                 string // record id, used for the note guid
	Term               string // word or phrase in the target language
	Phonetic           string
	Meaning            string // explanation in the native language
	Example            string
	ExampleTranslation string
	Notes              string
	ImageFile          string // path to image file
	AudioFile          string // path to audio file
}

// CardFromRecord builds a card from a saved record. Media paths are left
// empty.
func CardFromRecord(rec term.Record) Card {
	card := Card{
		ID:       rec.ID,
		Term:     rec.Term,
		Phonetic: rec.Phonetic,
		Meaning:  rec.Explanation,
	}
	if ex, ok := rec.FirstExample(); ok {
		card.Example = ex.Original
		card.ExampleTranslation = ex.Translation
	}

	var notes []string
	if rec.FunUsage != "" {
		notes = append(notes, rec.FunUsage)
	}
	if rec.RelatedWords != "" {
		notes = append(notes, "Related: "+rec.RelatedWords)
	}
	card.Notes = strings.Join(notes, "<br>")
	return card
}

// GeneratorOptions configures the CSV export
type GeneratorOptions struct {
	OutputPath     string // Output CSV file path
	IncludeHeaders bool   // Include CSV headers
}

// DefaultGeneratorOptions returns sensible defaults
func DefaultGeneratorOptions() *GeneratorOptions {
	return &GeneratorOptions{
		OutputPath:     "anki_import.csv",
		IncludeHeaders: true,
	}
}

// Generator creates Anki-compatible import files
type Generator struct {
	options *GeneratorOptions
	cards   []Card
}

// NewGenerator creates a new Anki generator
func NewGenerator(options *GeneratorOptions) *Generator {
	if options == nil {
		options = DefaultGeneratorOptions()
	}
	return &Generator{
		options: options,
		cards:   make([]Card, 0),
	}
}

// AddCard adds a card to the collection
func (g *Generator) AddCard(card Card) {
	g.cards = append(g.cards, card)
}

// GetCards returns a slice of all cards for modification
func (g *Generator) GetCards() []Card {
	return g.cards
}

// GenerateCSV creates a CSV file for Anki import
func (g *Generator) GenerateCSV() error {
	file, err := os.Create(g.options.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if g.options.IncludeHeaders {
		headers := []string{"Term", "Phonetic", "Meaning", "Example", "Translation", "Image", "Audio", "Notes"}
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for _, card := range g.cards {
		record := []string{
			card.Term,
			card.Phonetic,
			card.Meaning,
			card.Example,
			card.ExampleTranslation,
			formatImageField(card.ImageFile),
			formatAudioField(card.AudioFile),
			card.Notes,
		}

		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write card: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	return nil
}

// GenerateAPKG creates a proper .apkg file for Anki import
func (g *Generator) GenerateAPKG(outputPath, deckName string) error {
	apkgGen := NewAPKGGenerator(deckName)
	for _, card := range g.cards {
		apkgGen.AddCard(card)
	}
	return apkgGen.GenerateAPKG(outputPath)
}

// Stats returns statistics about the card collection
func (g *Generator) Stats() (totalCards, withAudio, withImages int) {
	totalCards = len(g.cards)

	for _, card := range g.cards {
		if card.AudioFile != "" {
			withAudio++
		}
		if card.ImageFile != "" {
			withImages++
		}
	}

	return
}

// formatAudioField formats the audio file reference for Anki
func formatAudioField(audioFile string) string {
	if audioFile == "" {
		return ""
	}
	return fmt.Sprintf("[sound:%s]", filepath.Base(audioFile))
}

// formatImageField formats image file reference for Anki
func formatImageField(imageFile string) string {
	if imageFile == "" {
		return ""
	}
	return fmt.Sprintf(`<img src="%s">`, filepath.Base(imageFile))
}
