package anki

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/lingopop/internal/term"
)

func sampleRecord() term.Record {
	return term.Record{
		ID:          "0d6f6f4e-1111-2222-3333-444455556666",
		Term:        "gato",
		Phonetic:    "/ˈɡa.to/",
		Explanation: "A cat.",
		Examples: []term.Example{
			{Original: "El gato duerme.", Translation: "The cat sleeps."},
			{Original: "Mi gato es negro.", Translation: "My cat is black."},
		},
		FunUsage:     "Used for sneaky people too.",
		RelatedWords: "gatito, felino",
	}
}

func TestCardFromRecord(t *testing.T) {
	card := CardFromRecord(sampleRecord())

	assert.Equal(t, "gato", card.Term)
	assert.Equal(t, "A cat.", card.Meaning)
	assert.Equal(t, "/ˈɡa.to/", card.Phonetic)
	assert.Equal(t, "El gato duerme.", card.Example, "first example is used")
	assert.Equal(t, "The cat sleeps.", card.ExampleTranslation)
	assert.Equal(t, "Used for sneaky people too.<br>Related: gatito, felino", card.Notes)
	assert.Equal(t, "0d6f6f4e-1111-2222-3333-444455556666", card.ID)
}

func TestCardFromRecordWithoutExtras(t *testing.T) {
	card := CardFromRecord(term.Record{ID: "x", Term: "hola", Explanation: "Hello."})

	assert.Empty(t, card.Example)
	assert.Empty(t, card.ExampleTranslation)
	assert.Empty(t, card.Notes)
}

func TestNewGenerator(t *testing.T) {
	gen := NewGenerator(nil)
	require.NotNil(t, gen.options)
	assert.Equal(t, "anki_import.csv", gen.options.OutputPath)
	assert.True(t, gen.options.IncludeHeaders)
}

func TestGetCards(t *testing.T) {
	gen := NewGenerator(nil)
	gen.AddCard(Card{Term: "gato"})
	gen.AddCard(Card{Term: "perro"})

	cards := gen.GetCards()
	require.Len(t, cards, 2)

	cards[0].Meaning = "cat"
	assert.Equal(t, "cat", gen.cards[0].Meaning, "GetCards should return the actual slice, not a copy")
}

func TestFormatFields(t *testing.T) {
	tests := []struct {
		name   string
		format func(string) string
		input  string
		want   string
	}{
		{"empty audio", formatAudioField, "", ""},
		{"audio", formatAudioField, "/media/gato_0d6f6f4e.wav", "[sound:gato_0d6f6f4e.wav]"},
		{"empty image", formatImageField, "", ""},
		{"image", formatImageField, "/media/gato_0d6f6f4e.png", `<img src="gato_0d6f6f4e.png">`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.format(tt.input))
		})
	}
}

func TestGenerateCSV(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "test.csv")

	gen := NewGenerator(&GeneratorOptions{OutputPath: outputPath, IncludeHeaders: true})
	card := CardFromRecord(sampleRecord())
	card.ImageFile = "/media/gato.png"
	gen.AddCard(card)
	gen.AddCard(Card{Term: "perro", Meaning: "A dog, \"loyal\""})

	require.NoError(t, gen.GenerateCSV())

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "Term", rows[0][0])
	assert.Len(t, rows[0], 8)
	assert.Equal(t, "gato", rows[1][0])
	assert.Equal(t, `<img src="gato.png">`, rows[1][5])
	assert.Equal(t, "A dog, \"loyal\"", rows[2][2], "meaning must survive CSV quoting")
}

func TestGenerateCSVWithoutHeaders(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "test.csv")

	gen := NewGenerator(&GeneratorOptions{OutputPath: outputPath})
	gen.AddCard(Card{Term: "gato"})

	require.NoError(t, gen.GenerateCSV())

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "gato,,,,,,,\n", string(data))
}

func TestGenerateCSVBadPath(t *testing.T) {
	gen := NewGenerator(&GeneratorOptions{OutputPath: "/nonexistent/dir/out.csv"})
	assert.Error(t, gen.GenerateCSV())
}

func TestStats(t *testing.T) {
	gen := NewGenerator(nil)
	gen.AddCard(Card{Term: "a", AudioFile: "a.wav", ImageFile: "a.png"})
	gen.AddCard(Card{Term: "b", ImageFile: "b.png"})
	gen.AddCard(Card{Term: "c"})

	total, withAudio, withImages := gen.Stats()
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, withAudio)
	assert.Equal(t, 2, withImages)
}
