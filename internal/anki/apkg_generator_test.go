package anki

import (
	"archive/zip"
	"database/sql"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAPKGGenerator(t *testing.T) {
	gen := NewAPKGGenerator("Test Deck")

	assert.Equal(t, "Test Deck", gen.deckName)
	assert.Empty(t, gen.cards)
	assert.Empty(t, gen.mediaFiles)
	assert.NotEqual(t, gen.modelID, gen.deckID, "model and deck ids must differ")
}

func TestNoteTypeFields(t *testing.T) {
	gen := NewAPKGGenerator("Test Deck")
	nt := gen.noteType(0)

	require.Len(t, nt.Flds, len(noteFields))
	for i, f := range nt.Flds {
		assert.Equal(t, i, f.Ord)
		assert.Equal(t, noteFields[i], f.Name)
	}
	require.Len(t, nt.Tmpls, 2)

	data, err := json.Marshal(nt)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"did":null`, "templates should not pin a deck")
}

func readZip(t *testing.T, path string) map[string][]byte {
	t.Helper()

	reader, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer reader.Close()

	files := make(map[string][]byte)
	for _, f := range reader.File {
		rc, err := f.Open()
		require.NoError(t, err, "open %s", f.Name)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err, "read %s", f.Name)
		files[f.Name] = data
	}
	return files
}

func TestGenerateAPKG(t *testing.T) {
	tempDir := t.TempDir()
	imageFile := filepath.Join(tempDir, "gato_0d6f6f4e.png")
	audioFile := filepath.Join(tempDir, "gato_0d6f6f4e.wav")
	require.NoError(t, os.WriteFile(imageFile, []byte("image data"), 0644))
	require.NoError(t, os.WriteFile(audioFile, []byte("audio data"), 0644))

	gen := NewAPKGGenerator("Spanish")
	card := CardFromRecord(sampleRecord())
	card.ImageFile = imageFile
	card.AudioFile = audioFile
	gen.AddCard(card)
	gen.AddCard(Card{Term: "perro", Meaning: "A dog.", ImageFile: filepath.Join(tempDir, "missing.png")})

	outputPath := filepath.Join(tempDir, "deck.apkg")
	require.NoError(t, gen.GenerateAPKG(outputPath))

	files := readZip(t, outputPath)
	for _, name := range []string{"collection.anki2", "media", "0", "1"} {
		assert.Contains(t, files, name)
	}
	assert.NotContains(t, files, "2", "missing media must not be packaged")

	var mapping map[string]string
	require.NoError(t, json.Unmarshal(files["media"], &mapping))
	assert.Equal(t, map[string]string{"0": "gato_0d6f6f4e.png", "1": "gato_0d6f6f4e.wav"}, mapping)

	dbPath := filepath.Join(tempDir, "collection.anki2")
	require.NoError(t, os.WriteFile(dbPath, files["collection.anki2"], 0644))
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var notes, cards int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&notes))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM cards").Scan(&cards))
	assert.Equal(t, 2, notes)
	assert.Equal(t, 4, cards)

	var guid, flds string
	require.NoError(t, db.QueryRow("SELECT guid, flds FROM notes WHERE sfld = 'gato'").Scan(&guid, &flds))
	assert.Equal(t, "0d6f6f4e-1111-2222-3333-444455556666", guid)
	fields := strings.Split(flds, fieldSeparator)
	require.Len(t, fields, len(noteFields))
	assert.Equal(t, `<img src="gato_0d6f6f4e.png">`, fields[3])
	assert.Equal(t, "[sound:gato_0d6f6f4e.wav]", fields[6])

	var perroFields string
	require.NoError(t, db.QueryRow("SELECT flds FROM notes WHERE sfld = 'perro'").Scan(&perroFields))
	assert.NotContains(t, perroFields, "<img", "missing image must leave the field empty")

	var decks string
	require.NoError(t, db.QueryRow("SELECT decks FROM col").Scan(&decks))
	assert.Contains(t, decks, `"name":"Spanish"`)
}

func TestGenerateAPKGBadPath(t *testing.T) {
	gen := NewAPKGGenerator("Test")
	gen.AddCard(Card{Term: "gato"})
	assert.Error(t, gen.GenerateAPKG("/nonexistent/dir/deck.apkg"))
}
