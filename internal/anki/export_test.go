package anki

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/lingopop/internal/audio"
	"codeberg.org/snonux/lingopop/internal/image"
	"codeberg.org/snonux/lingopop/internal/term"
)

type fakeSpeech struct {
	err   error
	calls []string
}

func (f *fakeSpeech) SynthesizeSpeech(ctx context.Context, text, voice string) (*audio.Buffer, error) {
	f.calls = append(f.calls, text+"/"+voice)
	if f.err != nil {
		return nil, f.err
	}
	return &audio.Buffer{SampleRate: audio.SampleRate, Channels: audio.Channels, Samples: []float32{0, 0.5}}, nil
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	rec := sampleRecord()
	rec.ImageURL = image.DataURI("image/png", []byte("png bytes"))
	placeholder := term.Record{ID: "22222222-aaaa", Term: "perro", Explanation: "A dog.", ImageURL: image.PlaceholderURL}

	speech := &fakeSpeech{}
	exporter := NewExporter(nil, speech, nil)

	stats, err := exporter.Export(context.Background(), []term.Record{rec, placeholder}, ExportOptions{
		OutputPath: filepath.Join(dir, "words.csv"),
		CSV:        true,
		Voice:      "Charon",
	})
	require.NoError(t, err)

	assert.Equal(t, Stats{Cards: 2, WithImages: 1, WithAudio: 2}, stats)
	require.Len(t, speech.calls, 2)
	assert.Equal(t, "gato/Charon", speech.calls[0])

	data, err := os.ReadFile(filepath.Join(dir, "words_media", "gato_0d6f6f4e.png"))
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))

	wav, err := os.ReadFile(filepath.Join(dir, "words_media", "gato_0d6f6f4e.wav"))
	require.NoError(t, err)
	assert.True(t, len(wav) >= 4 && string(wav[:4]) == "RIFF", "audio is not a WAV file")

	csvData, err := os.ReadFile(filepath.Join(dir, "words.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(csvData), "[sound:gato_0d6f6f4e.wav]")
}

func TestExportAPKGWithoutMedia(t *testing.T) {
	dir := t.TempDir()
	speech := &fakeSpeech{err: errors.New("tts down")}
	exporter := NewExporter(nil, speech, nil)

	rec := sampleRecord()
	rec.ImageURL = "data:image/png;base64,!!!"

	outputPath := filepath.Join(dir, "deck.apkg")
	stats, err := exporter.Export(context.Background(), []term.Record{rec}, ExportOptions{OutputPath: outputPath})
	require.NoError(t, err)
	assert.Equal(t, Stats{Cards: 1}, stats)

	files := readZip(t, outputPath)
	assert.Contains(t, files, "collection.anki2")
}

func TestExportErrors(t *testing.T) {
	exporter := NewExporter(nil, nil, nil)

	_, err := exporter.Export(context.Background(), nil, ExportOptions{OutputPath: "x.apkg"})
	assert.Error(t, err, "empty library")

	_, err = exporter.Export(context.Background(), []term.Record{sampleRecord()}, ExportOptions{})
	assert.Error(t, err, "missing output path")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = exporter.Export(ctx, []term.Record{sampleRecord()}, ExportOptions{OutputPath: filepath.Join(t.TempDir(), "x.apkg")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMediaBaseName(t *testing.T) {
	assert.Equal(t, "Where_is_the_subway__abcdef12", mediaBaseName(term.Record{ID: "abcdef1234", Term: "Where is the subway?"}))
}
