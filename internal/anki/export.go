package anki

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/lingopop/internal"
	"codeberg.org/snonux/lingopop/internal/audio"
	"codeberg.org/snonux/lingopop/internal/image"
	"codeberg.org/snonux/lingopop/internal/term"
)

// DefaultDeckName is the deck name used when none is given
const DefaultDeckName = "LingoPop Vocabulary"

// SpeechSynthesizer produces pronunciation audio for a card
type SpeechSynthesizer interface {
	SynthesizeSpeech(ctx context.Context, text, voice string) (*audio.Buffer, error)
}

// ExportOptions configures a library export
type ExportOptions struct {
	OutputPath string
	DeckName   string
	CSV        bool // legacy CSV instead of .apkg

	// MediaDir receives media for CSV exports. It defaults to a directory
	// next to the CSV file. APKG exports package media themselves.
	MediaDir string

	// Voice is used for pronunciation audio when the exporter has a
	// synthesizer
	Voice string
}

// Stats summarizes an export
type Stats struct {
	Cards      int
	WithImages int
	WithAudio  int
}

// Exporter turns saved records into Anki files, downloading illustrations
// and optionally synthesizing pronunciation
type Exporter struct {
	fetcher *image.Fetcher
	speech  SpeechSynthesizer
	logger  *slog.Logger
}

// NewExporter creates an exporter. speech may be nil to export without
// audio.
func NewExporter(fetcher *image.Fetcher, speech SpeechSynthesizer, logger *slog.Logger) *Exporter {
	if fetcher == nil {
		fetcher = image.NewFetcher(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{fetcher: fetcher, speech: speech, logger: logger}
}

// Export writes records to opts.OutputPath. Media that cannot be fetched or
// synthesized is left out of the card.
func (e *Exporter) Export(ctx context.Context, records []term.Record, opts ExportOptions) (Stats, error) {
	if len(records) == 0 {
		return Stats{}, fmt.Errorf("no saved words to export")
	}
	if opts.OutputPath == "" {
		return Stats{}, fmt.Errorf("output path is required")
	}
	if opts.DeckName == "" {
		opts.DeckName = DefaultDeckName
	}

	mediaDir := opts.MediaDir
	if !opts.CSV {
		tmp, err := os.MkdirTemp("", "lingopop_media_*")
		if err != nil {
			return Stats{}, fmt.Errorf("failed to create media directory: %w", err)
		}
		defer os.RemoveAll(tmp)
		mediaDir = tmp
	} else if mediaDir == "" {
		mediaDir = strings.TrimSuffix(opts.OutputPath, filepath.Ext(opts.OutputPath)) + "_media"
	}

	gen := NewGenerator(&GeneratorOptions{OutputPath: opts.OutputPath, IncludeHeaders: true})
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return Stats{}, err
		}

		card := CardFromRecord(rec)
		baseName := mediaBaseName(rec)
		card.ImageFile = e.saveImage(ctx, rec, mediaDir, baseName)
		card.AudioFile = e.saveAudio(ctx, rec, mediaDir, baseName, opts.Voice)
		gen.AddCard(card)
	}

	var err error
	if opts.CSV {
		err = gen.GenerateCSV()
	} else {
		err = gen.GenerateAPKG(opts.OutputPath, opts.DeckName)
	}
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	stats.Cards, stats.WithAudio, stats.WithImages = gen.Stats()
	e.logger.Info("Library exported", "path", opts.OutputPath, "cards", stats.Cards, "images", stats.WithImages, "audio", stats.WithAudio)
	return stats, nil
}

func (e *Exporter) saveImage(ctx context.Context, rec term.Record, dir, baseName string) string {
	if !rec.HasImage() || image.IsPlaceholder(rec.ImageURL) {
		return ""
	}
	path, err := e.fetcher.Save(ctx, rec.ImageURL, dir, baseName)
	if err != nil {
		e.logger.Warn("Skipping image", "term", rec.Term, "error", err)
		return ""
	}
	return path
}

func (e *Exporter) saveAudio(ctx context.Context, rec term.Record, dir, baseName, voice string) string {
	if e.speech == nil {
		return ""
	}
	buf, err := e.speech.SynthesizeSpeech(ctx, rec.Term, voice)
	if err != nil {
		e.logger.Warn("Skipping audio", "term", rec.Term, "error", err)
		return ""
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		e.logger.Warn("Skipping audio", "term", rec.Term, "error", err)
		return ""
	}
	path := filepath.Join(dir, baseName+".wav")
	file, err := os.Create(path)
	if err != nil {
		e.logger.Warn("Skipping audio", "term", rec.Term, "error", err)
		return ""
	}
	defer file.Close()

	if err := buf.WriteWAV(file); err != nil {
		e.logger.Warn("Skipping audio", "term", rec.Term, "error", err)
		return ""
	}
	return path
}

// mediaBaseName names media after the term plus a short id so that equal
// terms never collide
func mediaBaseName(rec term.Record) string {
	id := rec.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return internal.SanitizeFilename(rec.Term) + "_" + id
}
