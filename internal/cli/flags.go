package cli

import "codeberg.org/snonux/lingopop/internal/anki"

// Flags holds all command-line flag values
type Flags struct {
	// Global flags
	CfgFile     string
	Provider    string
	LibraryPath string
	LogLevel    string
	LogFormat   string
	Native      string
	Target      string

	// lookup
	Save      bool
	WithImage bool

	// library export
	OutputPath string
	DeckName   string
	AnkiCSV    bool
	WithAudio  bool

	// import
	Images  bool
	Workers int
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Provider:  "gemini",
		LogLevel:  "info",
		LogFormat: "text",
		Native:    "en",
		Target:    "zh",
		DeckName:  anki.DefaultDeckName,
		Workers:   2,
	}
}
