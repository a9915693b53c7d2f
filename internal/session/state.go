package session

import (
	"codeberg.org/snonux/lingopop/internal/study"
	"codeberg.org/snonux/lingopop/internal/term"
)

// Screen is one of the application's views
type Screen int

const (
	ScreenOnboarding Screen = iota
	ScreenSearch
	ScreenResult
	ScreenLibrary
	ScreenStudy
)

func (s Screen) String() string {
	switch s {
	case ScreenOnboarding:
		return "onboarding"
	case ScreenSearch:
		return "search"
	case ScreenResult:
		return "result"
	case ScreenLibrary:
		return "library"
	case ScreenStudy:
		return "study"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot of the session. Version increases with
// every published change so observers can drop stale snapshots.
type State struct {
	Version uint64
	Screen  Screen

	Settings   term.Settings
	Configured bool

	// Search
	Query   string
	Loading bool
	Error   string

	// Result
	Active      *term.Record
	ActiveSaved bool
	Chat        []term.ChatMessage
	ChatBusy    bool

	// Library
	Library    []term.Record
	Story      string
	StoryTerms []string
	StoryBusy  bool
	StoryError string

	// Study
	Card       *study.Card
	CardIndex  int
	CardCount  int
	CardFace   study.Face
	CardRecord *term.Record
}

// StoryUnlocked reports whether the library is large enough for a story
func (s State) StoryUnlocked() bool {
	return len(s.Library) >= StoryThreshold
}
