package session

import (
	"errors"
	"fmt"

	"codeberg.org/snonux/lingopop/internal/term"
)

var (
	// ErrSameLanguage rejects onboarding with identical languages
	ErrSameLanguage = term.ErrSameLanguage
	// ErrInvalidTransition is returned for an action the current screen does not offer
	ErrInvalidTransition = errors.New("action not available on this screen")
	// ErrEmptyQuery is returned for a blank search
	ErrEmptyQuery = errors.New("empty query")
	// ErrNotConfigured is returned when no languages have been confirmed yet
	ErrNotConfigured = errors.New("languages not configured")
	// ErrSearchInFlight is returned while another search is loading
	ErrSearchInFlight = errors.New("a search is already in progress")
	// ErrEmptyLibrary rejects study mode without saved words
	ErrEmptyLibrary = errors.New("no saved words to study")
	// ErrUnknownRecord is returned for an id that is not in the library
	ErrUnknownRecord = errors.New("word not found in library")
	// ErrChatBusy is returned while a chat reply is pending
	ErrChatBusy = errors.New("waiting for the previous reply")
	// ErrStoryBusy is returned while a story is being written
	ErrStoryBusy = errors.New("a story is already being written")
)

// StoryThreshold is the minimum library size for story generation
const StoryThreshold = 3

// StoryThresholdError reports how many more words a story needs
type StoryThresholdError struct {
	Missing int
}

func (e *StoryThresholdError) Error() string {
	return fmt.Sprintf("Add %d more words to unlock stories.", e.Missing)
}

// CheckStoryThreshold returns a *StoryThresholdError when n words are not
// enough for a story
func CheckStoryThreshold(n int) error {
	if n < StoryThreshold {
		return &StoryThresholdError{Missing: StoryThreshold - n}
	}
	return nil
}

const (
	storyFailedMessage = "Failed to weave a story."
	chatFallbackReply  = "Oops, I got distracted. Say that again?"
)
