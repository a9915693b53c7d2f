package term

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"codeberg.org/snonux/lingopop/internal/catalog"
)

// ErrSameLanguage is returned when native and target language are equal
var ErrSameLanguage = errors.New("please select different languages")

// Example is one example sentence with its translation
type Example struct {
	Original    string `json:"original"`
	Translation string `json:"translation"`
}

// Analysis is the structured explanation of a term as returned by the
// gateway, before it becomes a Record.
type Analysis struct {
	Explanation  string    `json:"explanation"`
	Phonetic     string    `json:"phonetic,omitempty"`
	Examples     []Example `json:"examples"`
	FunUsage     string    `json:"funUsage"`
	RelatedWords string    `json:"relatedWords"`
}

// Validate checks the fields a visible record cannot do without
func (a Analysis) Validate() error {
	if strings.TrimSpace(a.Explanation) == "" {
		return errors.New("analysis has no explanation")
	}
	return nil
}

// Record is the saved and searchable unit of study
type Record struct {
	ID           string
	Term         string
	Phonetic     string
	Explanation  string
	Examples     []Example
	FunUsage     string
	RelatedWords string
	ImageURL     string
	CreatedAt    time.Time
}

// NewRecord builds a record from an analysis with a fresh id and the
// current time. The image is filled in later.
func NewRecord(termText string, a Analysis) Record {
	return Record{
		ID:           uuid.NewString(),
		Term:         strings.TrimSpace(termText),
		Phonetic:     a.Phonetic,
		Explanation:  a.Explanation,
		Examples:     append([]Example(nil), a.Examples...),
		FunUsage:     a.FunUsage,
		RelatedWords: a.RelatedWords,
		CreatedAt:    time.Now(),
	}
}

// HasImage reports whether the image backfill has happened
func (r Record) HasImage() bool {
	return r.ImageURL != ""
}

// FirstExample returns the first example sentence, if any
func (r Record) FirstExample() (Example, bool) {
	if len(r.Examples) == 0 {
		return Example{}, false
	}
	return r.Examples[0], true
}

// Clone returns a deep copy so snapshots never share the examples slice
func (r Record) Clone() Record {
	r.Examples = append([]Example(nil), r.Examples...)
	return r
}

// recordJSON is the persisted layout; timestamp is Unix milliseconds.
type recordJSON struct {
	ID           string    `json:"id"`
	Term         string    `json:"term"`
	Phonetic     string    `json:"phonetic,omitempty"`
	Explanation  string    `json:"explanation"`
	Examples     []Example `json:"examples"`
	FunUsage     string    `json:"funUsage"`
	RelatedWords string    `json:"relatedWords"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	Timestamp    int64     `json:"timestamp"`
}

// MarshalJSON implements json.Marshaler
func (r Record) MarshalJSON() ([]byte, error) {
	examples := r.Examples
	if examples == nil {
		examples = []Example{}
	}
	return json.Marshal(recordJSON{
		ID:           r.ID,
		Term:         r.Term,
		Phonetic:     r.Phonetic,
		Explanation:  r.Explanation,
		Examples:     examples,
		FunUsage:     r.FunUsage,
		RelatedWords: r.RelatedWords,
		ImageURL:     r.ImageURL,
		Timestamp:    r.CreatedAt.UnixMilli(),
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record{
		ID:           raw.ID,
		Term:         raw.Term,
		Phonetic:     raw.Phonetic,
		Explanation:  raw.Explanation,
		Examples:     raw.Examples,
		FunUsage:     raw.FunUsage,
		RelatedWords: raw.RelatedWords,
		ImageURL:     raw.ImageURL,
		CreatedAt:    time.UnixMilli(raw.Timestamp),
	}
	return nil
}

// Role identifies the author of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry of a result view's chat transcript
type ChatMessage struct {
	Role Role
	Text string
}

// Settings are the languages chosen during onboarding
type Settings struct {
	Native catalog.Language
	Target catalog.Language
}

// Validate enforces that the two languages differ
func (s Settings) Validate() error {
	if s.Native.Code == "" || s.Target.Code == "" {
		return errors.New("both languages must be selected")
	}
	if s.Native.Code == s.Target.Code {
		return ErrSameLanguage
	}
	return nil
}
