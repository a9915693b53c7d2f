package library

import (
	"encoding/json"
	"fmt"

	"codeberg.org/snonux/lingopop/internal/term"
)

// StorageKey is the key the serialized library is stored under
const StorageKey = "lingopop_notebook"

// Library is an ordered set of term records, most recently saved first
type Library struct {
	records []term.Record
}

// New creates a library from records, dropping later duplicates of an id
func New(records ...term.Record) Library {
	seen := make(map[string]bool, len(records))
	out := make([]term.Record, 0, len(records))
	for _, r := range records {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r.Clone())
	}
	return Library{records: out}
}

// Len returns the number of saved records
func (l Library) Len() int {
	return len(l.records)
}

// Records returns a copy of the saved records in library order
func (l Library) Records() []term.Record {
	out := make([]term.Record, len(l.records))
	for i, r := range l.records {
		out[i] = r.Clone()
	}
	return out
}

// Terms returns the term text of every record in library order
func (l Library) Terms() []string {
	out := make([]string, len(l.records))
	for i, r := range l.records {
		out[i] = r.Term
	}
	return out
}

// Contains reports whether a record with id is saved
func (l Library) Contains(id string) bool {
	return l.index(id) >= 0
}

// Get returns the saved record with id
func (l Library) Get(id string) (term.Record, bool) {
	i := l.index(id)
	if i < 0 {
		return term.Record{}, false
	}
	return l.records[i].Clone(), true
}

// Toggle removes the record if its id is saved, otherwise inserts it at the
// front. The returned bool is true when the record is saved afterwards.
func (l Library) Toggle(r term.Record) (Library, bool) {
	if next, removed := l.Remove(r.ID); removed {
		return next, false
	}
	out := make([]term.Record, 0, len(l.records)+1)
	out = append(out, r.Clone())
	out = append(out, l.records...)
	return Library{records: out}, true
}

// Remove drops the record with id; the bool reports whether it was present
func (l Library) Remove(id string) (Library, bool) {
	i := l.index(id)
	if i < 0 {
		return l, false
	}
	out := make([]term.Record, 0, len(l.records)-1)
	out = append(out, l.records[:i]...)
	out = append(out, l.records[i+1:]...)
	return Library{records: out}, true
}

// PatchImage sets the image of the record with id, keeping its position
func (l Library) PatchImage(id, imageURL string) (Library, bool) {
	i := l.index(id)
	if i < 0 {
		return l, false
	}
	out := make([]term.Record, len(l.records))
	copy(out, l.records)
	out[i].ImageURL = imageURL
	return Library{records: out}, true
}

func (l Library) index(id string) int {
	for i, r := range l.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Marshal serializes the library to its persisted JSON form
func (l Library) Marshal() ([]byte, error) {
	records := l.records
	if records == nil {
		records = []term.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode library: %w", err)
	}
	return data, nil
}

// Unmarshal parses the persisted JSON form of a library
func Unmarshal(data []byte) (Library, error) {
	if len(data) == 0 {
		return Library{}, nil
	}
	var records []term.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return Library{}, fmt.Errorf("failed to decode library: %w", err)
	}
	return New(records...), nil
}
