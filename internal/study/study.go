// Package study implements flashcard navigation over a snapshot of saved terms.
package study

import (
	"errors"

	"codeberg.org/snonux/lingopop/internal/term"
)

// ErrEmptyDeck is returned when a deck is built without cards
var ErrEmptyDeck = errors.New("no saved words to study")

// Face identifies which side of the current card is shown
type Face int

const (
	Front Face = iota
	Back
)

// Card is what the current face shows
type Card struct {
	Term     string
	ImageURL string

	Explanation string
	Example     *term.Example
}

// Deck cycles through records. The face resets to Front whenever the cursor moves.
type Deck struct {
	records []term.Record
	cursor  int
	face    Face
}

// NewDeck creates a deck over a copy of records
func NewDeck(records []term.Record) (*Deck, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDeck
	}
	cp := make([]term.Record, len(records))
	for i, r := range records {
		cp[i] = r.Clone()
	}
	return &Deck{records: cp}, nil
}

// Len returns the number of cards
func (d *Deck) Len() int {
	return len(d.records)
}

// Index returns the cursor position
func (d *Deck) Index() int {
	return d.cursor
}

// Face returns the visible side
func (d *Deck) Face() Face {
	return d.face
}

// Next advances the cursor, wrapping past the end
func (d *Deck) Next() {
	d.cursor = (d.cursor + 1) % len(d.records)
	d.face = Front
}

// Prev retreats the cursor, wrapping to the end from the start
func (d *Deck) Prev() {
	n := len(d.records)
	d.cursor = (d.cursor - 1 + n) % n
	d.face = Front
}

// Flip toggles the visible side without moving the cursor
func (d *Deck) Flip() {
	if d.face == Front {
		d.face = Back
	} else {
		d.face = Front
	}
}

// Current returns the record under the cursor
func (d *Deck) Current() term.Record {
	return d.records[d.cursor].Clone()
}

// Card returns the content of the visible side: term and image on the
// front, explanation and the first example on the back
func (d *Deck) Card() Card {
	r := d.records[d.cursor]
	if d.face == Front {
		return Card{Term: r.Term, ImageURL: r.ImageURL}
	}
	c := Card{Explanation: r.Explanation}
	if ex, ok := r.FirstExample(); ok {
		c.Example = &ex
	}
	return c
}
