package anki

import (
	"archive/zip"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// fieldSeparator joins note fields in the notes table
const fieldSeparator = "\x1f"

// noteFields are the fields of the LingoPop note type, in order
var noteFields = []string{"Term", "Phonetic", "Meaning", "Image", "Example", "Translation", "Audio", "Notes"}

// schema creates the tables of an Anki collection (schema version 11)
var schema = []string{
	`CREATE TABLE col (
		id integer PRIMARY KEY, crt integer NOT NULL, mod integer NOT NULL,
		scm integer NOT NULL, ver integer NOT NULL, dty integer NOT NULL,
		usn integer NOT NULL, ls integer NOT NULL, conf text NOT NULL,
		models text NOT NULL, decks text NOT NULL, dconf text NOT NULL,
		tags text NOT NULL
	)`,
	`CREATE TABLE notes (
		id integer PRIMARY KEY, guid text NOT NULL, mid integer NOT NULL,
		mod integer NOT NULL, usn integer NOT NULL, tags text NOT NULL,
		flds text NOT NULL, sfld text NOT NULL, csum integer NOT NULL,
		flags integer NOT NULL, data text NOT NULL
	)`,
	`CREATE TABLE cards (
		id integer PRIMARY KEY, nid integer NOT NULL, did integer NOT NULL,
		ord integer NOT NULL, mod integer NOT NULL, usn integer NOT NULL,
		type integer NOT NULL, queue integer NOT NULL, due integer NOT NULL,
		ivl integer NOT NULL, factor integer NOT NULL, reps integer NOT NULL,
		lapses integer NOT NULL, left integer NOT NULL, odue integer NOT NULL,
		odid integer NOT NULL, flags integer NOT NULL, data text NOT NULL
	)`,
	`CREATE TABLE revlog (
		id integer PRIMARY KEY, cid integer NOT NULL, usn integer NOT NULL,
		ease integer NOT NULL, ivl integer NOT NULL, lastIvl integer NOT NULL,
		factor integer NOT NULL, time integer NOT NULL, type integer NOT NULL
	)`,
	`CREATE TABLE graves (usn integer NOT NULL, oid integer NOT NULL, type integer NOT NULL)`,
	`CREATE INDEX ix_notes_csum ON notes (csum)`,
	`CREATE INDEX ix_notes_usn ON notes (usn)`,
	`CREATE INDEX ix_cards_usn ON cards (usn)`,
	`CREATE INDEX ix_cards_nid ON cards (nid)`,
	`CREATE INDEX ix_cards_sched ON cards (did, queue, due)`,
	`CREATE INDEX ix_revlog_usn ON revlog (usn)`,
	`CREATE INDEX ix_revlog_cid ON revlog (cid)`,
}

type deckConfig struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Mod              int64  `json:"mod"`
	Desc             string `json:"desc"`
	Collapsed        bool   `json:"collapsed"`
	Dyn              int    `json:"dyn"`
	Conf             int    `json:"conf"`
	USN              int    `json:"usn"`
	NewToday         []int  `json:"newToday"`
	RevToday         []int  `json:"revToday"`
	LrnToday         []int  `json:"lrnToday"`
	TimeToday        []int  `json:"timeToday"`
	BrowserCollapsed bool   `json:"browserCollapsed"`
	ExtendNew        int    `json:"extendNew"`
	ExtendRev        int    `json:"extendRev"`
}

type fieldConfig struct {
	Name   string   `json:"name"`
	Ord    int      `json:"ord"`
	Sticky bool     `json:"sticky"`
	RTL    bool     `json:"rtl"`
	Font   string   `json:"font"`
	Size   int      `json:"size"`
	Media  []string `json:"media"`
}

type templateConfig struct {
	Name  string `json:"name"`
	Ord   int    `json:"ord"`
	QFmt  string `json:"qfmt"`
	AFmt  string `json:"afmt"`
	Did   *int64 `json:"did"`
	BQFmt string `json:"bqfmt"`
	BAFmt string `json:"bafmt"`
}

type noteTypeConfig struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	Type      int              `json:"type"`
	Mod       int64            `json:"mod"`
	USN       int              `json:"usn"`
	SortF     int              `json:"sortf"`
	Did       int64            `json:"did"`
	Req       [][]any          `json:"req"`
	Vers      []int            `json:"vers"`
	Tags      []string         `json:"tags"`
	LatexPre  string           `json:"latexPre"`
	LatexPost string           `json:"latexPost"`
	Flds      []fieldConfig    `json:"flds"`
	Tmpls     []templateConfig `json:"tmpls"`
	CSS       string           `json:"css"`
}

// APKGGenerator creates Anki package files (.apkg)
type APKGGenerator struct {
	deckName     string
	deckID       int64
	modelID      int64
	cards        []Card
	mediaFiles   map[string]int // maps media filename to media number
	mediaCounter int
}

// NewAPKGGenerator creates a new APKG generator
func NewAPKGGenerator(deckName string) *APKGGenerator {
	now := time.Now().UnixMilli()
	return &APKGGenerator{
		deckName:   deckName,
		deckID:     now,
		modelID:    now + 1,
		cards:      make([]Card, 0),
		mediaFiles: make(map[string]int),
	}
}

// AddCard adds a card to the generator
func (g *APKGGenerator) AddCard(card Card) {
	g.cards = append(g.cards, card)
}

// GenerateAPKG creates an .apkg file
func (g *APKGGenerator) GenerateAPKG(outputPath string) error {
	tempDir, err := os.MkdirTemp("", "lingopop_anki_*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	// Media numbering must exist before notes reference it
	if err := g.copyMediaFiles(tempDir); err != nil {
		return fmt.Errorf("failed to copy media files: %w", err)
	}

	if err := g.createMediaMapping(tempDir); err != nil {
		return fmt.Errorf("failed to create media mapping: %w", err)
	}

	if err := g.createDatabase(filepath.Join(tempDir, "collection.anki2")); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	if err := createZipPackage(tempDir, outputPath); err != nil {
		return fmt.Errorf("failed to create zip package: %w", err)
	}

	return nil
}

func (g *APKGGenerator) createDatabase(dbPath string) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, query := range schema {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	if err := g.insertCollection(db); err != nil {
		return fmt.Errorf("failed to insert collection: %w", err)
	}

	if err := g.insertNotesAndCards(db); err != nil {
		return fmt.Errorf("failed to insert notes and cards: %w", err)
	}

	return nil
}

func newDeckConfig(id int64, name, desc string, mod int64) deckConfig {
	return deckConfig{
		ID:        id,
		Name:      name,
		Mod:       mod,
		Desc:      desc,
		Conf:      1,
		NewToday:  []int{0, 0},
		RevToday:  []int{0, 0},
		LrnToday:  []int{0, 0},
		TimeToday: []int{0, 0},
		ExtendNew: 10,
		ExtendRev: 50,
	}
}

func (g *APKGGenerator) insertCollection(db *sql.DB) error {
	now := time.Now().Unix()

	decks := map[string]deckConfig{
		"1":                             newDeckConfig(1, "Default", "", now),
		strconv.FormatInt(g.deckID, 10): newDeckConfig(g.deckID, g.deckName, "Vocabulary saved with LingoPop", now),
	}
	models := map[string]noteTypeConfig{
		strconv.FormatInt(g.modelID, 10): g.noteType(now),
	}
	conf := map[string]any{
		"nextPos":       1,
		"estTimes":      true,
		"activeDecks":   []int64{1},
		"sortType":      "noteFld",
		"sortBackwards": false,
		"addToCur":      true,
		"curDeck":       1,
		"newSpread":     0,
		"dueCounts":     true,
		"collapseTime":  1200,
		"timeLim":       0,
		"schedVer":      1,
		"curModel":      strconv.FormatInt(g.modelID, 10),
		"dayLearnFirst": false,
	}
	dconf := map[string]any{
		"1": map[string]any{
			"id":   1,
			"name": "Default",
			"dyn":  0,
			"new": map[string]any{
				"delays":        []int{1, 10},
				"ints":          []int{1, 4, 7},
				"initialFactor": 2500,
				"perDay":        20,
				"order":         1,
				"bury":          true,
				"separate":      true,
			},
			"lapse": map[string]any{
				"delays":      []int{10},
				"mult":        0,
				"minInt":      1,
				"leechFails":  8,
				"leechAction": 0,
			},
			"rev": map[string]any{
				"perDay":   100,
				"ease4":    1.3,
				"fuzz":     0.05,
				"maxIvl":   36500,
				"ivlFct":   1,
				"bury":     true,
				"minSpace": 1,
			},
			"timer":    0,
			"maxTaken": 60,
			"usn":      0,
			"mod":      now,
			"autoplay": true,
			"replayq":  true,
		},
	}

	encoded := make([]string, 0, 4)
	for _, v := range []any{conf, models, decks, dconf} {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		encoded = append(encoded, string(data))
	}

	_, err := db.Exec(`INSERT INTO col VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		1,        // id
		now,      // crt
		now*1000, // mod
		now*1000, // scm
		11,       // ver
		0,        // dty
		0,        // usn
		0,        // ls
		encoded[0],
		encoded[1],
		encoded[2],
		encoded[3],
		"{}", // tags
	)
	return err
}

// noteType describes the note type: a forward card (term to meaning) and a
// reverse card (meaning to term)
func (g *APKGGenerator) noteType(mod int64) noteTypeConfig {
	flds := make([]fieldConfig, len(noteFields))
	for i, name := range noteFields {
		size := 20
		if name == "Notes" || name == "Example" || name == "Translation" {
			size = 16
		}
		flds[i] = fieldConfig{Name: name, Ord: i, Font: "Arial", Size: size, Media: []string{}}
	}

	return noteTypeConfig{
		ID:   g.modelID,
		Name: "LingoPop Vocabulary (Basic + Reverse)",
		Mod:  mod,
		USN:  -1,
		Did:  g.deckID,
		Req:  [][]any{{0, "all", []int{0}}, {1, "all", []int{2}}},
		Vers: []int{},
		Tags: []string{},
		Flds: flds,
		Tmpls: []templateConfig{
			{Name: "Recognize", Ord: 0, QFmt: frontTemplate, AFmt: backTemplate},
			{Name: "Recall", Ord: 1, QFmt: reverseFrontTemplate, AFmt: reverseBackTemplate},
		},
		LatexPre: `\documentclass[12pt]{article}
\special{papersize=3in,5in}
\usepackage[utf8]{inputenc}
\usepackage{amssymb,amsmath}
\pagestyle{empty}
\setlength{\parindent}{0in}
\begin{document}`,
		LatexPost: `\end{document}`,
		CSS:       cardCSS,
	}
}

const frontTemplate = `<div class="front">
<div class="term">{{Term}}</div>
{{#Image}}<div class="image-container">{{Image}}</div>{{/Image}}
</div>`

const backTemplate = `{{FrontSide}}

<hr id="answer">

<div class="back">
{{#Phonetic}}<div class="phonetic">{{Phonetic}}</div>{{/Phonetic}}
{{#Audio}}<div class="audio">{{Audio}}</div>{{/Audio}}
<div class="meaning">{{Meaning}}</div>
{{#Example}}<div class="example">{{Example}}<br><span class="translation">{{Translation}}</span></div>{{/Example}}
{{#Notes}}<div class="notes">{{Notes}}</div>{{/Notes}}
</div>`

const reverseFrontTemplate = `<div class="front">
<div class="meaning">{{Meaning}}</div>
</div>`

const reverseBackTemplate = `{{FrontSide}}

<hr id="answer">

<div class="back">
<div class="term">{{Term}}</div>
{{#Audio}}<div class="audio">{{Audio}}</div>{{/Audio}}
{{#Image}}<div class="image-container">{{Image}}</div>{{/Image}}
</div>`

const cardCSS = `.card {
  font-family: Arial, sans-serif;
  font-size: 20px;
  text-align: center;
  color: #1e293b;
  background-color: #fffbeb;
}

.front, .back {
  padding: 20px;
}

.image-container {
  margin: 20px auto;
  max-width: 400px;
}

.image-container img {
  max-width: 100%;
  height: auto;
  border-radius: 16px;
}

.term {
  font-size: 34px;
  font-weight: bold;
  color: #7c3aed;
  margin: 20px 0;
}

.phonetic {
  font-family: monospace;
  color: #64748b;
}

.meaning {
  font-size: 22px;
  margin: 20px 0;
}

.example {
  font-size: 18px;
  margin: 15px 0;
}

.translation, .notes {
  font-size: 16px;
  color: #64748b;
  font-style: italic;
}

hr#answer {
  margin: 30px 0;
  border: 0;
  border-top: 1px solid #e2e8f0;
}`

// mediaField returns the note field for a media file, or "" when the file
// was not packaged
func (g *APKGGenerator) mediaField(path string, format string) string {
	if path == "" {
		return ""
	}
	name := filepath.Base(path)
	if _, ok := g.mediaFiles[name]; !ok {
		return ""
	}
	return fmt.Sprintf(format, name)
}

func (g *APKGGenerator) insertNotesAndCards(db *sql.DB) error {
	now := time.Now()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, card := range g.cards {
		// Leave room for two cards per note
		noteID := now.UnixMilli() + int64(i*3)

		fields := strings.Join([]string{
			card.Term,
			card.Phonetic,
			card.Meaning,
			g.mediaField(card.ImageFile, `<img src="%s">`),
			card.Example,
			card.ExampleTranslation,
			g.mediaField(card.AudioFile, "[sound:%s]"),
			card.Notes,
		}, fieldSeparator)

		guid := card.ID
		if guid == "" {
			guid = fmt.Sprintf("lp_%d_%d", now.Unix(), i)
		}

		_, err := tx.Exec(`INSERT INTO notes VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			noteID, guid, g.modelID, now.Unix(), -1, "lingopop", fields, card.Term, 0, 0, "")
		if err != nil {
			return fmt.Errorf("failed to insert note: %w", err)
		}

		for ord := 0; ord < 2; ord++ {
			cardID := noteID + int64(ord) + 1
			// New cards: type, queue and scheduling columns are zero, due is the position
			_, err = tx.Exec(`INSERT INTO cards
				(id, nid, did, ord, mod, usn, type, queue, due, ivl, factor, reps, lapses, left, odue, odid, flags, data)
				VALUES (?, ?, ?, ?, ?, -1, 0, 0, ?, 0, 0, 0, 0, 0, 0, 0, 0, '')`,
				cardID, noteID, g.deckID, ord, now.Unix(), noteID+int64(ord))
			if err != nil {
				return fmt.Errorf("failed to insert card: %w", err)
			}
		}
	}

	return tx.Commit()
}

// copyMediaFiles copies media files into tempDir under numeric names
func (g *APKGGenerator) copyMediaFiles(tempDir string) error {
	for _, card := range g.cards {
		for _, path := range []string{card.ImageFile, card.AudioFile} {
			if path == "" || !fileExists(path) {
				continue
			}
			name := filepath.Base(path)
			if _, exists := g.mediaFiles[name]; exists {
				continue
			}
			target := filepath.Join(tempDir, strconv.Itoa(g.mediaCounter))
			if err := copyFile(path, target); err != nil {
				return fmt.Errorf("failed to copy media file %s: %w", path, err)
			}
			g.mediaFiles[name] = g.mediaCounter
			g.mediaCounter++
		}
	}
	return nil
}

// createMediaMapping writes the number to filename mapping
func (g *APKGGenerator) createMediaMapping(tempDir string) error {
	mapping := make(map[string]string, len(g.mediaFiles))
	for filename, num := range g.mediaFiles {
		mapping[strconv.Itoa(num)] = filename
	}

	data, err := json.Marshal(mapping)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(tempDir, "media"), data, 0644)
}

// createZipPackage zips every file in dir into outputPath
func createZipPackage(dir, outputPath string) error {
	zipFile, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer zipFile.Close()

	archive := zip.NewWriter(zipFile)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := addZipEntry(archive, filepath.Join(dir, entry.Name()), entry.Name()); err != nil {
			return err
		}
	}

	return archive.Close()
}

func addZipEntry(archive *zip.Writer, path, name string) error {
	writer, err := archive.Create(name)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(writer, file)
	return err
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, srcFile)
	return err
}
