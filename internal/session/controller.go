package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"codeberg.org/snonux/lingopop/internal/audio"
	"codeberg.org/snonux/lingopop/internal/catalog"
	"codeberg.org/snonux/lingopop/internal/gateway"
	"codeberg.org/snonux/lingopop/internal/library"
	"codeberg.org/snonux/lingopop/internal/study"
	"codeberg.org/snonux/lingopop/internal/term"
)

// Player plays decoded speech
type Player interface {
	Play(ctx context.Context, buf *audio.Buffer) error
}

// Options configures a Controller
type Options struct {
	Gateway gateway.Gateway
	Store   library.Store
	Logger  *slog.Logger

	// Player defaults to the process-wide audio context, opened on first use
	Player Player

	// Settings pre-fill the onboarding screen
	Settings term.Settings
}

type backfill struct {
	cancel context.CancelFunc
}

// Controller owns the session state
type Controller struct {
	gw     gateway.Gateway
	store  library.Store
	logger *slog.Logger
	player Player
	speech *audio.Cache

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	version    uint64
	screen     Screen
	settings   term.Settings
	configured bool
	query      string
	loading    bool
	errMsg     string
	active     *term.Record
	chat       []term.ChatMessage
	chatBusy   bool
	view       uint64 // increases whenever a result view opens or closes
	lib        library.Library
	story      string
	storyBusy  bool
	storyErr   string
	deck       *study.Deck

	// Background image generation per record id
	backfills map[string]*backfill

	subMu sync.Mutex
	subs  map[int]func(State)
	subID int
}

// New creates a controller and loads the saved library from the store
func New(ctx context.Context, opts Options) (*Controller, error) {
	if opts.Gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("library store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	lib, err := opts.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load library: %w", err)
	}

	settings := opts.Settings
	if settings.Native.Code == "" {
		settings.Native = catalog.MustLookup("en")
	}
	if settings.Target.Code == "" {
		settings.Target = catalog.MustLookup("zh")
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		gw:        opts.Gateway,
		store:     opts.Store,
		logger:    logger,
		player:    opts.Player,
		speech:    audio.NewCache(32),
		ctx:       rootCtx,
		cancel:    cancel,
		screen:    ScreenOnboarding,
		settings:  settings,
		lib:       lib,
		backfills: make(map[string]*backfill),
		subs:      make(map[int]func(State)),
	}

	logger.Info("Session started", "provider", opts.Gateway.Name(), "saved_words", lib.Len())
	return c, nil
}

// Subscribe registers fn for every published state and calls it once with
// the current state. The returned function unregisters it.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.subMu.Lock()
	id := c.subID
	c.subID++
	c.subs[id] = fn
	c.subMu.Unlock()

	fn(c.State())

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// State returns a snapshot of the session
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// changed bumps the version and returns the snapshot to publish. Must be
// called with c.mu held.
func (c *Controller) changed() State {
	c.version++
	return c.snapshotLocked()
}

func (c *Controller) publish(s State) {
	c.subMu.Lock()
	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

func (c *Controller) snapshotLocked() State {
	s := State{
		Version:    c.version,
		Screen:     c.screen,
		Settings:   c.settings,
		Configured: c.configured,
		Query:      c.query,
		Loading:    c.loading,
		Error:      c.errMsg,
		ChatBusy:   c.chatBusy,
		Library:    c.lib.Records(),
		Story:      c.story,
		StoryBusy:  c.storyBusy,
		StoryError: c.storyErr,
	}
	if c.active != nil {
		r := c.active.Clone()
		s.Active = &r
		s.ActiveSaved = c.lib.Contains(r.ID)
	}
	if len(c.chat) > 0 {
		s.Chat = append([]term.ChatMessage(nil), c.chat...)
	}
	if c.story != "" {
		s.StoryTerms = HighlightedTerms(c.story)
	}
	if c.deck != nil {
		card := c.deck.Card()
		rec := c.deck.Current()
		s.Card = &card
		s.CardRecord = &rec
		s.CardIndex = c.deck.Index()
		s.CardCount = c.deck.Len()
		s.CardFace = c.deck.Face()
	}
	return s
}

// ConfirmSettings stores the languages and moves from onboarding to search
func (c *Controller) ConfirmSettings(native, target catalog.Language) error {
	settings := term.Settings{Native: native, Target: target}
	if err := settings.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.screen != ScreenOnboarding {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.settings = settings
	c.configured = true
	c.screen = ScreenSearch
	s := c.changed()
	c.mu.Unlock()

	c.logger.Info("Languages confirmed", "native", native.Code, "target", target.Code)
	c.publish(s)
	return nil
}

// SetQuery records the text in the search box
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	if c.query == q || c.loading {
		c.mu.Unlock()
		return
	}
	c.query = q
	s := c.changed()
	c.mu.Unlock()
	c.publish(s)
}

// Search analyzes query and shows the result as soon as the analysis is
// available. The illustration follows in the background. On failure the
// session stays on the search screen with a user-facing error in State.Error.
func (c *Controller) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)

	c.mu.Lock()
	switch {
	case query == "":
		c.mu.Unlock()
		return ErrEmptyQuery
	case !c.configured:
		c.mu.Unlock()
		return ErrNotConfigured
	case c.loading:
		c.mu.Unlock()
		return ErrSearchInFlight
	case c.screen != ScreenSearch:
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.loading = true
	c.errMsg = ""
	c.active = nil
	c.query = query
	native, target := c.settings.Native, c.settings.Target
	s := c.changed()
	c.mu.Unlock()
	c.publish(s)

	c.logger.Info("Searching", "term", query, "native", native.Code, "target", target.Code)
	analysis, err := c.gw.Analyze(ctx, query, native, target)

	c.mu.Lock()
	c.loading = false
	c.query = ""
	if err != nil {
		c.errMsg = gateway.UserMessage(err)
		// The user may have navigated away while waiting
		if c.active != nil {
			c.closeResultLocked()
		}
		c.deck = nil
		c.screen = ScreenSearch
		s := c.changed()
		c.mu.Unlock()
		c.logger.Error("Analysis failed", "term", query, "error", err)
		c.publish(s)
		return err
	}
	if c.screen != ScreenSearch {
		// The user left the search screen while waiting
		s := c.changed()
		c.mu.Unlock()
		c.logger.Info("Discarding analysis, search screen was left", "term", query)
		c.publish(s)
		return nil
	}

	rec := term.NewRecord(query, analysis)
	c.openResultLocked(rec)
	c.startBackfillLocked(rec)
	s = c.changed()
	c.mu.Unlock()

	c.publish(s)
	return nil
}

// openResultLocked shows rec with a fresh chat
func (c *Controller) openResultLocked(rec term.Record) {
	c.active = &rec
	c.chat = nil
	c.chatBusy = false
	c.view++
	c.screen = ScreenResult
}

// closeResultLocked discards the active record, its chat and its backfill
func (c *Controller) closeResultLocked() {
	if c.active != nil {
		if b, ok := c.backfills[c.active.ID]; ok {
			b.cancel()
			delete(c.backfills, c.active.ID)
		}
	}
	c.active = nil
	c.chat = nil
	c.chatBusy = false
	c.view++
}

// startBackfillLocked generates the record's illustration in the background
func (c *Controller) startBackfillLocked(rec term.Record) {
	ctx, cancel := context.WithCancel(c.ctx)
	b := &backfill{cancel: cancel}
	if prev, ok := c.backfills[rec.ID]; ok {
		prev.cancel()
	}
	c.backfills[rec.ID] = b

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		ref, err := c.gw.SynthesizeImage(ctx, rec.Term, rec.Explanation)
		if err != nil {
			c.logger.Warn("Image generation failed", "term", rec.Term, "error", err)
		}
		c.applyImage(rec.ID, ref, b)
	}()
}

// applyImage patches the illustration into the record if it is still shown
func (c *Controller) applyImage(id, ref string, b *backfill) {
	c.mu.Lock()
	if c.backfills[id] == b {
		delete(c.backfills, id)
	}
	if ref == "" || c.screen != ScreenResult || c.active == nil || c.active.ID != id {
		c.mu.Unlock()
		if ref != "" {
			c.logger.Debug("Dropping stale image", "id", id)
		}
		return
	}

	c.active.ImageURL = ref
	if next, ok := c.lib.PatchImage(id, ref); ok {
		if err := c.store.Save(c.ctx, next); err != nil {
			c.logger.Error("Failed to save image to library", "id", id, "error", err)
		} else {
			c.lib = next
		}
	}
	s := c.changed()
	c.mu.Unlock()

	c.publish(s)
}

// Back leaves the result screen for the search screen
func (c *Controller) Back() error {
	c.mu.Lock()
	if c.screen != ScreenResult {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.closeResultLocked()
	c.errMsg = ""
	c.screen = ScreenSearch
	s := c.changed()
	c.mu.Unlock()

	c.publish(s)
	return nil
}

// OpenLibrary shows the saved words, from the search or result screen
func (c *Controller) OpenLibrary() error {
	c.mu.Lock()
	switch c.screen {
	case ScreenResult:
		c.closeResultLocked()
	case ScreenSearch:
	default:
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.screen = ScreenLibrary
	c.errMsg = ""
	c.story = ""
	c.storyErr = ""
	s := c.changed()
	c.mu.Unlock()

	c.publish(s)
	return nil
}

// BackToSearch leaves the library for the search screen
func (c *Controller) BackToSearch() error {
	c.mu.Lock()
	if c.screen != ScreenLibrary {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.screen = ScreenSearch
	s := c.changed()
	c.mu.Unlock()

	c.publish(s)
	return nil
}

// SelectSaved opens a saved record on the result screen without a new query
func (c *Controller) SelectSaved(id string) error {
	c.mu.Lock()
	if c.screen != ScreenLibrary {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	rec, ok := c.lib.Get(id)
	if !ok {
		c.mu.Unlock()
		return ErrUnknownRecord
	}
	c.openResultLocked(rec)
	s := c.changed()
	c.mu.Unlock()

	c.publish(s)
	return nil
}

// OpenStudy starts flashcards over the library
func (c *Controller) OpenStudy() error {
	c.mu.Lock()
	if c.screen != ScreenLibrary {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	deck, err := study.NewDeck(c.lib.Records())
	if err != nil {
		c.mu.Unlock()
		return ErrEmptyLibrary
	}
	c.deck = deck
	c.screen = ScreenStudy
	s := c.changed()
	c.mu.Unlock()

	c.publish(s)
	return nil
}

// ExitStudy returns from flashcards to the library
func (c *Controller) ExitStudy() error {
	c.mu.Lock()
	if c.screen != ScreenStudy {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.deck = nil
	c.screen = ScreenLibrary
	s := c.changed()
	c.mu.Unlock()

	c.publish(s)
	return nil
}

// NextCard advances to the next flashcard
func (c *Controller) NextCard() error {
	return c.withDeck((*study.Deck).Next)
}

// PrevCard goes back to the previous flashcard
func (c *Controller) PrevCard() error {
	return c.withDeck((*study.Deck).Prev)
}

// FlipCard turns the current flashcard over
func (c *Controller) FlipCard() error {
	return c.withDeck((*study.Deck).Flip)
}

func (c *Controller) withDeck(fn func(*study.Deck)) error {
	c.mu.Lock()
	if c.screen != ScreenStudy || c.deck == nil {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	fn(c.deck)
	s := c.changed()
	c.mu.Unlock()

	c.publish(s)
	return nil
}

// ToggleSave removes rec from the library if saved, otherwise saves it first
// in line. The library is written through before the change is adopted; on
// a failed write nothing changes and the error is returned.
func (c *Controller) ToggleSave(rec term.Record) (bool, error) {
	c.mu.Lock()
	next, saved := c.lib.Toggle(rec)
	if err := c.store.Save(c.ctx, next); err != nil {
		c.mu.Unlock()
		c.logger.Error("Failed to save library", "error", err)
		return c.IsSaved(rec.ID), fmt.Errorf("failed to save library: %w", err)
	}
	c.lib = next
	s := c.changed()
	c.mu.Unlock()

	c.logger.Info("Library updated", "term", rec.Term, "saved", saved, "size", next.Len())
	c.publish(s)
	return saved, nil
}

// ToggleSaveActive toggles the record shown on the result screen
func (c *Controller) ToggleSaveActive() (bool, error) {
	c.mu.Lock()
	if c.screen != ScreenResult || c.active == nil {
		c.mu.Unlock()
		return false, ErrInvalidTransition
	}
	rec := c.active.Clone()
	c.mu.Unlock()
	return c.ToggleSave(rec)
}

// Remove deletes a saved record
func (c *Controller) Remove(id string) error {
	c.mu.Lock()
	next, ok := c.lib.Remove(id)
	if !ok {
		c.mu.Unlock()
		return ErrUnknownRecord
	}
	if err := c.store.Save(c.ctx, next); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to save library: %w", err)
	}
	c.lib = next
	s := c.changed()
	c.mu.Unlock()

	c.publish(s)
	return nil
}

// IsSaved reports whether id is in the library
func (c *Controller) IsSaved(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lib.Contains(id)
}

// Chat sends a message about the record on the result screen. A failed
// reply is replaced by a fallback message and never returned as an error.
func (c *Controller) Chat(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	if c.screen != ScreenResult || c.active == nil {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	if c.chatBusy {
		c.mu.Unlock()
		return ErrChatBusy
	}
	prior := append([]term.ChatMessage(nil), c.chat...)
	c.chat = append(c.chat, term.ChatMessage{Role: term.RoleUser, Text: text})
	c.chatBusy = true
	rec := c.active.Clone()
	view := c.view
	s := c.changed()
	c.mu.Unlock()
	c.publish(s)

	reply, err := c.gw.Converse(ctx, prior, text, rec)
	if err != nil {
		c.logger.Warn("Chat reply failed", "term", rec.Term, "error", err)
		reply = chatFallbackReply
	}

	c.mu.Lock()
	if c.view != view {
		// The result view closed; its transcript is gone
		c.mu.Unlock()
		return nil
	}
	c.chat = append(c.chat, term.ChatMessage{Role: term.RoleAssistant, Text: reply})
	c.chatBusy = false
	s = c.changed()
	c.mu.Unlock()

	c.publish(s)
	return nil
}

// GenerateStory writes a story from every saved word. Libraries below
// StoryThreshold are rejected before any request is made.
func (c *Controller) GenerateStory(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.screen != ScreenLibrary {
		c.mu.Unlock()
		return "", ErrInvalidTransition
	}
	if err := CheckStoryThreshold(c.lib.Len()); err != nil {
		c.storyErr = err.Error()
		s := c.changed()
		c.mu.Unlock()
		c.publish(s)
		return "", err
	}
	if c.storyBusy {
		c.mu.Unlock()
		return "", ErrStoryBusy
	}
	c.storyBusy = true
	c.storyErr = ""
	terms := c.lib.Terms()
	native := c.settings.Native
	s := c.changed()
	c.mu.Unlock()
	c.publish(s)

	story, err := c.gw.GenerateStory(ctx, terms, native)

	c.mu.Lock()
	c.storyBusy = false
	if err != nil {
		c.storyErr = storyFailedMessage
	} else {
		c.story = story
	}
	s = c.changed()
	c.mu.Unlock()
	c.publish(s)

	if err != nil {
		c.logger.Error("Story generation failed", "error", err)
		return "", err
	}
	return story, nil
}

// Speak pronounces text with the target language's voice
func (c *Controller) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	voice := catalog.VoiceFor(c.settings.Target)
	c.mu.Unlock()

	buf, ok := c.speech.Get(text, voice)
	if !ok {
		var err error
		buf, err = c.gw.SynthesizeSpeech(ctx, text, voice)
		if err != nil {
			c.logger.Error("Speech synthesis failed", "text", text, "error", err)
			return err
		}
		c.speech.Put(text, voice, buf)
	}

	player, err := c.audioPlayer()
	if err != nil {
		return err
	}
	if err := player.Play(ctx, buf); err != nil {
		c.logger.Error("Playback failed", "error", err)
		return err
	}
	return nil
}

func (c *Controller) audioPlayer() (Player, error) {
	if c.player != nil {
		return c.player, nil
	}
	shared, err := audio.Shared()
	if err != nil {
		return nil, err
	}
	return shared, nil
}

// Wait blocks until background work has finished
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels background work and waits for it
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
}
