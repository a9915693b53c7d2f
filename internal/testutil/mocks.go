package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"codeberg.org/snonux/lingopop/internal/audio"
	"codeberg.org/snonux/lingopop/internal/catalog"
	"codeberg.org/snonux/lingopop/internal/term"
)

// MockGateway mocks the AI gateway for testing
type MockGateway struct {
	// Analyses maps a term to its analysis. Unknown terms get SampleAnalysis.
	Analyses   map[string]term.Analysis
	AnalyzeErr error
	// AnalyzeGate, when set, blocks Analyze until it is closed or receives
	// a value
	AnalyzeGate chan struct{}

	// ImageRef is returned by SynthesizeImage, ImageErr overrides it
	ImageRef string
	ImageErr error
	// ImageGate, when set, blocks SynthesizeImage until it is closed or
	// receives a value
	ImageGate chan struct{}

	Speech    *audio.Buffer
	SpeechErr error

	Reply       string
	ConverseErr error
	// ConverseGate blocks Converse like AnalyzeGate blocks Analyze
	ConverseGate chan struct{}

	Story    string
	StoryErr error

	mu    sync.Mutex
	calls []string
}

// Name returns the mock provider name
func (m *MockGateway) Name() string {
	return "mock"
}

// Analyze mocks term analysis
func (m *MockGateway) Analyze(ctx context.Context, termText string, native, target catalog.Language) (term.Analysis, error) {
	m.record(fmt.Sprintf("Analyze: %s (%s->%s)", termText, native.Code, target.Code))

	if err := wait(ctx, m.AnalyzeGate); err != nil {
		return term.Analysis{}, err
	}

	if m.AnalyzeErr != nil {
		return term.Analysis{}, m.AnalyzeErr
	}
	if a, ok := m.Analyses[termText]; ok {
		return a, nil
	}
	return SampleAnalysis(termText), nil
}

// SynthesizeImage mocks illustration generation
func (m *MockGateway) SynthesizeImage(ctx context.Context, termText, contextText string) (string, error) {
	m.record(fmt.Sprintf("Image: %s", termText))

	if err := wait(ctx, m.ImageGate); err != nil {
		return "", err
	}
	if m.ImageErr != nil {
		return "", m.ImageErr
	}
	if m.ImageRef != "" {
		return m.ImageRef, nil
	}
	return "data:image/png;base64,iVBORw0KGgo=", nil
}

// SynthesizeSpeech mocks text-to-speech
func (m *MockGateway) SynthesizeSpeech(ctx context.Context, text, voice string) (*audio.Buffer, error) {
	m.record(fmt.Sprintf("Speech: %s (voice=%s)", text, voice))

	if m.SpeechErr != nil {
		return nil, m.SpeechErr
	}
	if m.Speech != nil {
		return m.Speech, nil
	}
	return &audio.Buffer{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
		Samples:    []float32{0, 0.25, -0.25},
	}, nil
}

// Converse mocks the tutor chat
func (m *MockGateway) Converse(ctx context.Context, prior []term.ChatMessage, message string, record term.Record) (string, error) {
	m.record(fmt.Sprintf("Chat: %s (history=%d, term=%s)", message, len(prior), record.Term))

	if err := wait(ctx, m.ConverseGate); err != nil {
		return "", err
	}

	if m.ConverseErr != nil {
		return "", m.ConverseErr
	}
	if m.Reply != "" {
		return m.Reply, nil
	}
	return "mock reply to " + message, nil
}

// GenerateStory mocks story generation
func (m *MockGateway) GenerateStory(ctx context.Context, terms []string, native catalog.Language) (string, error) {
	m.record(fmt.Sprintf("Story: %s (%s)", strings.Join(terms, ","), native.Code))

	if m.StoryErr != nil {
		return "", m.StoryErr
	}
	if m.Story != "" {
		return m.Story, nil
	}

	highlighted := make([]string, len(terms))
	for i, t := range terms {
		highlighted[i] = "**" + t + "**"
	}
	return "Once upon a time " + strings.Join(highlighted, " and ") + ".", nil
}

// Calls returns the recorded calls in order
func (m *MockGateway) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount counts recorded calls starting with prefix
func (m *MockGateway) CallCount(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (m *MockGateway) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

// MockPlayer records played buffers
type MockPlayer struct {
	Err error

	mu     sync.Mutex
	played []*audio.Buffer
}

// Play records buf
func (p *MockPlayer) Play(ctx context.Context, buf *audio.Buffer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	p.played = append(p.played, buf)
	return nil
}

// Played returns how many buffers were played
func (p *MockPlayer) Played() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.played)
}

// wait blocks on gate, if any, until it opens or ctx ends
func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
