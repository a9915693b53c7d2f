package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/snonux/lingopop/internal/audio"
	"codeberg.org/snonux/lingopop/internal/catalog"
	"codeberg.org/snonux/lingopop/internal/image"
	"codeberg.org/snonux/lingopop/internal/term"
)

// PlaceholderImageURL is returned when image synthesis fails remotely
const PlaceholderImageURL = image.PlaceholderURL

// Gateway exposes the capabilities of the remote model
type Gateway interface {
	// Analyze explains term in the native language with examples in the target language
	Analyze(ctx context.Context, termText string, native, target catalog.Language) (term.Analysis, error)

	// SynthesizeImage returns a data URI or URL illustrating term. A remote
	// failure yields PlaceholderImageURL; an empty reference means no image.
	SynthesizeImage(ctx context.Context, termText, contextText string) (string, error)

	// SynthesizeSpeech speaks text with the given voice
	SynthesizeSpeech(ctx context.Context, text, voice string) (*audio.Buffer, error)

	// Converse answers message, given the prior transcript and the record being discussed
	Converse(ctx context.Context, prior []term.ChatMessage, message string, record term.Record) (string, error)

	// GenerateStory writes a short story using every term, marking them as **term**
	GenerateStory(ctx context.Context, terms []string, native catalog.Language) (string, error)

	// Name returns the provider name
	Name() string
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config selects and configures a provider
type Config struct {
	Provider string // "gemini" or "openai"

	GeminiAPIKey string
	OpenAIAPIKey string

	// Model overrides; empty selects the provider default
	TextModel   string
	ImageModel  string
	SpeechModel string

	// BaseURL overrides the provider endpoint
	BaseURL string

	Timeout           time.Duration // per call
	Retries           int           // extra attempts for transient failures
	RequestsPerSecond float64
	Burst             int
	BreakerFailures   uint32        // consecutive transient failures that open the breaker
	BreakerCooldown   time.Duration // time the breaker stays open

	Logger *slog.Logger
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderGemini,
		Timeout:           60 * time.Second,
		Retries:           1,
		RequestsPerSecond: 2,
		Burst:             4,
		BreakerFailures:   5,
		BreakerCooldown:   30 * time.Second,
	}
}

// New creates the configured provider wrapped with timeouts, retries, a
// circuit breaker and rate limiting. A missing API key does not fail here:
// the returned gateway reports a configuration error on every call.
func New(ctx context.Context, cfg *Config) (Gateway, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var provider Gateway
	switch cfg.Provider {
	case "", ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			provider = unconfigured{name: ProviderGemini, err: &Error{
				Kind: KindConfiguration,
				Err:  fmt.Errorf("Gemini API key not found. Set GEMINI_API_KEY environment variable or configure gemini.api_key in ~/.lingopop.yaml"),
			}}
			break
		}
		g, err := NewGemini(ctx, GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			TextModel:   cfg.TextModel,
			ImageModel:  cfg.ImageModel,
			SpeechModel: cfg.SpeechModel,
			BaseURL:     cfg.BaseURL,
			Logger:      logger,
		})
		if err != nil {
			return nil, err
		}
		provider = g

	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			provider = unconfigured{name: ProviderOpenAI, err: &Error{
				Kind: KindConfiguration,
				Err:  fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure openai.api_key in ~/.lingopop.yaml"),
			}}
			break
		}
		provider = NewOpenAI(OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			TextModel:   cfg.TextModel,
			ImageModel:  cfg.ImageModel,
			SpeechModel: cfg.SpeechModel,
			BaseURL:     cfg.BaseURL,
			Logger:      logger,
		})

	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}

	return NewResilient(provider, cfg, logger), nil
}

// unconfigured fails every call with the same configuration error
type unconfigured struct {
	name string
	err  *Error
}

func (u unconfigured) Analyze(ctx context.Context, termText string, native, target catalog.Language) (term.Analysis, error) {
	return term.Analysis{}, u.fail("analyze")
}

func (u unconfigured) SynthesizeImage(ctx context.Context, termText, contextText string) (string, error) {
	return "", u.fail("image")
}

func (u unconfigured) SynthesizeSpeech(ctx context.Context, text, voice string) (*audio.Buffer, error) {
	return nil, u.fail("speech")
}

func (u unconfigured) Converse(ctx context.Context, prior []term.ChatMessage, message string, record term.Record) (string, error) {
	return "", u.fail("chat")
}

func (u unconfigured) GenerateStory(ctx context.Context, terms []string, native catalog.Language) (string, error) {
	return "", u.fail("story")
}

func (u unconfigured) Name() string {
	return u.name
}

func (u unconfigured) fail(op string) error {
	return &Error{Kind: u.err.Kind, Op: op, Err: u.err.Err}
}
