package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"codeberg.org/snonux/lingopop/internal/audio"
	"codeberg.org/snonux/lingopop/internal/catalog"
	"codeberg.org/snonux/lingopop/internal/image"
	"codeberg.org/snonux/lingopop/internal/term"
)

const (
	DefaultGeminiTextModel   = "gemini-2.5-flash"
	DefaultGeminiImageModel  = "gemini-2.5-flash-image"
	DefaultGeminiSpeechModel = "gemini-2.5-flash-preview-tts"
)

// GeminiConfig configures the Gemini provider
type GeminiConfig struct {
	APIKey      string
	TextModel   string
	ImageModel  string
	SpeechModel string
	BaseURL     string
	Logger      *slog.Logger
}

// Gemini implements Gateway with the Google Gen AI SDK
type Gemini struct {
	client *genai.Client
	config GeminiConfig
	logger *slog.Logger
}

// NewGemini creates a new Gemini provider
func NewGemini(ctx context.Context, config GeminiConfig) (*Gemini, error) {
	if config.APIKey == "" {
		return nil, &Error{Kind: KindConfiguration, Err: fmt.Errorf("Gemini API key is required")}
	}
	if config.TextModel == "" {
		config.TextModel = DefaultGeminiTextModel
	}
	if config.ImageModel == "" {
		config.ImageModel = DefaultGeminiImageModel
	}
	if config.SpeechModel == "" {
		config.SpeechModel = DefaultGeminiSpeechModel
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	cc := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		cc.HTTPOptions.BaseURL = config.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{client: client, config: config, logger: config.Logger}, nil
}

// Name returns the provider name
func (g *Gemini) Name() string {
	return ProviderGemini
}

var analysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"explanation": {Type: genai.TypeString},
		"phonetic":    {Type: genai.TypeString},
		"examples": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"original":    {Type: genai.TypeString},
					"translation": {Type: genai.TypeString},
				},
			},
		},
		"funUsage":     {Type: genai.TypeString},
		"relatedWords": {Type: genai.TypeString},
	},
	Required: []string{"explanation", "examples", "funUsage", "relatedWords"},
}

// Analyze implements Gateway
func (g *Gemini) Analyze(ctx context.Context, termText string, native, target catalog.Language) (term.Analysis, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.config.TextModel,
		genai.Text(analysisPrompt(termText, native, target)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   analysisSchema,
		})
	if err != nil {
		return term.Analysis{}, Classify("analyze", err)
	}
	return parseAnalysis(resp.Text())
}

// SynthesizeImage implements Gateway
func (g *Gemini) SynthesizeImage(ctx context.Context, termText, contextText string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.config.ImageModel,
		genai.Text(imagePrompt(termText, contextText)), nil)
	if err != nil {
		if ctx.Err() != nil {
			return "", Classify("image", ctx.Err())
		}
		g.logger.Warn("Image generation failed, using placeholder", "term", termText, "error", err)
		return PlaceholderImageURL, nil
	}

	if blob := firstInlineData(resp); blob != nil {
		return image.DataURI(blob.MIMEType, blob.Data), nil
	}
	return "", nil
}

// SynthesizeSpeech implements Gateway
func (g *Gemini) SynthesizeSpeech(ctx context.Context, text, voice string) (*audio.Buffer, error) {
	if voice == "" {
		voice = catalog.DefaultVoice
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.config.SpeechModel,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{string(genai.ModalityAudio)},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
				},
			},
		})
	if err != nil {
		return nil, Classify("speech", err)
	}

	blob := firstInlineData(resp)
	if blob == nil || len(blob.Data) == 0 {
		return nil, remoteError("speech", "no audio generated")
	}
	buf, err := audio.DecodeSpeech(blob.Data)
	if err != nil {
		return nil, remoteError("speech", "%v", err)
	}
	return buf, nil
}

// Converse implements Gateway
func (g *Gemini) Converse(ctx context.Context, prior []term.ChatMessage, message string, record term.Record) (string, error) {
	history := make([]*genai.Content, 0, len(prior))
	for _, m := range prior {
		role := genai.Role(genai.RoleUser)
		if m.Role == term.RoleAssistant {
			role = genai.RoleModel
		}
		history = append(history, genai.NewContentFromText(m.Text, role))
	}

	chat, err := g.client.Chats.Create(ctx, g.config.TextModel, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(chatInstruction(record), genai.RoleUser),
	}, history)
	if err != nil {
		return "", Classify("chat", err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", Classify("chat", err)
	}
	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		return "", remoteError("chat", "empty reply")
	}
	return reply, nil
}

// GenerateStory implements Gateway
func (g *Gemini) GenerateStory(ctx context.Context, terms []string, native catalog.Language) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.config.TextModel,
		genai.Text(storyPrompt(terms, native)), nil)
	if err != nil {
		return "", Classify("story", err)
	}
	story := strings.TrimSpace(resp.Text())
	if story == "" {
		return "", remoteError("story", "no story received")
	}
	return story, nil
}

// ListModels returns the names of the models available to the API key
func (g *Gemini) ListModels(ctx context.Context) ([]string, error) {
	var names []string
	for m, err := range g.client.Models.All(ctx) {
		if err != nil {
			return nil, Classify("models", err)
		}
		names = append(names, strings.TrimPrefix(m.Name, "models/"))
	}
	return names, nil
}

func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData
		}
	}
	return nil
}
