package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/lingopop/internal/audio"
	"codeberg.org/snonux/lingopop/internal/catalog"
	"codeberg.org/snonux/lingopop/internal/image"
	"codeberg.org/snonux/lingopop/internal/term"
)

const (
	DefaultOpenAITextModel   = openai.GPT4oMini
	DefaultOpenAIImageModel  = openai.CreateImageModelDallE3
	DefaultOpenAISpeechModel = "gpt-4o-mini-tts"
)

// openAIVoices maps the catalog's voice names to OpenAI voices
var openAIVoices = map[string]openai.SpeechVoice{
	"Puck":   openai.VoiceEcho,
	"Kore":   openai.VoiceNova,
	"Charon": openai.VoiceOnyx,
	"Fenrir": openai.VoiceFable,
	"Zephyr": openai.VoiceShimmer,
	"Aoede":  openai.VoiceAlloy,
}

// OpenAIConfig configures the OpenAI provider
type OpenAIConfig struct {
	APIKey      string
	TextModel   string
	ImageModel  string
	SpeechModel string
	BaseURL     string
	Logger      *slog.Logger
}

// OpenAI implements Gateway with the OpenAI API
type OpenAI struct {
	client *openai.Client
	config OpenAIConfig
	logger *slog.Logger
}

// NewOpenAI creates a new OpenAI provider
func NewOpenAI(config OpenAIConfig) *OpenAI {
	if config.TextModel == "" {
		config.TextModel = DefaultOpenAITextModel
	}
	if config.ImageModel == "" {
		config.ImageModel = DefaultOpenAIImageModel
	}
	if config.SpeechModel == "" {
		config.SpeechModel = DefaultOpenAISpeechModel
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	cc := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cc.BaseURL = config.BaseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(cc),
		config: config,
		logger: config.Logger,
	}
}

// Name returns the provider name
func (o *OpenAI) Name() string {
	return ProviderOpenAI
}

// Analyze implements Gateway
func (o *OpenAI) Analyze(ctx context.Context, termText string, native, target catalog.Language) (term.Analysis, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.config.TextModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a language expert helping language learners. Always answer with a single JSON object.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: analysisPrompt(termText, native, target),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return term.Analysis{}, Classify("analyze", err)
	}
	if len(resp.Choices) == 0 {
		return term.Analysis{}, remoteError("analyze", "no data received")
	}
	return parseAnalysis(resp.Choices[0].Message.Content)
}

// SynthesizeImage implements Gateway
func (o *OpenAI) SynthesizeImage(ctx context.Context, termText, contextText string) (string, error) {
	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         imagePrompt(termText, contextText),
		Model:          o.config.ImageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", Classify("image", ctx.Err())
		}
		o.logger.Warn("Image generation failed, using placeholder", "term", termText, "error", err)
		return PlaceholderImageURL, nil
	}
	if len(resp.Data) == 0 {
		return "", nil
	}

	data := resp.Data[0]
	if data.B64JSON != "" {
		raw, err := base64.StdEncoding.DecodeString(data.B64JSON)
		if err != nil {
			o.logger.Warn("Invalid image payload, using placeholder", "term", termText, "error", err)
			return PlaceholderImageURL, nil
		}
		return image.DataURI("image/png", raw), nil
	}
	return data.URL, nil
}

// SynthesizeSpeech implements Gateway
func (o *OpenAI) SynthesizeSpeech(ctx context.Context, text, voice string) (*audio.Buffer, error) {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.config.SpeechModel),
		Input:          text,
		Voice:          openAIVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatPcm,
		Speed:          1.0,
	})
	if err != nil {
		return nil, Classify("speech", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, Classify("speech", fmt.Errorf("failed to read audio: %w", err))
	}
	buf, err := audio.DecodeSpeech(data)
	if err != nil {
		return nil, remoteError("speech", "%v", err)
	}
	return buf, nil
}

// Converse implements Gateway
func (o *OpenAI) Converse(ctx context.Context, prior []term.ChatMessage, message string, record term.Record) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(prior)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: chatInstruction(record),
	})
	for _, m := range prior {
		role := openai.ChatMessageRoleUser
		if m.Role == term.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	reply, err := o.complete(ctx, messages, 300)
	if err != nil {
		return "", Classify("chat", err)
	}
	if reply == "" {
		return "", remoteError("chat", "empty reply")
	}
	return reply, nil
}

// GenerateStory implements Gateway
func (o *OpenAI) GenerateStory(ctx context.Context, terms []string, native catalog.Language) (string, error) {
	story, err := o.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: storyPrompt(terms, native)},
	}, 600)
	if err != nil {
		return "", Classify("story", err)
	}
	if story == "" {
		return "", remoteError("story", "no story received")
	}
	return story, nil
}

// ListModels returns the sorted ids of the models available to the API key
func (o *OpenAI) ListModels(ctx context.Context) ([]string, error) {
	list, err := o.client.ListModels(ctx)
	if err != nil {
		return nil, Classify("models", err)
	}
	names := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		names = append(names, m.ID)
	}
	sort.Strings(names)
	return names, nil
}

func (o *OpenAI) complete(ctx context.Context, messages []openai.ChatCompletionMessage, maxTokens int) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.config.TextModel,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func openAIVoice(voice string) openai.SpeechVoice {
	if v, ok := openAIVoices[voice]; ok {
		return v
	}
	return openai.VoiceAlloy
}
