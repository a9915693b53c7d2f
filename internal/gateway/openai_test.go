package gateway

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/lingopop/internal/catalog"
	"codeberg.org/snonux/lingopop/internal/term"
)

const analysisJSON = `{"explanation":"A common greeting","phonetic":"/ˈoʊlə/","examples":[{"original":"Hola","translation":"Hello"},{"original":"Hola a todos","translation":"Hello everyone"}],"funUsage":"Say it with a smile 😄","relatedWords":"Buenos días, Qué tal"}`

// fakeOpenAI emulates the OpenAI endpoints the provider uses
func fakeOpenAI(t *testing.T, status int) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var requests []map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		_ = json.Unmarshal(body, &req)
		requests = append(requests, req)

		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"denied","type":"invalid_request_error"}}`))
			return
		}

		switch {
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			content := "Hola means hello."
			if rf, ok := req["response_format"].(map[string]any); ok && rf["type"] == "json_object" {
				content = analysisJSON
			}
			resp := map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion",
				"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(resp)
		case strings.HasSuffix(r.URL.Path, "/images/generations"):
			resp := map[string]any{
				"created": 1,
				"data":    []any{map[string]any{"b64_json": base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'})}},
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(resp)
		case strings.HasSuffix(r.URL.Path, "/audio/speech"):
			pcm := make([]byte, 4)
			binary.LittleEndian.PutUint16(pcm[2:], uint16(16384))
			w.Header().Set("Content-Type", "audio/pcm")
			w.Write(pcm)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestOpenAIAnalyze(t *testing.T) {
	server, requests := fakeOpenAI(t, http.StatusOK)
	o := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/v1"})

	a, err := o.Analyze(context.Background(), "Hello", catalog.MustLookup("en"), catalog.MustLookup("es"))
	require.NoError(t, err)
	assert.Equal(t, "A common greeting", a.Explanation)
	assert.Equal(t, "Hola", a.Examples[0].Original)

	require.Len(t, *requests, 1)
	assert.Equal(t, "gpt-4o-mini", (*requests)[0]["model"])
}

func TestOpenAISynthesizeImage(t *testing.T) {
	server, _ := fakeOpenAI(t, http.StatusOK)
	o := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/v1"})

	ref, err := o.SynthesizeImage(context.Background(), "Hello", "A common greeting")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "data:image/png;base64,"), ref)
}

func TestOpenAISynthesizeImageFallsBack(t *testing.T) {
	server, _ := fakeOpenAI(t, http.StatusBadRequest)
	o := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/v1"})

	ref, err := o.SynthesizeImage(context.Background(), "Hello", "A common greeting")
	require.NoError(t, err)
	assert.Equal(t, PlaceholderImageURL, ref)
}

func TestOpenAISynthesizeSpeech(t *testing.T) {
	server, requests := fakeOpenAI(t, http.StatusOK)
	o := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/v1"})

	buf, err := o.SynthesizeSpeech(context.Background(), "Hola", "Charon")
	require.NoError(t, err)
	assert.Equal(t, 24000, buf.SampleRate)
	assert.Equal(t, []float32{0, 0.5}, buf.Samples)
	assert.Equal(t, "onyx", (*requests)[0]["voice"])
	assert.Equal(t, "pcm", (*requests)[0]["response_format"])
}

func TestOpenAIConverse(t *testing.T) {
	server, requests := fakeOpenAI(t, http.StatusOK)
	o := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/v1"})

	prior := []term.ChatMessage{
		{Role: term.RoleUser, Text: "What does it mean?"},
		{Role: term.RoleAssistant, Text: "It is a greeting."},
	}
	reply, err := o.Converse(context.Background(), prior, "Is it formal?", term.Record{Term: "Hola", Explanation: "A greeting"})
	require.NoError(t, err)
	assert.Equal(t, "Hola means hello.", reply)

	msgs := (*requests)[0]["messages"].([]any)
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "assistant", msgs[2].(map[string]any)["role"])
	assert.Equal(t, "Is it formal?", msgs[3].(map[string]any)["content"])
}

func TestOpenAIAuthError(t *testing.T) {
	server, _ := fakeOpenAI(t, http.StatusUnauthorized)
	o := NewOpenAI(OpenAIConfig{APIKey: "bad-key", BaseURL: server.URL + "/v1"})

	_, err := o.GenerateStory(context.Background(), []string{"a", "b", "c"}, catalog.MustLookup("en"))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindAuth))
	assert.Equal(t, "API auth error: please check your API key configuration.", UserMessage(err))
}

func TestOpenAIAnalyze_Integration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}

	o := NewOpenAI(OpenAIConfig{APIKey: apiKey})
	a, err := o.Analyze(context.Background(), "Hello", catalog.MustLookup("en"), catalog.MustLookup("es"))
	require.NoError(t, err)
	t.Logf("Explanation of 'Hello': %s", a.Explanation)
}
