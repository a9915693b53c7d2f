package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/lingopop/internal/catalog"
)

func geminiResponse(part map[string]any) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{part},
				},
			},
		},
	}
}

func fakeGemini(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var resp map[string]any
		switch {
		case strings.Contains(r.URL.Path, DefaultGeminiSpeechModel):
			pcm := []byte{0x00, 0x40, 0x00, 0xC0} // 16384, -16384
			resp = geminiResponse(map[string]any{
				"inlineData": map[string]any{"mimeType": "audio/pcm", "data": base64.StdEncoding.EncodeToString(pcm)},
			})
		case strings.Contains(r.URL.Path, DefaultGeminiImageModel):
			resp = geminiResponse(map[string]any{
				"inlineData": map[string]any{"mimeType": "image/png", "data": base64.StdEncoding.EncodeToString([]byte("png"))},
			})
		case strings.Contains(r.URL.Path, DefaultGeminiTextModel):
			resp = geminiResponse(map[string]any{"text": analysisJSON})
		default:
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiConfig{})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConfiguration))
}

func TestGeminiAnalyze(t *testing.T) {
	server := fakeGemini(t)
	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	a, err := g.Analyze(context.Background(), "Hello", catalog.MustLookup("en"), catalog.MustLookup("es"))
	require.NoError(t, err)
	assert.Equal(t, "A common greeting", a.Explanation)
	assert.Len(t, a.Examples, 2)
}

func TestGeminiSynthesizeImage(t *testing.T) {
	server := fakeGemini(t)
	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	ref, err := g.SynthesizeImage(context.Background(), "Hello", "A common greeting")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte("png")), ref)
}

func TestGeminiSynthesizeSpeech(t *testing.T) {
	server := fakeGemini(t)
	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	buf, err := g.SynthesizeSpeech(context.Background(), "Hola", "Charon")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.5}, buf.Samples)
	assert.Equal(t, 24000, buf.SampleRate)
}

func TestGeminiAnalyze_Integration(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: GEMINI_API_KEY not set")
	}

	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: apiKey})
	require.NoError(t, err)
	a, err := g.Analyze(context.Background(), "Hello", catalog.MustLookup("en"), catalog.MustLookup("es"))
	require.NoError(t, err)
	t.Logf("Explanation of 'Hello': %s", a.Explanation)
}
