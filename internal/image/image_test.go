package image

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestParseDataURI(t *testing.T) {
	tests := []struct {
		name     string
		ref      string
		wantMIME string
		wantData string
		wantErr  bool
	}{
		{"base64 png", "data:image/png;base64,aGVsbG8=", "image/png", "hello", false},
		{"plain text", "data:,hi%20there", "text/plain", "hi there", false},
		{"no payload", "data:image/png;base64", "", "", true},
		{"bad base64", "data:image/png;base64,!!!", "", "", true},
		{"not a data uri", "https://example.com/a.png", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mimeType, data, err := ParseDataURI(tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMIME, mimeType)
			assert.Equal(t, tt.wantData, string(data))
		})
	}
}

func TestDataURIRoundTrip(t *testing.T) {
	ref := DataURI("image/jpeg", []byte{1, 2, 3})
	require.True(t, IsDataURI(ref))

	mimeType, data, err := ParseDataURI(ref)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)
	assert.Equal(t, []byte{1, 2, 3}, data)

	assert.Equal(t, "data:image/png;base64,", DataURI("", nil), "empty MIME type defaults to image/png")
}

func TestPlaceholder(t *testing.T) {
	assert.True(t, IsPlaceholder(PlaceholderURL))
	assert.False(t, IsDataURI(PlaceholderURL))
}

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"image/jpeg": ".jpg",
		"image/webp": ".webp",
		"image/png":  ".png",
		"":           ".png",
	}
	for mimeType, want := range cases {
		assert.Equal(t, want, Extension(mimeType), "Extension(%q)", mimeType)
	}
}

func TestFetcherDataURI(t *testing.T) {
	f := NewFetcher(nil)
	img, err := f.Decode(context.Background(), DataURI("image/png", pngBytes(t)))
	require.NoError(t, err)

	b := img.Bounds()
	assert.Equal(t, 2, b.Dx())
	assert.Equal(t, 3, b.Dy())
}

func TestFetcherHTTP(t *testing.T) {
	payload := pngBytes(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer server.Close()

	f := NewFetcher(nil)
	data, mimeType, err := f.Fetch(context.Background(), server.URL+"/img")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, payload, data)

	_, _, err = f.Fetch(context.Background(), server.URL+"/missing")
	assert.Error(t, err)
}

func TestFetcherSizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 100))
	}))
	defer server.Close()

	f := NewFetcher(&FetchOptions{MaxSizeBytes: 50})
	_, _, err := f.Fetch(context.Background(), server.URL)
	assert.Error(t, err, "URL over the limit")

	_, _, err = f.Fetch(context.Background(), DataURI("image/png", make([]byte, 51)))
	assert.Error(t, err, "data URI over the limit")
}

func TestFetcherSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "media")
	f := NewFetcher(nil)

	path, err := f.Save(context.Background(), DataURI("image/jpeg", []byte{0xFF, 0xD8}), dir, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello.jpg", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8}, data)

	_, err = f.Save(context.Background(), "", dir, "empty")
	assert.Error(t, err)
}
